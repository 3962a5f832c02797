package checkout

import (
	"context"
	"errors"
)

// ErrSessionInvalid is reported through SubmitResult when neither
// validation nor refresh produced a usable session.
var ErrSessionInvalid = errors.New("invalid session")

// ValidateSession asks the identity provider for the current session. A
// missing or expired session flips the controller to unauthenticated and
// clears the held token; a live one refreshes the activity clock.
func (c *Controller) ValidateSession(ctx context.Context) bool {
	session, err := c.idp.GetSession(ctx)
	now := c.now()

	if err != nil || session == nil || session.ExpiredAt(now) {
		c.mu.Lock()
		c.state.IsAuthenticated = false
		c.state.SessionToken = ""
		c.mu.Unlock()

		details := "no session"
		switch {
		case err != nil:
			details = err.Error()
		case session != nil:
			details = "session expired"
		}
		c.audit.Append("session_validation", false, details)
		return false
	}

	c.mu.Lock()
	c.state.IsAuthenticated = true
	c.state.SessionToken = session.AccessToken
	c.state.LastActivity = now
	c.state.RetryCount = 0
	if session.UserID != "" {
		c.userID = session.UserID
	}
	c.mu.Unlock()

	c.audit.Append("session_validation", true, "")
	return true
}

// RefreshSession requests a new token from the identity provider. On
// failure the controller state is left unchanged.
func (c *Controller) RefreshSession(ctx context.Context) bool {
	session, err := c.idp.RefreshSession(ctx)
	if err != nil || session == nil {
		details := "no session returned"
		if err != nil {
			details = err.Error()
		}
		c.audit.Append("session_refresh", false, details)
		return false
	}

	c.mu.Lock()
	c.state.IsAuthenticated = true
	c.state.SessionToken = session.AccessToken
	c.state.RetryCount = 0
	c.state.LastActivity = c.now()
	if session.UserID != "" {
		c.userID = session.UserID
	}
	c.mu.Unlock()

	c.audit.Append("session_refresh", true, "")
	return true
}

// Logout clears the in-memory auth state and draft, erases both persisted
// keys, then logs the logout; the freshly cleared log store ends up
// holding exactly that one entry.
func (c *Controller) Logout() {
	c.mu.Lock()
	c.state.IsAuthenticated = false
	c.state.SessionToken = ""
	c.state.RetryCount = 0
	c.draft = nil
	c.userID = ""
	c.mu.Unlock()

	if err := c.kv.Remove(DraftStorageKey); err != nil {
		c.logger.Warn("failed to erase persisted draft on logout", "error", err)
	}
	c.audit.Reset()
	c.audit.Append("logout", true, "")
}
