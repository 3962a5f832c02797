// Package domain contains core domain types for the checkout service.
package domain

import (
	"time"
)

// SessionState is the authentication state owned by the checkout controller.
// It is mutated only through the controller's public operations.
type SessionState struct {
	IsAuthenticated bool      `json:"is_authenticated"`
	SessionToken    string    `json:"session_token,omitempty"`
	LastActivity    time.Time `json:"last_activity"`
	RetryCount      int       `json:"retry_count"`
	IsProcessing    bool      `json:"is_processing"`
}

// Session is a time-bounded credential issued by the identity provider.
// ExpiresAt is epoch seconds, as delivered on the wire.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
	UserID       string `json:"user_id,omitempty"`
}

// ExpiredAt reports whether the session has expired as of now. The
// comparison happens in wall-clock milliseconds against the
// provider-supplied epoch-seconds expiry.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.UnixMilli() >= s.ExpiresAt*1000
}

// User is the identity-provider account behind a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// SecurityLogEntry is one record in the bounded audit trail.
type SecurityLogEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Details   string    `json:"details,omitempty"`
}
