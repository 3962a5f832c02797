// Package identity provides the HTTP client for the external identity
// provider that issues and refreshes checkout session credentials.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/catalogo-app/checkout-go/internal/domain"
	"github.com/golang-jwt/jwt/v4"
)

const defaultRequestTimeout = 10 * time.Second

// Client talks to a GoTrue-style identity endpoint. It holds the current
// session in memory; GetSession never performs network I/O.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger

	mu      sync.Mutex
	current *domain.Session
}

// NewClient creates an identity client for baseURL. apiKey is sent as the
// provider's public API key header on every request.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		logger:  logger,
	}
}

// GetSession returns the currently held session, or nil when none exists.
// Expiry is NOT checked here; that is the caller's policy.
func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, nil
	}
	session := *c.current
	return &session, nil
}

// SetSession seeds the held session, e.g. from a credential obtained out of
// band. A nil session clears it.
func (c *Client) SetSession(s *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.current = nil
		return
	}
	session := *s
	c.current = &session
}

// tokenResponse is the provider's token grant payload.
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    int64        `json:"expires_at"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *domain.User `json:"user"`
}

// SignInWithPassword exchanges an email/password pair for a session and
// holds it as current.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	payload := map[string]string{"email": email, "password": password}
	return c.tokenGrant(ctx, "password", payload)
}

// RefreshSession requests a new token using the held refresh token. On
// failure the held session is left unchanged.
func (c *Client) RefreshSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	var refreshToken string
	if c.current != nil {
		refreshToken = c.current.RefreshToken
	}
	c.mu.Unlock()

	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}
	payload := map[string]string{"refresh_token": refreshToken}
	return c.tokenGrant(ctx, "refresh_token", payload)
}

func (c *Client) tokenGrant(ctx context.Context, grantType string, payload map[string]string) (*domain.Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode token request: %w", err)
	}

	url := fmt.Sprintf("%s/auth/v1/token?grant_type=%s", c.baseURL, grantType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("token request failed: status %d: %s", resp.StatusCode, snippet)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response carries no access token")
	}

	session := &domain.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    c.resolveExpiry(tr),
	}
	if tr.User != nil {
		session.UserID = tr.User.ID
	}

	c.mu.Lock()
	held := *session
	c.current = &held
	c.mu.Unlock()

	return session, nil
}

// resolveExpiry prefers the explicit expires_at, then expires_in, then the
// exp claim embedded in the access token itself.
func (c *Client) resolveExpiry(tr tokenResponse) int64 {
	if tr.ExpiresAt > 0 {
		return tr.ExpiresAt
	}
	if tr.ExpiresIn > 0 {
		return time.Now().Unix() + tr.ExpiresIn
	}
	if exp := expiryFromToken(tr.AccessToken); exp > 0 {
		return exp
	}
	c.logger.Warn("token response carries no usable expiry, session will validate as expired")
	return 0
}

// expiryFromToken reads the exp claim without verifying the signature; the
// token is verified by the provider's own backends, this client only needs
// the lifetime.
func expiryFromToken(token string) int64 {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return 0
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return int64(exp)
	case json.Number:
		n, err := exp.Int64()
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// GetUser fetches the account behind the held session.
func (c *Client) GetUser(ctx context.Context) (*domain.User, error) {
	c.mu.Lock()
	var accessToken string
	if c.current != nil {
		accessToken = c.current.AccessToken
	}
	c.mu.Unlock()

	if accessToken == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user request failed: status %d", resp.StatusCode)
	}

	var user domain.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	return &user, nil
}
