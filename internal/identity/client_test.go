package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/catalogo-app/checkout-go/internal/domain"
	"github.com/golang-jwt/jwt/v4"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestGetSessionWithoutSeedReturnsNil(t *testing.T) {
	t.Parallel()

	c := NewClient("http://localhost:0", "anon", nil)
	s, err := c.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil session, got %+v", s)
	}
}

func TestRefreshSessionUpdatesHeldSession(t *testing.T) {
	t.Parallel()

	expiresAt := time.Now().Add(time.Hour).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "refresh_token" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("missing apikey header")
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["refresh_token"] != "old-refresh" {
			t.Errorf("expected refresh token to be sent, got %q", body["refresh_token"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_at":    expiresAt,
			"user":          map[string]string{"id": "user-1"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon", nil)
	c.SetSession(&domain.Session{AccessToken: "old-access", RefreshToken: "old-refresh"})

	got, err := c.RefreshSession(context.Background())
	if err != nil {
		t.Fatalf("RefreshSession failed: %v", err)
	}
	if got.AccessToken != "new-access" || got.ExpiresAt != expiresAt || got.UserID != "user-1" {
		t.Errorf("unexpected session: %+v", got)
	}

	held, _ := c.GetSession(context.Background())
	if held == nil || held.AccessToken != "new-access" {
		t.Errorf("held session not updated: %+v", held)
	}
}

func TestRefreshSessionFailureLeavesSessionUnchanged(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon", nil)
	c.SetSession(&domain.Session{AccessToken: "old-access", RefreshToken: "old-refresh"})

	if _, err := c.RefreshSession(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}

	held, _ := c.GetSession(context.Background())
	if held == nil || held.AccessToken != "old-access" {
		t.Errorf("held session must be unchanged on failure: %+v", held)
	}
}

func TestRefreshWithoutRefreshTokenFails(t *testing.T) {
	t.Parallel()

	c := NewClient("http://localhost:0", "anon", nil)
	if _, err := c.RefreshSession(context.Background()); err == nil {
		t.Fatal("expected error without a refresh token")
	}
}

func TestExpiryFallsBackToTokenClaim(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	access := signedToken(t, exp)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No expires_at or expires_in in the payload.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": "r",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon", nil)
	got, err := c.SignInWithPassword(context.Background(), "ana@example.com", "pw")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	if got.ExpiresAt != exp.Unix() {
		t.Errorf("expected expiry from exp claim %d, got %d", exp.Unix(), got.ExpiresAt)
	}
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer access" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "user-1", "email": "ana@example.com"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon", nil)
	c.SetSession(&domain.Session{AccessToken: "access"})

	user, err := c.GetUser(context.Background())
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil || user.ID != "user-1" {
		t.Errorf("unexpected user: %+v", user)
	}
}
