package notify

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestSessionExpiredReachesConnectedClient(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, nil, true)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait for the hub to register the connection.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() == 0 {
		t.Fatal("client never registered")
	}

	hub.SessionExpired("Sessão expirada")

	_, raw, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var notice Notice
	if err := json.Unmarshal(raw, &notice); err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if notice.Type != "session_expired" || notice.Message != "Sessão expirada" {
		t.Errorf("unexpected notice: %+v", notice)
	}
}

func TestBroadcastWithNoClientsIsNoop(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, nil, true)
	hub.SessionExpired("nobody listening")
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients, got %d", hub.ClientCount())
	}
}
