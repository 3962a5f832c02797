// Package notify pushes user-facing session notices to connected clients
// over WebSocket.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// Notice is a single message pushed to clients.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Hub fans notices out to every connected WebSocket client. Clients that
// cannot be written to are dropped.
type Hub struct {
	logger         *slog.Logger
	allowedOrigins []string
	isDev          bool

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates a Hub. In development mode origin checks are skipped.
func NewHub(logger *slog.Logger, allowedOrigins []string, isDev bool) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:         logger,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
		conns:          make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away. Client-sent messages are drained and ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.InsecureSkipVerify = true
	} else if len(h.allowedOrigins) > 0 {
		opts.OriginPatterns = h.allowedOrigins
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err)
		return
	}

	h.add(conn)
	defer h.remove(conn)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			// Closed connections are expected when clients navigate away.
			return
		}
	}
}

// SessionExpired broadcasts the session-expired notice. It never blocks the
// caller beyond the per-connection write timeout.
func (h *Hub) SessionExpired(message string) {
	h.broadcast(Notice{Type: "session_expired", Message: message})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) broadcast(n Notice) {
	raw, err := json.Marshal(n)
	if err != nil {
		h.logger.Warn("failed to encode notice", "error", err)
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, raw)
		cancel()
		if err != nil {
			h.logger.Debug("dropping unreachable notice client", "error", err)
			h.remove(conn)
			_ = conn.Close(websocket.StatusGoingAway, "write failed")
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}
