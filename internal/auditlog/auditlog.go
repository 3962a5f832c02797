// Package auditlog keeps the bounded, append-only record of
// security-relevant actions taken by the checkout controller.
package auditlog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/catalogo-app/checkout-go/internal/domain"
	"github.com/catalogo-app/checkout-go/internal/kvstore"
	"github.com/oklog/ulid/v2"
)

const (
	// StorageKey is the fixed key the log is persisted under.
	StorageKey = "catalogo_security_logs"

	// maxEntries caps the FIFO ring; entries beyond it are evicted
	// oldest-first on every append.
	maxEntries = 100
)

// Log is the in-memory audit trail backed by the shared key-value store.
// The full truncated list is rewritten to storage on every append.
type Log struct {
	mu      sync.Mutex
	kv      kvstore.Store
	logger  *slog.Logger
	entries []domain.SecurityLogEntry
	now     func() time.Time
}

// New creates a Log, restoring any previously persisted entries. Corrupt or
// missing stored state degrades to an empty log, never an error.
func New(kv kvstore.Store, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Log{kv: kv, logger: logger, now: time.Now}
	l.restore()
	return l
}

func (l *Log) restore() {
	raw, err := l.kv.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			l.logger.Warn("failed to read persisted security log", "error", err)
		}
		return
	}
	var entries []domain.SecurityLogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		l.logger.Warn("corrupt persisted security log, starting empty", "error", err)
		return
	}
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	l.entries = entries
}

// Append records a security event, truncates the ring to the newest
// maxEntries and rewrites the whole list to storage. Persistence failures
// are logged and swallowed; the in-memory trail stays authoritative.
func (l *Log) Append(action string, success bool, details string) domain.SecurityLogEntry {
	entry := domain.SecurityLogEntry{
		ID:        ulid.Make().String(),
		Action:    action,
		Timestamp: l.now(),
		Success:   success,
		Details:   details,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}
	l.persistLocked()
	return entry
}

func (l *Log) persistLocked() {
	raw, err := json.Marshal(l.entries)
	if err != nil {
		l.logger.Warn("failed to encode security log", "error", err)
		return
	}
	if err := l.kv.Set(StorageKey, string(raw)); err != nil {
		l.logger.Warn("failed to persist security log", "error", err)
	}
}

// Snapshot returns a copy of the current in-memory entries, oldest first.
// There is no read-through to storage.
func (l *Log) Snapshot() []domain.SecurityLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.SecurityLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset empties the trail and erases the persisted key. Used by logout,
// which then logs exactly one fresh entry.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	if err := l.kv.Remove(StorageKey); err != nil {
		l.logger.Warn("failed to erase persisted security log", "error", err)
	}
}
