// Package checkout implements the secure checkout session controller: it
// tracks client authentication, persists the in-progress order draft,
// submits finished orders with bounded retries and keeps the audit trail
// of security-relevant actions.
package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/catalogo-app/checkout-go/internal/auditlog"
	"github.com/catalogo-app/checkout-go/internal/domain"
	"github.com/catalogo-app/checkout-go/internal/kvstore"
	"github.com/catalogo-app/checkout-go/internal/orders"
	"github.com/catalogo-app/checkout-go/internal/privacy"
)

const (
	// DraftStorageKey is the fixed key the single draft order is persisted
	// under.
	DraftStorageKey = "catalogo_draft_order"

	maxSubmitAttempts = 3
	backoffUnit       = time.Second

	defaultCheckInterval = time.Minute
	defaultIdleTimeout   = 30 * time.Minute
)

// IdentityProvider is the external service that issues and refreshes
// session credentials.
type IdentityProvider interface {
	// GetSession returns the current session, or nil when none exists.
	GetSession(ctx context.Context) (*domain.Session, error)

	// RefreshSession obtains a fresh session. On failure the previous
	// session must be left in place.
	RefreshSession(ctx context.Context) (*domain.Session, error)
}

// Notifier surfaces user-visible session notices. Implementations must not
// block.
type Notifier interface {
	SessionExpired(message string)
}

// Config tunes a Controller. Zero values fall back to production defaults.
type Config struct {
	Notifier      Notifier
	Logger        *slog.Logger
	Passphrase    string
	CheckInterval time.Duration
	IdleTimeout   time.Duration

	// Now and Sleep exist for tests; nil means real time.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Controller owns the session state. All mutation goes through its public
// operations; the mutex guards memory, not ordering. The activity monitor
// may still flip authentication while a submission is in flight, exactly as
// the checkout flow expects.
type Controller struct {
	mu     sync.Mutex
	state  domain.SessionState
	draft  *domain.DraftOrder
	userID string

	idp      IdentityProvider
	backend  orders.Backend
	kv       kvstore.Store
	audit    *auditlog.Log
	privacy  *privacy.Obfuscator
	notifier Notifier
	logger   *slog.Logger

	checkInterval time.Duration
	idleTimeout   time.Duration
	now           func() time.Time
	sleep         func(time.Duration)

	monitorCancel context.CancelFunc
	monitorDone   chan struct{}
}

// New creates a Controller with production defaults.
func New(idp IdentityProvider, backend orders.Backend, kv kvstore.Store) *Controller {
	return NewWithConfig(idp, backend, kv, Config{})
}

// NewWithConfig creates a Controller with explicit configuration.
func NewWithConfig(idp IdentityProvider, backend orders.Backend, kv kvstore.Store, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	passphrase := cfg.Passphrase
	if passphrase == "" {
		passphrase = privacy.DefaultPassphrase
	}
	checkInterval := cfg.CheckInterval
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}
	idleTimeout := cfg.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	c := &Controller{
		idp:           idp,
		backend:       backend,
		kv:            kv,
		audit:         auditlog.New(kv, logger),
		notifier:      cfg.Notifier,
		logger:        logger,
		checkInterval: checkInterval,
		idleTimeout:   idleTimeout,
		now:           now,
		sleep:         sleep,
	}
	c.privacy = privacy.New(passphrase, func(details string) {
		c.audit.Append("encryption_fallback", false, details)
	})
	return c
}

// StateSnapshot is the read-only view of the controller exposed to the
// surrounding application.
type StateSnapshot struct {
	domain.SessionState
	DraftOrder   *domain.DraftOrder        `json:"draft_order,omitempty"`
	SecurityLogs []domain.SecurityLogEntry `json:"security_logs"`
}

// State returns a snapshot of the session state plus the in-memory draft
// and security logs.
func (c *Controller) State() StateSnapshot {
	c.mu.Lock()
	snapshot := StateSnapshot{SessionState: c.state}
	if c.draft != nil {
		draft := *c.draft
		snapshot.DraftOrder = &draft
	}
	c.mu.Unlock()

	snapshot.SecurityLogs = c.audit.Snapshot()
	return snapshot
}

// EncryptSensitiveData obfuscates client data for storage. See the privacy
// package for why this is not a confidentiality control.
func (c *Controller) EncryptSensitiveData(data domain.ClientData) string {
	return c.privacy.EncryptSensitiveData(data)
}

// DecryptSensitiveData reverses EncryptSensitiveData.
func (c *Controller) DecryptSensitiveData(encoded string) (domain.ClientData, error) {
	return c.privacy.DecryptSensitiveData(encoded)
}

// LogSecurityEvent records an event in the audit trail.
func (c *Controller) LogSecurityEvent(action string, success bool, details string) {
	c.audit.Append(action, success, details)
}

// GetSecurityLogs returns the current audit trail snapshot.
func (c *Controller) GetSecurityLogs() []domain.SecurityLogEntry {
	return c.audit.Snapshot()
}

// touchActivity refreshes the inactivity clock. Callers hold no lock.
func (c *Controller) touchActivity() {
	c.mu.Lock()
	c.state.LastActivity = c.now()
	c.mu.Unlock()
}
