package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/catalogo-app/checkout-go/internal/domain"
	"github.com/catalogo-app/checkout-go/internal/kvstore"
	"github.com/catalogo-app/checkout-go/internal/orders"
)

// fakeProvider scripts the identity provider.
type fakeProvider struct {
	mu           sync.Mutex
	session      *domain.Session
	getErr       error
	refreshed    *domain.Session
	refreshErr   error
	refreshCalls int
}

func (f *fakeProvider) GetSession(ctx context.Context) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.session == nil {
		return nil, nil
	}
	s := *f.session
	return &s, nil
}

func (f *fakeProvider) RefreshSession(ctx context.Context) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.refreshed == nil {
		return nil, fmt.Errorf("refresh rejected")
	}
	s := *f.refreshed
	return &s, nil
}

func liveSession() *domain.Session {
	return &domain.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		UserID:       "user-1",
	}
}

func expiredSession() *domain.Session {
	return &domain.Session{
		AccessToken: "stale-token",
		ExpiresAt:   time.Now().Add(-time.Hour).Unix(),
		UserID:      "user-1",
	}
}

// fakeBackend counts backend calls and can fail the first N order inserts.
type fakeBackend struct {
	mu          sync.Mutex
	clientCalls int
	orderCalls  int
	itemCalls   int
	failOrders  int // fail this many InsertOrder calls before succeeding
	failItems   bool
}

func (f *fakeBackend) InsertClient(ctx context.Context, rec orders.ClientRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clientCalls++
	return fmt.Sprintf("client-%d", f.clientCalls), nil
}

func (f *fakeBackend) InsertOrder(ctx context.Context, rec orders.OrderRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls++
	if f.orderCalls <= f.failOrders {
		return "", fmt.Errorf("backend unavailable")
	}
	return fmt.Sprintf("order-%d", f.orderCalls), nil
}

func (f *fakeBackend) InsertOrderItems(ctx context.Context, items []orders.ItemRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls++
	if f.failItems {
		return fmt.Errorf("items insert failed")
	}
	return nil
}

func (f *fakeBackend) calls() (clients, orderHeaders, items int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clientCalls, f.orderCalls, f.itemCalls
}

// sleepRecorder captures backoff waits without actually sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}

type testRig struct {
	ctrl    *Controller
	idp     *fakeProvider
	backend *fakeBackend
	kv      *kvstore.MemoryStore
	sleeps  *sleepRecorder
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	idp := &fakeProvider{}
	backend := &fakeBackend{}
	kv := kvstore.NewMemory()
	sleeps := &sleepRecorder{}
	ctrl := NewWithConfig(idp, backend, kv, Config{
		Sleep: sleeps.sleep,
	})
	return &testRig{ctrl: ctrl, idp: idp, backend: backend, kv: kv, sleeps: sleeps}
}

func anaDraft() DraftInput {
	return DraftInput{
		ClientData:    domain.ClientData{Name: "Ana"},
		Items:         []domain.OrderItem{{ProductID: "p1", Quantity: 2, UnitPrice: 10}},
		PaymentMethod: "pix",
	}
}

func anaOrder() domain.OrderData {
	return domain.OrderData{
		ClientData:    domain.ClientData{Name: "Ana"},
		Items:         []domain.OrderItem{{ProductID: "p1", Quantity: 2, UnitPrice: 10}},
		PaymentMethod: "pix",
	}
}
