package auditlog

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/catalogo-app/checkout-go/internal/domain"
	"github.com/catalogo-app/checkout-go/internal/kvstore"
)

func TestAppendPersistsEveryEvent(t *testing.T) {
	t.Parallel()

	kv := kvstore.NewMemory()
	log := New(kv, nil)

	log.Append("session_validation", true, "")
	log.Append("order_submission", false, "network error")

	raw, err := kv.Get(StorageKey)
	if err != nil {
		t.Fatalf("expected persisted log, got %v", err)
	}
	var persisted []domain.SecurityLogEntry
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("failed to decode persisted log: %v", err)
	}
	if len(persisted) != 2 {
		t.Fatalf("expected 2 persisted entries, got %d", len(persisted))
	}
	if persisted[1].Action != "order_submission" || persisted[1].Success {
		t.Errorf("unexpected last entry: %+v", persisted[1])
	}
	if persisted[0].ID == "" || persisted[0].ID == persisted[1].ID {
		t.Errorf("entry IDs must be unique and non-empty: %q vs %q", persisted[0].ID, persisted[1].ID)
	}
}

func TestRingNeverExceedsCapAndEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	kv := kvstore.NewMemory()
	log := New(kv, nil)

	for i := 0; i < 150; i++ {
		log.Append("event", true, fmt.Sprintf("n=%d", i))
	}

	entries := log.Snapshot()
	if len(entries) != 100 {
		t.Fatalf("expected 100 retained entries, got %d", len(entries))
	}
	if entries[0].Details != "n=50" {
		t.Errorf("expected oldest retained entry n=50, got %q", entries[0].Details)
	}
	if entries[99].Details != "n=149" {
		t.Errorf("expected newest entry n=149, got %q", entries[99].Details)
	}
}

func TestRestoreFromStorage(t *testing.T) {
	t.Parallel()

	kv := kvstore.NewMemory()
	first := New(kv, nil)
	first.Append("logout", true, "")

	second := New(kv, nil)
	entries := second.Snapshot()
	if len(entries) != 1 {
		t.Fatalf("expected 1 restored entry, got %d", len(entries))
	}
	if entries[0].Action != "logout" {
		t.Errorf("unexpected restored action %q", entries[0].Action)
	}
}

func TestCorruptStorageDegradesToEmpty(t *testing.T) {
	t.Parallel()

	kv := kvstore.NewMemory()
	if err := kv.Set(StorageKey, "{not json"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	log := New(kv, nil)
	if log.Len() != 0 {
		t.Fatalf("expected empty log after corrupt restore, got %d entries", log.Len())
	}
}

func TestResetErasesMemoryAndStorage(t *testing.T) {
	t.Parallel()

	kv := kvstore.NewMemory()
	log := New(kv, nil)
	log.Append("session_validation", true, "")

	log.Reset()

	if log.Len() != 0 {
		t.Errorf("expected empty log after Reset, got %d entries", log.Len())
	}
	if _, err := kv.Get(StorageKey); err == nil {
		t.Error("expected persisted key erased after Reset")
	}

	// Logout logs exactly one entry into the freshly cleared store.
	log.Append("logout", true, "")
	if log.Len() != 1 {
		t.Errorf("expected exactly one entry after post-reset append, got %d", log.Len())
	}
}
