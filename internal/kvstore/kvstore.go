// Package kvstore provides the local persistent key-value storage shared by
// the draft order and the security log.
package kvstore

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when the key has never been set or has
// been removed.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a minimal string key-value store. Writes are last-write-wins;
// there is no locking or versioning across concurrently open instances.
type Store interface {
	// Get retrieves the value for key, or ErrNotFound.
	Get(key string) (string, error)

	// Set writes the value for key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(key string) error

	// Close releases the underlying storage.
	Close() error
}

// MemoryStore is an in-process Store used in tests and as a fallback when
// no storage directory is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get retrieves the value for key, or ErrNotFound.
func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set writes the value for key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove deletes the key.
func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
