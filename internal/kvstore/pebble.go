package kvstore

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleStore implements Store on top of a Pebble database so draft and log
// state survive restarts.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a Pebble-backed store in dir.
func OpenPebble(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // drafts must survive a crash
	})
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Get retrieves the value for key, or ErrNotFound.
func (p *PebbleStore) Get(key string) (string, error) {
	val, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	defer closer.Close()

	// The slice is only valid until the closer is released.
	return string(val), nil
}

// Set writes the value for key with a synced write.
func (p *PebbleStore) Set(key, value string) error {
	if err := p.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes the key. Deleting an absent key is not an error.
func (p *PebbleStore) Remove(key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (p *PebbleStore) Close() error {
	return p.db.Close()
}
