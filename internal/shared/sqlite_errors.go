// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// IsSQLiteBusyError checks if the error is a SQLITE_BUSY error. This occurs
// when the database is locked by another connection.
func IsSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "SQLITE_BUSY")
}

// IsSQLiteLockedError checks if the error is a "database is locked" error.
func IsSQLiteLockedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "database is locked")
}

// IsSQLiteConflictError checks if the error is either a SQLITE_BUSY or
// "database is locked" error. Both are concurrency errors that warrant a
// short retry.
func IsSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	return IsSQLiteBusyError(err) || IsSQLiteLockedError(err)
}

const (
	conflictRetries   = 3
	conflictBaseDelay = 50 * time.Millisecond
)

// RetryOnConflict runs fn, retrying with exponential backoff (50ms, 100ms,
// 200ms) while it fails with a SQLite concurrency error. Other errors
// return immediately. This backoff is internal plumbing for a single
// storage call, distinct from the order-submission attempt loop.
func RetryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < conflictRetries; i++ {
		err = fn()
		if err == nil || !IsSQLiteConflictError(err) {
			return err
		}
		if i < conflictRetries-1 {
			delay := conflictBaseDelay * time.Duration(1<<i)
			slog.Debug("sqlite conflict, retrying", "attempt", i+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}
