// Package verification provides the ephemeral TTL store backing the
// email-verification workflow. Entries auto-expire; nothing here is
// durable, and losing the store only forces clients to re-request a code.
package verification

import (
	"context"
	"time"
)

// Store is a key/value store with per-key TTL. GetDel exists so that
// single-use entries (verification codes, verified markers) can be
// consumed atomically where the backend supports it.
type Store interface {
	// Set writes value under key, replacing any previous entry and its TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the live value for key. The bool is false when the key
	// is absent or expired; an expired entry is never returned.
	Get(ctx context.Context, key string) (string, bool, error)
	// GetDel atomically reads and removes the live value for key.
	GetDel(ctx context.Context, key string) (string, bool, error)
	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
}
