package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so that a repeated write can be rejected
type IdempotencyStore interface {
	// MarkProcessed records key with a TTL.
	// Returns true if the key was newly recorded, false if it was already present
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Forget removes key so that the request may be retried
	Forget(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
