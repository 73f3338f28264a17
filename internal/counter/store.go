// Package counter abstracts the ephemeral counter store used by the rate
// limiter and the quota tracker. The contract is deliberately narrow:
// atomic increment-or-create with a TTL set only on creation, plain reads,
// and remaining-TTL inspection. Both gates share these three operations and
// nothing else, so neither ever holds counter state in process memory.
package counter

import (
	"context"
	"time"
)

// Store is the counter contract. IncrWindow must be atomic: two concurrent
// calls for the same key must never both observe the pre-increment value.
type Store interface {
	// IncrWindow increments key by n and returns the post-increment count.
	// When the key did not exist, it is created with the given TTL; an
	// existing key keeps whatever TTL it already has, so the window does
	// not slide. ttl <= 0 means the key never expires.
	IncrWindow(ctx context.Context, key string, n int64, ttl time.Duration) (int64, error)

	// Get returns the current count, or 0 when the key is absent.
	Get(ctx context.Context, key string) (int64, error)

	// TTL returns the remaining lifetime of key, or 0 when the key is
	// absent or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
