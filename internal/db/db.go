// Package db defines the key-value facade shared by the embedding cache,
// budget counters and session archive.
package db

import (
	"context"
	"time"
)

// Store is implemented by db/redis. Repositories declare the subset they use.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity. Health checks depend on it alone.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore holds byte values and integer counters.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL writes value. A non-positive ttl stores it without expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// IncrWithTTL adds delta to a counter and returns the new total. The ttl
	// is applied only when the counter has no expiry yet, so a period key
	// keeps the deadline it got on first write.
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Del(ctx context.Context, key string) error
}
