// Package cache stores serialized lookup results for a fixed TTL.
package cache

import (
	"context"
	"time"
)

// Store is a TTL key-value store for encoded values
type Store interface {
	// Get returns the value and true on a hit
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// New returns a redis store when redisAddr is set, otherwise an in-memory store
func New(ctx context.Context, redisAddr string, ttl time.Duration) (Store, error) {
	if redisAddr == "" {
		return NewMemory(ttl), nil
	}
	return NewRedis(ctx, redisAddr, ttl)
}
