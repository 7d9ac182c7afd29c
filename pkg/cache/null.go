package cache

import (
	"context"
	"time"
)

// NullCache discards everything. It backs the --no-cache flag and the
// "none" backend, where every generation must hit the live backend.
type NullCache struct{}

// NewNullCache returns a cache where every lookup misses.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get always misses.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the value.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete has nothing to remove.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close is a no-op.
func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
