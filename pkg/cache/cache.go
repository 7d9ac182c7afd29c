// Package cache provides pluggable response caching for generation requests.
//
// Generation calls are slow and billed per token, so identical prompts are
// cached. Three backends are provided:
//   - FileCache: on-disk cache for CLI usage (XDG cache directory)
//   - RedisCache: shared cache for the serve mode
//   - NullCache: disables caching entirely
//
// All backends implement the [Cache] interface. Keys are hashed with SHA-256
// before storage, so arbitrary strings (including full prompts) are safe keys.
package cache

import (
	"context"
	"time"
)

// Cache is the interface for cache backends.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns (data, true, nil) on a hit and (nil, false, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the cache with the given TTL.
	// A TTL of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
