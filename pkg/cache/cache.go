// Package cache stores fetched package metadata between runs.
//
// AUR recipes and RPC responses change slowly and every resolution touches
// many of them, so [Cache] keeps raw response bytes with a TTL. Three
// backends are provided:
//
//   - [FileCache]: JSON entries under the XDG cache directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for the API server
//   - [NullCache]: caching disabled
//
// The package also holds the retry helpers used by every network client:
// wrap transient failures with [Retryable] and run them through
// [RetryWithBackoff] or [Retry].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero keeps the entry until deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
