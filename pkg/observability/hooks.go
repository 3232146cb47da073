// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional: the core packages emit events through the
// hook interfaces below and default to no-op implementations, so no metrics
// backend is linked unless main registers one.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolveHooks(&myResolveHooks{})
//	    observability.SetDownloadHooks(&myDownloadHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolve().OnResolveStart(ctx, len(names))
//	// ... resolve ...
//	observability.Resolve().OnResolveComplete(ctx, len(missing), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from dependency resolution and ordering.
type ResolveHooks interface {
	// OnResolveStart records the start of a missing-dependency search.
	OnResolveStart(ctx context.Context, names int)
	OnResolveComplete(ctx context.Context, missing int, duration time.Duration, err error)

	// OnSortComplete records an upgrade ordering.
	OnSortComplete(ctx context.Context, packages int, degraded int, duration time.Duration)
}

// =============================================================================
// Download Hooks
// =============================================================================

// DownloadHooks receives events from mirror probing and artifact transfer.
type DownloadHooks interface {
	// OnProbe records one mirror existence check.
	OnProbe(ctx context.Context, url string, found bool, duration time.Duration)

	// OnFetchComplete records an artifact transfer.
	OnFetchComplete(ctx context.Context, pkg string, duration time.Duration, err error)

	// OnBatchComplete records the end of a batch download.
	OnBatchComplete(ctx context.Context, total, downloaded int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnResolveStart(context.Context, int)                          {}
func (NoopResolveHooks) OnResolveComplete(context.Context, int, time.Duration, error) {}
func (NoopResolveHooks) OnSortComplete(context.Context, int, int, time.Duration)      {}

// NoopDownloadHooks is a no-op implementation of DownloadHooks.
type NoopDownloadHooks struct{}

func (NoopDownloadHooks) OnProbe(context.Context, string, bool, time.Duration)            {}
func (NoopDownloadHooks) OnFetchComplete(context.Context, string, time.Duration, error)   {}
func (NoopDownloadHooks) OnBatchComplete(context.Context, int, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var registry = struct {
	sync.RWMutex
	resolve  ResolveHooks
	download DownloadHooks
	cache    CacheHooks
	http     HTTPHooks
}{
	resolve:  NoopResolveHooks{},
	download: NoopDownloadHooks{},
	cache:    NoopCacheHooks{},
	http:     NoopHTTPHooks{},
}

// set stores h in slot unless h is nil.
func set[H any](slot *H, h H) {
	if any(h) == nil {
		return
	}
	registry.Lock()
	defer registry.Unlock()
	*slot = h
}

func get[H any](slot *H) H {
	registry.RLock()
	defer registry.RUnlock()
	return *slot
}

// SetResolveHooks registers resolve hooks; a nil h is ignored. Call it at
// startup, before any resolution runs.
func SetResolveHooks(h ResolveHooks) { set(&registry.resolve, h) }

// SetDownloadHooks registers download hooks; a nil h is ignored.
func SetDownloadHooks(h DownloadHooks) { set(&registry.download, h) }

// SetCacheHooks registers cache hooks; a nil h is ignored.
func SetCacheHooks(h CacheHooks) { set(&registry.cache, h) }

// SetHTTPHooks registers HTTP client hooks; a nil h is ignored.
func SetHTTPHooks(h HTTPHooks) { set(&registry.http, h) }

// Resolve returns the registered resolve hooks.
func Resolve() ResolveHooks { return get(&registry.resolve) }

// Download returns the registered download hooks.
func Download() DownloadHooks { return get(&registry.download) }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return get(&registry.cache) }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return get(&registry.http) }

// Reset restores the no-op hooks. Tests that register hooks defer it.
func Reset() {
	registry.Lock()
	defer registry.Unlock()
	registry.resolve = NoopResolveHooks{}
	registry.download = NoopDownloadHooks{}
	registry.cache = NoopCacheHooks{}
	registry.http = NoopHTTPHooks{}
}
