package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pacstage/pkg/observability"
)

// debugHooks logs every observability event at debug level. It is
// registered when --verbose is set.
type debugHooks struct {
	l *log.Logger
}

func registerDebugHooks(l *log.Logger) {
	h := debugHooks{l: l.WithPrefix("trace")}
	observability.SetResolveHooks(h)
	observability.SetDownloadHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h debugHooks) OnResolveStart(_ context.Context, names int) {
	h.l.Debug("resolve start", "names", names)
}

func (h debugHooks) OnResolveComplete(_ context.Context, missing int, d time.Duration, err error) {
	h.l.Debug("resolve done", "missing", missing, "took", d.Round(time.Millisecond), "err", err)
}

func (h debugHooks) OnSortComplete(_ context.Context, packages, degraded int, d time.Duration) {
	h.l.Debug("sort done", "packages", packages, "degraded", degraded, "took", d.Round(time.Millisecond))
}

func (h debugHooks) OnProbe(_ context.Context, url string, found bool, d time.Duration) {
	h.l.Debug("probe", "url", url, "found", found, "took", d.Round(time.Millisecond))
}

func (h debugHooks) OnFetchComplete(_ context.Context, pkg string, d time.Duration, err error) {
	h.l.Debug("fetch done", "package", pkg, "took", d.Round(time.Millisecond), "err", err)
}

func (h debugHooks) OnBatchComplete(_ context.Context, total, downloaded int, d time.Duration, err error) {
	h.l.Debug("batch done", "total", total, "downloaded", downloaded, "took", d.Round(time.Millisecond), "err", err)
}

func (h debugHooks) OnCacheHit(_ context.Context, keyType string)  { h.l.Debug("cache hit", "ns", keyType) }
func (h debugHooks) OnCacheMiss(_ context.Context, keyType string) { h.l.Debug("cache miss", "ns", keyType) }

func (h debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.l.Debug("cache set", "ns", keyType, "bytes", size)
}

func (h debugHooks) OnRequest(_ context.Context, method, host, path string) {
	h.l.Debug("http request", "method", method, "host", host, "path", path)
}

func (h debugHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.l.Debug("http response", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h debugHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.l.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
