package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopResolveHooks{}
	r.OnResolveStart(ctx, 3)
	r.OnResolveComplete(ctx, 2, time.Second, nil)
	r.OnSortComplete(ctx, 10, 1, time.Second)

	d := NoopDownloadHooks{}
	d.OnProbe(ctx, "https://mirror.example.org/stable/core/x86_64/foo.pkg.tar.zst", true, time.Millisecond)
	d.OnFetchComplete(ctx, "foo", time.Second, errors.New("boom"))
	d.OnBatchComplete(ctx, 4, 3, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "srcinfo")
	c.OnCacheMiss(ctx, "info")
	c.OnCacheSet(ctx, "srcinfo", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "aur.archlinux.org", "/rpc")
	h.OnResponse(ctx, "GET", "aur.archlinux.org", "/rpc", 200, time.Second)
	h.OnError(ctx, "GET", "aur.archlinux.org", "/rpc", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Resolve() should return NoopResolveHooks by default")
	}
	if _, ok := Download().(NoopDownloadHooks); !ok {
		t.Error("Download() should return NoopDownloadHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customResolve := &testResolveHooks{}
	SetResolveHooks(customResolve)
	if Resolve() != customResolve {
		t.Error("SetResolveHooks should set custom hooks")
	}

	customDownload := &testDownloadHooks{}
	SetDownloadHooks(customDownload)
	if Download() != customDownload {
		t.Error("SetDownloadHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Reset() should restore NoopResolveHooks")
	}
	if _, ok := Download().(NoopDownloadHooks); !ok {
		t.Error("Reset() should restore NoopDownloadHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testDownloadHooks{}
	SetDownloadHooks(custom)
	SetDownloadHooks(nil)

	if Download() != custom {
		t.Error("SetDownloadHooks(nil) should be ignored")
	}

	Reset()
}

type testResolveHooks struct{ NoopResolveHooks }
type testDownloadHooks struct{ NoopDownloadHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
