package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "aur:yay", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if data, hit, err := c.Get(ctx, "aur:yay"); hit || data != nil || err != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "aur:yay"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestKey(t *testing.T) {
	k1 := Key("srcinfo", "yay")
	k2 := Key("srcinfo", "yay")
	if k1 != k2 {
		t.Error("Key should be deterministic")
	}
	if k1 == Key("srcinfo", "paru") {
		t.Error("Different parts should produce different keys")
	}
	if k1 == Key("info", "yay") {
		t.Error("Different prefixes should produce different keys")
	}
	if !strings.HasPrefix(k1, "srcinfo:") {
		t.Errorf("Key should start with prefix: %s", k1)
	}
	if len(k1) != len("srcinfo:")+64 {
		t.Errorf("Key length unexpected: %d", len(k1))
	}
}

// clock is a settable time source for expiry tests.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestFileCache(t *testing.T) (*FileCache, *clock) {
	t.Helper()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	fc.now = clk.now
	return fc, clk
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFileCache(t)
	defer c.Close()

	if _, hit, err := c.Get(ctx, "aur:missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "aur:yay", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "aur:yay")
	if err != nil || !hit {
		t.Fatalf("Get(aur:yay) = hit %v, err %v", hit, err)
	}
	if string(data) != "value" {
		t.Errorf("Get(aur:yay) = %q, want %q", data, "value")
	}

	if err := c.Delete(ctx, "aur:yay"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "aur:yay"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "aur:yay"); err != nil {
		t.Errorf("Delete of missing key should not error: %v", err)
	}
}

func TestFileCacheNamespaces(t *testing.T) {
	c, _ := newTestFileCache(t)
	tests := []struct {
		key, ns string
	}{
		{"aur:info:abc", "aur"},
		{"plain", "misc"},
		{"../up:x", "misc"},
		{":empty", "misc"},
	}
	for _, tt := range tests {
		rel, err := filepath.Rel(c.dir, c.path(tt.key))
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Split(rel, string(filepath.Separator))[0]; got != tt.ns {
			t.Errorf("path(%q) namespace = %q, want %q", tt.key, got, tt.ns)
		}
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestFileCache(t)

	if err := c.Set(ctx, "aur:short", []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := c.Set(ctx, "aur:forever", []byte("x"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	clk.t = clk.t.Add(2 * time.Minute)

	if _, hit, _ := c.Get(ctx, "aur:short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("aur:short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
	if _, hit, _ := c.Get(ctx, "aur:forever"); !hit {
		t.Error("entry without ttl should hit")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFileCache(t)
	path := c.path("aur:bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "aur:bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestFileCache(t)

	for key, ttl := range map[string]time.Duration{
		"aur:a":     time.Minute,
		"aur:b":     time.Hour,
		"srcinfo:c": time.Minute,
		"srcinfo:d": 0,
	} {
		if err := c.Set(ctx, key, []byte(key), ttl); err != nil {
			t.Fatalf("Set(%s) error: %v", key, err)
		}
	}
	corrupt := c.path("aur:corrupt")
	if err := os.MkdirAll(filepath.Dir(corrupt), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(corrupt, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	clk.t = clk.t.Add(10 * time.Minute)

	n, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if n != 3 {
		t.Errorf("Prune removed %d, want 3", n)
	}
	for key, want := range map[string]bool{"aur:a": false, "aur:b": true, "srcinfo:c": false, "srcinfo:d": true} {
		if _, hit, _ := c.Get(ctx, key); hit != want {
			t.Errorf("Get(%s) hit = %v, want %v", key, hit, want)
		}
	}
}

var errFlaky = errors.New("flaky")

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(errFlaky)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, errFlaky) {
		t.Error("wrapped error should match the cause")
	}
	if err.Error() != errFlaky.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(errFlaky) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestBackoff(t *testing.T) {
	ctx := context.Background()
	errPermanent := errors.New("permanent")
	b := Backoff{Attempts: 3, Delay: time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"permanent", 5, errPermanent, 1, errPermanent},
		{"recovers", 2, Retryable(errFlaky), 3, nil},
		{"exhausted", 5, Retryable(errFlaky), 3, errFlaky},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Do(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffSingleAttempt(t *testing.T) {
	calls := 0
	_ = Backoff{}.Do(context.Background(), func() error {
		calls++
		return Retryable(errFlaky)
	})
	if calls != 1 {
		t.Errorf("zero-value Backoff should try once, got %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errFlaky)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
