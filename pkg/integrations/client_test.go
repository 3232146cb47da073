package integrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/pacstage/pkg/cache"
)

// newTestClient returns a caching client talking to an httptest server.
func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(fc, "aur:", time.Hour, map[string]string{"User-Agent": "pacstage-test", "Accept": "application/json"})
	c.http = srv.Client()
	c.transfer = srv.Client()
	return c, srv
}

func TestClientGet(t *testing.T) {
	var got http.Header
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, `{"resultcount":1,"results":[{"Name":"yay","PackageBase":"yay"}]}`)
	})

	var resp struct {
		ResultCount int `json:"resultcount"`
		Results     []struct {
			Name string
		} `json:"results"`
	}
	err := c.GetWithHeaders(context.Background(), srv.URL+"/rpc/v5/info?arg[]=yay", map[string]string{"Accept": "text/json"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if resp.ResultCount != 1 || resp.Results[0].Name != "yay" {
		t.Errorf("decoded %+v", resp)
	}
	if ua := got.Get("User-Agent"); ua != "pacstage-test" {
		t.Errorf("User-Agent = %q, want the client default", ua)
	}
	if acc := got.Get("Accept"); acc != "text/json" {
		t.Errorf("Accept = %q, want the per-request override", acc)
	}
}

func TestClientGetText(t *testing.T) {
	const srcinfo = "pkgbase = yay\n\tpkgver = 12.3.5\n"
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgit/aur.git/plain/.SRCINFO" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, srcinfo)
	})

	text, err := c.GetText(context.Background(), srv.URL+"/cgit/aur.git/plain/.SRCINFO")
	if err != nil {
		t.Fatalf("GetText() error: %v", err)
	}
	if text != srcinfo {
		t.Errorf("GetText() = %q, want %q", text, srcinfo)
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		want      error
		retryable bool
	}{
		{http.StatusNotFound, ErrNotFound, false},
		{http.StatusForbidden, ErrNetwork, false},
		{http.StatusBadRequest, ErrNetwork, false},
		{http.StatusInternalServerError, ErrNetwork, true},
		{http.StatusBadGateway, ErrNetwork, true},
		{http.StatusServiceUnavailable, ErrNetwork, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			var v map[string]any
			err := c.Get(context.Background(), srv.URL, &v)
			if !errors.Is(err, tt.want) {
				t.Errorf("Get() error = %v, want %v", err, tt.want)
			}
			if cache.IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", cache.IsRetryable(err), tt.retryable)
			}
		})
	}
	if err := checkStatus(http.StatusOK); err != nil {
		t.Errorf("checkStatus(200) = %v", err)
	}
}

func TestClientCached(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) {})

	fetches := 0
	fetch := func(v *[]string) func() error {
		return func() error {
			fetches++
			*v = []string{"glibc", "go"}
			return nil
		}
	}

	var first, second, third []string
	if err := c.Cached(ctx, "info:yay", false, &first, fetch(&first)); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if err := c.Cached(ctx, "info:yay", false, &second, fetch(&second)); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if fetches != 1 {
		t.Errorf("fetches = %d after a hit, want 1", fetches)
	}
	if len(second) != 2 || second[1] != "go" {
		t.Errorf("cached value = %v", second)
	}

	if err := c.Cached(ctx, "info:yay", true, &third, fetch(&third)); err != nil {
		t.Fatalf("Cached(refresh) error: %v", err)
	}
	if fetches != 2 {
		t.Errorf("fetches = %d after refresh, want 2", fetches)
	}
}

func TestClientCachedFetchError(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) {})

	var v string
	err := c.Cached(ctx, "srcinfo:gone", false, &v, func() error { return ErrNotFound })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Cached() error = %v, want ErrNotFound", err)
	}

	ok := false
	if err := c.Cached(ctx, "srcinfo:gone", false, &v, func() error { ok = true; v = "x"; return nil }); err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("a failed fetch must not be cached")
	}
}

func TestClientNilCache(t *testing.T) {
	c := NewClient(nil, "aur:", time.Hour, nil)
	var v string
	for i := 0; i < 2; i++ {
		if err := c.Cached(context.Background(), "k", false, &v, func() error { v = "x"; return nil }); err != nil {
			t.Fatalf("Cached() error: %v", err)
		}
	}
	if v != "x" {
		t.Errorf("value = %q, want %q", v, "x")
	}
}

func TestClientExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(nil, "", 0, nil)
	client.http = server.Client()
	ctx := context.Background()

	tests := []struct {
		path    string
		timeout time.Duration
		want    bool
	}{
		{"/ok", time.Second, true},
		{"/forbidden", time.Second, true},
		{"/missing", time.Second, false},
		{"/slow", 20 * time.Millisecond, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := client.Exists(ctx, server.URL+tt.path, tt.timeout); got != tt.want {
				t.Errorf("Exists(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestClientDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("artifact-bytes"))
	}))
	defer server.Close()

	client := NewClient(nil, "", 0, nil)
	client.transfer = server.Client()
	dir := t.TempDir()
	ctx := context.Background()

	path := filepath.Join(dir, "foo-1.0-1-x86_64.pkg.tar.zst")
	n, err := client.Download(ctx, server.URL+"/foo", path)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if n != int64(len("artifact-bytes")) {
		t.Errorf("Download() = %d bytes, want %d", n, len("artifact-bytes"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "artifact-bytes" {
		t.Errorf("file content = %q", data)
	}

	missing := filepath.Join(dir, "bar-1.0-1-x86_64.pkg.tar.zst")
	if _, err := client.Download(ctx, server.URL+"/missing", missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Download(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("failed download should not leave a file behind")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (no temp files)", len(entries))
	}
}
