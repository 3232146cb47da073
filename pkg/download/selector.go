package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/pacstage/pkg/arch"
	"github.com/matzehuels/pacstage/pkg/integrations"
	"github.com/matzehuels/pacstage/pkg/observability"
	"github.com/matzehuels/pacstage/pkg/progress"
)

// ProbeTimeout bounds each mirror existence check.
const ProbeTimeout = 3 * time.Second

// DefaultExtensions are the archive extensions tried for each mirror, in
// order.
var DefaultExtensions = []string{".tar.zst", ".tar.xz"}

var (
	// ErrNoMirror is returned by [Selector.Locate] when no mirror hosts
	// the artifact under any extension.
	ErrNoMirror = fmt.Errorf("%w: no mirror hosts the package", integrations.ErrNotFound)

	// ErrCacheDir is returned when the package cache directory cannot be
	// created.
	ErrCacheDir = errors.New("cache directory unavailable")
)

// Transport moves files over HTTP. It is implemented by [integrations.Client].
type Transport interface {
	// Exists reports whether url can be fetched, giving up after timeout.
	Exists(ctx context.Context, url string, timeout time.Duration) bool
	// Download writes url to path and returns the bytes written.
	Download(ctx context.Context, url, path string) (int64, error)
}

// Task is a descriptor located on a mirror, ready to be fetched.
type Task struct {
	arch.Descriptor
	URL        string `json:"url,omitempty"`
	Mirror     string `json:"mirror,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	Cached     bool   `json:"cached,omitempty"` // already in the cache directory
}

// Selector finds artifacts on mirrors and fetches them into the package
// cache directory.
//
// A Selector is safe for concurrent use.
type Selector struct {
	transport  Transport
	mirrors    []string
	branch     string
	cacheDir   string
	extensions []string
	timeout    time.Duration
	arch       string
	watcher    progress.Watcher
	logger     *log.Logger
}

// NewSelector creates a Selector probing mirrors in the given order.
// Artifacts live under mirror/branch/repo/arch/ on each mirror.
func NewSelector(t Transport, mirrors []string, branch, cacheDir string, opts Options) *Selector {
	opts = opts.WithDefaults()
	return &Selector{
		transport:  t,
		mirrors:    mirrors,
		branch:     strings.Trim(branch, "/"),
		cacheDir:   cacheDir,
		extensions: opts.Extensions,
		timeout:    opts.ProbeTimeout,
		arch:       opts.Arch,
		watcher:    opts.Watcher,
		logger:     opts.Logger,
	}
}

// IsCached reports whether the cache directory holds a file whose name
// starts with filename. Hidden files, such as transfers in progress, never
// match.
func (s *Selector) IsCached(filename string) bool {
	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, ".") && strings.HasPrefix(name, filename) {
			return true
		}
	}
	return false
}

// Locate finds the first mirror and extension serving d. Mirrors are tried
// in order and, for each, every extension in order; probing stops at the
// first hit. A cached artifact is returned with Cached set and nothing is
// probed.
func (s *Selector) Locate(ctx context.Context, d arch.Descriptor) (Task, error) {
	base := d.FileBase()
	task := Task{Descriptor: d}
	if s.IsCached(base) {
		task.Cached = true
		return task, nil
	}

	parts := []string{d.Repository, d.PathArch(s.arch), base}
	if s.branch != "" {
		parts = append([]string{s.branch}, parts...)
	}
	rel := strings.Join(parts, "/")
	hooks := observability.Download()
	for _, mirror := range s.mirrors {
		for _, ext := range s.extensions {
			if err := ctx.Err(); err != nil {
				return task, err
			}
			url := strings.TrimSuffix(mirror, "/") + "/" + rel + ext

			start := time.Now()
			found := s.transport.Exists(ctx, url, s.timeout)
			hooks.OnProbe(ctx, url, found, time.Since(start))
			if found {
				task.URL = url
				task.Mirror = mirror
				task.OutputPath = filepath.Join(s.cacheDir, base+ext)
				return task, nil
			}
		}
	}
	return task, fmt.Errorf("%w: %s", ErrNoMirror, d.Name)
}

// Fetch downloads a located artifact and then its detached signature. A
// missing signature is only a warning. Cached tasks are a no-op.
func (s *Selector) Fetch(ctx context.Context, t Task) error {
	if t.Cached {
		s.watcher.Print(fmt.Sprintf("File %s found in cache dir. Skipping download.", t.FileBase()))
		return nil
	}
	start := time.Now()
	s.watcher.Print(fmt.Sprintf("Downloading '%s' from mirror '%s'", filepath.Base(t.OutputPath), t.Mirror))

	n, err := s.transport.Download(ctx, t.URL, t.OutputPath)
	if err != nil {
		s.watcher.Print(fmt.Sprintf("Could not download '%s' from mirror '%s'", filepath.Base(t.OutputPath), t.Mirror))
		err = fmt.Errorf("download %s: %w", t.Name, err)
	} else {
		s.logger.Info("package downloaded", "package", t.Name, "size", humanize.Bytes(uint64(n)))
	}

	if _, serr := s.transport.Download(ctx, t.URL+".sig", t.OutputPath+".sig"); serr != nil {
		s.logger.Warn("could not download package signature", "package", t.Name, "err", serr)
	}

	observability.Download().OnFetchComplete(ctx, t.Name, time.Since(start), err)
	return err
}

// Options configures a [Selector] and a [Coordinator].
type Options struct {
	// Mirrors overrides the mirror list read from pacman-mirrors.
	Mirrors []string
	// Branch overrides the branch read from pacman-mirrors.
	Branch string
	// Extensions are tried in order (default: DefaultExtensions).
	Extensions []string
	// ProbeTimeout bounds each existence check (default: ProbeTimeout).
	ProbeTimeout time.Duration
	// Arch replaces "any" in mirror paths (default: x86_64).
	Arch string
	// Watcher receives user-facing progress (default: progress.NopWatcher).
	Watcher progress.Watcher
	Logger  *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = ProbeTimeout
	}
	if o.Arch == "" {
		o.Arch = arch.DefaultArch
	}
	if o.Watcher == nil {
		o.Watcher = progress.NopWatcher{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}
