package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pacstage/pkg/arch"
	pserrors "github.com/matzehuels/pacstage/pkg/errors"
	"github.com/matzehuels/pacstage/pkg/observability"
	"github.com/matzehuels/pacstage/pkg/progress"
)

// MetadataSource supplies mirror and package data. It is implemented by
// [pacman.Source].
type MetadataSource interface {
	ListAvailableMirrors(ctx context.Context) ([]string, error)
	MirrorsBranch(ctx context.Context) (string, error)
	CacheDir(ctx context.Context) (string, error)
	ListDownloadData(ctx context.Context, names []string) ([]arch.Descriptor, error)
}

// Coordinator downloads a batch of repository packages into the pacman
// cache ahead of a transaction.
type Coordinator struct {
	meta      MetadataSource
	transport Transport
	opts      Options
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(meta MetadataSource, t Transport, opts Options) *Coordinator {
	return &Coordinator{meta: meta, transport: t, opts: opts.WithDefaults()}
}

// DownloadPackages fetches the artifacts of names and returns how many are
// now in the cache, counting those that already were.
//
// Missing mirror or branch information makes the download unavailable:
// the call logs a warning and returns 0 with no error, leaving pacman to
// fetch packages itself. A cache directory that cannot be created yields a
// CACHE_DIR error. In a batch, the first package that no mirror hosts or
// that fails to transfer aborts the rest with a DOWNLOAD_ABORTED error;
// files fetched before it stay cached. A single package that no mirror
// hosts only logs a warning and reports 0.
func (c *Coordinator) DownloadPackages(ctx context.Context, names []string) (int, error) {
	start := time.Now()
	w, logger := c.opts.Watcher, c.opts.Logger.With("run", uuid.NewString()[:8])

	mirrors, branch, ok := c.mirrors(ctx)
	if !ok {
		w.Print("[warning] multi-threaded download cancelled")
		return 0, nil
	}

	cacheDir, err := c.cacheDir(ctx)
	if err != nil {
		w.ShowMessage("Warning", err.Error(), progress.SeverityWarning)
		return 0, err
	}

	descs, err := c.meta.ListDownloadData(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("list download data: %w", err)
	}

	opts := c.opts
	opts.Logger = logger
	sel := NewSelector(c.transport, mirrors, branch, cacheDir, opts)

	var downloaded int
	if len(descs) == 1 {
		downloaded, err = c.single(ctx, sel, descs[0])
	} else {
		downloaded, err = c.batch(ctx, sel, descs)
	}

	observability.Download().OnBatchComplete(ctx, len(descs), downloaded, time.Since(start), err)
	if err != nil {
		w.ShowMessage("Error", "The download was cancelled. Already downloaded files are kept in the cache.", progress.SeverityError)
		return downloaded, pserrors.Wrap(pserrors.ErrCodeDownloadAborted, err, "download aborted")
	}
	logger.Infof("Download took %s", time.Since(start).Round(time.Millisecond))
	return downloaded, nil
}

// mirrors resolves the mirror list and branch, preferring configured values.
func (c *Coordinator) mirrors(ctx context.Context) ([]string, string, bool) {
	w, logger := c.opts.Watcher, c.opts.Logger

	mirrors := c.opts.Mirrors
	if len(mirrors) == 0 {
		var err error
		if mirrors, err = c.meta.ListAvailableMirrors(ctx); err != nil {
			logger.Debug("could not list mirrors", "err", err)
		}
	}
	if len(mirrors) == 0 {
		logger.Warn("repository mirrors seem to be not reachable")
		w.Print("[warning] repository mirrors seem to be not reachable")
		return nil, "", false
	}

	branch := c.opts.Branch
	if branch == "" {
		var err error
		if branch, err = c.meta.MirrorsBranch(ctx); err != nil {
			logger.Debug("could not read mirrors branch", "err", err)
		}
	}
	if branch == "" {
		logger.Warn("no default repository branch found")
		w.Print("[warning] no default repository branch found")
		return nil, "", false
	}
	return mirrors, branch, true
}

func (c *Coordinator) cacheDir(ctx context.Context) (string, error) {
	dir, err := c.meta.CacheDir(ctx)
	if err == nil {
		err = os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		c.opts.Logger.Warn("could not create cache dir", "dir", dir, "err", err)
		return "", pserrors.Wrap(pserrors.ErrCodeCacheDir, fmt.Errorf("%w: %s: %v", ErrCacheDir, dir, err),
			"could not create cache dir %s", dir)
	}
	return dir, nil
}

func (c *Coordinator) single(ctx context.Context, sel *Selector, d arch.Descriptor) (int, error) {
	c.opts.Logger.Info("preparing to download package", "package", d.Name, "version", d.Version)
	c.opts.Watcher.ChangeSubstatus(status(0, 1, d.Name))

	t, err := sel.Locate(ctx, d)
	if errors.Is(err, ErrNoMirror) {
		c.opts.Logger.Warn("no mirror hosts package", "package", d.Name)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := sel.Fetch(ctx, t); err != nil {
		return 0, err
	}
	return 1, nil
}

// batch locates and fetches concurrently: one goroutine probes mirrors and
// hands each located task over an unbuffered channel to one goroutine that
// transfers them in order.
func (c *Coordinator) batch(ctx context.Context, sel *Selector, descs []arch.Descriptor) (int, error) {
	w, logger := c.opts.Watcher, c.opts.Logger

	w.Print("Checking cached files")
	var pending []arch.Descriptor
	for _, d := range descs {
		if !sel.IsCached(d.FileBase()) {
			pending = append(pending, d)
		}
	}
	done := len(descs) - len(pending)
	if len(pending) == 0 {
		return done, nil
	}

	tasks := make(chan Task)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(tasks)
		for _, d := range pending {
			t, err := sel.Locate(gctx, d)
			if err != nil {
				logger.Warn("could not locate package", "package", d.Name, "err", err)
				return err
			}
			select {
			case tasks <- t:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for t := range tasks {
			logger.Info("preparing to download package", "package", t.Name, "version", t.Version)
			w.ChangeSubstatus(status(done, len(descs), t.Name))
			if err := sel.Fetch(gctx, t); err != nil {
				return err
			}
			done++
		}
		return nil
	})

	err := g.Wait()
	return done, err
}

// status formats the substatus shown while fetching the package after done
// others. Each package counts as two steps, transfer and install, so a
// fully downloaded batch reads 50%.
func status(done, total int, name string) string {
	return fmt.Sprintf("(%.2f%%) [%d/%d] Downloading %s",
		float64(done)/float64(2*total)*100, done+1, total, name)
}
