// Package cli implements the pacstage command-line interface.
//
// # Commands
//
//   - missing: list the dependencies a set of packages still needs
//   - known: order a batch whose repositories are already known
//   - order: rank an upgrade batch, as text, JSON, DOT or SVG
//   - download: fetch package files from mirrors into the pacman cache
//   - watch: follow pacman output on stdin and show transaction progress
//   - serve: run the HTTP API
//   - cache, config: inspect and clear local state
//
// # Logging
//
// Commands log through charmbracelet/log on stderr; --verbose (-v) enables
// debug output. The logger is attached to the command context.
package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pacstage/pkg/buildinfo"
	"github.com/matzehuels/pacstage/pkg/cache"
	"github.com/matzehuels/pacstage/pkg/config"
	"github.com/matzehuels/pacstage/pkg/deps"
	"github.com/matzehuels/pacstage/pkg/download"
	"github.com/matzehuels/pacstage/pkg/integrations"
	"github.com/matzehuels/pacstage/pkg/integrations/aur"
	"github.com/matzehuels/pacstage/pkg/pacman"
	"github.com/matzehuels/pacstage/pkg/progress"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	noAUR      bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pacstage resolves, orders and pre-downloads Arch packages",
		Long: `pacstage finds the missing dependencies of repository and AUR packages,
orders upgrade batches so dependencies come first, and downloads package
files from the fastest mirrors into the pacman cache ahead of a transaction.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the metadata cache")
	root.PersistentFlags().BoolVar(&c.noAUR, "no-aur", false, "do not consult the AUR")

	root.AddCommand(c.missingCommand())
	root.AddCommand(c.knownCommand())
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.downloadCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies global flags on top.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	path := c.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if c.noCache {
		cfg.Cache.Disabled = true
	}
	if c.noAUR {
		cfg.AUR = false
	}
	c.cfg = cfg
	if c.Logger.GetLevel() <= log.DebugLevel {
		registerDebugHooks(c.Logger)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Service Factory
// =============================================================================

// services are the core components wired from the configuration.
type services struct {
	cache    cache.Cache
	source   *pacman.Source
	aur      *aur.Client
	resolver *deps.Resolver
	sorter   *deps.Sorter
}

// Close releases the cache backend.
func (s *services) Close() error { return s.cache.Close() }

// newServices wires the metadata sources, resolver and sorter. A non-nil
// chooser is asked to pick among several providers of a dependency.
func (c *CLI) newServices(ctx context.Context, chooser progress.Chooser) (*services, error) {
	backend, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}

	s := &services{
		cache:  backend,
		source: pacman.New(pacman.Options{Conf: c.cfg.Pacman.Conf, Logger: c.Logger}),
	}
	opts := deps.Options{
		Workers:  c.cfg.Workers,
		MaxDepth: c.cfg.MaxDepth,
		Arch:     c.cfg.Arch,
		Logger:   c.Logger,
		Chooser:  chooser,
	}

	// A nil *aur.Client must not become a non-nil AURSource.
	var src deps.AURSource
	if c.cfg.AUR {
		s.aur = aur.NewClient(backend, c.cfg.Cache.TTL).WithArch(c.cfg.Arch)
		src = s.aur
	}
	s.resolver = deps.NewResolver(s.source, src, opts)
	s.sorter = deps.NewSorter(s.source, src, opts)
	return s, nil
}

// newCoordinator builds a download coordinator reporting to w.
func (c *CLI) newCoordinator(s *services, w progress.Watcher) *download.Coordinator {
	return download.NewCoordinator(s.source, integrations.NewClient(nil, "", 0, nil), download.Options{
		Mirrors:      c.cfg.Download.Mirrors,
		Branch:       c.cfg.Download.Branch,
		Extensions:   c.cfg.Download.Extensions,
		ProbeTimeout: c.cfg.Download.ProbeTimeout,
		Arch:         c.cfg.Arch,
		Watcher:      w,
		Logger:       c.Logger,
	})
}

// newCache picks the metadata cache backend: none, Redis, or files under
// the XDG cache directory. An unusable file cache degrades to none.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	switch {
	case c.cfg.Cache.Disabled:
		return cache.NewNullCache(), nil
	case c.cfg.Cache.RedisAddr != "":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.cfg.Cache.RedisAddr,
			Password: os.Getenv("PACSTAGE_REDIS_PASSWORD"),
			DB:       c.cfg.Cache.RedisDB,
		})
	}
	fc, err := cache.NewFileCache(config.CacheDir())
	if err != nil {
		c.Logger.Warn("metadata cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}
