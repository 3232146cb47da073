package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	pserrors "github.com/matzehuels/pacstage/pkg/errors"
)

// AppName names the configuration and cache directories.
const AppName = "pacstage"

// Environment variables that override the file.
const (
	EnvRedisAddr = "PACSTAGE_REDIS_ADDR"
	EnvAUR       = "PACSTAGE_AUR"
)

// Config is the pacstage configuration file.
type Config struct {
	AUR      bool     `toml:"aur"`       // resolve and order AUR packages
	Workers  int      `toml:"workers"`   // concurrent metadata lookups
	MaxDepth int      `toml:"max_depth"` // dependency recursion limit
	Arch     string   `toml:"arch"`      // machine architecture
	Download Download `toml:"download"`
	Cache    Cache    `toml:"cache"`
	Pacman   Pacman   `toml:"pacman"`
	Server   Server   `toml:"server"`
}

// Download configures the mirror downloader.
type Download struct {
	Enabled      bool          `toml:"enabled"`
	Mirrors      []string      `toml:"mirrors"` // empty: ask pacman-mirrors
	Branch       string        `toml:"branch"`  // empty: ask pacman-mirrors
	Extensions   []string      `toml:"extensions"`
	ProbeTimeout time.Duration `toml:"probe_timeout"`
	Timeout      time.Duration `toml:"timeout"` // whole batch, 0 for none
}

// Cache configures the metadata cache.
type Cache struct {
	TTL       time.Duration `toml:"ttl"`
	RedisAddr string        `toml:"redis_addr"` // shared Redis cache instead of files
	RedisDB   int           `toml:"redis_db"`
	Disabled  bool          `toml:"disabled"`
}

// Pacman configures the local package manager.
type Pacman struct {
	Conf string `toml:"conf"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		AUR:      true,
		Workers:  20,
		MaxDepth: 50,
		Arch:     "x86_64",
		Download: Download{
			Enabled:      true,
			Extensions:   []string{".tar.zst", ".tar.xz"},
			ProbeTimeout: 3 * time.Second,
			Timeout:      30 * time.Minute,
		},
		Cache:  Cache{TTL: 24 * time.Hour},
		Pacman: Pacman{Conf: "/etc/pacman.conf"},
		Server: Server{Addr: "127.0.0.1:8080"},
	}
}

// Path returns the default configuration file path,
// $XDG_CONFIG_HOME/pacstage/config.toml.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// CacheDir returns the metadata cache directory, $XDG_CACHE_HOME/pacstage.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Load reads the file at path on top of the defaults and applies
// environment overrides. A missing file is not an error. Unknown keys are.
func Load(path string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return Config{}, pserrors.Wrap(pserrors.ErrCodeInvalidConfig, err, "parse %s", path)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, pserrors.New(pserrors.ErrCodeInvalidConfig,
				"%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRedisAddr); ok {
		c.Cache.RedisAddr = v
	}
	if v, ok := lookup(EnvAUR); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return pserrors.Wrap(pserrors.ErrCodeInvalidConfig, err, "%s=%q", EnvAUR, v)
		}
		c.AUR = b
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return pserrors.New(pserrors.ErrCodeInvalidConfig, format, args...)
	}
	switch {
	case c.Workers <= 0:
		return invalid("workers must be positive, got %d", c.Workers)
	case c.MaxDepth <= 0:
		return invalid("max_depth must be positive, got %d", c.MaxDepth)
	case c.Arch == "" || c.Arch == "any":
		return invalid("arch must name a machine architecture, got %q", c.Arch)
	case c.Download.ProbeTimeout <= 0:
		return invalid("download.probe_timeout must be positive")
	case c.Download.Timeout < 0:
		return invalid("download.timeout must not be negative")
	case c.Cache.TTL < 0:
		return invalid("cache.ttl must not be negative")
	}
	for _, ext := range c.Download.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return invalid("download.extensions: %q must start with a dot", ext)
		}
	}
	for _, m := range c.Download.Mirrors {
		u, err := url.Parse(m)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("download.mirrors: %q is not an http(s) URL", m)
		}
	}
	return nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
