package deps

import (
	"context"
	"errors"
	"fmt"
	"io"

	srcinfo "github.com/Morganamilo/go-srcinfo"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/pacstage/pkg/arch"
	pserrors "github.com/matzehuels/pacstage/pkg/errors"
	"github.com/matzehuels/pacstage/pkg/pacman"
	"github.com/matzehuels/pacstage/pkg/progress"
)

const (
	DefaultWorkers  = 20 // Default concurrent lookups per batch
	DefaultMaxDepth = 50 // Default maximum dependency depth
)

var (
	// ErrUnresolved matches any [*UnresolvedError] with errors.Is.
	ErrUnresolved = errors.New("unresolved dependency")

	// ErrMaxDepth is returned when dependency recursion exceeds Options.MaxDepth.
	ErrMaxDepth = errors.New("maximum dependency depth exceeded")

	// ErrCancelled is returned when the user declines additional packages.
	ErrCancelled = pserrors.New(pserrors.ErrCodeCancelled, "operation cancelled by user")
)

// UnresolvedError reports a dependency that no source can provide.
type UnresolvedError struct {
	Name       string // The dependency specifier's name
	RequiredBy string // The package that declared it ("" for a requested name)
}

func (e *UnresolvedError) Error() string {
	if e.RequiredBy == "" {
		return fmt.Sprintf("unresolved dependency: %s", e.Name)
	}
	return fmt.Sprintf("unresolved dependency: %s (required by %s)", e.Name, e.RequiredBy)
}

// Is makes errors.Is(err, ErrUnresolved) hold.
func (e *UnresolvedError) Is(target error) bool { return target == ErrUnresolved }

// Unwrap exposes the structured error code.
func (e *UnresolvedError) Unwrap() error {
	return pserrors.New(pserrors.ErrCodeUnresolved, "%s", e.Name)
}

// Options configures resolution and ordering behavior.
type Options struct {
	Workers  int         // Concurrent lookups per batch (default: 20)
	MaxDepth int         // Maximum recursion depth (default: 50)
	Arch     string      // Machine architecture for arch-specific AUR deps (default: x86_64)
	Logger   *log.Logger // Progress and warning output (optional)

	// Chooser, when set, is asked to pick among several providers of a
	// virtual dependency. Without it the first in repository order wins.
	Chooser progress.Chooser
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Arch == "" {
		opts.Arch = arch.DefaultArch
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

// RepoSource answers queries against the sync databases.
// It is implemented by [pacman.Source].
type RepoSource interface {
	// CheckMissing returns the specifiers not satisfied by installed packages.
	CheckMissing(ctx context.Context, specs []string) ([]string, error)
	// ReadRepository returns the repository holding spec's name, or arch.Unresolved.
	ReadRepository(ctx context.Context, spec string) (arch.Repo, error)
	// ReadDependencies returns the declared dependencies of a repository package.
	ReadDependencies(ctx context.Context, name string) ([]string, error)
	// SearchProviders returns packages that are or provide spec's name.
	SearchProviders(ctx context.Context, spec string) ([]pacman.Info, error)
	// MapSortingData returns provides and dependencies for a batch of names.
	MapSortingData(ctx context.Context, names []string) (map[string]pacman.SortingData, error)
}

// AURSource answers queries against the AUR.
// It is implemented by [aur.Client].
type AURSource interface {
	// SrcInfo returns the parsed recipe for name, or an error wrapping
	// integrations.ErrNotFound when the AUR has none.
	SrcInfo(ctx context.Context, name string) (*srcinfo.Srcinfo, error)
	// RequiredDependencies returns build, runtime and check dependencies.
	RequiredDependencies(ctx context.Context, name string) ([]string, error)
}
