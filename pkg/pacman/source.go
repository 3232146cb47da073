package pacman

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pacstage/pkg/arch"
)

// ErrNotFound is returned when the sync databases do not know a package.
var ErrNotFound = errors.New("package not found in sync databases")

// Options configures a Source.
type Options struct {
	Runner Runner      // Command runner (default: ExecRunner)
	Conf   string      // pacman.conf path (default: /etc/pacman.conf)
	Logger *log.Logger // Debug logger (optional)
}

// SortingData is what ordering needs to know about one repository package.
// Provides always includes the package's own name.
type SortingData struct {
	Provides []string
	Depends  []string
}

// Source answers repository metadata queries by running pacman.
//
// Source is safe for concurrent use; every call runs its own process.
type Source struct {
	run    Runner
	conf   string
	logger *log.Logger
}

// New creates a Source with defaults applied.
func New(opts Options) *Source {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Conf == "" {
		opts.Conf = DefaultConf
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Source{run: opts.Runner, conf: opts.Conf, logger: opts.Logger}
}

// CheckMissing returns the specifiers not satisfied by installed packages,
// in the order pacman reports them. An empty input issues no query.
func (s *Source) CheckMissing(ctx context.Context, specs []string) ([]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out, err := s.run.Run(ctx, "pacman", append([]string{"-T"}, specs...)...)
	if err != nil {
		return nil, err
	}
	switch out.ExitCode {
	case 0:
		return nil, nil
	case 127:
		return splitLines(out.Stdout), nil
	default:
		return nil, fmt.Errorf("pacman -T: exit status %d: %s", out.ExitCode, strings.TrimSpace(out.Stderr))
	}
}

// Info runs `pacman -Si` for targets and returns the records found along
// with the targets pacman could not find.
func (s *Source) Info(ctx context.Context, targets ...string) ([]Info, []string, error) {
	if len(targets) == 0 {
		return nil, nil, nil
	}
	out, err := s.run.Run(ctx, "pacman", append([]string{"-Si"}, targets...)...)
	if err != nil {
		return nil, nil, err
	}
	infos := parseInfo(out.Stdout)
	missing := parseNotFound(out.Stderr)
	if out.ExitCode != 0 && len(infos) == 0 && len(missing) == 0 {
		return nil, nil, fmt.Errorf("pacman -Si: exit status %d: %s", out.ExitCode, strings.TrimSpace(out.Stderr))
	}
	s.logger.Debug("pacman -Si", "targets", len(targets), "found", len(infos), "missing", len(missing))
	return infos, missing, nil
}

// ReadRepository returns the sync repository holding spec's name, or
// [arch.Unresolved] when no repository has a package by that name.
func (s *Source) ReadRepository(ctx context.Context, spec string) (arch.Repo, error) {
	infos, _, err := s.Info(ctx, arch.DepName(spec))
	if err != nil {
		return arch.Unresolved, err
	}
	if len(infos) == 0 {
		return arch.Unresolved, nil
	}
	return arch.RepoOf(infos[0].Repository), nil
}

// ReadDependencies returns the Depends On entries of name.
func (s *Source) ReadDependencies(ctx context.Context, name string) ([]string, error) {
	infos, _, err := s.Info(ctx, arch.DepName(name))
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return infos[0].Depends, nil
}

// SearchProviders searches the sync databases for packages that are, or
// provide, spec's name. Candidates are returned in pacman's search order,
// which follows repository priority.
func (s *Source) SearchProviders(ctx context.Context, spec string) ([]Info, error) {
	name := arch.DepName(spec)
	if name == "" {
		return nil, fmt.Errorf("empty dependency specifier")
	}

	out, err := s.run.Run(ctx, "pacman", "-Ss", regexp.QuoteMeta(name))
	if err != nil {
		return nil, err
	}
	refs := parseSearch(out.Stdout)
	if len(refs) == 0 {
		return nil, nil
	}

	targets := make([]string, len(refs))
	for i, r := range refs {
		targets[i] = r.String()
	}
	infos, _, err := s.Info(ctx, targets...)
	if err != nil {
		return nil, err
	}

	var found []Info
	for _, info := range infos {
		if info.ProvidesName(name) {
			found = append(found, info)
		}
	}
	return found, nil
}

// MapSortingData returns provides and dependencies for each name found in
// the sync databases. Names pacman cannot find are absent from the map.
func (s *Source) MapSortingData(ctx context.Context, names []string) (map[string]SortingData, error) {
	infos, missing, err := s.Info(ctx, names...)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		s.logger.Debug("no sorting data", "packages", missing)
	}

	data := make(map[string]SortingData, len(infos))
	for _, info := range infos {
		if _, seen := data[info.Name]; seen {
			continue
		}
		data[info.Name] = SortingData{
			Provides: append([]string{info.Name}, info.Provides...),
			Depends:  info.Depends,
		}
	}
	return data, nil
}

// ListDownloadData returns download descriptors for names in sync database
// order. Names pacman cannot find are omitted.
func (s *Source) ListDownloadData(ctx context.Context, names []string) ([]arch.Descriptor, error) {
	infos, _, err := s.Info(ctx, names...)
	if err != nil {
		return nil, err
	}
	out := make([]arch.Descriptor, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Descriptor())
	}
	return out, nil
}
