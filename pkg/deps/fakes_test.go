package deps

import (
	"context"
	"fmt"
	"strings"
	"sync"

	srcinfo "github.com/Morganamilo/go-srcinfo"

	"github.com/matzehuels/pacstage/pkg/arch"
	"github.com/matzehuels/pacstage/pkg/integrations"
	"github.com/matzehuels/pacstage/pkg/integrations/aur"
	"github.com/matzehuels/pacstage/pkg/pacman"
	"github.com/matzehuels/pacstage/pkg/progress"
)

type fakeRepo struct {
	installed map[string]bool
	repos     map[string]string
	deps      map[string][]string
	providers map[string][]pacman.Info
	sorting   map[string]pacman.SortingData
	sortErr   error

	mu     sync.Mutex
	checks [][]string
}

func (f *fakeRepo) CheckMissing(_ context.Context, specs []string) ([]string, error) {
	f.mu.Lock()
	f.checks = append(f.checks, specs)
	f.mu.Unlock()

	var out []string
	for _, s := range specs {
		if !f.installed[arch.DepName(s)] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReadRepository(_ context.Context, spec string) (arch.Repo, error) {
	return arch.RepoOf(f.repos[arch.DepName(spec)]), nil
}

func (f *fakeRepo) ReadDependencies(_ context.Context, name string) ([]string, error) {
	if _, ok := f.repos[name]; !ok {
		if _, ok := f.deps[name]; !ok {
			return nil, fmt.Errorf("%w: %s", pacman.ErrNotFound, name)
		}
	}
	return f.deps[name], nil
}

func (f *fakeRepo) SearchProviders(_ context.Context, spec string) ([]pacman.Info, error) {
	return f.providers[arch.DepName(spec)], nil
}

func (f *fakeRepo) MapSortingData(_ context.Context, names []string) (map[string]pacman.SortingData, error) {
	if f.sortErr != nil {
		return nil, f.sortErr
	}
	out := make(map[string]pacman.SortingData)
	for _, n := range names {
		if d, ok := f.sorting[n]; ok {
			out[n] = d
		}
	}
	return out, nil
}

func (f *fakeRepo) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checks)
}

type fakeAUR struct {
	recipes map[string]string
}

func (f *fakeAUR) SrcInfo(_ context.Context, name string) (*srcinfo.Srcinfo, error) {
	text, ok := f.recipes[name]
	if !ok {
		return nil, fmt.Errorf("%w: aur package %s", integrations.ErrNotFound, name)
	}
	return srcinfo.Parse(text)
}

func (f *fakeAUR) RequiredDependencies(ctx context.Context, name string) ([]string, error) {
	si, err := f.SrcInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	return aur.ExtractRequiredDependencies(si, arch.DefaultArch), nil
}

// recipe builds a minimal .SRCINFO for name with runtime dependencies.
func recipe(name string, depends ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pkgbase = %s\n\tpkgver = 1.0\n\tpkgrel = 1\n\tarch = x86_64\n", name)
	for _, d := range depends {
		fmt.Fprintf(&b, "\tdepends = %s\n", d)
	}
	fmt.Fprintf(&b, "\npkgname = %s\n", name)
	return b.String()
}

type fakeWatcher struct {
	approve bool
	asked   []string
}

func (w *fakeWatcher) Print(string)           {}
func (w *fakeWatcher) ChangeSubstatus(string) {}
func (w *fakeWatcher) RequestConfirmation(title, body string) bool {
	w.asked = append(w.asked, body)
	return w.approve
}
func (w *fakeWatcher) ShowMessage(string, string, progress.Severity) {}

type fakeChooser struct {
	pick int

	mu    sync.Mutex
	asked [][]string
}

func (c *fakeChooser) RequestChoice(_, _ string, options []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked = append(c.asked, options)
	return c.pick
}
