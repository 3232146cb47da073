package deps

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pacstage/pkg/arch"
	pserrors "github.com/matzehuels/pacstage/pkg/errors"
	"github.com/matzehuels/pacstage/pkg/integrations"
	"github.com/matzehuels/pacstage/pkg/observability"
)

// Result is the outcome of [Resolver.ResolveMissing].
type Result struct {
	// Checked is false when nothing was left to check: every name was
	// already in analysis, so the installed-package query never ran.
	Checked bool `json:"checked"`
	// Missing lists packages to install, dependencies first.
	Missing []arch.Ref `json:"missing"`
}

// Resolver discovers missing dependencies across the sync databases and
// the AUR.
//
// A Resolver is safe for concurrent use; per-call state lives in the
// caller's [InAnalysis] set.
type Resolver struct {
	repo RepoSource
	aur  AURSource
	opts Options

	chooseMu sync.Mutex
	chosen   map[string]string // dependency name -> provider picked by the Chooser
}

// NewResolver creates a Resolver. A nil aur disables AUR lookups.
func NewResolver(repo RepoSource, aur AURSource, opts Options) *Resolver {
	return &Resolver{repo: repo, aur: aur, opts: opts.WithDefaults(), chosen: make(map[string]string)}
}

// ResolveMissing returns every specifier in specs, and every transitive
// dependency, that is not installed, together with the source providing
// it. Names already in seen are skipped; a nil seen starts a fresh set.
//
// If any name cannot be placed in a repository or the AUR, the call fails
// with an [*UnresolvedError] and no partial list.
func (r *Resolver) ResolveMissing(ctx context.Context, specs []string, seen *InAnalysis) (Result, error) {
	if seen == nil {
		seen = NewInAnalysis()
	}
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, len(specs))
	start := time.Now()

	w := r.newWalk(seen)
	found, checked, err := w.missing(ctx, specs, "", 0)

	var res Result
	if err == nil {
		res = Result{Checked: checked, Missing: w.order(found)}
	}
	hooks.OnResolveComplete(ctx, len(res.Missing), time.Since(start), err)
	return res, err
}

// ResolveKnown orders a batch whose sources are already known. With expand
// set, missing dependencies of the batch are discovered first. The result
// is the discovered dependencies, then the repository packages, then the
// AUR packages, since AUR builds need everything else staged.
func (r *Resolver) ResolveKnown(ctx context.Context, known []arch.Ref, expand bool) ([]arch.Ref, error) {
	var repoRefs, aurRefs []arch.Ref
	for _, ref := range known {
		switch {
		case !ref.Repo.IsResolved():
			return nil, &UnresolvedError{Name: ref.Name}
		case ref.Repo.IsAUR():
			aurRefs = append(aurRefs, ref)
		default:
			repoRefs = append(repoRefs, ref)
		}
	}

	var out []arch.Ref
	emitted := make(map[string]bool, len(known))
	emit := func(refs []arch.Ref) {
		for _, ref := range refs {
			if !emitted[ref.Name] {
				emitted[ref.Name] = true
				out = append(out, ref)
			}
		}
	}

	if expand {
		w := r.newWalk(NewInAnalysis(arch.Names(known)...))
		var subs []arch.Ref
		for _, group := range [][]arch.Ref{repoRefs, aurRefs} {
			found, err := w.expand(ctx, group, 1)
			if err != nil {
				return nil, err
			}
			subs = append(subs, found...)
		}
		emit(w.order(subs))
	}
	emit(repoRefs)
	emit(aurRefs)
	return out, nil
}

// walk is the state of one resolution call tree. Recursion is sequential;
// only the lookups within one level fan out.
type walk struct {
	*Resolver
	seen  *InAnalysis
	deps  map[string][]string // package -> declared specifiers
	alias map[string]string   // specifier name -> package chosen for it
}

func (r *Resolver) newWalk(seen *InAnalysis) *walk {
	return &walk{
		Resolver: r,
		seen:     seen,
		deps:     make(map[string][]string),
		alias:    make(map[string]string),
	}
}

func (w *walk) missing(ctx context.Context, specs []string, parent string, depth int) ([]arch.Ref, bool, error) {
	if depth > w.opts.MaxDepth {
		return nil, false, fmt.Errorf("%w: below %s", ErrMaxDepth, parent)
	}
	todo := w.unseen(specs)
	if len(todo) == 0 {
		return nil, false, nil
	}

	names, err := w.repo.CheckMissing(ctx, todo)
	if err != nil {
		return nil, true, err
	}
	if len(names) == 0 {
		return nil, true, nil
	}

	located, err := w.locate(ctx, names)
	if err != nil {
		return nil, true, err
	}
	for i, ref := range located {
		if !ref.Repo.IsResolved() {
			return nil, true, &UnresolvedError{Name: arch.DepName(names[i]), RequiredBy: parent}
		}
	}
	roots := w.claim(names, located)
	for _, root := range roots {
		w.opts.Logger.Debug("missing dependency", "name", root.Name, "repo", root.Repo, "required_by", parent)
	}

	found, err := w.expand(ctx, roots, depth+1)
	if err != nil {
		return nil, true, err
	}

	isRoot := make(map[string]bool, len(roots))
	for _, root := range roots {
		isRoot[root.Name] = true
	}
	var subs []arch.Ref
	for _, ref := range found {
		if !isRoot[ref.Name] {
			isRoot[ref.Name] = true
			subs = append(subs, ref)
		}
	}
	return append(subs, roots...), true, nil
}

// expand resolves the missing dependencies of refs, whose names must
// already be claimed.
func (w *walk) expand(ctx context.Context, refs []arch.Ref, depth int) ([]arch.Ref, error) {
	declared, err := w.dependencies(ctx, refs)
	if err != nil {
		return nil, err
	}

	var out []arch.Ref
	for i, ref := range refs {
		w.deps[ref.Name] = declared[i]
		found, _, err := w.missing(ctx, declared[i], ref.Name, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// unseen drops specifiers whose name is in analysis, and duplicates.
func (w *walk) unseen(specs []string) []string {
	var out []string
	dup := make(map[string]bool, len(specs))
	for _, spec := range specs {
		name := arch.DepName(spec)
		if name == "" || dup[name] || w.seen.Contains(name) {
			continue
		}
		dup[name] = true
		out = append(out, spec)
	}
	return out
}

// claim marks each located package and the specifier it satisfies as in
// analysis. A package someone else already claimed is left to them.
func (w *walk) claim(specs []string, located []arch.Ref) []arch.Ref {
	var out []arch.Ref
	for i, ref := range located {
		spec := arch.DepName(specs[i])
		w.alias[spec] = ref.Name
		won := w.seen.Claim(ref.Name)
		w.seen.Claim(spec)
		if won {
			out = append(out, ref)
		}
	}
	return out
}

// locate determines the source of each specifier on the bounded pool.
// Results keep input order.
func (w *walk) locate(ctx context.Context, specs []string) ([]arch.Ref, error) {
	refs := make([]arch.Ref, len(specs))
	err := w.each(ctx, len(specs), func(ctx context.Context, i int) error {
		ref, err := w.repositoryOf(ctx, specs[i])
		refs[i] = ref
		return err
	})
	return refs, err
}

func (w *walk) dependencies(ctx context.Context, refs []arch.Ref) ([][]string, error) {
	out := make([][]string, len(refs))
	err := w.each(ctx, len(refs), func(ctx context.Context, i int) error {
		specs, err := w.dependenciesOf(ctx, refs[i])
		out[i] = specs
		return err
	})
	return out, err
}

// order returns refs with every package after the in-list packages it
// depends on. Refs already in that order are left as they are.
func (w *walk) order(refs []arch.Ref) []arch.Ref {
	index := make(map[string]arch.Ref, len(refs))
	for _, ref := range refs {
		index[ref.Name] = ref
	}

	out := make([]arch.Ref, 0, len(refs))
	visited := make(map[string]bool, len(refs))
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, spec := range w.deps[name] {
			if dep := w.target(spec); dep != name {
				if _, ok := index[dep]; ok {
					visit(dep)
				}
			}
		}
		out = append(out, index[name])
	}
	for _, ref := range refs {
		visit(ref.Name)
	}
	return out
}

func (w *walk) target(spec string) string {
	name := arch.DepName(spec)
	if pkg, ok := w.alias[name]; ok {
		return pkg
	}
	return name
}

// repositoryOf tries the sync databases by name, then a provider search,
// then the AUR. A name none of them knows comes back Unresolved.
func (r *Resolver) repositoryOf(ctx context.Context, spec string) (arch.Ref, error) {
	name := arch.DepName(spec)

	repo, err := r.repo.ReadRepository(ctx, name)
	if err != nil {
		return arch.Ref{}, err
	}
	if repo.IsResolved() {
		return arch.Ref{Name: name, Repo: repo}, nil
	}

	candidates, err := r.repo.SearchProviders(ctx, spec)
	if err != nil {
		return arch.Ref{}, err
	}
	p, ok, err := r.chooseProvider(arch.ParseDep(spec), candidates)
	if err != nil {
		return arch.Ref{}, err
	}
	if ok {
		return p.Ref(), nil
	}

	if r.aur != nil {
		_, err := r.aur.SrcInfo(ctx, name)
		if err == nil {
			return arch.Ref{Name: name, Repo: arch.AUR}, nil
		}
		if !errors.Is(err, integrations.ErrNotFound) {
			return arch.Ref{}, err
		}
	}
	return arch.Ref{Name: name}, nil
}

func (r *Resolver) dependenciesOf(ctx context.Context, ref arch.Ref) ([]string, error) {
	if !ref.Repo.IsAUR() {
		return r.repo.ReadDependencies(ctx, ref.Name)
	}
	if r.aur == nil {
		return nil, pserrors.New(pserrors.ErrCodeUnsupported, "AUR support is disabled: %s", ref.Name)
	}
	return r.aur.RequiredDependencies(ctx, ref.Name)
}

// each runs fn for 0..n-1 on at most Options.Workers goroutines. The first
// error cancels the rest.
func (r *Resolver) each(ctx context.Context, n int, fn func(context.Context, int) error) error {
	if n == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i := range n {
		g.Go(func() error { return fn(ctx, i) })
	}
	return g.Wait()
}
