package deps

import (
	"cmp"
	"context"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pacstage/pkg/arch"
	"github.com/matzehuels/pacstage/pkg/dag"
	"github.com/matzehuels/pacstage/pkg/integrations/aur"
	"github.com/matzehuels/pacstage/pkg/observability"
)

// Ranked is a package with its position in an upgrade order.
type Ranked struct {
	arch.Package
	Rank     int  `json:"rank"`
	Degraded bool `json:"degraded,omitempty"` // dependency data was unavailable
}

// Edge records that From depends on To within the batch.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Order is the result of [Sorter.Sort].
type Order struct {
	Ranked []Ranked `json:"packages"`
	Edges  []Edge   `json:"edges"`
}

// Packages returns the ordered packages without ranks.
func (o *Order) Packages() []arch.Package {
	out := make([]arch.Package, len(o.Ranked))
	for i, r := range o.Ranked {
		out[i] = r.Package
	}
	return out
}

// DAG returns the order as a graph with one row per rank, for rendering.
func (o *Order) DAG() *dag.DAG {
	g := dag.New(dag.Metadata{"packages": len(o.Ranked)})
	for _, r := range o.Ranked {
		meta := dag.Metadata{"repository": r.Repo.String()}
		if r.Version != "" {
			meta["version"] = r.Version
		}
		if r.Degraded {
			meta["degraded"] = true
		}
		_ = g.AddNode(dag.Node{ID: r.Name, Row: r.Rank, Meta: meta})
	}
	for _, e := range o.Edges {
		_ = g.AddEdge(dag.Edge{From: e.From, To: e.To})
	}
	return g
}

// Sorter orders upgrade batches so that dependencies are applied before
// the packages that need them.
type Sorter struct {
	repo RepoSource
	aur  AURSource
	opts Options
}

// NewSorter creates a Sorter. A nil aur leaves AUR packages without
// dependency data.
func NewSorter(repo RepoSource, aur AURSource, opts Options) *Sorter {
	return &Sorter{repo: repo, aur: aur, opts: opts.WithDefaults()}
}

// sortEntry is the dependency data gathered for one batch member.
type sortEntry struct {
	pkg      arch.Package
	deps     []string
	provides []string
	degraded bool
}

// Sort ranks pkgs and returns them by ascending rank, ties in input order.
// Duplicate names keep their first occurrence. Missing dependency data
// never fails the sort; only cancellation does.
func (s *Sorter) Sort(ctx context.Context, pkgs []arch.Package) (*Order, error) {
	start := time.Now()

	var batch []*sortEntry
	seen := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		if !seen[p.Name] {
			seen[p.Name] = true
			batch = append(batch, &sortEntry{pkg: p})
		}
	}

	if err := s.fetch(ctx, batch); err != nil {
		return nil, err
	}

	provides := arch.NewProvidesMap()
	for _, e := range batch {
		provides.AddPackage(e.pkg.Name)
	}
	for _, e := range batch {
		provides.Add(e.pkg.Name, e.provides...)
	}

	order := rank(batch, provides)

	degraded := 0
	for _, r := range order.Ranked {
		if r.Degraded {
			degraded++
		}
	}
	observability.Resolve().OnSortComplete(ctx, len(order.Ranked), degraded, time.Since(start))
	return order, nil
}

// fetch fills in dependency data: one pool task per AUR package and a
// single batched query for all repository packages.
func (s *Sorter) fetch(ctx context.Context, batch []*sortEntry) error {
	var repoEntries []*sortEntry
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, e := range batch {
		if !e.pkg.Repo.IsAUR() {
			repoEntries = append(repoEntries, e)
			continue
		}
		g.Go(func() error {
			s.fetchAUR(gctx, e)
			return gctx.Err()
		})
	}
	if len(repoEntries) > 0 {
		g.Go(func() error {
			s.fetchRepo(gctx, repoEntries)
			return gctx.Err()
		})
	}
	return g.Wait()
}

func (s *Sorter) fetchAUR(ctx context.Context, e *sortEntry) {
	if s.aur == nil {
		e.degraded = true
		s.opts.Logger.Warn("AUR disabled; no dependency data", "package", e.pkg.Name)
		return
	}
	si, err := s.aur.SrcInfo(ctx, e.pkg.Name)
	if err != nil {
		e.degraded = true
		s.opts.Logger.Warn("could not retrieve dependencies", "package", e.pkg.Name, "err", err)
		return
	}
	names, provides := aur.ProvidedNames(si, s.opts.Arch)
	e.provides = append(names, provides...)
	e.deps = aur.ExtractRequiredDependencies(si, s.opts.Arch)
	if e.pkg.Version == "" {
		e.pkg.Version = aur.Version(si)
	}
}

func (s *Sorter) fetchRepo(ctx context.Context, entries []*sortEntry) {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.pkg.Name
	}

	data, err := s.repo.MapSortingData(ctx, names)
	if err != nil {
		s.opts.Logger.Warn("could not retrieve sorting data", "packages", len(entries), "err", err)
	}
	for _, e := range entries {
		d, ok := data[e.pkg.Name]
		if !ok {
			e.degraded = true
			if err == nil {
				s.opts.Logger.Warn("could not retrieve sorting data", "package", e.pkg.Name)
			}
			continue
		}
		e.provides = d.Provides
		e.deps = d.Depends
	}
}

// rank assigns each entry 1 + the highest rank among its in-batch
// dependencies, computing dependencies first and memoizing. A dependency
// still on the recursion stack closes a cycle and is ignored.
func rank(batch []*sortEntry, provides *arch.ProvidesMap) *Order {
	index := make(map[string]int, len(batch))
	for i, e := range batch {
		index[e.pkg.Name] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(batch))
	ranks := make([]int, len(batch))
	order := &Order{}
	edge := make(map[[2]int]bool)

	var visit func(i int) int
	visit = func(i int) int {
		switch state[i] {
		case done:
			return ranks[i]
		case visiting:
			return -1
		}
		state[i] = visiting

		r := 0
		for _, spec := range batch[i].deps {
			target, ok := provides.Resolve(spec)
			if !ok {
				continue
			}
			j, ok := index[target]
			if !ok || j == i {
				continue
			}
			dr := visit(j)
			if dr < 0 {
				continue
			}
			r = max(r, dr+1)
			if !edge[[2]int{i, j}] {
				edge[[2]int{i, j}] = true
				order.Edges = append(order.Edges, Edge{From: batch[i].pkg.Name, To: batch[j].pkg.Name})
			}
		}

		state[i] = done
		ranks[i] = r
		return r
	}

	order.Ranked = make([]Ranked, len(batch))
	for i, e := range batch {
		order.Ranked[i] = Ranked{Package: e.pkg, Rank: visit(i), Degraded: e.degraded}
	}
	slices.SortStableFunc(order.Ranked, func(a, b Ranked) int { return cmp.Compare(a.Rank, b.Rank) })
	return order
}
