// Package deps discovers missing dependencies and orders package batches.
//
// # Overview
//
// Two sources answer questions about a package name: the sync databases,
// queried through pacman ([RepoSource]), and the AUR, queried through its
// .SRCINFO files ([AURSource]). This package combines them:
//
//   - [Resolver.ResolveMissing] finds every dependency that is not installed,
//     transitively, and the source each one comes from
//   - [Resolver.ResolveKnown] expands a batch whose sources are already known
//   - [Sorter.Sort] ranks an upgrade batch so dependencies are applied first
//
// # Resolving Missing Dependencies
//
//	r := deps.NewResolver(pacman.New(pacman.Options{}), aurClient, deps.Options{})
//	res, err := r.ResolveMissing(ctx, []string{"yay"}, nil)
//	var unresolved *deps.UnresolvedError
//	if errors.As(err, &unresolved) {
//	    // no source provides unresolved.Name
//	}
//
// For each name, the repository is determined by, in order:
//
//  1. a sync database lookup by name
//  2. a provider search, disambiguated by [SelectProvider]
//  3. the AUR, when an AURSource is configured
//
// A name none of these can place aborts the whole call with an
// [*UnresolvedError]. Lookups across one batch run on a bounded pool of
// Options.Workers goroutines; recursion is capped at Options.MaxDepth.
//
// The returned list places every dependency before the packages that need
// it and never repeats a name.
//
// # In-Analysis Set
//
// [InAnalysis] records names whose dependencies are being or have been
// explored. Callers that resolve several batches for one transaction share
// one set so nothing is expanded twice; Claim is an atomic check-and-insert.
//
// # Ordering Upgrades
//
// [Sorter.Sort] assigns every package a rank, one more than the highest rank
// among its in-batch dependencies, and returns packages by ascending rank
// with ties in input order. Virtual names are mapped to concrete packages
// through an [arch.ProvidesMap]. A package whose dependency data cannot be
// fetched is ranked as if it had no dependencies.
package deps
