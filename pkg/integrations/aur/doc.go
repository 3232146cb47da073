// Package aur provides a client for the Arch User Repository.
//
// Two endpoints are used: the RPC interface (v5 "info" queries) for package
// records, and the cgit plain-file view for a package base's .SRCINFO,
// which is parsed with github.com/Morganamilo/go-srcinfo.
//
//	c := aur.NewClient(cache.NewNullCache(), 24*time.Hour)
//	deps, err := c.RequiredDependencies(ctx, "yay")
//
// Required dependencies are makedepends, depends and checkdepends, including
// entries restricted to the client's architecture.
package aur
