// Package dag provides the row-layered graph used to present an upgrade
// order.
//
// # Overview
//
// Each node is a package and its row is the package's rank: row 0 holds
// packages with no dependencies inside the batch, and every other package
// sits strictly above the dependencies it was ranked after. Edges point
// from a dependent to its dependency.
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "glibc", Row: 0})
//	g.AddNode(dag.Node{ID: "bash", Row: 1})
//	g.AddEdge(dag.Edge{From: "bash", To: "glibc"})
//
// Use [DAG.Validate] to check that every edge points to a lower row and
// that the graph is acyclic before rendering.
//
// # Metadata
//
// Both nodes and the graph itself carry [Metadata] maps. Nodes built from
// an order hold the package's repository and version, and a "degraded"
// flag when its dependency data could not be read.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use.
package dag
