// Package render draws upgrade orders as Graphviz diagrams.
//
// [ToDOT] lays a [dag.DAG] out top to bottom with one Graphviz rank per
// row, so packages applied together share a line and every package sits
// below what it depends on. [RenderSVG] runs the DOT source through the
// embedded Graphviz library; no external binary is needed.
//
//	g := order.DAG()
//	svg, err := render.RenderSVG(render.ToDOT(g, render.Options{Detailed: true}))
package render
