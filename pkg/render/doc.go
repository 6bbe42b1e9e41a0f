// Package render draws the binding graph of a scene.
//
// # Overview
//
// Controllers and the layers they drive form a bipartite graph: one node
// per controller, one per bound consumer, and one edge per binding record,
// labelled with the slot and formula kind. [ToDOT] emits that graph as
// Graphviz DOT; [Render] lays it out with Graphviz, and
// [RenderCached] keeps the result in a [cache.Cache] keyed by the DOT text.
//
//	dot := render.ToDOT(doc, render.Options{})
//	svg, err := render.Render(ctx, dot, render.FormatSVG)
//
// Bindings whose controller no longer exists are drawn as dashed edges
// from a placeholder node, which makes dangling formulas easy to spot.
package render
