// Package svg draws a laid-out query graph as a standalone SVG document.
//
// Unlike [nodelink], which lets Graphviz place the nodes, this renderer
// uses the positions assigned by the force simulation in package layout
// and the edge geometry computed by package geometry: every node is an
// ellipse sized from its label, every edge a quadratic Bezier curve
// through its control point, and every arrowhead sits where the curve
// meets the end node's ellipse, turned along the curve's tangent.
//
//	if _, err := layout.Run(ctx, q, layout.Options{}); err != nil {
//		return err
//	}
//	doc := svg.Render(q, svg.WithLegend(), svg.WithSelection(sel))
//
// [nodelink]: github.com/matzehuels/sparqlviz/pkg/render/nodelink
package svg
