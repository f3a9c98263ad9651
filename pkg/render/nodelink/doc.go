// Package nodelink renders query graphs through Graphviz.
//
// # Usage
//
// Convert a compiled query to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(q, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Drawing conventions
//
// Terms are ellipses; projected variables have a heavy outline. Triple
// patterns are labelled arrows colored by their role: INSERT green, DELETE
// red, MINUS dashed red, OPTIONAL dashed, CONSTRUCT blue. Named graphs and
// SERVICE clauses are dashed clusters. With [Options.Detailed], a note
// lists FILTER and BIND expressions, the ORDER BY keys and the LIMIT.
//
// A [querygraph.Selection] in [Options] greys out everything it does not
// highlight.
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
