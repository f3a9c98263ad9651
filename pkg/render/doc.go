// Package render turns compiled query graphs into pictures.
//
// # Overview
//
// Two renderers are provided:
//
//   - [nodelink]: Graphviz lays the graph out and draws it. Named graphs
//     and services become clusters.
//   - [svg]: draws a graph that was laid out by the force simulation in
//     [layout], using the edge geometry (curve offsets and arrowhead
//     anchors) computed by [geometry].
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). Both renderers use them.
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(q, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/sparqlviz/pkg/render/nodelink
// [svg]: github.com/matzehuels/sparqlviz/pkg/render/svg
// [layout]: github.com/matzehuels/sparqlviz/pkg/layout
// [geometry]: github.com/matzehuels/sparqlviz/pkg/geometry
package render
