// Package pkg provides the libraries behind sparqlviz, which draws SPARQL
// queries as graphs.
//
// # Overview
//
// A query is parsed into an AST, compiled into a typed graph model, laid out
// by a force simulation and drawn. Triple patterns become edges between term
// nodes. FILTER and BIND expressions, unions, named graphs and services are
// kept as first-class entities so a renderer can highlight them.
//
//	query text
//	     ↓
//	[sparql/parser] (text → AST)
//	     ↓
//	[compiler] (AST → [querygraph])
//	     ↓
//	[layout] + [geometry] (positions, curves, arrowheads)
//	     ↓
//	[render] (SVG, DOT, PDF, PNG)
//
// # Quick Start
//
//	ast, _ := parser.Parse(`SELECT ?s WHERE { ?s a owl:Class }`)
//	res, _ := compiler.Compile(ast)
//	layout.Run(ctx, res.Query, layout.Options{})
//	svg := svg.Render(res.Query)
//
// [pipeline] runs the same steps with caching and is shared by the CLI, the
// HTTP [server] and the interactive [workspace].
//
// # Main Packages
//
// [querygraph] - The compiled model: nodes, edges, sub-graphs, unions,
// filters, binds and ordering, addressed by typed references.
//
// [compiler] - Walks a query AST and builds the model. Unsupported patterns
// are reported as diagnostics rather than errors.
//
// [geometry] - Bezier and ellipse math for edges: control points, curve
// midpoints and where an edge meets its target's label.
//
// [layout] - Deterministic force simulation that places nodes and updates
// edge geometry every tick.
//
// [graph] - JSON and YAML documents for compiled and laid out queries.
//
// [cache] - File, Redis and no-op caches for the pipeline stages.
//
// [render/svg] and [render/nodelink] - The two renderers.
//
// [compiler]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/compiler
// [querygraph]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/querygraph
// [geometry]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/geometry
// [layout]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/layout
// [graph]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/graph
// [cache]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/cache
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/render/svg
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/server
// [workspace]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/workspace
//
// [sparql/parser]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/sparql/parser
// [render]: https://pkg.go.dev/github.com/matzehuels/sparqlviz/pkg/render
package pkg
