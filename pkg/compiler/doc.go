// Package compiler builds a [querygraph.Query] from a parsed SPARQL
// request.
//
// Every triple pattern the compiler reaches becomes one edge and every
// distinct subject or object term one node. The kind of the enclosing
// clause decides the edge type: INSERT and DELETE templates, MINUS and
// OPTIONAL groups, and CONSTRUCT templates each have their own type, and
// everything else is REGULAR. GRAPH clauses and graph quads put their
// edges into a named [querygraph.SubGraph], SERVICE clauses into a
// [querygraph.Service], and UNION clauses into a [querygraph.Union].
//
// FILTER and BIND clauses become annotations labelled with their SPARQL
// text. They link to the nodes and edges their expression mentions; terms
// that name no node are skipped and counted in [Diagnostics].
//
// Terms are named by a [Namer]: rdf:type is drawn as "a", boolean literals
// as their bare value, and IRIs under a declared namespace in prefixed
// form.
//
// # Usage
//
//	ast, err := parser.ParseWithPrefixes(text, parser.DefaultPrefixes)
//	if err != nil {
//	    return err
//	}
//	res, err := compiler.Compile(ast)
package compiler
