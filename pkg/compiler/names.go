package compiler

import (
	"sort"
	"strings"

	"github.com/matzehuels/sparqlviz/pkg/sparql"
)

// Namer turns SPARQL terms into graph display names.
type Namer struct {
	prefixes []prefix
}

type prefix struct {
	name, iri string
}

// NewNamer returns a Namer for the given prefix declarations. When
// several namespaces match a term the longest one wins, with ties broken
// by prefix name.
func NewNamer(prefixes map[string]string) *Namer {
	n := &Namer{}
	for name, iri := range prefixes {
		if iri != "" {
			n.prefixes = append(n.prefixes, prefix{name, iri})
		}
	}
	sort.Slice(n.prefixes, func(i, j int) bool {
		a, b := n.prefixes[i], n.prefixes[j]
		if len(a.iri) != len(b.iri) {
			return len(a.iri) > len(b.iri)
		}
		return a.name < b.name
	})
	return n
}

// Internalize maps a term to its display name: rdf:type becomes "a",
// boolean literals lose their quotes and datatype, IRIs under a declared
// namespace become "prefix:local", and everything else is unchanged.
func (n *Namer) Internalize(term string) string {
	if term == sparql.RDFType {
		return "a"
	}
	if strings.Contains(term, sparql.XSDBoolean) {
		if v, ok := sparql.LiteralValue(term); ok {
			return v
		}
	}
	for _, p := range n.prefixes {
		if local, ok := strings.CutPrefix(term, p.iri); ok {
			return p.name + ":" + local
		}
	}
	return term
}

// Predicate names an edge. Property paths are flattened by joining their
// items with the path operator and appending "*".
func (n *Namer) Predicate(p sparql.Predicate) string {
	if p.Path == nil {
		return n.Internalize(p.Term)
	}
	items := make([]string, len(p.Path.Items))
	for i, item := range p.Path.Items {
		items[i] = n.Predicate(item)
	}
	return strings.Join(items, p.Path.PathType) + "*"
}
