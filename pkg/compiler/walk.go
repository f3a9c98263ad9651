package compiler

import (
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/sparql"
)

// walk interprets a list of WHERE patterns in scope s.
func (c *compiler) walk(patterns []sparql.Pattern, s scope) {
	for _, p := range patterns {
		switch p.Type {
		case sparql.PatternGroup:
			c.walk(p.Patterns, s)
		case sparql.PatternGraph:
			c.bgp(c.graphTriples(p), s, c.q.AddSubGraph(p.Name))
		case sparql.PatternBGP:
			c.bgp(p.Triples, s, querygraph.NoSubGraph)
		case sparql.PatternMinus:
			inner := s
			inner.kind = querygraph.EdgeMinus
			c.walk(p.Patterns, inner)
		case sparql.PatternOptional:
			inner := s
			inner.kind = querygraph.EdgeOptional
			c.walk(p.Patterns, inner)
		case sparql.PatternService:
			inner := s
			inner.service = c.q.AddService(p.Name)
			c.walk(p.Patterns, inner)
		case sparql.PatternUnion:
			inner := s
			inner.union = c.q.AddUnion()
			c.walk(p.Patterns, inner)
		case sparql.PatternBind:
			c.bind(p)
		case sparql.PatternFilter:
			c.filter(p, s)
		case sparql.PatternValues, sparql.PatternQuery:
			c.diag.IgnoredPatterns++
		}
	}
}

// bgp is shared by plain basic graph patterns and GRAPH clauses; the
// latter pass the SubGraph that owns the triples.
func (c *compiler) bgp(triples []sparql.Triple, s scope, sg querygraph.SubGraphID) {
	c.addTriples(triples, s, sg)
}

// graphTriples returns the triples a GRAPH clause contributes: its own
// triples when it is an update quad, otherwise those of its first nested
// pattern. Further nested patterns are counted and skipped.
func (c *compiler) graphTriples(p sparql.Pattern) []sparql.Triple {
	if len(p.Triples) > 0 || len(p.Patterns) == 0 {
		return p.Triples
	}
	c.diag.IgnoredPatterns += len(p.Patterns) - 1
	first := p.Patterns[0]
	if first.Type != sparql.PatternBGP {
		c.diag.IgnoredPatterns++
		return nil
	}
	return first.Triples
}

func (c *compiler) bind(p sparql.Pattern) {
	b := c.q.AddBind(c.gen.ToPattern(p))
	attach := func(e sparql.Expression) {
		if id, ok := c.lookup(e); ok {
			c.q.BindNode(b, id)
		}
		for _, edge := range c.edgesNamed(e) {
			c.q.BindEdge(b, edge)
		}
	}

	attach(sparql.Expression{Term: p.Variable})
	if p.Expression == nil {
		return
	}
	if p.Expression.IsTerm() {
		attach(*p.Expression)
		return
	}
	for _, arg := range p.Expression.Args {
		attach(arg)
	}
}

func (c *compiler) filter(p sparql.Pattern, s scope) {
	f := c.q.AddFilter(c.gen.ToPattern(p))
	attach := func(e sparql.Expression) {
		if id, ok := c.lookup(e); ok {
			c.q.FilterNode(f, id)
		}
		for _, edge := range c.edgesNamed(e) {
			c.q.FilterEdge(f, edge)
		}
	}

	if p.Expression == nil {
		return
	}
	args := p.Expression.Args
	if p.Expression.IsTerm() {
		args = []sparql.Expression{*p.Expression}
	}
	for _, arg := range args {
		switch {
		case arg.HasArgs():
			for _, sub := range arg.Args {
				attach(sub)
			}
		case arg.IsPattern():
			for _, t := range embeddedTriples(arg) {
				c.filterTriple(f, t, s)
			}
		default:
			attach(arg)
		}
	}
}

// filterTriple links a triple of an EXISTS / NOT EXISTS pattern to the
// filter, drawing the triple first if no edge has its predicate yet.
func (c *compiler) filterTriple(f querygraph.FilterID, t sparql.Triple, s scope) {
	name := c.names.Predicate(t.Predicate)
	if len(c.q.EdgesNamed(name)) == 0 {
		c.addTriple(t, s, querygraph.NoSubGraph)
	}
	c.q.FilterNode(f, c.node(t.Subject))
	c.q.FilterNode(f, c.node(t.Object))
	for _, e := range c.q.EdgesNamed(name) {
		c.q.FilterEdge(f, e)
	}
}

// embeddedTriples collects the triples of an embedded pattern: a bgp
// directly, or the bgps at the top of a group.
func embeddedTriples(e sparql.Expression) []sparql.Triple {
	if e.Type == sparql.PatternBGP {
		return e.Triples
	}
	var out []sparql.Triple
	for _, p := range e.Patterns {
		if p.Type == sparql.PatternBGP {
			out = append(out, p.Triples...)
		}
	}
	return out
}
