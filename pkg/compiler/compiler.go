package compiler

import (
	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/sparql"
	"github.com/matzehuels/sparqlviz/pkg/sparql/generator"
)

// Diagnostics counts soft conditions met while compiling. None of them
// stop compilation.
type Diagnostics struct {
	// UnresolvedReferences counts ORDER BY, FILTER and BIND arguments that
	// named no graph node.
	UnresolvedReferences int `json:"unresolved_references"`
	// IgnoredPatterns counts patterns that are not drawn: those inside a
	// GRAPH clause after the first, VALUES blocks and sub-selects.
	IgnoredPatterns int `json:"ignored_patterns"`
}

// Result is a compiled request.
type Result struct {
	Query       *querygraph.Query
	Diagnostics Diagnostics
}

// Compile builds the graph model of a parsed request. It rejects only a
// nil tree or an unknown request type; any well-formed tree compiles.
func Compile(ast *sparql.Query) (*Result, error) {
	if ast == nil {
		return nil, sverrors.New(sverrors.ErrCodeInvalidInput, "no syntax tree to compile")
	}
	if ast.Type != sparql.TypeQuery && ast.Type != sparql.TypeUpdate {
		return nil, sverrors.New(sverrors.ErrCodeInvalidInput, "unknown request type %q", ast.Type)
	}

	c := &compiler{
		q:     querygraph.New(),
		names: NewNamer(ast.Prefixes),
		gen:   generator.New(ast.Prefixes),
	}
	if ast.IsUpdate() {
		c.update(ast.Updates)
	} else {
		c.query(ast)
	}
	if ast.Limit != nil {
		c.q.SetLimit(*ast.Limit)
	}
	if ast.Order != nil {
		c.order(ast.Order)
	}
	return &Result{Query: c.q, Diagnostics: c.diag}, nil
}

type compiler struct {
	q     *querygraph.Query
	names *Namer
	gen   *generator.Generator
	diag  Diagnostics
}

// scope is the context a pattern is interpreted in.
type scope struct {
	kind    querygraph.EdgeType
	service querygraph.ServiceID
	union   querygraph.UnionID
}

func rootScope(kind querygraph.EdgeType) scope {
	return scope{kind: kind, service: querygraph.NoService, union: querygraph.NoUnion}
}

func (c *compiler) update(ops []sparql.Update) {
	for _, op := range ops {
		c.quads(op.Insert, querygraph.EdgeInsert)
		c.quads(op.Delete, querygraph.EdgeDelete)
		c.walk(op.Where, rootScope(querygraph.EdgeRegular))
	}
}

// quads materializes an INSERT or DELETE template. Graph quads are owned
// by the named graph they sit in.
func (c *compiler) quads(patterns []sparql.Pattern, kind querygraph.EdgeType) {
	s := rootScope(kind)
	for _, p := range patterns {
		sg := querygraph.NoSubGraph
		if p.Type == sparql.PatternGraph {
			sg = c.q.AddSubGraph(p.Name)
		}
		c.addTriples(p.Triples, s, sg)
	}
}

func (c *compiler) query(ast *sparql.Query) {
	if ast.QueryType == sparql.QueryConstruct {
		c.addTriples(ast.Template, rootScope(querygraph.EdgeConstruct), querygraph.NoSubGraph)
	}
	c.walk(ast.Where, rootScope(querygraph.EdgeRegular))

	if ast.QueryType != sparql.QuerySelect {
		return
	}
	if ast.IsSelectAll() {
		for _, n := range c.q.Nodes() {
			n.SetType(querygraph.NodeSelect)
		}
		return
	}
	for _, v := range ast.Variables {
		if v.Expression != nil {
			continue
		}
		if n, ok := c.q.NodeByName(c.names.Internalize(v.Variable)); ok {
			n.SetType(querygraph.NodeSelect)
		}
	}
}

func (c *compiler) order(conds []sparql.Ordering) {
	c.q.SetOrder()
	for _, cond := range conds {
		if id, ok := c.lookup(cond.Expression); ok {
			c.q.OrderNode(id)
		}
	}
}

// node returns the node for term, creating it on first use.
func (c *compiler) node(term string) querygraph.NodeID {
	return c.q.AddNode(c.names.Internalize(term))
}

// lookup resolves an expression to an existing node without creating one.
// Anything that is not a bare term, or a term with no node, counts as an
// unresolved reference.
func (c *compiler) lookup(e sparql.Expression) (querygraph.NodeID, bool) {
	if !e.IsTerm() {
		c.diag.UnresolvedReferences++
		return 0, false
	}
	n, ok := c.q.NodeByName(c.names.Internalize(e.Term))
	if !ok {
		c.diag.UnresolvedReferences++
		return 0, false
	}
	return n.ID(), true
}

// edgesNamed returns the edges whose predicate has the display name of e.
func (c *compiler) edgesNamed(e sparql.Expression) []querygraph.EdgeID {
	if !e.IsTerm() {
		return nil
	}
	return c.q.EdgesNamed(c.names.Internalize(e.Term))
}

func (c *compiler) addTriples(triples []sparql.Triple, s scope, sg querygraph.SubGraphID) {
	for _, t := range triples {
		c.addTriple(t, s, sg)
	}
}

func (c *compiler) addTriple(t sparql.Triple, s scope, sg querygraph.SubGraphID) querygraph.EdgeID {
	start := c.node(t.Subject)
	end := c.node(t.Object)
	e := c.q.AddEdge(c.names.Predicate(t.Predicate), start, end, s.kind, sg, s.service)
	if s.union != querygraph.NoUnion {
		c.q.AddUnionEdge(s.union, e)
	}
	return e
}
