package compiler

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/sparql"
	"github.com/matzehuels/sparqlviz/pkg/sparql/parser"
)

const ex = "PREFIX ex: <http://example.org/>\n"

func compile(t *testing.T, text string) *Result {
	t.Helper()
	ast, err := parser.ParseWithPrefixes(text, parser.DefaultPrefixes)
	require.NoError(t, err)
	res, err := Compile(ast)
	require.NoError(t, err)
	return res
}

func node(t *testing.T, q *querygraph.Query, name string) *querygraph.Node {
	t.Helper()
	n, ok := q.NodeByName(name)
	require.True(t, ok, "no node %q", name)
	return n
}

func edgeTuples(q *querygraph.Query) []string {
	var out []string
	for _, e := range q.Edges() {
		out = append(out, e.Name()+" "+q.Node(e.Start()).Name()+" "+q.Node(e.End()).Name()+" "+e.Type().String())
	}
	sort.Strings(out)
	return out
}

func TestCompileRejectsBadInput(t *testing.T) {
	_, err := Compile(nil)
	assert.True(t, sverrors.Is(err, sverrors.ErrCodeInvalidInput))
	_, err = Compile(&sparql.Query{Type: "ping"})
	assert.True(t, sverrors.Is(err, sverrors.ErrCodeInvalidInput))
}

func TestCompileCounts(t *testing.T) {
	res := compile(t, ex+`SELECT * WHERE {
  ?a ex:p ?b .
  ?b ex:p ?c .
  ?a ex:q ?c .
  OPTIONAL { ?c ex:r "x" }
}`)
	q := res.Query
	assert.Len(t, q.Edges(), 4)
	assert.Len(t, q.Nodes(), 4)
	assert.Equal(t, Diagnostics{}, res.Diagnostics)
}

func TestCompileIsDeterministic(t *testing.T) {
	text := ex + `SELECT ?a WHERE {
  ?a ex:p ?b . ?b a ex:T
  { ?a ex:q ?c } UNION { ?a ex:r ?d }
  GRAPH ex:g { ?c ex:s ?d }
  FILTER(?b != ?c)
}`
	first, second := compile(t, text).Query, compile(t, text).Query

	names := func(q *querygraph.Query) []string {
		var out []string
		for _, n := range q.Nodes() {
			out = append(out, n.Name())
		}
		return out
	}
	assert.Equal(t, names(first), names(second))
	assert.Equal(t, edgeTuples(first), edgeTuples(second))
	assert.Equal(t, first.Stats(), second.Stats())
}

func TestSelectProjection(t *testing.T) {
	t.Run("star", func(t *testing.T) {
		q := compile(t, `SELECT * WHERE { ?a ?b ?c }`).Query
		require.Len(t, q.Nodes(), 2)
		for _, n := range q.Nodes() {
			assert.Equal(t, querygraph.NodeSelect, n.Type(), n.Name())
		}
	})
	t.Run("variables", func(t *testing.T) {
		q := compile(t, `SELECT ?a WHERE { ?a ?b ?c }`).Query
		assert.True(t, node(t, q, "?a").IsSelect())
		assert.False(t, node(t, q, "?c").IsSelect())
		assert.Equal(t, 1, q.Stats().SelectNodes)
	})
	t.Run("computed projections are not marked", func(t *testing.T) {
		q := compile(t, `SELECT ?a (COUNT(?c) AS ?n) WHERE { ?a ?b ?c }`).Query
		assert.Equal(t, 1, q.Stats().SelectNodes)
	})
	t.Run("other forms mark nothing", func(t *testing.T) {
		q := compile(t, `ASK { ?a ?b ?c }`).Query
		assert.Zero(t, q.Stats().SelectNodes)
	})
}

func TestPredicateVariableIsAnEdgeNotANode(t *testing.T) {
	q := compile(t, `SELECT * WHERE { ?a ?b ?c }`).Query
	require.Len(t, q.Edges(), 1)
	assert.Equal(t, "?b", q.Edges()[0].Name())
	_, ok := q.NodeByName("?b")
	assert.False(t, ok)
}

func TestUnion(t *testing.T) {
	q := compile(t, ex+`SELECT * WHERE { { ?a ex:p ?b } UNION { ?c ex:q ?d } }`).Query

	require.Len(t, q.Unions(), 1)
	u := q.Unions()[0]
	assert.Equal(t, "U1", u.Name())
	assert.Len(t, u.Edges(), 2)
	for _, name := range []string{"?a", "?b", "?c", "?d"} {
		assert.True(t, node(t, q, name).InUnion(u.ID()), name)
	}
}

func TestUnionsAreNumberedInOrder(t *testing.T) {
	q := compile(t, ex+`SELECT * WHERE {
  { ?a ex:p ?b } UNION { ?a ex:q ?b }
  { ?a ex:r ?b } UNION { { ?a ex:s ?b } UNION { ?a ex:t ?b } }
}`).Query
	require.Len(t, q.Unions(), 3)
	assert.Equal(t, "U1", q.Unions()[0].Name())
	assert.Equal(t, "U2", q.Unions()[1].Name())
	assert.Equal(t, "U3", q.Unions()[2].Name())
	assert.Len(t, q.Unions()[0].Edges(), 2)
	assert.Len(t, q.Unions()[2].Edges(), 2)
	assert.Len(t, q.Unions()[1].Edges(), 1, "nested union edges belong to the innermost union")
}

func TestEdgeTypes(t *testing.T) {
	q := compile(t, ex+`SELECT * WHERE {
  ?a ex:p ?b
  OPTIONAL { ?b ex:q ?c MINUS { ?c ex:r ?d } }
  MINUS { ?a ex:s ?e }
}`).Query
	assert.Equal(t, []string{
		"ex:p ?a ?b REGULAR",
		"ex:q ?b ?c OPTIONAL",
		"ex:r ?c ?d MINUS",
		"ex:s ?a ?e MINUS",
	}, edgeTuples(q))
}

func TestConstruct(t *testing.T) {
	q := compile(t, ex+`CONSTRUCT { ?a ex:made ?b } WHERE { ?a ex:p ?b }`).Query
	require.Len(t, q.Edges(), 2)
	assert.Equal(t, querygraph.EdgeConstruct, q.Edges()[0].Type(), "template edges come first")
	assert.Equal(t, querygraph.EdgeRegular, q.Edges()[1].Type())
}

func TestGraphClause(t *testing.T) {
	q := compile(t, ex+`SELECT * WHERE {
  GRAPH ex:g { ?a ex:p ?b }
  GRAPH ex:g { ?b ex:q ?c }
  ?c ex:r ?d
}`).Query

	require.Len(t, q.SubGraphs(), 1, "graphs with the same name are merged")
	sg := q.SubGraphs()[0]
	assert.Equal(t, "http://example.org/g", sg.Name())
	assert.Len(t, sg.Edges(), 2)
	assert.ElementsMatch(t, []querygraph.NodeID{
		node(t, q, "?a").ID(), node(t, q, "?b").ID(), node(t, q, "?c").ID(),
	}, sg.Nodes())

	last := q.Edges()[2]
	_, ok := last.SubGraph()
	assert.False(t, ok)
}

func TestGraphClauseUsesFirstPattern(t *testing.T) {
	res := compile(t, ex+`SELECT * WHERE { GRAPH ?g { ?a ex:p ?b OPTIONAL { ?b ex:q ?c } } }`)
	assert.Len(t, res.Query.Edges(), 1)
	assert.Equal(t, 1, res.Diagnostics.IgnoredPatterns)
	assert.Equal(t, "?g", res.Query.SubGraphs()[0].Name())
}

func TestValuesAndSubSelectAreNotDrawn(t *testing.T) {
	res := compile(t, ex+`SELECT * WHERE {
  ?a ex:p ?b
  VALUES ?a { ex:x }
  { SELECT ?b WHERE { ?b ex:q ?c } }
}`)
	assert.Equal(t, []string{"ex:p ?a ?b REGULAR"}, edgeTuples(res.Query))
	assert.Equal(t, 2, res.Diagnostics.IgnoredPatterns)
}

func TestBlankNodePropertyList(t *testing.T) {
	q := compile(t, ex+`SELECT * WHERE { ?s ex:p [ ex:q ?o ] }`).Query
	assert.Equal(t, []string{
		"ex:p ?s _:b0 REGULAR",
		"ex:q _:b0 ?o REGULAR",
	}, edgeTuples(q))
}

func TestService(t *testing.T) {
	q := compile(t, ex+`SELECT * WHERE {
  ?a ex:p ?b
  SERVICE <http://dbpedia.org/sparql> { ?b ex:q ?c OPTIONAL { ?c ex:r ?d } }
}`).Query

	require.Len(t, q.Services(), 1)
	svc := q.Services()[0]
	assert.Equal(t, "http://dbpedia.org/sparql", svc.Name())
	assert.Len(t, svc.Edges(), 2, "nested groups stay in the service")
	assert.Len(t, svc.Nodes(), 3)

	first := q.Edges()[0]
	_, ok := first.Service()
	assert.False(t, ok)
	assert.Empty(t, node(t, q, "?a").Services())
}

func TestFilter(t *testing.T) {
	res := compile(t, ex+`SELECT * WHERE {
  ?a ex:p ?b .
  ?b ex:age ?n
  FILTER(?n > 5 && ?a != ?b)
}`)
	q := res.Query
	require.Len(t, q.Filters(), 1)
	f := q.Filters()[0]
	assert.Equal(t, "FILTER((?n > 5) && (?a != ?b))", f.Text())
	assert.ElementsMatch(t, []querygraph.NodeID{
		node(t, q, "?n").ID(), node(t, q, "?a").ID(), node(t, q, "?b").ID(),
	}, f.Nodes())
	assert.True(t, node(t, q, "?n").InFilter(f.ID()))
	assert.Equal(t, 1, res.Diagnostics.UnresolvedReferences, "the literal 5 is not a node")
}

func TestFilterUnspacedComparison(t *testing.T) {
	q := compile(t, `SELECT ?n WHERE { ?s <http://x/p> ?n FILTER(?n<5&&?n>1) }`).Query
	require.Len(t, q.Filters(), 1)
	f := q.Filters()[0]
	assert.Equal(t, "FILTER((?n < 5) && (?n > 1))", f.Text())
	assert.True(t, node(t, q, "?n").InFilter(f.ID()))
}

func TestFilterOnTerm(t *testing.T) {
	q := compile(t, `SELECT * WHERE { ?a ?p ?b FILTER(?b) }`).Query
	f := q.Filters()[0]
	assert.Equal(t, []querygraph.NodeID{node(t, q, "?b").ID()}, f.Nodes())
}

func TestFilterAttachesPredicateVariableEdges(t *testing.T) {
	q := compile(t, `SELECT * WHERE { ?a ?p ?b FILTER(isIRI(?p)) }`).Query
	f := q.Filters()[0]
	assert.Empty(t, f.Nodes())
	assert.Equal(t, []querygraph.EdgeID{0}, f.Edges())
	assert.Equal(t, []querygraph.FilterID{f.ID()}, q.Edge(0).Filters())
}

func TestFilterNotExists(t *testing.T) {
	q := compile(t, ex+`SELECT * WHERE {
  ?a ex:p ?b
  FILTER NOT EXISTS { ?b ex:q ?c }
  FILTER EXISTS { ?a ex:p ?b }
}`).Query

	require.Len(t, q.Edges(), 2, "only the unseen predicate is drawn")
	drawn := q.Edges()[1]
	assert.Equal(t, "ex:q", drawn.Name())
	assert.Equal(t, querygraph.EdgeRegular, drawn.Type())

	require.Len(t, q.Filters(), 2)
	notExists := q.Filters()[0]
	assert.Equal(t, []querygraph.EdgeID{drawn.ID()}, notExists.Edges())
	assert.ElementsMatch(t, []querygraph.NodeID{node(t, q, "?b").ID(), node(t, q, "?c").ID()}, notExists.Nodes())

	exists := q.Filters()[1]
	assert.Equal(t, []querygraph.EdgeID{0}, exists.Edges())
}

func TestFilterInsideOptional(t *testing.T) {
	q := compile(t, ex+`SELECT * WHERE { ?a ex:p ?b OPTIONAL { FILTER NOT EXISTS { ?b ex:q ?c } } }`).Query
	require.Len(t, q.Edges(), 2)
	assert.Equal(t, querygraph.EdgeOptional, q.Edges()[1].Type())
}

func TestBind(t *testing.T) {
	res := compile(t, ex+`SELECT * WHERE {
  ?a ex:name ?n .
  ?a ex:age ?x
  BIND(CONCAT(?n, "!") AS ?label)
  BIND(?x AS ?age)
}`)
	q := res.Query
	require.Len(t, q.Binds(), 2)

	concat := q.Binds()[0]
	assert.Equal(t, `BIND(CONCAT(?n, "!") AS ?label)`, concat.Text())
	assert.Equal(t, []querygraph.NodeID{node(t, q, "?n").ID()}, concat.Nodes())

	alias := q.Binds()[1]
	assert.Equal(t, []querygraph.NodeID{node(t, q, "?x").ID()}, alias.Nodes())
	assert.True(t, len(node(t, q, "?x").Binds()) == 1)

	_, ok := q.NodeByName("?label")
	assert.False(t, ok, "binds never create nodes")
}

func TestLimit(t *testing.T) {
	q := compile(t, `SELECT * WHERE { ?a ?b ?c } LIMIT 10`).Query
	n, ok := q.Limit()
	assert.True(t, ok)
	assert.Equal(t, 10, n)

	q = compile(t, `SELECT * WHERE { ?a ?b ?c }`).Query
	_, ok = q.Limit()
	assert.False(t, ok)
}

func TestOrder(t *testing.T) {
	res := compile(t, `SELECT * WHERE { ?a ?p ?b } ORDER BY DESC(?b) ?a STRLEN(?a) ?missing`)
	q := res.Query
	o, ok := q.Order()
	require.True(t, ok)
	assert.Equal(t, []querygraph.NodeID{node(t, q, "?b").ID(), node(t, q, "?a").ID()}, o.Nodes())
	assert.Equal(t, "?b, ?a", q.OrderText())
	assert.Equal(t, 2, res.Diagnostics.UnresolvedReferences)

	q = compile(t, `SELECT * WHERE { ?a ?p ?b }`).Query
	_, ok = q.Order()
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	q := compile(t, ex+`DELETE { ?a ex:old ?b }
INSERT { ?a ex:new ?b . GRAPH ex:g { ?a ex:tag "x" } }
WHERE { ?a ex:old ?b }`).Query

	assert.Equal(t, []string{
		`ex:new ?a ?b INSERT`,
		`ex:old ?a ?b DELETE`,
		`ex:old ?a ?b REGULAR`,
		`ex:tag ?a "x" INSERT`,
	}, edgeTuples(q))

	assert.Equal(t, querygraph.EdgeInsert, q.Edges()[0].Type(), "inserts first")
	sg, ok := q.SubGraphByName("http://example.org/g")
	require.True(t, ok)
	assert.Len(t, sg.Edges(), 1)
}

func TestUpdateSequence(t *testing.T) {
	q := compile(t, ex+`INSERT DATA { ex:s ex:p true } ; DELETE WHERE { ?x ex:gone ?y }`).Query
	assert.Equal(t, []string{
		"ex:gone ?x ?y DELETE",
		"ex:p ex:s true INSERT",
	}, edgeTuples(q))
}

func TestPrefixedNames(t *testing.T) {
	q := compile(t, `SELECT * WHERE { ?c rdf:type owl:Class ; rdfs:label ?l }`).Query
	assert.Equal(t, []string{
		"a ?c owl:Class REGULAR",
		"rdfs:label ?c ?l REGULAR",
	}, edgeTuples(q))
}

func TestPropertyPathEdgeName(t *testing.T) {
	q := compile(t, ex+`SELECT * WHERE { ?a ex:p/ex:q ?b . ?b ex:r|ex:s ?c }`).Query
	require.Len(t, q.Edges(), 2)
	assert.Equal(t, "ex:p/ex:q*", q.Edges()[0].Name())
	assert.Equal(t, "ex:r|ex:s*", q.Edges()[1].Name())
}
