package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/sparql"
)

func TestParseSelect(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://example.org/>
SELECT DISTINCT ?a ?c WHERE {
  ?a a ex:Person ;
     ex:knows ?c , ?d .
}
ORDER BY DESC(?c) ?a
LIMIT 10 OFFSET 5`)
	require.NoError(t, err)

	assert.Equal(t, sparql.TypeQuery, q.Type)
	assert.Equal(t, sparql.QuerySelect, q.QueryType)
	assert.True(t, q.Distinct)
	require.Len(t, q.Variables, 2)
	assert.Equal(t, "?a", q.Variables[0].Variable)
	assert.Equal(t, "http://example.org/", q.Prefixes["ex"])

	require.Len(t, q.Where, 1)
	bgp := q.Where[0]
	assert.Equal(t, sparql.PatternBGP, bgp.Type)
	require.Len(t, bgp.Triples, 3)
	assert.Equal(t, sparql.RDFType, bgp.Triples[0].Predicate.Term)
	assert.Equal(t, "http://example.org/Person", bgp.Triples[0].Object)
	assert.Equal(t, "http://example.org/knows", bgp.Triples[1].Predicate.Term)
	assert.Equal(t, "?c", bgp.Triples[1].Object)
	assert.Equal(t, "?d", bgp.Triples[2].Object)

	require.Len(t, q.Order, 2)
	assert.True(t, q.Order[0].Descending)
	assert.Equal(t, "?c", q.Order[0].Expression.Term)
	assert.False(t, q.Order[1].Descending)

	require.NotNil(t, q.Limit)
	assert.Equal(t, 10, *q.Limit)
	require.NotNil(t, q.Offset)
	assert.Equal(t, 5, *q.Offset)
}

func TestParseSelectStar(t *testing.T) {
	q, err := Parse(`select * where { ?a ?b ?c }`)
	require.NoError(t, err)
	assert.True(t, q.IsSelectAll())
	assert.Nil(t, q.Limit)
	require.Len(t, q.Where, 1)
	assert.Equal(t, "?b", q.Where[0].Triples[0].Predicate.Term)
}

func TestParseDefaultPrefixes(t *testing.T) {
	q, err := ParseWithPrefixes(`SELECT ?c WHERE { ?c rdf:type owl:Class }`, DefaultPrefixes)
	require.NoError(t, err)
	triple := q.Where[0].Triples[0]
	assert.Equal(t, sparql.RDFType, triple.Predicate.Term)
	assert.Equal(t, "http://www.w3.org/2002/07/owl#Class", triple.Object)
	assert.Len(t, q.Prefixes, 3)

	q, err = ParseWithPrefixes(`PREFIX owl: <http://other/> SELECT ?c WHERE { ?c a owl:Class }`, DefaultPrefixes)
	require.NoError(t, err)
	assert.Equal(t, "http://other/Class", q.Where[0].Triples[0].Object)
}

func TestParseUnknownPrefix(t *testing.T) {
	_, err := Parse(`SELECT * WHERE { ?a foo:bar ?c }`)
	require.Error(t, err)
	assert.True(t, sverrors.Is(err, sverrors.ErrCodeInvalidQuery))
}

func TestParseSyntaxErrorPosition(t *testing.T) {
	_, err := Parse("SELECT * WHERE {\n  ?a ?b \n}")
	require.Error(t, err)
	assert.True(t, sverrors.Is(err, sverrors.ErrCodeInvalidQuery))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.GreaterOrEqual(t, pe.Line, 2)
	assert.Positive(t, pe.Column)
	assert.NotEmpty(t, pe.Message)
}

func TestParsePropertyPaths(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://x/>
SELECT * WHERE { ?a ex:p/ex:q ?b . ?b ^ex:r ?c . ?c ex:s* ?d . ?d (ex:t|ex:u)+ ?e }`)
	require.NoError(t, err)
	ts := q.Where[0].Triples
	require.Len(t, ts, 4)

	seq := ts[0].Predicate.Path
	require.NotNil(t, seq)
	assert.Equal(t, "/", seq.PathType)
	assert.Equal(t, "http://x/p", seq.Items[0].Term)
	assert.Equal(t, "http://x/q", seq.Items[1].Term)

	inv := ts[1].Predicate.Path
	require.NotNil(t, inv)
	assert.Equal(t, "^", inv.PathType)

	star := ts[2].Predicate.Path
	require.NotNil(t, star)
	assert.Equal(t, "*", star.PathType)
	assert.Equal(t, "http://x/s", star.Items[0].Term)

	plus := ts[3].Predicate.Path
	require.NotNil(t, plus)
	assert.Equal(t, "+", plus.PathType)
	require.NotNil(t, plus.Items[0].Path)
	assert.Equal(t, "|", plus.Items[0].Path.PathType)
}

func TestParseGroupPatterns(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://x/>
SELECT * WHERE {
  FILTER(?n > 5)
  ?a ex:p ?b .
  OPTIONAL { ?b ex:q ?n }
  MINUS { ?a ex:r ?z }
  GRAPH <http://g/> { ?a ex:s ?t }
  SERVICE SILENT <http://svc/> { ?a ex:u ?v }
  { ?a ex:l ?x } UNION { ?a ex:m ?y }
  BIND(CONCAT(?t, "x") AS ?w)
}`)
	require.NoError(t, err)

	kinds := make([]string, len(q.Where))
	for i, p := range q.Where {
		kinds[i] = p.Type
	}
	assert.Equal(t, []string{
		sparql.PatternBGP, sparql.PatternOptional, sparql.PatternMinus, sparql.PatternGraph,
		sparql.PatternService, sparql.PatternUnion, sparql.PatternBind, sparql.PatternFilter,
	}, kinds)

	graph := q.Where[3]
	assert.Equal(t, "http://g/", graph.Name)
	require.Len(t, graph.Patterns, 1)
	assert.Equal(t, sparql.PatternBGP, graph.Patterns[0].Type)

	service := q.Where[4]
	assert.True(t, service.Silent)
	assert.Equal(t, "http://svc/", service.Name)

	union := q.Where[5]
	require.Len(t, union.Patterns, 2)
	assert.Equal(t, sparql.PatternGroup, union.Patterns[0].Type)

	bind := q.Where[6]
	assert.Equal(t, "?w", bind.Variable)
	require.NotNil(t, bind.Expression)
	assert.Equal(t, "concat", bind.Expression.Operator)
	require.Len(t, bind.Expression.Args, 2)
	assert.Equal(t, `"x"`, bind.Expression.Args[1].Term)

	filter := q.Where[7]
	require.NotNil(t, filter.Expression)
	assert.Equal(t, ">", filter.Expression.Operator)
	assert.Equal(t, "?n", filter.Expression.Args[0].Term)
	assert.Equal(t, sparql.TypedLiteral("5", sparql.XSDInteger), filter.Expression.Args[1].Term)
}

func TestParseFilterExists(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://x/>
SELECT * WHERE { ?a ex:p ?b FILTER NOT EXISTS { ?b ex:q ?c } }`)
	require.NoError(t, err)
	require.Len(t, q.Where, 2)
	expr := q.Where[1].Expression
	require.NotNil(t, expr)
	assert.Equal(t, "notexists", expr.Operator)
	require.Len(t, expr.Args, 1)
	assert.Equal(t, sparql.PatternBGP, expr.Args[0].Type)
	require.Len(t, expr.Args[0].Triples, 1)
	assert.Equal(t, "http://x/q", expr.Args[0].Triples[0].Predicate.Term)
}

func TestParseExpressions(t *testing.T) {
	q, err := Parse(`SELECT (COUNT(DISTINCT ?x) AS ?n) WHERE {
  ?x ?p ?o
  FILTER(?o IN (1, 2) && !bound(?p) || ?o = "a"@en)
} GROUP BY ?x`)
	require.NoError(t, err)

	proj := q.Variables[0]
	assert.Equal(t, "?n", proj.Variable)
	require.NotNil(t, proj.Expression)
	assert.Equal(t, sparql.ExprAggregate, proj.Expression.Type)
	assert.Equal(t, "count", proj.Expression.Aggregation)
	assert.True(t, proj.Expression.Distinct)

	or := q.Where[1].Expression
	assert.Equal(t, "||", or.Operator)
	and := or.Args[0]
	assert.Equal(t, "&&", and.Operator)
	assert.Equal(t, "in", and.Args[0].Operator)
	assert.Equal(t, "!", and.Args[1].Operator)
	assert.Equal(t, "bound", and.Args[1].Args[0].Operator)
	assert.Equal(t, `"a"@en`, or.Args[1].Args[1].Term)

	require.Len(t, q.Group, 1)
	assert.Equal(t, "?x", q.Group[0].Expression.Term)
}

func TestParseConstruct(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://x/>
CONSTRUCT { ?a ex:q ?b } WHERE { ?a ex:p ?b }`)
	require.NoError(t, err)
	assert.Equal(t, sparql.QueryConstruct, q.QueryType)
	require.Len(t, q.Template, 1)
	assert.Equal(t, "http://x/q", q.Template[0].Predicate.Term)
}

func TestParseUpdates(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://x/>
DELETE { ?a ex:old ?b } INSERT { GRAPH ex:g { ?a ex:new ?b } } WHERE { ?a ex:old ?b } ;
INSERT DATA { ex:s ex:p true }`)
	require.NoError(t, err)
	assert.True(t, q.IsUpdate())
	require.Len(t, q.Updates, 2)

	first := q.Updates[0]
	require.Len(t, first.Delete, 1)
	require.Len(t, first.Insert, 1)
	assert.Equal(t, sparql.PatternGraph, first.Insert[0].Type)
	assert.Equal(t, "http://x/g", first.Insert[0].Name)
	require.Len(t, first.Where, 1)

	second := q.Updates[1]
	require.Len(t, second.Insert, 1)
	assert.Equal(t, sparql.TypedLiteral("true", sparql.XSDBoolean), second.Insert[0].Triples[0].Object)
	assert.Empty(t, second.Where)
}

func TestParseLiterals(t *testing.T) {
	q, err := Parse(`SELECT * WHERE { ?a ?b 'single' . ?a ?b 1.5 . ?a ?b 2e3 . ?a ?b "x"^^<http://dt/> . ?a ?b _:n . ?a ?b [] }`)
	require.NoError(t, err)
	ts := q.Where[0].Triples
	require.Len(t, ts, 6)
	assert.Equal(t, `"single"`, ts[0].Object)
	assert.Equal(t, sparql.TypedLiteral("1.5", sparql.XSDDecimal), ts[1].Object)
	assert.Equal(t, sparql.TypedLiteral("2e3", sparql.XSDDouble), ts[2].Object)
	assert.Equal(t, `"x"^^http://dt/`, ts[3].Object)
	assert.Equal(t, "_:n", ts[4].Object)
	assert.Equal(t, "_:b0", ts[5].Object)
}

func TestParseUnicodeNames(t *testing.T) {
	q, err := Parse(`PREFIX dbr: <http://dbpedia.org/resource/>
PREFIX ex: <http://x/>
SELECT ?é WHERE { dbr:Zürich ex:name\.long ?é . _:café ex:p dbr:Straße_1 }`)
	require.NoError(t, err)

	assert.Equal(t, "?é", q.Variables[0].Variable)
	ts := q.Where[0].Triples
	require.Len(t, ts, 2)
	assert.Equal(t, "http://dbpedia.org/resource/Zürich", ts[0].Subject)
	assert.Equal(t, "http://x/name.long", ts[0].Predicate.Term)
	assert.Equal(t, "?é", ts[0].Object)
	assert.Equal(t, "_:café", ts[1].Subject)
	assert.Equal(t, "http://dbpedia.org/resource/Straße_1", ts[1].Object)
}

func TestParseUnspacedComparisons(t *testing.T) {
	tests := []struct {
		name   string
		filter string
	}{
		{"numbers", `?n<5&&?n>1`},
		{"variables", `?a<?b&&?c>?d`},
		{"prefixed name", `?n<ex:max&&?n>1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(`PREFIX ex: <http://x/>
SELECT ?n WHERE { ?s <http://x/p> ?n FILTER(` + tt.filter + `) }`)
			require.NoError(t, err)
			require.Len(t, q.Where, 2)
			assert.Equal(t, "http://x/p", q.Where[0].Triples[0].Predicate.Term)

			and := q.Where[1].Expression
			require.NotNil(t, and)
			assert.Equal(t, "&&", and.Operator)
			require.Len(t, and.Args, 2)
			assert.Equal(t, "<", and.Args[0].Operator)
			assert.Equal(t, ">", and.Args[1].Operator)
		})
	}
}

func TestParseIRIWithQueryString(t *testing.T) {
	q, err := Parse(`SELECT * WHERE { ?s <http://x/p?a=1&b=2> <#frag> }`)
	require.NoError(t, err)
	triple := q.Where[0].Triples[0]
	assert.Equal(t, "http://x/p?a=1&b=2", triple.Predicate.Term)
	assert.Equal(t, "#frag", triple.Object)
}

func TestParseBlankNodePropertyList(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://x/>
SELECT * WHERE {
  ?s ex:p [ ex:q ?o ; ex:r [ ex:t ?u ] ] .
  [ ex:v ?w ] ex:z ?s .
  [ ex:only ?x ]
}`)
	require.NoError(t, err)
	require.Len(t, q.Where, 1)

	var got []string
	for _, tr := range q.Where[0].Triples {
		got = append(got, tr.Subject+" "+tr.Predicate.Term+" "+tr.Object)
	}
	assert.Equal(t, []string{
		"?s http://x/p _:b0",
		"_:b0 http://x/q ?o",
		"_:b0 http://x/r _:b1",
		"_:b1 http://x/t ?u",
		"_:b2 http://x/z ?s",
		"_:b2 http://x/v ?w",
		"_:b3 http://x/only ?x",
	}, got)
}

func TestParseValues(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://x/>
SELECT * WHERE {
  VALUES ?a { ex:one "two" }
  ?a ex:p ?b
  VALUES (?a ?b) { (ex:one 1) (UNDEF ex:two) }
} VALUES ?b { 3 }`)
	require.NoError(t, err)
	require.Len(t, q.Where, 3)

	single := q.Where[0]
	assert.Equal(t, sparql.PatternValues, single.Type)
	assert.Equal(t, []map[string]string{{"?a": "http://x/one"}, {"?a": `"two"`}}, single.Values)

	tuple := q.Where[2]
	assert.Equal(t, sparql.PatternValues, tuple.Type)
	assert.Equal(t, []map[string]string{
		{"?a": "http://x/one", "?b": sparql.TypedLiteral("1", sparql.XSDInteger)},
		{"?b": "http://x/two"},
	}, tuple.Values)

	assert.Equal(t, []map[string]string{{"?b": sparql.TypedLiteral("3", sparql.XSDInteger)}}, q.Values)
}

func TestParseValuesArity(t *testing.T) {
	_, err := Parse(`SELECT * WHERE { VALUES (?a ?b) { (1) } }`)
	require.Error(t, err)
	assert.True(t, sverrors.Is(err, sverrors.ErrCodeInvalidQuery))
}

func TestParseSubSelect(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://x/>
SELECT ?a ?n WHERE {
  ?a ex:p ?b .
  { SELECT ?b (COUNT(?c) AS ?n) WHERE { ?b ex:q ?c } GROUP BY ?b LIMIT 5 }
}`)
	require.NoError(t, err)
	require.Len(t, q.Where, 2)

	group := q.Where[1]
	assert.Equal(t, sparql.PatternGroup, group.Type)
	require.Len(t, group.Patterns, 1)
	sub := group.Patterns[0]
	assert.Equal(t, sparql.PatternQuery, sub.Type)
	require.NotNil(t, sub.SubQuery)
	assert.Equal(t, sparql.QuerySelect, sub.SubQuery.QueryType)
	require.Len(t, sub.SubQuery.Variables, 2)
	assert.Equal(t, "?n", sub.SubQuery.Variables[1].Variable)
	assert.Equal(t, "http://x/q", sub.SubQuery.Where[0].Triples[0].Predicate.Term)
	require.NotNil(t, sub.SubQuery.Limit)
	assert.Equal(t, 5, *sub.SubQuery.Limit)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"plain"`, "plain"},
		{`'it\'s'`, "it's"},
		{`'say "hi"'`, `say \"hi\"`},
		{`"""multi
line"""`, `multi\nline`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, unquote(tt.in))
		})
	}
}
