package querygraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture: ?a -p-> ?b inside graph g, ?c -q-> ?d in union U1, filter on ?c.
func selectionFixture() (*Query, map[string]Ref) {
	q := New()
	a, b, c, d := q.AddNode("?a"), q.AddNode("?b"), q.AddNode("?c"), q.AddNode("?d")
	g := q.AddSubGraph("g")
	e1 := q.AddEdge("p", a, b, EdgeRegular, g, NoService)
	e2 := q.AddEdge("q", c, d, EdgeRegular, NoSubGraph, NoService)
	u := q.AddUnion()
	q.AddUnionEdge(u, e2)
	f := q.AddFilter("FILTER(?c)")
	q.FilterNode(f, c)
	return q, map[string]Ref{
		"a": NodeRef(a), "b": NodeRef(b), "c": NodeRef(c), "d": NodeRef(d),
		"e1": EdgeRef(e1), "e2": EdgeRef(e2),
		"g": SubGraphRef(g), "u": UnionRef(u), "f": FilterRef(f),
	}
}

func TestEmptySelectionHighlightsEverything(t *testing.T) {
	q, refs := selectionFixture()
	var s Selection
	assert.True(t, s.Empty())
	for name, r := range refs {
		assert.True(t, s.Highlighted(q, r), name)
	}
}

func TestSelectSubGraph(t *testing.T) {
	q, refs := selectionFixture()
	s := Selection{}.Select(refs["g"])

	assert.True(t, s.Highlighted(q, refs["a"]))
	assert.True(t, s.Highlighted(q, refs["b"]))
	assert.True(t, s.Highlighted(q, refs["e1"]))
	assert.True(t, s.Highlighted(q, refs["g"]))
	assert.False(t, s.Highlighted(q, refs["c"]))
	assert.False(t, s.Highlighted(q, refs["e2"]))
	assert.False(t, s.Highlighted(q, refs["u"]))
}

func TestSelectionsOfDifferentKindsCombine(t *testing.T) {
	q, refs := selectionFixture()
	s := Selection{}.Select(refs["g"]).Select(refs["f"])

	assert.True(t, s.Highlighted(q, refs["a"]))
	assert.True(t, s.Highlighted(q, refs["c"]))
	assert.False(t, s.Highlighted(q, refs["d"]))
	assert.Equal(t, []Ref{refs["g"], refs["f"]}, s.Refs())
}

func TestSelectUnionHighlightsEndpoints(t *testing.T) {
	q, refs := selectionFixture()
	s := Selection{}.Select(refs["u"])
	assert.True(t, s.Highlighted(q, refs["c"]))
	assert.True(t, s.Highlighted(q, refs["d"]))
	assert.True(t, s.Highlighted(q, refs["e2"]))
	assert.False(t, s.Highlighted(q, refs["e1"]))
}

func TestSelectNodeClears(t *testing.T) {
	q, refs := selectionFixture()
	s := Selection{}.Select(refs["g"]).Select(refs["a"])
	assert.True(t, s.Empty())
	assert.True(t, s.Highlighted(q, refs["e2"]))
}

func TestSelectionIsAValue(t *testing.T) {
	_, refs := selectionFixture()
	base := Selection{}.Select(refs["g"])
	next := base.Select(refs["u"])

	_, ok := base.Selected(KindUnion)
	assert.False(t, ok, "Select must not modify its receiver")
	got, ok := next.Selected(KindUnion)
	require.True(t, ok)
	assert.Equal(t, refs["u"], got)
	assert.True(t, next.Clear().Empty())
}

func TestRefRoundTrip(t *testing.T) {
	for _, r := range []Ref{NodeRef(3), EdgeRef(0), OrderRef(0), BindRef(12)} {
		got, err := ParseRef(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	for _, bad := range []string{"node", "node/x", "widget/1", "edge/-1"} {
		_, err := ParseRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestLabelAndRefs(t *testing.T) {
	q, refs := selectionFixture()
	assert.Equal(t, "?a", q.Label(refs["a"]))
	assert.Equal(t, "U1", q.Label(refs["u"]))
	assert.Equal(t, "FILTER(?c)", q.Label(refs["f"]))
	assert.Equal(t, "", q.Label(NodeRef(99)))
	assert.Len(t, q.Refs(KindNode), 4)
	assert.Empty(t, q.Refs(KindOrder))
	assert.True(t, KindFilter.IsAnnotation())
	assert.False(t, KindEdge.IsAnnotation())
}
