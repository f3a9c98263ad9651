package querygraph

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the entity kinds of a Query.
type Kind int

const (
	KindNode Kind = iota
	KindEdge
	KindSubGraph
	KindService
	KindUnion
	KindFilter
	KindBind
	KindOrder
)

var kindNames = [...]string{"node", "edge", "subgraph", "service", "union", "filter", "bind", "order"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsAnnotation reports whether k groups other entities (everything except
// nodes and edges).
func (k Kind) IsAnnotation() bool { return k >= KindSubGraph && k <= KindOrder }

// Ref names one entity of a Query.
type Ref struct {
	Kind Kind
	ID   int
}

func NodeRef(id NodeID) Ref         { return Ref{KindNode, int(id)} }
func EdgeRef(id EdgeID) Ref         { return Ref{KindEdge, int(id)} }
func SubGraphRef(id SubGraphID) Ref { return Ref{KindSubGraph, int(id)} }
func ServiceRef(id ServiceID) Ref   { return Ref{KindService, int(id)} }
func UnionRef(id UnionID) Ref       { return Ref{KindUnion, int(id)} }
func FilterRef(id FilterID) Ref     { return Ref{KindFilter, int(id)} }
func BindRef(id BindID) Ref         { return Ref{KindBind, int(id)} }
func OrderRef(id OrderID) Ref       { return Ref{KindOrder, int(id)} }

// String formats r as "kind/id", e.g. "filter/0".
func (r Ref) String() string { return r.Kind.String() + "/" + strconv.Itoa(r.ID) }

// ParseRef is the inverse of Ref.String.
func ParseRef(s string) (Ref, error) {
	kind, id, ok := strings.Cut(s, "/")
	if !ok {
		return Ref{}, fmt.Errorf("invalid entity reference %q: want kind/id", s)
	}
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 {
		return Ref{}, fmt.Errorf("invalid entity id in %q", s)
	}
	for i, name := range kindNames {
		if name == kind {
			return Ref{Kind: Kind(i), ID: n}, nil
		}
	}
	return Ref{}, fmt.Errorf("unknown entity kind %q", kind)
}

// Valid reports whether r names an entity of q.
func (q *Query) Valid(r Ref) bool {
	if r.ID < 0 {
		return false
	}
	return r.ID < q.count(r.Kind)
}

func (q *Query) count(k Kind) int {
	switch k {
	case KindNode:
		return len(q.nodes)
	case KindEdge:
		return len(q.edges)
	case KindSubGraph:
		return len(q.subGraphs)
	case KindService:
		return len(q.services)
	case KindUnion:
		return len(q.unions)
	case KindFilter:
		return len(q.filters)
	case KindBind:
		return len(q.binds)
	case KindOrder:
		if q.order != nil {
			return 1
		}
		return 0
	}
	panic(fmt.Sprintf("querygraph: unhandled kind %v", k))
}

// Refs lists every entity of kind k in creation order.
func (q *Query) Refs(k Kind) []Ref {
	n := q.count(k)
	refs := make([]Ref, n)
	for i := range refs {
		refs[i] = Ref{Kind: k, ID: i}
	}
	return refs
}

// Label returns the human-readable text of r: the name of nodes, edges,
// subgraphs, services and unions, the expression of filters and binds, and
// the joined names of the order. Invalid refs yield "".
func (q *Query) Label(r Ref) string {
	if !q.Valid(r) {
		return ""
	}
	switch r.Kind {
	case KindNode:
		return q.nodes[r.ID].name
	case KindEdge:
		return q.edges[r.ID].name
	case KindSubGraph:
		return q.subGraphs[r.ID].name
	case KindService:
		return q.services[r.ID].name
	case KindUnion:
		return q.unions[r.ID].name
	case KindFilter:
		return q.filters[r.ID].text
	case KindBind:
		return q.binds[r.ID].text
	case KindOrder:
		return q.OrderText()
	}
	panic(fmt.Sprintf("querygraph: unhandled kind %v", r.Kind))
}
