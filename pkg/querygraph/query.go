package querygraph

import (
	"fmt"
	"strings"
)

// Query is the aggregate root of one compiled request.
type Query struct {
	nodes     []*Node
	edges     []*Edge
	subGraphs []*SubGraph
	services  []*Service
	unions    []*Union
	filters   []*Filter
	binds     []*Bind
	order     *Order

	limit   int
	limited bool

	nodeByName     map[string]NodeID
	subGraphByName map[string]SubGraphID
}

// New returns an empty Query with an unbounded limit.
func New() *Query {
	return &Query{
		nodeByName:     make(map[string]NodeID),
		subGraphByName: make(map[string]SubGraphID),
	}
}

// Read access. The returned slices are owned by the Query and must not be
// modified.

func (q *Query) Nodes() []*Node         { return q.nodes }
func (q *Query) Edges() []*Edge         { return q.edges }
func (q *Query) SubGraphs() []*SubGraph { return q.subGraphs }
func (q *Query) Services() []*Service   { return q.services }
func (q *Query) Unions() []*Union       { return q.unions }
func (q *Query) Filters() []*Filter     { return q.filters }
func (q *Query) Binds() []*Bind         { return q.binds }

func (q *Query) Node(id NodeID) *Node             { return q.nodes[id] }
func (q *Query) Edge(id EdgeID) *Edge             { return q.edges[id] }
func (q *Query) SubGraph(id SubGraphID) *SubGraph { return q.subGraphs[id] }
func (q *Query) Service(id ServiceID) *Service    { return q.services[id] }
func (q *Query) Union(id UnionID) *Union          { return q.unions[id] }
func (q *Query) Filter(id FilterID) *Filter       { return q.filters[id] }
func (q *Query) Bind(id BindID) *Bind             { return q.binds[id] }

// Order returns the ORDER BY annotation, if the request had one.
func (q *Query) Order() (*Order, bool) { return q.order, q.order != nil }

// Limit returns the LIMIT value and true, or 0 and false when unbounded.
func (q *Query) Limit() (int, bool) { return q.limit, q.limited }

// SetLimit bounds the result count.
func (q *Query) SetLimit(n int) {
	q.limit = n
	q.limited = true
}

// NodeByName looks a node up by display name.
func (q *Query) NodeByName(name string) (*Node, bool) {
	id, ok := q.nodeByName[name]
	if !ok {
		return nil, false
	}
	return q.nodes[id], true
}

// EdgesNamed returns every edge whose predicate name is name, in creation
// order.
func (q *Query) EdgesNamed(name string) []EdgeID {
	var ids []EdgeID
	for _, e := range q.edges {
		if e.name == name {
			ids = append(ids, e.id)
		}
	}
	return ids
}

// SubGraphByName looks a named graph up by its name.
func (q *Query) SubGraphByName(name string) (*SubGraph, bool) {
	id, ok := q.subGraphByName[name]
	if !ok {
		return nil, false
	}
	return q.subGraphs[id], true
}

// AddNode returns the node named name, registering a new REGULAR node if
// none exists yet.
func (q *Query) AddNode(name string) NodeID {
	if id, ok := q.nodeByName[name]; ok {
		return id
	}
	id := NodeID(len(q.nodes))
	q.nodes = append(q.nodes, &Node{id: id, name: name})
	q.nodeByName[name] = id
	return id
}

// AddEdge registers an edge between two existing nodes. The edge is
// recorded on both endpoints; when sg or svc is set, the edge and both
// endpoints join that container. AddEdge panics if an endpoint or
// container handle is out of range.
func (q *Query) AddEdge(name string, start, end NodeID, typ EdgeType, sg SubGraphID, svc ServiceID) EdgeID {
	q.mustNode(start)
	q.mustNode(end)
	id := EdgeID(len(q.edges))
	e := &Edge{id: id, name: name, start: start, end: end, typ: typ, subGraph: sg, service: svc}
	q.edges = append(q.edges, e)

	endpoints := []*Node{q.nodes[start]}
	if end != start {
		endpoints = append(endpoints, q.nodes[end])
	}
	for _, n := range endpoints {
		n.edges = append(n.edges, id)
	}
	if sg != NoSubGraph {
		g := q.subGraphs[sg]
		g.edges = appendUnique(g.edges, id)
		for _, n := range endpoints {
			n.subGraphs = appendUnique(n.subGraphs, sg)
			g.nodes = appendUnique(g.nodes, n.id)
		}
	}
	if svc != NoService {
		s := q.services[svc]
		s.edges = appendUnique(s.edges, id)
		for _, n := range endpoints {
			n.services = appendUnique(n.services, svc)
			s.nodes = appendUnique(s.nodes, n.id)
		}
	}
	return id
}

func (q *Query) mustNode(id NodeID) {
	if id < 0 || int(id) >= len(q.nodes) {
		panic(fmt.Sprintf("querygraph: node handle %d out of range", id))
	}
}

// AddSubGraph returns the named graph called name, creating it on first
// use.
func (q *Query) AddSubGraph(name string) SubGraphID {
	if id, ok := q.subGraphByName[name]; ok {
		return id
	}
	id := SubGraphID(len(q.subGraphs))
	q.subGraphs = append(q.subGraphs, &SubGraph{id: id, name: name})
	q.subGraphByName[name] = id
	return id
}

// AddService registers a new SERVICE container. Two SERVICE clauses with
// the same endpoint are distinct services.
func (q *Query) AddService(name string) ServiceID {
	id := ServiceID(len(q.services))
	q.services = append(q.services, &Service{id: id, name: name})
	return id
}

// AddUnion registers a new union named "U1", "U2", ... in creation order.
func (q *Query) AddUnion() UnionID {
	id := UnionID(len(q.unions))
	q.unions = append(q.unions, &Union{id: id, name: fmt.Sprintf("U%d", id+1)})
	return id
}

// AddUnionEdge adds an edge to a union and records the union on the edge
// and on both its endpoints.
func (q *Query) AddUnionEdge(u UnionID, e EdgeID) {
	un := q.unions[u]
	un.edges = appendUnique(un.edges, e)
	edge := q.edges[e]
	edge.unions = appendUnique(edge.unions, u)
	q.nodes[edge.start].unions = appendUnique(q.nodes[edge.start].unions, u)
	q.nodes[edge.end].unions = appendUnique(q.nodes[edge.end].unions, u)
}

// AddFilter registers a FILTER annotation with its serialized text.
func (q *Query) AddFilter(text string) FilterID {
	id := FilterID(len(q.filters))
	q.filters = append(q.filters, &Filter{id: id, text: text})
	return id
}

// FilterNode attaches a node to a filter.
func (q *Query) FilterNode(f FilterID, n NodeID) {
	q.filters[f].nodes = appendUnique(q.filters[f].nodes, n)
	q.nodes[n].filters = appendUnique(q.nodes[n].filters, f)
}

// FilterEdge attaches an edge to a filter.
func (q *Query) FilterEdge(f FilterID, e EdgeID) {
	q.filters[f].edges = appendUnique(q.filters[f].edges, e)
	q.edges[e].filters = appendUnique(q.edges[e].filters, f)
}

// AddBind registers a BIND annotation with its serialized text.
func (q *Query) AddBind(text string) BindID {
	id := BindID(len(q.binds))
	q.binds = append(q.binds, &Bind{id: id, text: text})
	return id
}

// BindNode attaches a node to a bind.
func (q *Query) BindNode(b BindID, n NodeID) {
	q.binds[b].nodes = appendUnique(q.binds[b].nodes, n)
	q.nodes[n].binds = appendUnique(q.nodes[n].binds, b)
}

// BindEdge attaches an edge to a bind.
func (q *Query) BindEdge(b BindID, e EdgeID) {
	q.binds[b].edges = appendUnique(q.binds[b].edges, e)
	q.edges[e].binds = appendUnique(q.edges[e].binds, b)
}

// SetOrder creates the ORDER BY annotation. Calling it again returns the
// existing one.
func (q *Query) SetOrder() OrderID {
	if q.order == nil {
		q.order = &Order{}
	}
	return q.order.id
}

// OrderNode appends a node to the ORDER BY annotation, creating it if
// needed. Order keeps clause order and may name a node twice.
func (q *Query) OrderNode(n NodeID) {
	id := q.SetOrder()
	q.order.nodes = append(q.order.nodes, n)
	q.nodes[n].orders = appendUnique(q.nodes[n].orders, id)
}

// OrderEdge appends an edge to the ORDER BY annotation, creating it if
// needed.
func (q *Query) OrderEdge(e EdgeID) {
	id := q.SetOrder()
	q.order.edges = append(q.order.edges, e)
	q.edges[e].orders = appendUnique(q.edges[e].orders, id)
}

// OrderText joins the names of the order's edges, then its nodes, with
// ", ". It returns "" when there is no order.
func (q *Query) OrderText() string {
	if q.order == nil {
		return ""
	}
	names := make([]string, 0, len(q.order.edges)+len(q.order.nodes))
	for _, e := range q.order.edges {
		names = append(names, q.edges[e].name)
	}
	for _, n := range q.order.nodes {
		names = append(names, q.nodes[n].name)
	}
	return strings.Join(names, ", ")
}

// Stats summarizes a Query.
type Stats struct {
	Nodes       int  `json:"nodes"`
	SelectNodes int  `json:"select_nodes"`
	Edges       int  `json:"edges"`
	SubGraphs   int  `json:"subgraphs"`
	Services    int  `json:"services"`
	Unions      int  `json:"unions"`
	Filters     int  `json:"filters"`
	Binds       int  `json:"binds"`
	HasOrder    bool `json:"has_order"`
}

// Stats counts the entities of q.
func (q *Query) Stats() Stats {
	s := Stats{
		Nodes:     len(q.nodes),
		Edges:     len(q.edges),
		SubGraphs: len(q.subGraphs),
		Services:  len(q.services),
		Unions:    len(q.unions),
		Filters:   len(q.filters),
		Binds:     len(q.binds),
		HasOrder:  q.order != nil,
	}
	for _, n := range q.nodes {
		if n.IsSelect() {
			s.SelectNodes++
		}
	}
	return s
}

// EdgesByType groups edge handles by their semantic type.
func (q *Query) EdgesByType() map[EdgeType][]EdgeID {
	out := make(map[EdgeType][]EdgeID)
	for _, e := range q.edges {
		out[e.typ] = append(out[e.typ], e.id)
	}
	return out
}
