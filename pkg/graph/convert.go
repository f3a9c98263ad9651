package graph

import (
	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/geometry"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

// FromQuery converts a compiled query to its serialization format.
// Layout state is included when the query has been laid out.
func FromQuery(q *querygraph.Query) Graph {
	out := Graph{
		Version: Version,
		Nodes:   make([]Node, len(q.Nodes())),
		Edges:   make([]Edge, len(q.Edges())),
	}

	for i, n := range q.Nodes() {
		w, h := n.LabelBounds()
		out.Nodes[i] = Node{
			ID:     int(n.ID()),
			Name:   n.Name(),
			Type:   n.Type().String(),
			X:      n.X(),
			Y:      n.Y(),
			Width:  w,
			Height: h,
			Fixed:  n.Fixed(),
		}
	}

	for i, e := range q.Edges() {
		out.Edges[i] = edgeFromQuery(e)
	}

	for _, sg := range q.SubGraphs() {
		out.SubGraphs = append(out.SubGraphs, Container{ID: int(sg.ID()), Name: sg.Name(), Nodes: ints(sg.Nodes()), Edges: ints(sg.Edges())})
	}
	for _, svc := range q.Services() {
		out.Services = append(out.Services, Container{ID: int(svc.ID()), Name: svc.Name(), Nodes: ints(svc.Nodes()), Edges: ints(svc.Edges())})
	}
	for _, u := range q.Unions() {
		out.Unions = append(out.Unions, Union{ID: int(u.ID()), Name: u.Name(), Edges: ints(u.Edges())})
	}
	for _, f := range q.Filters() {
		out.Filters = append(out.Filters, Annotation{ID: int(f.ID()), Text: f.Text(), Nodes: ints(f.Nodes()), Edges: ints(f.Edges())})
	}
	for _, b := range q.Binds() {
		out.Binds = append(out.Binds, Annotation{ID: int(b.ID()), Text: b.Text(), Nodes: ints(b.Nodes()), Edges: ints(b.Edges())})
	}
	if o, ok := q.Order(); ok {
		out.Order = &Order{Text: q.OrderText(), Nodes: ints(o.Nodes()), Edges: ints(o.Edges())}
	}
	if n, ok := q.Limit(); ok {
		out.Limit = &n
	}
	return out
}

func edgeFromQuery(e *querygraph.Edge) Edge {
	out := Edge{
		ID:    int(e.ID()),
		Name:  e.Name(),
		Start: int(e.Start()),
		End:   int(e.End()),
		Type:  e.Type().String(),
		Curve: e.CurveClass().String(),
	}
	if sg, ok := e.SubGraph(); ok {
		id := int(sg)
		out.SubGraph = &id
	}
	if svc, ok := e.Service(); ok {
		id := int(svc)
		out.Service = &id
	}
	if c := e.CenterPoint(); c != (querygraph.Point{}) {
		out.Center = &Point{X: c.X, Y: c.Y}
	}
	if i := e.Interjection(); i != (querygraph.Interjection{}) {
		out.Interjection = &Interjection{X: i.X, Y: i.Y, DX: i.DX, DY: i.DY, Angle: geometry.Angle(i)}
	}
	return out
}

// ToQuery rebuilds a Query from its serialization format.
//
// Container membership lists are derived from the edges and are not read.
// Returns an INVALID_FORMAT error for dangling indices, duplicate node or
// graph names, and unknown type names.
func ToQuery(g Graph) (*querygraph.Query, error) {
	if g.Version > Version {
		return nil, invalid("unsupported graph version %d", g.Version)
	}
	q := querygraph.New()

	for i, nj := range g.Nodes {
		if nj.ID != i {
			return nil, invalid("node %q has id %d at position %d", nj.Name, nj.ID, i)
		}
		if int(q.AddNode(nj.Name)) != i {
			return nil, invalid("duplicate node %q", nj.Name)
		}
		n := q.Node(querygraph.NodeID(i))
		switch nj.Type {
		case "", "REGULAR":
		case "SELECT":
			n.SetType(querygraph.NodeSelect)
		default:
			return nil, invalid("node %q: unknown type %q", nj.Name, nj.Type)
		}
		n.SetPosition(nj.X, nj.Y)
		n.SetLabelBounds(nj.Width, nj.Height)
		n.SetFixed(nj.Fixed)
	}

	for i, c := range g.SubGraphs {
		if int(q.AddSubGraph(c.Name)) != i {
			return nil, invalid("duplicate graph %q", c.Name)
		}
	}
	for _, c := range g.Services {
		q.AddService(c.Name)
	}

	for i, ej := range g.Edges {
		if err := addEdge(q, i, ej); err != nil {
			return nil, err
		}
	}

	for _, u := range g.Unions {
		id := q.AddUnion()
		for _, e := range u.Edges {
			if err := check(e, len(g.Edges), "union "+u.Name, "edge"); err != nil {
				return nil, err
			}
			q.AddUnionEdge(id, querygraph.EdgeID(e))
		}
	}
	for _, f := range g.Filters {
		id := q.AddFilter(f.Text)
		if err := attach(f, len(g.Nodes), len(g.Edges),
			func(n int) { q.FilterNode(id, querygraph.NodeID(n)) },
			func(e int) { q.FilterEdge(id, querygraph.EdgeID(e)) }); err != nil {
			return nil, err
		}
	}
	for _, b := range g.Binds {
		id := q.AddBind(b.Text)
		if err := attach(b, len(g.Nodes), len(g.Edges),
			func(n int) { q.BindNode(id, querygraph.NodeID(n)) },
			func(e int) { q.BindEdge(id, querygraph.EdgeID(e)) }); err != nil {
			return nil, err
		}
	}
	if g.Order != nil {
		q.SetOrder()
		a := Annotation{Text: "ORDER BY", Nodes: g.Order.Nodes, Edges: g.Order.Edges}
		if err := attach(a, len(g.Nodes), len(g.Edges),
			func(n int) { q.OrderNode(querygraph.NodeID(n)) },
			func(e int) { q.OrderEdge(querygraph.EdgeID(e)) }); err != nil {
			return nil, err
		}
	}
	if g.Limit != nil {
		q.SetLimit(*g.Limit)
	}
	return q, nil
}

func addEdge(q *querygraph.Query, i int, ej Edge) error {
	what := "edge " + ej.Name
	if ej.ID != i {
		return invalid("%s has id %d at position %d", what, ej.ID, i)
	}
	if err := check(ej.Start, len(q.Nodes()), what, "start node"); err != nil {
		return err
	}
	if err := check(ej.End, len(q.Nodes()), what, "end node"); err != nil {
		return err
	}
	typ, ok := querygraph.ParseEdgeType(ej.Type)
	if !ok {
		return invalid("%s: unknown type %q", what, ej.Type)
	}
	sg, svc := querygraph.NoSubGraph, querygraph.NoService
	if ej.SubGraph != nil {
		if err := check(*ej.SubGraph, len(q.SubGraphs()), what, "graph"); err != nil {
			return err
		}
		sg = querygraph.SubGraphID(*ej.SubGraph)
	}
	if ej.Service != nil {
		if err := check(*ej.Service, len(q.Services()), what, "service"); err != nil {
			return err
		}
		svc = querygraph.ServiceID(*ej.Service)
	}

	e := q.Edge(q.AddEdge(ej.Name, querygraph.NodeID(ej.Start), querygraph.NodeID(ej.End), typ, sg, svc))
	if ej.Curve != "" {
		c, ok := querygraph.ParseCurveClass(ej.Curve)
		if !ok {
			return invalid("%s: unknown curve class %q", what, ej.Curve)
		}
		e.SetCurveClass(c)
	}
	if ej.Center != nil {
		e.SetCenterPoint(querygraph.Point{X: ej.Center.X, Y: ej.Center.Y})
	}
	if ij := ej.Interjection; ij != nil {
		e.SetInterjection(querygraph.Interjection{X: ij.X, Y: ij.Y, DX: ij.DX, DY: ij.DY})
	}
	return nil
}

func attach(a Annotation, nodes, edges int, node, edge func(int)) error {
	for _, n := range a.Nodes {
		if err := check(n, nodes, a.Text, "node"); err != nil {
			return err
		}
		node(n)
	}
	for _, e := range a.Edges {
		if err := check(e, edges, a.Text, "edge"); err != nil {
			return err
		}
		edge(e)
	}
	return nil
}

func check(idx, n int, owner, what string) error {
	if idx < 0 || idx >= n {
		return invalid("%s: %s %d out of range", owner, what, idx)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return sverrors.New(sverrors.ErrCodeInvalidFormat, format, args...)
}

func ints[T ~int](ids []T) []int {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
