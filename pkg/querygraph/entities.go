package querygraph

import "slices"

// Ellipse scale factors applied to the width and height of a node's
// label box to get the semi-axes of the node's ellipse.
const (
	EllipseScaleX = 0.6
	EllipseScaleY = 0.9
)

// Node is a term of the request, identified by its display name.
type Node struct {
	id    NodeID
	name  string
	typ   NodeType
	pos   Point
	rx    float64
	ry    float64
	fixed bool

	edges     []EdgeID
	subGraphs []SubGraphID
	services  []ServiceID
	unions    []UnionID
	filters   []FilterID
	binds     []BindID
	orders    []OrderID
}

func (n *Node) ID() NodeID      { return n.id }
func (n *Node) Name() string    { return n.name }
func (n *Node) Type() NodeType  { return n.typ }
func (n *Node) IsSelect() bool  { return n.typ == NodeSelect }
func (n *Node) Position() Point { return n.pos }
func (n *Node) X() float64      { return n.pos.X }
func (n *Node) Y() float64      { return n.pos.Y }

// SetType marks the node as projected (NodeSelect) or not.
func (n *Node) SetType(t NodeType) { n.typ = t }

// SetPosition moves the node. Layout drivers and interactive dragging
// call this; the next geometry pass picks the new position up.
func (n *Node) SetPosition(x, y float64) { n.pos = Point{X: x, Y: y} }

// LabelBounds returns the width and height of the node's label box.
func (n *Node) LabelBounds() (width, height float64) { return n.rx, n.ry }

// SetLabelBounds records the size of the rendered label. The ellipse
// semi-axes derive from it.
func (n *Node) SetLabelBounds(width, height float64) { n.rx, n.ry = width, height }

// EllipseA is the horizontal semi-axis of the node's ellipse.
func (n *Node) EllipseA() float64 { return n.rx * EllipseScaleX }

// EllipseB is the vertical semi-axis of the node's ellipse.
func (n *Node) EllipseB() float64 { return n.ry * EllipseScaleY }

// Fixed reports whether the layout driver must leave the node in place.
func (n *Node) Fixed() bool { return n.fixed }

// SetFixed pins or releases the node.
func (n *Node) SetFixed(fixed bool) { n.fixed = fixed }

func (n *Node) Edges() []EdgeID          { return n.edges }
func (n *Node) SubGraphs() []SubGraphID  { return n.subGraphs }
func (n *Node) Services() []ServiceID    { return n.services }
func (n *Node) Unions() []UnionID        { return n.unions }
func (n *Node) Filters() []FilterID      { return n.filters }
func (n *Node) Binds() []BindID          { return n.binds }
func (n *Node) Orders() []OrderID        { return n.orders }
func (n *Node) InUnion(u UnionID) bool   { return slices.Contains(n.unions, u) }
func (n *Node) InFilter(f FilterID) bool { return slices.Contains(n.filters, f) }
func (n *Node) InSubGraph(s SubGraphID) bool {
	return slices.Contains(n.subGraphs, s)
}

// Edge is one triple pattern. Its identity is the tuple (name, start, end,
// type); two triples with the same tuple still produce two edges.
type Edge struct {
	id       EdgeID
	name     string
	start    NodeID
	end      NodeID
	typ      EdgeType
	subGraph SubGraphID
	service  ServiceID

	filters []FilterID
	binds   []BindID
	unions  []UnionID
	orders  []OrderID

	curve        CurveClass
	center       Point
	interjection Interjection
}

func (e *Edge) ID() EdgeID          { return e.id }
func (e *Edge) Name() string        { return e.name }
func (e *Edge) Start() NodeID       { return e.start }
func (e *Edge) End() NodeID         { return e.end }
func (e *Edge) Type() EdgeType      { return e.typ }
func (e *Edge) Filters() []FilterID { return e.filters }
func (e *Edge) Binds() []BindID     { return e.binds }
func (e *Edge) Unions() []UnionID   { return e.unions }
func (e *Edge) Orders() []OrderID   { return e.orders }

// SubGraph returns the owning named graph, if any.
func (e *Edge) SubGraph() (SubGraphID, bool) { return e.subGraph, e.subGraph != NoSubGraph }

// Service returns the owning federated service, if any.
func (e *Edge) Service() (ServiceID, bool) { return e.service, e.service != NoService }

// CurveClass returns the parallel-edge offset class.
func (e *Edge) CurveClass() CurveClass { return e.curve }

// SetCurveClass is called by the geometry engine once per layout pass.
func (e *Edge) SetCurveClass(c CurveClass) { e.curve = c }

// CenterPoint is the control point of the edge's quadratic Bezier curve.
func (e *Edge) CenterPoint() Point { return e.center }

// SetCenterPoint stores a freshly computed control point.
func (e *Edge) SetCenterPoint(p Point) { e.center = p }

// Interjection is where the curve meets the end node's ellipse.
func (e *Edge) Interjection() Interjection { return e.interjection }

// SetInterjection stores a freshly computed intersection.
func (e *Edge) SetInterjection(i Interjection) { e.interjection = i }

// SubGraph is a named graph (GRAPH clause or graph quad).
type SubGraph struct {
	id    SubGraphID
	name  string
	nodes []NodeID
	edges []EdgeID
}

func (s *SubGraph) ID() SubGraphID  { return s.id }
func (s *SubGraph) Name() string    { return s.name }
func (s *SubGraph) Nodes() []NodeID { return s.nodes }
func (s *SubGraph) Edges() []EdgeID { return s.edges }

// Service is a federated SERVICE clause.
type Service struct {
	id    ServiceID
	name  string
	nodes []NodeID
	edges []EdgeID
}

func (s *Service) ID() ServiceID   { return s.id }
func (s *Service) Name() string    { return s.name }
func (s *Service) Nodes() []NodeID { return s.nodes }
func (s *Service) Edges() []EdgeID { return s.edges }

// Union groups the edges of one UNION clause, across all its branches.
type Union struct {
	id    UnionID
	name  string
	edges []EdgeID
}

func (u *Union) ID() UnionID     { return u.id }
func (u *Union) Name() string    { return u.name }
func (u *Union) Edges() []EdgeID { return u.edges }

// Filter is a FILTER clause and the graph terms its expression mentions.
type Filter struct {
	id    FilterID
	text  string
	nodes []NodeID
	edges []EdgeID
}

func (f *Filter) ID() FilterID    { return f.id }
func (f *Filter) Text() string    { return f.text }
func (f *Filter) Nodes() []NodeID { return f.nodes }
func (f *Filter) Edges() []EdgeID { return f.edges }

// Bind is a BIND clause and the graph terms it mentions, including the
// bound variable.
type Bind struct {
	id    BindID
	text  string
	nodes []NodeID
	edges []EdgeID
}

func (b *Bind) ID() BindID      { return b.id }
func (b *Bind) Text() string    { return b.text }
func (b *Bind) Nodes() []NodeID { return b.nodes }
func (b *Bind) Edges() []EdgeID { return b.edges }

// Order lists the nodes and edges named by ORDER BY, in clause order.
type Order struct {
	id    OrderID
	nodes []NodeID
	edges []EdgeID
}

func (o *Order) ID() OrderID     { return o.id }
func (o *Order) Nodes() []NodeID { return o.nodes }
func (o *Order) Edges() []EdgeID { return o.edges }

func appendUnique[T comparable](s []T, v T) []T {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
