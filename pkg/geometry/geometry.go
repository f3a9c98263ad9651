package geometry

import "github.com/matzehuels/sparqlviz/pkg/querygraph"

// Diagnostics counts soft failures of a geometry pass. Neither stops the
// pass; the affected edges fall back to a usable estimate.
type Diagnostics struct {
	DegenerateSegments int `json:"degenerate_segments"`
	Unconverged        int `json:"unconverged"`
}

func (d *Diagnostics) record(s Status) {
	switch s {
	case Degenerate:
		d.DegenerateSegments++
	case Unconverged:
		d.Unconverged++
	}
}

// Add accumulates o into d.
func (d *Diagnostics) Add(o Diagnostics) {
	d.DegenerateSegments += o.DegenerateSegments
	d.Unconverged += o.Unconverged
}

type pair struct{ lo, hi querygraph.NodeID }

func pairOf(e *querygraph.Edge) pair {
	s, t := e.Start(), e.End()
	if s > t {
		s, t = t, s
	}
	return pair{s, t}
}

// AssignCurveClasses sets the curve class of every edge from how many
// edges share its endpoints, regardless of direction: in creation order the
// first is Linear, the second BezierPositive and all later ones
// BezierNegative.
func AssignCurveClasses(q *querygraph.Query) {
	seen := make(map[pair]int)
	for _, e := range q.Edges() {
		p := pairOf(e)
		switch seen[p] {
		case 0:
			e.SetCurveClass(querygraph.Linear)
		case 1:
			e.SetCurveClass(querygraph.BezierPositive)
		default:
			e.SetCurveClass(querygraph.BezierNegative)
		}
		seen[p]++
	}
}

// UpdateCenterPoint recomputes the control point of e from its endpoints'
// current positions.
func UpdateCenterPoint(q *querygraph.Query, e *querygraph.Edge) Status {
	p, status := CenterPoint(q.Node(e.Start()).Position(), q.Node(e.End()).Position(), e.CurveClass())
	e.SetCenterPoint(p)
	return status
}

// UpdateInterjectionPoint recomputes where e meets its end node's ellipse.
// It reads the control point, so UpdateCenterPoint must run first.
func UpdateInterjectionPoint(q *querygraph.Query, e *querygraph.Edge) Status {
	end := q.Node(e.End())
	i, status := Intersect(q.Node(e.Start()).Position(), e.CenterPoint(), end.Position(),
		end.EllipseA(), end.EllipseB(), e.CurveClass())
	e.SetInterjection(i)
	return status
}

// InterjectionAngle is the arrowhead rotation of e in degrees.
func InterjectionAngle(e *querygraph.Edge) float64 {
	return Angle(e.Interjection())
}

// Tick recomputes the geometry of every edge. It depends only on node
// positions, label bounds and curve classes, so calling it twice in a row
// gives the same result.
func Tick(q *querygraph.Query) Diagnostics {
	var d Diagnostics
	for _, e := range q.Edges() {
		d.record(UpdateCenterPoint(q, e))
		d.record(UpdateInterjectionPoint(q, e))
	}
	return d
}
