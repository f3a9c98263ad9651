package geometry

import (
	"math"

	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

const (
	// BezierDistance is how far, in layout units, the control point of a
	// curved edge sits from the straight line between its endpoints.
	BezierDistance = 100
	// MaxNewtonSteps caps the refinement of the curve/ellipse intersection.
	MaxNewtonSteps = 5
)

// Status reports how a single computation went.
type Status int

const (
	OK Status = iota
	// Degenerate means the endpoints coincide or the target ellipse is
	// empty, so no direction exists. A fallback value was produced.
	Degenerate
	// Unconverged means Newton's method hit MaxNewtonSteps without its
	// step dropping below the error bound. The last estimate was kept.
	Unconverged
)

// CenterPoint returns the control point of the quadratic Bezier curve from
// start to end: the midpoint of the segment, pushed perpendicular to it by
// c·BezierDistance. Coinciding endpoints yield the midpoint and Degenerate.
func CenterPoint(start, end querygraph.Point, c querygraph.CurveClass) (querygraph.Point, Status) {
	dx, dy := end.X-start.X, end.Y-start.Y
	mid := querygraph.Point{X: start.X + dx/2, Y: start.Y + dy/2}
	length := math.Hypot(dx, dy)
	if length == 0 {
		return mid, Degenerate
	}
	offset := float64(c) * BezierDistance
	return querygraph.Point{
		X: mid.X + offset*dy/length,
		Y: mid.Y - offset*dx/length,
	}, OK
}

// Intersect finds where the quadratic Bezier curve (start, control, end)
// enters the ellipse with semi-axes a and b centered on end.
//
// The curve is parametrized from the end node, so t = 0 is end and t = 1
// is start. The first estimate is the exact answer for a straight line;
// curved edges refine it with Newton's method on the quartic obtained by
// substituting the curve into the ellipse equation. The returned DX/DY is
// the tangent (dx/dt, dy/dt) at the intersection in that parametrization,
// so it points away from end toward start.
func Intersect(start, control, end querygraph.Point, a, b float64, c querygraph.CurveClass) (querygraph.Interjection, Status) {
	// End node at the origin.
	x1, y1 := control.X-end.X, control.Y-end.Y
	x2, y2 := start.X-end.X, start.Y-end.Y

	a2, b2 := a*a, b*b
	ex, ey := x2-2*x1, y2-2*y1

	at := func(t float64, status Status) (querygraph.Interjection, Status) {
		return querygraph.Interjection{
			X:  end.X + t*(2*x1+ex*t),
			Y:  end.Y + t*(2*y1+ey*t),
			DX: 2 * (ex*t + x1),
			DY: 2 * (ey*t + y1),
		}, status
	}

	denom := math.Sqrt(x2*x2*b2 + y2*y2*a2)
	if denom == 0 || a == 0 || b == 0 {
		return at(0, Degenerate)
	}
	t := a * b / denom
	if c == querygraph.Linear {
		return at(t, OK)
	}

	// f(t) = c4 t^4 + c3 t^3 + c2 t^2 - a^2 b^2
	c4 := ex*ex*b2 + ey*ey*a2
	c3 := 4 * (x1*ex*b2 + y1*ey*a2)
	c2 := 4 * (x1*x1*b2 + y1*y1*a2)
	c0 := a2 * b2
	f := func(t float64) float64 { return ((c4*t+c3)*t+c2)*t*t - c0 }
	df := func(t float64) float64 { return ((4*c4*t+3*c3)*t + 2*c2) * t }

	// The curve is no longer than its control polygon, so one layout unit
	// of arc length spans at least 1/L of t. Accept two units of error.
	polygon := math.Hypot(x1, y1) + math.Hypot(x2-x1, y2-y1)
	bound := 2 / polygon

	initial := t
	for range MaxNewtonSteps {
		slope := df(t)
		if slope == 0 {
			return at(t, Unconverged)
		}
		next := t - f(t)/slope
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return at(initial, Unconverged)
		}
		step := math.Abs(next - t)
		t = next
		if step < bound {
			return at(t, OK)
		}
	}
	return at(t, Unconverged)
}

// Angle returns the direction of an interjection's tangent in degrees, as
// used to rotate arrowheads.
func Angle(i querygraph.Interjection) float64 {
	return math.Atan2(i.DY, i.DX) * 180 / math.Pi
}
