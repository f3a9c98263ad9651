package querygraph

import "fmt"

// Handles into a Query's arena. The zero value of each is a valid handle
// (the first entity of that kind); "no entity" is expressed with the
// NoSubGraph / NoService / NoUnion sentinels where a field is optional.
type (
	NodeID     int
	EdgeID     int
	SubGraphID int
	ServiceID  int
	UnionID    int
	FilterID   int
	BindID     int
	OrderID    int
)

// Sentinels for optional ownership.
const (
	NoSubGraph SubGraphID = -1
	NoService  ServiceID  = -1
	NoUnion    UnionID    = -1
)

// NodeType marks whether a node is projected by SELECT.
type NodeType int

const (
	NodeRegular NodeType = iota
	NodeSelect
)

func (t NodeType) String() string {
	if t == NodeSelect {
		return "SELECT"
	}
	return "REGULAR"
}

// EdgeType is the semantic role of a triple pattern.
type EdgeType int

const (
	EdgeInsert EdgeType = iota
	EdgeDelete
	EdgeMinus
	EdgeOptional
	EdgeConstruct
	EdgeRegular
)

var edgeTypeNames = [...]string{"INSERT", "DELETE", "MINUS", "OPTIONAL", "CONSTRUCT", "REGULAR"}

func (t EdgeType) String() string {
	if t < 0 || int(t) >= len(edgeTypeNames) {
		return fmt.Sprintf("EdgeType(%d)", int(t))
	}
	return edgeTypeNames[t]
}

// ParseEdgeType is the inverse of EdgeType.String.
func ParseEdgeType(s string) (EdgeType, bool) {
	for i, name := range edgeTypeNames {
		if name == s {
			return EdgeType(i), true
		}
	}
	return EdgeRegular, false
}

// CurveClass selects how an edge is offset from the straight line between
// its endpoints. The numeric value is the signed multiple of the control
// point offset.
type CurveClass int

const (
	Linear         CurveClass = 0
	BezierPositive CurveClass = 1
	BezierNegative CurveClass = -1
)

func (c CurveClass) String() string {
	switch c {
	case BezierPositive:
		return "BEZIER_POSITIVE"
	case BezierNegative:
		return "BEZIER_NEGATIVE"
	default:
		return "LINEAR"
	}
}

// ParseCurveClass is the inverse of CurveClass.String.
func ParseCurveClass(s string) (CurveClass, bool) {
	switch s {
	case "LINEAR":
		return Linear, true
	case "BEZIER_POSITIVE":
		return BezierPositive, true
	case "BEZIER_NEGATIVE":
		return BezierNegative, true
	}
	return Linear, false
}

// Point is a 2D position in layout units.
type Point struct {
	X, Y float64
}

// Interjection is where an edge's curve meets the end node's ellipse,
// together with the curve's tangent at that point.
type Interjection struct {
	X, Y   float64
	DX, DY float64
}

// Point returns the intersection position.
func (i Interjection) Point() Point { return Point{X: i.X, Y: i.Y} }
