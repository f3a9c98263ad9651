package render

import "github.com/matzehuels/sparqlviz/pkg/querygraph"

// Colors shared by the renderers.
const (
	ColorInk    = "#222222"
	ColorDimmed = "#c8c8c8"
)

var edgeColors = [...]string{
	querygraph.EdgeInsert:    "#2e7d32",
	querygraph.EdgeDelete:    "#c62828",
	querygraph.EdgeMinus:     "#c62828",
	querygraph.EdgeOptional:  ColorInk,
	querygraph.EdgeConstruct: "#1565c0",
	querygraph.EdgeRegular:   ColorInk,
}

// EdgeColor is the stroke color for an edge type.
func EdgeColor(t querygraph.EdgeType) string {
	if t < 0 || int(t) >= len(edgeColors) {
		return ColorInk
	}
	return edgeColors[t]
}

// EdgeDashed reports whether edges of type t are drawn dashed: patterns
// that need not match (OPTIONAL) or must not match (MINUS).
func EdgeDashed(t querygraph.EdgeType) bool {
	return t == querygraph.EdgeOptional || t == querygraph.EdgeMinus
}
