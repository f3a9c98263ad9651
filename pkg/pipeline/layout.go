package pipeline

import (
	"context"

	"github.com/matzehuels/sparqlviz/pkg/layout"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

// Layout runs the force simulation on q in place.
func Layout(ctx context.Context, q *querygraph.Query, opts Options) (layout.Result, error) {
	return layout.Run(ctx, q, opts.LayoutOptions())
}

// applyGeometry copies node placement and edge geometry from src to dst.
// Both must be built from the same graph, so entities line up by handle.
func applyGeometry(dst, src *querygraph.Query) {
	for i, n := range src.Nodes() {
		d := dst.Nodes()[i]
		p := n.Position()
		d.SetPosition(p.X, p.Y)
		d.SetLabelBounds(n.LabelBounds())
	}
	for i, e := range src.Edges() {
		d := dst.Edges()[i]
		d.SetCurveClass(e.CurveClass())
		d.SetCenterPoint(e.CenterPoint())
		d.SetInterjection(e.Interjection())
	}
}
