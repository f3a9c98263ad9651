package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/sparqlviz/pkg/geometry"
	"github.com/matzehuels/sparqlviz/pkg/layout"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/render"
)

const (
	margin          = 24.0
	clusterPadding  = 10.0
	arrowLength     = 10.0
	arrowHalfWidth  = 4.0
	legendFontSize  = 12.0
	legendLineScale = 1.5
)

const style = `
    .node ellipse { fill: #ffffff; stroke: #222222; stroke-width: 1.5; }
    .node.select ellipse { stroke-width: 3; }
    .node.select text { font-weight: bold; }
    .edge path { fill: none; stroke-width: 1.5; }
    .cluster rect { fill: none; stroke: #888888; stroke-dasharray: 6 4; }
    .dim { opacity: 0.25; }
    text { font-family: Helvetica, Arial, sans-serif; }`

// Option configures the renderer.
type Option func(*renderer)

type renderer struct {
	sel      querygraph.Selection
	fontSize float64
	legend   bool
	clusters bool
}

// WithSelection dims everything sel does not highlight.
func WithSelection(sel querygraph.Selection) Option { return func(r *renderer) { r.sel = sel } }

// WithFontSize sets the node label size. It should match the size the
// layout estimated label bounds with.
func WithFontSize(size float64) Option { return func(r *renderer) { r.fontSize = size } }

// WithLegend appends FILTER and BIND texts, the ORDER BY keys and the LIMIT
// below the drawing.
func WithLegend() Option { return func(r *renderer) { r.legend = true } }

// WithClusters outlines the nodes of every named graph and SERVICE.
func WithClusters() Option { return func(r *renderer) { r.clusters = true } }

// Render draws a laid-out query graph. Node positions, label bounds and
// edge geometry are taken as they are; run [layout.Run] first.
func Render(q *querygraph.Query, opts ...Option) []byte {
	r := renderer{fontSize: layout.DefaultFontSize}
	for _, opt := range opts {
		opt(&r)
	}

	frame := bounds(q)
	legend := r.legendLines(q)
	height := frame.h() + float64(len(legend))*legendFontSize*legendLineScale

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(frame.x0), num(frame.y0), num(frame.w()), num(height), frame.w(), height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", style)

	if r.clusters {
		r.renderClusters(&buf, q)
	}
	for _, e := range q.Edges() {
		r.renderEdge(&buf, q, e)
	}
	for _, n := range q.Nodes() {
		r.renderNode(&buf, q, n)
	}
	for _, e := range q.Edges() {
		r.renderArrow(&buf, q, e)
	}
	for i, line := range legend {
		y := frame.y1 + float64(i+1)*legendFontSize*legendLineScale
		fmt.Fprintf(&buf, `  <text class="legend" x="%s" y="%s" font-size="%s">%s</text>`+"\n",
			num(frame.x0+margin), num(y), num(legendFontSize), escape(line))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *renderer) dim(q *querygraph.Query, ref querygraph.Ref) string {
	if r.sel.Highlighted(q, ref) {
		return ""
	}
	return " dim"
}

func (r *renderer) renderNode(buf *bytes.Buffer, q *querygraph.Query, n *querygraph.Node) {
	class := "node"
	if n.IsSelect() {
		class += " select"
	}
	class += r.dim(q, querygraph.NodeRef(n.ID()))
	fmt.Fprintf(buf, `  <g id="node-%d" class="%s">`+"\n", n.ID(), class)
	fmt.Fprintf(buf, `    <ellipse cx="%s" cy="%s" rx="%s" ry="%s"/>`+"\n",
		num(n.X()), num(n.Y()), num(n.EllipseA()), num(n.EllipseB()))
	fmt.Fprintf(buf, `    <text x="%s" y="%s" font-size="%s" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		num(n.X()), num(n.Y()), num(r.fontSize), escape(n.Name()))
	buf.WriteString("  </g>\n")
}

func (r *renderer) renderEdge(buf *bytes.Buffer, q *querygraph.Query, e *querygraph.Edge) {
	start, end := q.Node(e.Start()).Position(), q.Node(e.End()).Position()
	control := e.CenterPoint()
	color := render.EdgeColor(e.Type())

	fmt.Fprintf(buf, `  <g id="edge-%d" class="edge %s%s">`+"\n",
		e.ID(), strings.ToLower(e.Type().String()), r.dim(q, querygraph.EdgeRef(e.ID())))
	dash := ""
	if render.EdgeDashed(e.Type()) {
		dash = ` stroke-dasharray="6 4"`
	}
	fmt.Fprintf(buf, `    <path d="M%s,%s Q%s,%s %s,%s" stroke="%s"%s/>`+"\n",
		num(start.X), num(start.Y), num(control.X), num(control.Y), num(end.X), num(end.Y), color, dash)

	mid := curveMidpoint(start, control, end)
	fmt.Fprintf(buf, `    <text x="%s" y="%s" font-size="%s" text-anchor="middle" fill="%s">%s</text>`+"\n",
		num(mid.X), num(mid.Y-4), num(r.fontSize*0.8), color, escape(e.Name()))
	buf.WriteString("  </g>\n")
}

// renderArrow draws the arrowhead with its tip on the end node's ellipse.
// The stored tangent points away from the end node, so the head is turned
// around.
func (r *renderer) renderArrow(buf *bytes.Buffer, q *querygraph.Query, e *querygraph.Edge) {
	i := e.Interjection()
	angle := geometry.InterjectionAngle(e) + 180
	fmt.Fprintf(buf, `  <polygon class="arrow%s" points="0,0 %s,%s %s,%s" fill="%s" transform="translate(%s,%s) rotate(%s)"/>`+"\n",
		r.dim(q, querygraph.EdgeRef(e.ID())),
		num(-arrowLength), num(-arrowHalfWidth), num(-arrowLength), num(arrowHalfWidth),
		render.EdgeColor(e.Type()), num(i.X), num(i.Y), num(angle))
}

func (r *renderer) renderClusters(buf *bytes.Buffer, q *querygraph.Query) {
	for _, sg := range q.SubGraphs() {
		r.renderCluster(buf, q, querygraph.SubGraphRef(sg.ID()), sg.Name(), sg.Nodes())
	}
	for _, svc := range q.Services() {
		r.renderCluster(buf, q, querygraph.ServiceRef(svc.ID()), "SERVICE "+svc.Name(), svc.Nodes())
	}
}

func (r *renderer) renderCluster(buf *bytes.Buffer, q *querygraph.Query, ref querygraph.Ref, label string, nodes []querygraph.NodeID) {
	if len(nodes) == 0 {
		return
	}
	b := emptyBox()
	for _, id := range nodes {
		b.addNode(q.Node(id))
	}
	b = b.grow(clusterPadding)
	fmt.Fprintf(buf, `  <g class="cluster%s">`+"\n", r.dim(q, ref))
	fmt.Fprintf(buf, `    <rect x="%s" y="%s" width="%s" height="%s" rx="8"/>`+"\n",
		num(b.x0), num(b.y0), num(b.w()), num(b.h()))
	fmt.Fprintf(buf, `    <text x="%s" y="%s" font-size="%s" fill="#888888">%s</text>`+"\n",
		num(b.x0+4), num(b.y0-4), num(legendFontSize), escape(label))
	buf.WriteString("  </g>\n")
}

func (r *renderer) legendLines(q *querygraph.Query) []string {
	if !r.legend {
		return nil
	}
	return render.Notes(q)
}

// curveMidpoint evaluates the quadratic Bezier at t = 0.5.
func curveMidpoint(start, control, end querygraph.Point) querygraph.Point {
	return querygraph.Point{
		X: 0.25*start.X + 0.5*control.X + 0.25*end.X,
		Y: 0.25*start.Y + 0.5*control.Y + 0.25*end.Y,
	}
}

type box struct{ x0, y0, x1, y1 float64 }

func emptyBox() box {
	return box{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
}

func (b *box) add(x, y float64) {
	b.x0, b.y0 = min(b.x0, x), min(b.y0, y)
	b.x1, b.y1 = max(b.x1, x), max(b.y1, y)
}

func (b *box) addNode(n *querygraph.Node) {
	b.add(n.X()-n.EllipseA(), n.Y()-n.EllipseB())
	b.add(n.X()+n.EllipseA(), n.Y()+n.EllipseB())
}

func (b box) grow(d float64) box { return box{b.x0 - d, b.y0 - d, b.x1 + d, b.y1 + d} }
func (b box) w() float64         { return b.x1 - b.x0 }
func (b box) h() float64         { return b.y1 - b.y0 }

// bounds covers every node ellipse and curve control point plus a margin.
func bounds(q *querygraph.Query) box {
	if len(q.Nodes()) == 0 {
		return box{0, 0, 2 * margin, 2 * margin}
	}
	b := emptyBox()
	for _, n := range q.Nodes() {
		b.addNode(n)
	}
	for _, e := range q.Edges() {
		c := e.CenterPoint()
		b.add(c.X, c.Y)
	}
	return b.grow(margin)
}

func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
