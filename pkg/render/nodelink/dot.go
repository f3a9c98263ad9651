package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed appends the edge type to edge labels and adds a note node
	// listing filters, binds, ordering and the result limit.
	Detailed bool
	// Selection dims every entity it does not highlight. The zero value
	// highlights everything.
	Selection querygraph.Selection
}

const dimColor = `"` + render.ColorDimmed + `"`

// ToDOT converts a query graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Projected (SELECT) nodes are drawn bold. Each named graph and each
// SERVICE becomes a cluster holding the nodes it was the first container
// of, since DOT allows a node in one cluster only.
func ToDOT(q *querygraph.Query, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("\n")

	placed := make([]bool, len(q.Nodes()))
	for _, sg := range q.SubGraphs() {
		writeCluster(&buf, q, opts, "g", int(sg.ID()), sg.Name(), sg.Nodes(), placed,
			opts.Selection.Highlighted(q, querygraph.SubGraphRef(sg.ID())))
	}
	for _, svc := range q.Services() {
		writeCluster(&buf, q, opts, "s", int(svc.ID()), "SERVICE "+svc.Name(), svc.Nodes(), placed,
			opts.Selection.Highlighted(q, querygraph.ServiceRef(svc.ID())))
	}
	for _, n := range q.Nodes() {
		if !placed[n.ID()] {
			writeNode(&buf, q, opts, n, "  ")
		}
	}

	buf.WriteString("\n")
	for _, e := range q.Edges() {
		attrs := []string{fmt.Sprintf("label=%q", edgeLabel(e, opts.Detailed))}
		if c := render.EdgeColor(e.Type()); c != render.ColorInk {
			attrs = append(attrs, fmt.Sprintf("color=%q, fontcolor=%q", c, c))
		}
		if render.EdgeDashed(e.Type()) {
			attrs = append(attrs, "style=dashed")
		}
		if !opts.Selection.Highlighted(q, querygraph.EdgeRef(e.ID())) {
			attrs = append(attrs, "color="+dimColor, "fontcolor="+dimColor)
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.Start(), e.End(), strings.Join(attrs, ", "))
	}

	if opts.Detailed {
		if notes := render.Notes(q); len(notes) > 0 {
			fmt.Fprintf(&buf, "\n  note [shape=note, fontsize=11, label=%q];\n", strings.Join(notes, "\n"))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeCluster(buf *bytes.Buffer, q *querygraph.Query, opts Options, prefix string, id int, label string, members []querygraph.NodeID, placed []bool, lit bool) {
	fmt.Fprintf(buf, "  subgraph cluster_%s%d {\n", prefix, id)
	fmt.Fprintf(buf, "    label=%q;\n", label)
	if lit {
		buf.WriteString("    style=\"rounded,dashed\";\n")
	} else {
		fmt.Fprintf(buf, "    style=\"rounded,dashed\"; color=%s; fontcolor=%s;\n", dimColor, dimColor)
	}
	for _, m := range members {
		if placed[m] {
			continue
		}
		placed[m] = true
		writeNode(buf, q, opts, q.Node(m), "    ")
	}
	buf.WriteString("  }\n")
}

func writeNode(buf *bytes.Buffer, q *querygraph.Query, opts Options, n *querygraph.Node, indent string) {
	attrs := []string{fmt.Sprintf("label=%q", n.Name())}
	if n.IsSelect() {
		attrs = append(attrs, "penwidth=2.5", "fontname=\"Helvetica-Bold\"")
	}
	if !opts.Selection.Highlighted(q, querygraph.NodeRef(n.ID())) {
		attrs = append(attrs, "color="+dimColor, "fontcolor="+dimColor)
	}
	fmt.Fprintf(buf, "%sn%d [%s];\n", indent, n.ID(), strings.Join(attrs, ", "))
}

func edgeLabel(e *querygraph.Edge, detailed bool) string {
	if !detailed || e.Type() == querygraph.EdgeRegular {
		return e.Name()
	}
	return e.Name() + "\n" + e.Type().String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInternal, err, "render DOT")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with one
// whose viewBox starts at the origin, so the SVG scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
