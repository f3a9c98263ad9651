package svg

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/sparqlviz/pkg/layout"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

func laidOut(t *testing.T) *querygraph.Query {
	t.Helper()
	q := querygraph.New()
	a, b, c := q.AddNode("?person"), q.AddNode("?name"), q.AddNode("<http://example.org/x>")
	q.Node(a).SetType(querygraph.NodeSelect)
	g := q.AddSubGraph("ex:g")
	q.AddEdge("foaf:name", a, b, querygraph.EdgeRegular, querygraph.NoSubGraph, querygraph.NoService)
	q.AddEdge("ex:knows", a, c, querygraph.EdgeOptional, g, querygraph.NoService)
	q.AddEdge("ex:knows", c, a, querygraph.EdgeRegular, querygraph.NoSubGraph, querygraph.NoService)
	f := q.AddFilter(`FILTER(?name != "Bob & Alice")`)
	q.FilterNode(f, b)
	q.SetLimit(5)
	if _, err := layout.Run(context.Background(), q, layout.Options{Ticks: 50}); err != nil {
		t.Fatalf("layout.Run() error: %v", err)
	}
	return q
}

func wellFormed(t *testing.T, doc []byte) {
	t.Helper()
	d := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := d.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatalf("invalid XML: %v\n%s", err, doc)
		}
	}
}

func TestRender(t *testing.T) {
	doc := Render(laidOut(t))
	wellFormed(t, doc)
	s := string(doc)

	if got := strings.Count(s, "<ellipse"); got != 3 {
		t.Errorf("ellipses = %d, want 3", got)
	}
	if got := strings.Count(s, "<path"); got != 3 {
		t.Errorf("paths = %d, want 3", got)
	}
	if got := strings.Count(s, "<polygon"); got != 3 {
		t.Errorf("arrowheads = %d, want 3", got)
	}
	if !strings.Contains(s, `class="node select"`) {
		t.Error("projected node not marked")
	}
	if !strings.Contains(s, "&lt;http://example.org/x&gt;") {
		t.Error("IRI label not escaped")
	}
	if !strings.Contains(s, `stroke-dasharray="6 4"`) {
		t.Error("optional edge not dashed")
	}
	if strings.Contains(s, ` dim"`) || strings.Contains(s, "LIMIT") || strings.Contains(s, "<rect") {
		t.Error("dimming, legend or clusters drawn without being asked for")
	}
}

func TestRenderLegendAndClusters(t *testing.T) {
	doc := Render(laidOut(t), WithLegend(), WithClusters())
	wellFormed(t, doc)
	s := string(doc)

	if !strings.Contains(s, "Bob &amp; Alice") {
		t.Error("filter text missing from legend")
	}
	if !strings.Contains(s, ">LIMIT 5<") {
		t.Error("limit missing from legend")
	}
	if strings.Count(s, "<rect") != 1 || !strings.Contains(s, ">ex:g<") {
		t.Error("named graph cluster missing")
	}
}

func TestRenderSelection(t *testing.T) {
	q := laidOut(t)
	doc := string(Render(q, WithSelection(querygraph.Selection{}.Select(querygraph.FilterRef(0)))))

	if !strings.Contains(doc, `<g id="node-0" class="node select dim">`) {
		t.Error("node outside the filter is not dimmed")
	}
	if !strings.Contains(doc, `<g id="node-1" class="node">`) {
		t.Error("node inside the filter is dimmed")
	}
	if strings.Count(doc, `class="arrow dim"`) != 3 {
		t.Error("edges outside the filter are not dimmed")
	}
}

func TestRenderEmpty(t *testing.T) {
	doc := Render(querygraph.New())
	wellFormed(t, doc)
	if !strings.Contains(string(doc), `viewBox="0 0 48 48"`) {
		t.Errorf("unexpected frame: %s", doc)
	}
}

func TestCurveMidpoint(t *testing.T) {
	got := curveMidpoint(querygraph.Point{X: 0, Y: 0}, querygraph.Point{X: 50, Y: 100}, querygraph.Point{X: 100, Y: 0})
	if got != (querygraph.Point{X: 50, Y: 50}) {
		t.Errorf("curveMidpoint() = %+v", got)
	}
}
