package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/sparqlviz/pkg/layout"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/workspace"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listLitStyle      = lipgloss.NewStyle().Foreground(colorGreen)

	detailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			PaddingLeft(1).PaddingRight(1)
)

const (
	defaultListHeight = 15
	detailHeight      = 6
)

type layoutDoneMsg struct {
	res layout.Result
	err error
}

type writtenMsg struct {
	path string
	err  error
}

// =============================================================================
// ExploreModel - browse the entities of a compiled query
// =============================================================================

// ExploreModel lists every entity of the workspace's query. Enter
// highlights the entity under the cursor, w writes the highlighted drawing.
type ExploreModel struct {
	ctx    context.Context
	ws     *workspace.Workspace
	q      *querygraph.Query
	output string

	refs   []querygraph.Ref
	Cursor int
	Offset int
	Height int

	detail  viewport.Model
	spinner spinner.Model
	busy    bool
	status  string
}

// NewExploreModel creates a model over the current generation of ws,
// which must have a query loaded.
func NewExploreModel(ctx context.Context, ws *workspace.Workspace, output string) ExploreModel {
	snap, _ := ws.Current()
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = styleIconSpinner

	m := ExploreModel{
		ctx:     ctx,
		ws:      ws,
		q:       snap.Query,
		output:  output,
		refs:    allRefs(snap.Query),
		Height:  defaultListHeight,
		detail:  viewport.New(80, detailHeight),
		spinner: s,
		busy:    true,
		status:  "laying out",
	}
	m.detail.Style = detailStyle
	m.refreshDetail()
	return m
}

func allRefs(q *querygraph.Query) []querygraph.Ref {
	var refs []querygraph.Ref
	for k := querygraph.KindNode; k <= querygraph.KindOrder; k++ {
		refs = append(refs, q.Refs(k)...)
	}
	return refs
}

func (m ExploreModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.layoutCmd())
}

func (m ExploreModel) layoutCmd() tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		res, err := ws.Layout(ctx)
		return layoutDoneMsg{res: res, err: err}
	}
}

func (m ExploreModel) writeCmd() tea.Cmd {
	ctx, ws, path := m.ctx, m.ws, m.output
	return func() tea.Msg {
		artifacts, err := ws.Render(ctx, "svg")
		if err == nil {
			err = os.WriteFile(path, artifacts["svg"], 0o644)
		}
		return writtenMsg{path: path, err: err}
	}
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case layoutDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "layout failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("layout settled after %d ticks", msg.res.Ticks)
		}
		m.refreshDetail()

	case writtenMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "write failed: " + msg.err.Error()
		} else {
			m.status = "wrote " + msg.path
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-detailHeight-8, 5)
		m.detail.Width = msg.Width
		m.scroll()
	}
	return m, nil
}

func (m ExploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.refs)-1 {
			m.Cursor++
		}
	case "enter", " ":
		if len(m.refs) == 0 {
			return m, nil
		}
		ref := m.refs[m.Cursor]
		if err := m.ws.Select(ref); err != nil {
			m.status = err.Error()
		} else {
			m.status = "highlighting " + ref.String()
		}
	case "c":
		m.ws.ClearSelection()
		m.status = "selection cleared"
	case "r":
		if m.busy {
			return m, nil
		}
		m.busy, m.status = true, "laying out"
		return m, m.layoutCmd()
	case "w":
		if m.busy {
			return m, nil
		}
		m.busy, m.status = true, "writing "+m.output
		return m, m.writeCmd()
	default:
		return m, nil
	}
	m.scroll()
	m.refreshDetail()
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *ExploreModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *ExploreModel) refreshDetail() {
	if len(m.refs) == 0 {
		m.detail.SetContent(listDimStyle.Render("The query has no entities."))
		return
	}
	m.detail.SetContent(describe(m.q, m.refs[m.Cursor]))
}

// describe summarizes one entity for the detail pane.
func describe(q *querygraph.Query, ref querygraph.Ref) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", StyleTitle.Render(ref.String()), q.Label(ref))
	switch ref.Kind {
	case querygraph.KindNode:
		n := q.Node(querygraph.NodeID(ref.ID))
		p := n.Position()
		fmt.Fprintf(&b, "%s at (%.0f, %.0f), %d edge(s)", n.Type(), p.X, p.Y, len(n.Edges()))
		if n.Fixed() {
			b.WriteString(", pinned")
		}
	case querygraph.KindEdge:
		e := q.Edge(querygraph.EdgeID(ref.ID))
		fmt.Fprintf(&b, "%s -> %s\n%s edge, %s curve",
			q.Node(e.Start()).Name(), q.Node(e.End()).Name(), e.Type(), e.CurveClass())
	case querygraph.KindSubGraph:
		sg := q.SubGraph(querygraph.SubGraphID(ref.ID))
		fmt.Fprintf(&b, "%d node(s), %d edge(s)", len(sg.Nodes()), len(sg.Edges()))
	case querygraph.KindService:
		svc := q.Service(querygraph.ServiceID(ref.ID))
		fmt.Fprintf(&b, "%d node(s), %d edge(s)", len(svc.Nodes()), len(svc.Edges()))
	case querygraph.KindUnion:
		fmt.Fprintf(&b, "%d edge(s)", len(q.Union(querygraph.UnionID(ref.ID)).Edges()))
	case querygraph.KindFilter:
		f := q.Filter(querygraph.FilterID(ref.ID))
		fmt.Fprintf(&b, "mentions %d node(s), %d edge(s)", len(f.Nodes()), len(f.Edges()))
	case querygraph.KindBind:
		bd := q.Bind(querygraph.BindID(ref.ID))
		fmt.Fprintf(&b, "mentions %d node(s), %d edge(s)", len(bd.Nodes()), len(bd.Edges()))
	case querygraph.KindOrder:
		if o, ok := q.Order(); ok {
			fmt.Fprintf(&b, "sorts by %d node(s)", len(o.Nodes()))
		}
	}
	return b.String()
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Explore Query"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ highlight  c clear  r relayout  w write svg  q quit"))
	b.WriteString("\n\n")

	sel := m.ws.Selection()
	end := min(m.Offset+m.Height, len(m.refs))
	for i := m.Offset; i < end; i++ {
		ref := m.refs[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := " "
		if !sel.Empty() && sel.Highlighted(m.q, ref) {
			mark = listLitStyle.Render("●")
		}
		line := fmt.Sprintf("%s%s %-12s %s", cursor, mark, ref.String(), truncate(m.q.Label(ref), 60))

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case !sel.Empty() && !sel.Highlighted(m.q, ref):
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detail.View())
	b.WriteString("\n")

	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.Cursor+1, len(m.refs), status)))
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
