package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/sparqlviz/pkg/pipeline"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/workspace"
)

func newTestExplore(t *testing.T) (ExploreModel, *workspace.Workspace) {
	t.Helper()
	ws := workspace.New(nil, pipeline.Options{Ticks: 10})
	_, err := ws.Load(context.Background(), testQuery)
	require.NoError(t, err)
	return NewExploreModel(context.Background(), ws, filepath.Join(t.TempDir(), "out.svg")), ws
}

func press(m ExploreModel, keys ...string) ExploreModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(ExploreModel)
	}
	return m
}

// refIndex finds r in the model's list.
func refIndex(m ExploreModel, r querygraph.Ref) int {
	for i, ref := range m.refs {
		if ref == r {
			return i
		}
	}
	return -1
}

func TestExploreListsEveryEntity(t *testing.T) {
	m, _ := newTestExplore(t)
	// 3 nodes, 2 edges, 1 filter
	assert.Len(t, m.refs, 6)
	assert.Equal(t, querygraph.NodeRef(0), m.refs[0])
	assert.GreaterOrEqual(t, refIndex(m, querygraph.FilterRef(0)), 0)
}

func TestExploreNavigation(t *testing.T) {
	m, _ := newTestExplore(t)

	m = press(m, "up")
	assert.Equal(t, 0, m.Cursor)
	m = press(m, "down", "j", "down")
	assert.Equal(t, 3, m.Cursor)
	m = press(m, "k")
	assert.Equal(t, 2, m.Cursor)
	m = press(m, "down", "down", "down", "down", "down")
	assert.Equal(t, len(m.refs)-1, m.Cursor)
}

func TestExploreScrollsWithCursor(t *testing.T) {
	m, _ := newTestExplore(t)
	m.Height = 2

	m = press(m, "down", "down", "down")
	assert.Equal(t, 2, m.Offset)
	m = press(m, "up", "up", "up")
	assert.Equal(t, 0, m.Offset)
}

func TestExploreSelectAndClear(t *testing.T) {
	m, ws := newTestExplore(t)
	filter := querygraph.FilterRef(0)

	for m.Cursor < refIndex(m, filter) {
		m = press(m, "down")
	}
	m = press(m, "enter")
	sel, ok := ws.Selection().Selected(querygraph.KindFilter)
	require.True(t, ok)
	assert.Equal(t, filter, sel)
	assert.Contains(t, m.View(), "highlighting filter/0")

	m = press(m, "c")
	assert.True(t, ws.Selection().Empty())
	assert.Contains(t, m.View(), "selection cleared")
}

func TestExploreLayoutAndWrite(t *testing.T) {
	m, _ := newTestExplore(t)
	assert.True(t, m.busy)

	msg := m.layoutCmd()()
	next, _ := m.Update(msg)
	m = next.(ExploreModel)
	assert.False(t, m.busy)
	assert.Contains(t, m.status, "layout settled")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	m = next.(ExploreModel)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(ExploreModel)
	assert.Equal(t, "wrote "+m.output, m.status)

	data, err := os.ReadFile(m.output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<svg"))
}

func TestExploreQuit(t *testing.T) {
	m, _ := newTestExplore(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestDescribe(t *testing.T) {
	m, _ := newTestExplore(t)
	q := m.q

	edge := describe(q, querygraph.EdgeRef(0))
	assert.Contains(t, edge, "edge/0")
	assert.Contains(t, edge, "?s -> owl:Class")

	filter := describe(q, querygraph.FilterRef(0))
	assert.Contains(t, filter, "mentions 1 node(s)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
