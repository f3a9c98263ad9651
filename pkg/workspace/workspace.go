// Package workspace holds the query graph an interactive session is
// looking at.
//
// A Workspace owns at most one compiled Query at a time. Loading new text
// either replaces the whole graph, with a new generation ID, or leaves the
// previous one untouched when the text does not compile; there is no
// partial update. The workspace also carries the highlight [querygraph.Selection]
// so that renderers receive it explicitly.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/sparqlviz/pkg/compiler"
	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/geometry"
	"github.com/matzehuels/sparqlviz/pkg/layout"
	"github.com/matzehuels/sparqlviz/pkg/pipeline"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

// Snapshot is one successfully compiled generation.
type Snapshot struct {
	Generation  uuid.UUID
	Text        string
	Query       *querygraph.Query
	Diagnostics compiler.Diagnostics
	LoadedAt    time.Time
}

// Workspace is safe for concurrent use. Queries handed out by Current
// must be treated as read-only; mutate them through the Workspace.
type Workspace struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger

	mu  sync.RWMutex
	cur *Snapshot
	sel querygraph.Selection
}

// New creates an empty workspace. opts supplies prefixes and layout
// settings; its Query field is ignored.
func New(runner *pipeline.Runner, opts pipeline.Options) *Workspace {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil)
	}
	return &Workspace{runner: runner, opts: opts, logger: runner.Logger}
}

// Load compiles text and, on success, makes it the current generation and
// clears the selection. On failure the current generation is kept and the
// error is returned.
func (w *Workspace) Load(ctx context.Context, text string) (*Snapshot, error) {
	opts := w.opts
	opts.Query = text
	res, err := w.runner.Compile(ctx, opts)
	if err != nil {
		w.logger.Debug("keeping previous graph", "error", err)
		return nil, err
	}

	snap := &Snapshot{
		Generation:  uuid.New(),
		Text:        text,
		Query:       res.Query,
		Diagnostics: res.Diagnostics,
		LoadedAt:    time.Now(),
	}
	w.mu.Lock()
	w.cur = snap
	w.sel = querygraph.Selection{}
	w.mu.Unlock()

	w.logger.Debug("loaded graph", "generation", snap.Generation, "nodes", len(res.Query.Nodes()))
	return snap, nil
}

// Current returns the current generation, if any.
func (w *Workspace) Current() (*Snapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cur, w.cur != nil
}

// Selection returns the current highlight state.
func (w *Workspace) Selection() querygraph.Selection {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sel
}

// Select highlights ref, which must name an entity of the current graph.
func (w *Workspace) Select(ref querygraph.Ref) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil {
		return sverrors.New(sverrors.ErrCodeNotFound, "no query loaded")
	}
	if !w.cur.Query.Valid(ref) {
		return sverrors.New(sverrors.ErrCodeNotFound, "no entity %s in query", ref)
	}
	w.sel = w.sel.Select(ref)
	return nil
}

// ClearSelection highlights everything again.
func (w *Workspace) ClearSelection() {
	w.mu.Lock()
	w.sel = w.sel.Clear()
	w.mu.Unlock()
}

// Layout runs the force layout on the current graph.
func (w *Workspace) Layout(ctx context.Context) (layout.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil {
		return layout.Result{}, sverrors.New(sverrors.ErrCodeNotFound, "no query loaded")
	}
	return w.runner.Layout(ctx, w.cur.Query, w.opts)
}

// Move places a node at (x, y), as when it is dragged, and recomputes the
// edge geometry. A pinned node keeps its position in later layouts.
func (w *Workspace) Move(id querygraph.NodeID, x, y float64, pin bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil {
		return sverrors.New(sverrors.ErrCodeNotFound, "no query loaded")
	}
	if !w.cur.Query.Valid(querygraph.NodeRef(id)) {
		return sverrors.New(sverrors.ErrCodeNotFound, "no node %d in query", id)
	}
	n := w.cur.Query.Node(id)
	n.SetPosition(x, y)
	n.SetFixed(pin)
	geometry.Tick(w.cur.Query)
	return nil
}

// Render produces the given formats of the current graph with the current
// selection.
func (w *Workspace) Render(ctx context.Context, formats ...string) (map[string][]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.cur == nil {
		return nil, sverrors.New(sverrors.ErrCodeNotFound, "no query loaded")
	}
	opts := w.opts
	opts.Formats = formats
	opts.Select = nil
	for _, ref := range w.sel.Refs() {
		opts.Select = append(opts.Select, ref.String())
	}
	return w.runner.Render(ctx, w.cur.Query, opts)
}
