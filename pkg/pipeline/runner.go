package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/sparqlviz/pkg/cache"
	"github.com/matzehuels/sparqlviz/pkg/compiler"
	"github.com/matzehuels/sparqlviz/pkg/graph"
	"github.com/matzehuels/sparqlviz/pkg/layout"
	"github.com/matzehuels/sparqlviz/pkg/observability"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

// Runner runs pipeline stages with caching. The CLI and the server share
// it so both key and store results the same way.
//
// A Runner holds no per-run state; it is safe for concurrent use as long
// as its Cache is.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means [cache.DefaultKeyer] and a nil logger means [log.Default].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute compiles, lays out and renders opts.Query.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	compileStart := time.Now()
	compiled, hit, err := r.CompileWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	q := compiled.Query
	result.Query = q
	result.Diagnostics = compiled.Diagnostics
	result.Stats.Graph = q.Stats()
	result.Stats.CompileTime = time.Since(compileStart)
	result.CacheInfo.CompileHit = hit
	if data, err := graph.EncodeSnapshot(q); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	r.Logger.Info("compiled query",
		"nodes", result.Stats.Graph.Nodes,
		"edges", result.Stats.Graph.Edges,
		"unresolved", compiled.Diagnostics.UnresolvedReferences,
		"duration", result.Stats.CompileTime)

	layoutStart := time.Now()
	lres, hit, err := r.LayoutWithCacheInfo(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = lres
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"ticks", lres.Ticks,
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// compileEntry is the cached form of a compile result.
type compileEntry struct {
	Graph       []byte               `msgpack:"graph"`
	Diagnostics compiler.Diagnostics `msgpack:"diagnostics"`
}

// CompileWithCacheInfo compiles opts.Query and reports whether the result
// came from the cache.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, opts Options) (*compiler.Result, bool, error) {
	if err := opts.ValidateForCompile(); err != nil {
		return nil, false, err
	}
	hooks := observability.Pipeline()
	cacheKey := r.Keyer.CompileKey(cache.Hash([]byte(opts.Query)), opts.CompileKeyOpts())

	if !opts.Refresh {
		if res, ok := r.cachedCompile(ctx, cacheKey); ok {
			return res, true, nil
		}
	}

	hooks.OnCompileStart(ctx, len(opts.Query))
	start := time.Now()
	res, err := Compile(opts.Query, opts.Prefixes)
	if err != nil {
		hooks.OnCompileComplete(ctx, querygraph.Stats{}, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnCompileComplete(ctx, res.Query.Stats(), time.Since(start), nil)

	if snap, err := graph.EncodeSnapshot(res.Query); err == nil {
		if data, err := msgpack.Marshal(compileEntry{Graph: snap, Diagnostics: res.Diagnostics}); err == nil {
			r.store(ctx, "compile", cacheKey, data, cache.TTLCompile)
		}
	}
	return res, false, nil
}

func (r *Runner) cachedCompile(ctx context.Context, key string) (*compiler.Result, bool) {
	data, ok := r.lookup(ctx, "compile", key)
	if !ok {
		return nil, false
	}
	var entry compileEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		r.Logger.Debug("discarding cached compile result", "error", err)
		return nil, false
	}
	q, err := graph.DecodeSnapshot(entry.Graph)
	if err != nil {
		r.Logger.Debug("discarding cached compile result", "error", err)
		return nil, false
	}
	return &compiler.Result{Query: q, Diagnostics: entry.Diagnostics}, true
}

// Compile is CompileWithCacheInfo without the cache hit flag.
func (r *Runner) Compile(ctx context.Context, opts Options) (*compiler.Result, error) {
	res, _, err := r.CompileWithCacheInfo(ctx, opts)
	return res, err
}

// LayoutWithCacheInfo lays q out in place. On a cache hit the stored
// geometry is copied onto q and the returned Result is zero.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, q *querygraph.Query, opts Options) (layout.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Result{}, false, err
	}
	hooks := observability.Pipeline()

	snap, err := graph.EncodeSnapshot(q)
	if err != nil {
		return layout.Result{}, false, err
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(snap), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, ok := r.lookup(ctx, "layout", cacheKey); ok {
			if cached, err := graph.DecodeSnapshot(data); err == nil && sameShape(cached, q) {
				applyGeometry(q, cached)
				return layout.Result{}, true, nil
			}
			r.Logger.Debug("discarding cached layout", "key", cacheKey)
		}
	}

	hooks.OnLayoutStart(ctx, len(q.Nodes()), len(q.Edges()))
	start := time.Now()
	res, err := Layout(ctx, q, opts)
	hooks.OnLayoutComplete(ctx, res.Ticks, time.Since(start), err)
	if err != nil {
		return layout.Result{}, false, err
	}

	if data, err := graph.EncodeSnapshot(q); err == nil {
		r.store(ctx, "layout", cacheKey, data, cache.TTLLayout)
	}
	return res, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit flag.
func (r *Runner) Layout(ctx context.Context, q *querygraph.Query, opts Options) (layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, q, opts)
	return res, err
}

// RenderWithCacheInfo renders every requested format of a laid-out q. The
// hit flag is set only when all formats came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, q *querygraph.Query, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	snap, err := graph.EncodeSnapshot(q)
	if err != nil {
		return nil, false, err
	}
	layoutHash := cache.Hash(snap)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, ok := r.lookup(ctx, "artifact", r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)))
			if !ok {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, q, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.store(ctx, "artifact", r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is RenderWithCacheInfo without the cache hit flag.
func (r *Runner) Render(ctx context.Context, q *querygraph.Query, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, q, opts)
	return artifacts, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// lookup reads key and reports the outcome to the cache hooks. Backend
// errors count as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func sameShape(a, b *querygraph.Query) bool {
	return len(a.Nodes()) == len(b.Nodes()) && len(a.Edges()) == len(b.Edges())
}
