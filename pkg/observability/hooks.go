// Package observability provides hooks for metrics and tracing.
//
// Libraries in this module emit events through the hooks returned by
// [Pipeline], [Cache] and [HTTP]. The defaults do nothing; a binary that
// wants metrics registers real implementations once at startup, before any
// work starts:
//
//	func main() {
//	    m := prom.New(prometheus.NewRegistry())
//	    observability.SetPipelineHooks(m)
//	    observability.SetCacheHooks(m)
//	    observability.SetHTTPHooks(m)
//	    // ...
//	}
//
// Emitting side:
//
//	observability.Pipeline().OnCompileStart(ctx, len(text))
//	// ... compile ...
//	observability.Pipeline().OnCompileComplete(ctx, stats, duration, err)
//
// Package prom provides a Prometheus-backed implementation.
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

// PipelineHooks receives events from the compile, layout and render stages.
type PipelineHooks interface {
	OnCompileStart(ctx context.Context, queryBytes int)
	OnCompileComplete(ctx context.Context, stats querygraph.Stats, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, nodeCount, edgeCount int)
	OnLayoutComplete(ctx context.Context, ticks int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups. keyType is one of
// "compile", "layout" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events for requests served by the API server.
type HTTPHooks interface {
	// OnRequest is called once the handler has written its response.
	// route is the matched route pattern, not the raw path.
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// NoopPipelineHooks ignores all pipeline events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnCompileStart(context.Context, int) {}
func (NoopPipelineHooks) OnCompileComplete(context.Context, querygraph.Stats, time.Duration, error) {
}
func (NoopPipelineHooks) OnLayoutStart(context.Context, int, int)                          {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks ignores all cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores all HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op defaults. Used by tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
