// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/sparqlviz/pkg/observability"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

const namespace = "sparqlviz"

// Metrics records pipeline, cache and HTTP events. It satisfies all three
// hook interfaces of package observability.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	stageTotal    *prometheus.CounterVec
	graphEntities *prometheus.HistogramVec
	layoutTicks   prometheus.Histogram
	cacheEvents   *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of compile, layout and render stages",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_total",
			Help:      "Number of finished stages by outcome",
		}, []string{"stage", "result"}),
		graphEntities: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_entities",
			Help:      "Size of compiled query graphs",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"kind"}),
		layoutTicks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_ticks",
			Help:      "Simulation steps taken per layout",
			Buckets:   prometheus.LinearBuckets(50, 50, 6),
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache",
		}, []string{"key_type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the API",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.stageDuration, m.stageTotal, m.graphEntities, m.layoutTicks,
		m.cacheEvents, m.cacheBytes, m.httpRequests, m.httpDuration,
	)
	return m
}

func (m *Metrics) finish(stage string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.stageTotal.WithLabelValues(stage, result).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) OnCompileStart(context.Context, int) {}

func (m *Metrics) OnCompileComplete(_ context.Context, s querygraph.Stats, d time.Duration, err error) {
	m.finish("compile", d, err)
	if err == nil {
		m.graphEntities.WithLabelValues("nodes").Observe(float64(s.Nodes))
		m.graphEntities.WithLabelValues("edges").Observe(float64(s.Edges))
	}
}

func (m *Metrics) OnLayoutStart(context.Context, int, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, ticks int, d time.Duration, err error) {
	m.finish("layout", d, err)
	if err == nil {
		m.layoutTicks.Observe(float64(ticks))
	}
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	m.finish("render", d, err)
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
