package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/sparqlviz/pkg/config"
	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/graph"
	"github.com/matzehuels/sparqlviz/pkg/observability"
	"github.com/matzehuels/sparqlviz/pkg/observability/prom"
)

const query = `SELECT ?s ?label WHERE { ?s a owl:Class ; rdfs:label ?label }`

func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Layout.Ticks = 10
	if mutate != nil {
		mutate(&cfg)
	}
	s := New(nil, Options{
		Config:   cfg,
		Gatherer: prometheus.NewRegistry(),
		Logger:   log.New(io.Discard),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func jsonBody(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
	var body struct{ Status string }
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t, nil)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestCompile(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := post(t, ts, "/v1/compile", jsonBody(t, map[string]string{"query": query}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body compileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, graph.Version, body.Graph.Version)
	assert.Len(t, body.Graph.Nodes, 3)
	assert.Len(t, body.Graph.Edges, 2)
	assert.Equal(t, 2, body.Stats.SelectNodes)
	assert.False(t, body.Cached)
}

func TestCompileErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts, "/v1/compile", jsonBody(t, map[string]string{"query": "SELECT ?s WHERE {\n  ?s ?p"}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, resp)
	assert.Equal(t, sverrors.ErrCodeInvalidQuery, e.Code)
	assert.Equal(t, 2, e.Line)

	resp = post(t, ts, "/v1/compile", `{"query": "ASK {}", "qeury": 1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, sverrors.ErrCodeInvalidInput, decodeError(t, resp).Code)

	resp = post(t, ts, "/v1/compile", `{"query": ""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, sverrors.ErrCodeInvalidQuery, decodeError(t, resp).Code)
}

func TestCompileBodyLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 32 })
	resp := post(t, ts, "/v1/compile", jsonBody(t, map[string]string{"query": query}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRenderSingleFormat(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := post(t, ts, "/v1/render", jsonBody(t, map[string]any{"query": query, "formats": []string{"json"}}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var g graph.Graph
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	require.Len(t, g.Nodes, 3)
	for _, n := range g.Nodes {
		assert.Positive(t, n.Width, "layout estimated label bounds for %s", n.Name)
	}

	resp = post(t, ts, "/v1/render", jsonBody(t, map[string]any{"query": query}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<svg"))
}

func TestRenderMultipleFormats(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := post(t, ts, "/v1/render", jsonBody(t, map[string]any{
		"query":    query,
		"formats":  []string{"svg", "dot"},
		"detailed": true,
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body renderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, string(body.Artifacts["dot"]), "digraph G {")
	assert.Contains(t, string(body.Artifacts["svg"]), "<svg")
	assert.Equal(t, 10, body.Stats.Ticks)
}

func TestRenderErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts, "/v1/render", jsonBody(t, map[string]any{"query": query, "formats": []string{"gif"}}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, sverrors.ErrCodeInvalidFormat, decodeError(t, resp).Code)

	resp = post(t, ts, "/v1/render", jsonBody(t, map[string]any{"query": query, "select": []string{"filter/0"}}))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, sverrors.ErrCodeNotFound, decodeError(t, resp).Code)

	resp, err := http.Get(ts.URL + "/v1/render")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := prom.New(reg)
	observability.SetHTTPHooks(m)
	observability.SetPipelineHooks(m)
	defer observability.Reset()

	s := New(nil, Options{Config: config.Default(), Gatherer: reg, Logger: log.New(io.Discard)})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := post(t, ts, "/v1/compile", jsonBody(t, map[string]string{"query": query}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	data, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `sparqlviz_http_requests_total{method="POST",route="/v1/compile",status="200"} 1`)
	assert.Contains(t, text, `sparqlviz_stage_total{result="ok",stage="compile"} 1`)
}
