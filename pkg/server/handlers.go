package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matzehuels/sparqlviz/pkg/buildinfo"
	"github.com/matzehuels/sparqlviz/pkg/compiler"
	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/graph"
	"github.com/matzehuels/sparqlviz/pkg/pipeline"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/sparql/parser"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatYAML: "application/yaml",
}

type compileRequest struct {
	Query    string            `json:"query"`
	Prefixes map[string]string `json:"prefixes,omitempty"`
	Refresh  bool              `json:"refresh,omitempty"`
}

type compileResponse struct {
	Graph       graph.Graph          `json:"graph"`
	Diagnostics compiler.Diagnostics `json:"diagnostics"`
	Stats       querygraph.Stats     `json:"stats"`
	Cached      bool                 `json:"cached"`
}

type renderResponse struct {
	// Artifacts are base64 encoded.
	Artifacts   map[string][]byte    `json:"artifacts"`
	Diagnostics compiler.Diagnostics `json:"diagnostics"`
	Stats       renderStats          `json:"stats"`
}

type renderStats struct {
	Graph       querygraph.Stats `json:"graph"`
	CompileMS   int64            `json:"compile_ms"`
	LayoutMS    int64            `json:"layout_ms"`
	RenderMS    int64            `json:"render_ms"`
	Ticks       int              `json:"ticks"`
	CompileHit  bool             `json:"compile_hit"`
	LayoutHit   bool             `json:"layout_hit"`
	RenderHit   bool             `json:"render_hit"`
	Unconverged int              `json:"unconverged"`
}

type errorResponse struct {
	Code    sverrors.Code `json:"code"`
	Message string        `json:"message"`
	Line    int           `json:"line,omitempty"`
	Column  int           `json:"column,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := pipeline.Options{Query: req.Query, Prefixes: req.Prefixes, Refresh: req.Refresh}
	s.cfg.Apply(&opts)

	res, hit, err := s.runner.CompileWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compileResponse{
		Graph:       graph.FromQuery(res.Query),
		Diagnostics: res.Diagnostics,
		Stats:       res.Query.Stats(),
		Cached:      hit,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decode(r, &opts); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.cfg.Apply(&opts)

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if len(res.Artifacts) == 1 {
		for format, data := range res.Artifacts {
			w.Header().Set("Content-Type", contentTypes[format])
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		}
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{
		Artifacts:   res.Artifacts,
		Diagnostics: res.Diagnostics,
		Stats: renderStats{
			Graph:       res.Stats.Graph,
			CompileMS:   ms(res.Stats.CompileTime),
			LayoutMS:    ms(res.Stats.LayoutTime),
			RenderMS:    ms(res.Stats.RenderTime),
			Ticks:       res.Layout.Ticks,
			CompileHit:  res.CacheInfo.CompileHit,
			LayoutHit:   res.CacheInfo.LayoutHit,
			RenderHit:   res.CacheInfo.RenderHit,
			Unconverged: res.Layout.Geometry.Unconverged,
		},
	})
}

func ms(d time.Duration) int64 { return d.Milliseconds() }

// decode reads a JSON body. Unknown fields are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &bodyTooLargeError{limit: tooLarge.Limit}
		}
		return sverrors.Wrap(sverrors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

type bodyTooLargeError struct{ limit int64 }

func (e *bodyTooLargeError) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.limit)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *bodyTooLargeError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Code:    sverrors.ErrCodeInvalidInput,
			Message: err.Error(),
		})
		return
	}

	status := sverrors.HTTPStatus(err)
	resp := errorResponse{Code: sverrors.GetCode(err), Message: sverrors.UserMessage(err)}
	if resp.Code == "" {
		resp.Code = sverrors.ErrCodeInternal
	}
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		resp.Line, resp.Column, resp.Message = perr.Line, perr.Column, perr.Message
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", requestIDFrom(r.Context()), "error", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
