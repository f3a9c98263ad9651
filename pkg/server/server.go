// Package server exposes the pipeline over HTTP.
//
// Routes:
//
//	POST /v1/compile  compile a query; answers with the graph document
//	POST /v1/render   compile, lay out and render; one format is returned
//	                  raw, several as a JSON object of base64 strings
//	GET  /healthz     liveness and build information
//	GET  /metrics     Prometheus metrics
//
// Errors are answered with {"code": ..., "message": ...} and the status
// of [sverrors.HTTPStatus]; query syntax errors add line and column.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/sparqlviz/pkg/config"
	"github.com/matzehuels/sparqlviz/pkg/observability"
	"github.com/matzehuels/sparqlviz/pkg/pipeline"
)

const requestIDHeader = "X-Request-ID"

// Server handles API requests with a shared pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	cfg      config.Config
	gatherer prometheus.Gatherer
	logger   *log.Logger
	router   chi.Router
}

// Options configures a Server.
type Options struct {
	// Config supplies request defaults (prefixes, layout, render) and the
	// [server] section.
	Config config.Config
	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

// New creates a server. A nil runner runs without a cache.
func New(runner *pipeline.Runner, opts Options) *Server {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		runner:   runner,
		cfg:      opts.Config,
		gatherer: opts.Gatherer,
		logger:   opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/compile", s.handleCompile)
		r.Post("/render", s.handleRender)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type requestIDKey struct{}

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// instrument logs each request and reports it to the HTTP hooks.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request",
			"id", requestIDFrom(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n := s.cfg.Server.MaxBodyBytes; n > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, n)
		}
		next.ServeHTTP(w, r)
	})
}
