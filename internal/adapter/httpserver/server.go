// Package httpserver exposes health, metrics, and read-only API endpoints
// over the latest pipeline results.
package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pelagiclab/sog-dataprep/internal/pipeline"
)

// ResultsProvider reports readiness and serves the latest run outputs.
type ResultsProvider interface {
	CheckReadiness(ctx context.Context) error
	Results() *pipeline.Results
}

// Server exposes health, readiness, metrics, and result API endpoints.
type Server struct {
	httpServer *http.Server
	provider   ResultsProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, /metrics, and /api routes.
func NewServer(addr string, provider ResultsProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider: provider,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/stations", s.handleResults(func(r *pipeline.Results) any { return r.Stations }))
	mux.HandleFunc("GET /api/observations", s.handleResults(func(r *pipeline.Results) any { return r.Observations }))
	mux.HandleFunc("GET /api/ctd/monthly", s.handleResults(func(r *pipeline.Results) any { return r.Monthly }))
	mux.HandleFunc("GET /api/chl/timeseries", s.handleResults(func(r *pipeline.Results) any { return r.Chl }))
	mux.HandleFunc("GET /api/report", s.handleResults(func(r *pipeline.Results) any { return r.Report }))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.provider.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleResults serves one derived table from the most recent run, or 503
// before the first run completes.
func (s *Server) handleResults(pick func(*pipeline.Results) any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		results := s.provider.Results()
		if results == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no completed run"})
			return
		}
		writeJSON(w, http.StatusOK, pick(results))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
