// Package server exposes the status HTTP interface used in watch mode.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Latest holds the most recent report produced by the scheduler.
type Latest struct {
	mu  sync.RWMutex
	rep *pickup.Report
}

// Set replaces the held report.
func (l *Latest) Set(rep pickup.Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rep = &rep
}

// Get returns the held report, if any.
func (l *Latest) Get() (pickup.Report, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.rep == nil {
		return pickup.Report{}, false
	}
	return *l.rep, true
}

// Server wires HTTP handlers to the latest report and metrics.
type Server struct {
	router  chi.Router
	latest  *Latest
	logger  *zap.Logger
	metrics http.Handler
}

// Options configures optional collaborators.
type Options struct {
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Middleware is applied after the built-in middleware.
	Middleware []func(http.Handler) http.Handler
	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration
}

// New constructs a Server with middleware and routes.
func New(latest *Latest, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	s := &Server{
		latest:  latest,
		logger:  logger.Named("server"),
		metrics: opts.Metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))
	for _, mw := range opts.Middleware {
		r.Use(mw)
	}

	r.Get("/healthz", s.healthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/report/latest", s.latestReport)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) latestReport(w http.ResponseWriter, _ *http.Request) {
	rep, ok := s.latest.Get()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no run has completed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request completed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
