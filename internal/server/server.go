// Package server exposes the router over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Jaiwincr7/rag-based-model/internal/config"
	"github.com/Jaiwincr7/rag-based-model/internal/observability"
	"github.com/Jaiwincr7/rag-based-model/internal/router"
	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

const maxRequestBytes = 64 << 10

// AskRequest is the body of POST /askmitre.
type AskRequest struct {
	Query string `json:"query"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     types.HealthState             `json:"status"`
	Message    string                        `json:"message,omitempty"`
	Components map[string]types.HealthStatus `json:"components,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves /askmitre, /health and /metrics.
type Server struct {
	cfg     config.ServerConfig
	solver  router.Solver
	health  *observability.HealthMonitor
	metrics http.Handler
	logger  *slog.Logger
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithHealthMonitor reports the monitor's components on /health.
func WithHealthMonitor(h *observability.HealthMonitor) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New builds the server and its route table.
func New(cfg config.ServerConfig, solver router.Solver, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	s := &Server{
		cfg:     cfg,
		solver:  solver,
		logger:  logger,
		metrics: http.NotFoundHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = observability.NewHealthMonitor(logger)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Post("/askmitre", s.ask)
	r.Get("/health", s.healthCheck)
	r.Method(http.MethodGet, "/metrics", s.metrics)
	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "http server listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	s.logger.InfoContext(ctx, "shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be JSON like {\"query\": \"...\"}"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query must not be empty"})
		return
	}

	ans := s.solver.Answer(r.Context(), req.Query)
	observability.WithTrace(r.Context(), s.logger).DebugContext(r.Context(), "askmitre",
		"intent", ans.Intent,
		"outcome", ans.Outcome)

	status := http.StatusOK
	if ans.Outcome == router.OutcomeRetrievalFailed {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ans)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	overall, components := s.health.Overall(r.Context())

	status := http.StatusOK
	if overall.IsUnhealthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		Status:     overall.State,
		Message:    overall.Message,
		Components: components,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()))
		})
	}
}
