package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/star/sattracker/internal/auth"
	"github.com/star/sattracker/internal/health"
	"github.com/star/sattracker/internal/httputil"
	"github.com/star/sattracker/internal/metrics"
	"github.com/star/sattracker/internal/tracker"
)

// Options configures the HTTP server.
type Options struct {
	Addr          string
	Auth          auth.Config
	TrustProxy    bool
	DefaultPoints int
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	// mu serializes access to trk, which is not safe for concurrent use.
	mu  sync.Mutex
	trk *tracker.Tracker

	defaultPoints int
}

// NewServer creates a configured HTTP server around one tracker.
func NewServer(opts Options, trk *tracker.Tracker, logger *slog.Logger) *Server {
	s := &Server{
		logger:        logger,
		trk:           trk,
		defaultPoints: opts.DefaultPoints,
	}
	if s.defaultPoints < 1 {
		s.defaultPoints = 10
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(s.ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/target", s.handleTarget)
	mux.HandleFunc("GET /api/v1/track", s.handleTrack)
	mux.HandleFunc("GET /api/v1/passes/next", s.handleNextPass)

	// Build middleware chain: metrics -> request id -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(opts.Auth)(handler)
	handler = loggingMiddleware(logger, opts.TrustProxy)(handler)
	handler = requestIDMiddleware(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// ready reports whether the tracker has computed at least one state.
func (s *Server) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.trk.Epoch()
	return err
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// requestIDMiddleware echoes a well-formed incoming request id or assigns a
// fresh UUID, on both the request and the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		r.Header.Set(RequestIDHeader, id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
				"request_id", r.Header.Get(RequestIDHeader),
			)
		})
	}
}
