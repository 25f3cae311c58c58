// Package server exposes the router and a health check over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/router"
)

// Route paths.
const (
	RouterPath = "/api/ai/router"
	HealthPath = "/api/health"
)

// ServerConfig configures a Server instance.
type ServerConfig struct {
	Router      http.Handler
	CORSOrigin  string
	MaxBody     int64
	Version     string
	Environment string
	Logger      *slog.Logger
	// Now is used by the health check; defaults to time.Now.
	Now func() time.Time
}

// Server is the ai-desk HTTP API server.
type Server struct {
	router      http.Handler
	corsOrigin  string
	maxBody     int64
	version     string
	environment string
	logger      *slog.Logger
	now         func() time.Time
}

// NewServer creates a new Server with the given configuration.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	corsOrigin := cfg.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = 1 << 20 // 1 MB default
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	environment := cfg.Environment
	if environment == "" {
		environment = "development"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		router:      cfg.Router,
		corsOrigin:  corsOrigin,
		maxBody:     maxBody,
		version:     version,
		environment: environment,
		logger:      logger,
		now:         now,
	}
}

// Handler returns an http.Handler with all routes and middleware wired.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = s.corsMiddleware(handler)
	handler = s.maxBodyMiddleware(handler)
	return otelhttp.NewHandler(handler, "aidesk.http")
}

// RegisterRoutes mounts the API routes onto an existing mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	if s.router != nil {
		mux.Handle("POST "+RouterPath, s.router)
	}
	mux.HandleFunc(RouterPath, s.handleMethodNotAllowed)
	mux.HandleFunc("GET "+HealthPath, s.handleHealth)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	router.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Timestamp:   s.now().UTC().Format(time.RFC3339),
		Version:     s.version,
		Environment: s.environment,
	})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	router.WriteJSON(w, http.StatusMethodNotAllowed,
		router.Failure(apperrors.New(apperrors.KindRuntime, "Method "+r.Method+" not allowed")))
}

// --- Middleware ---

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) maxBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		next.ServeHTTP(w, r)
	})
}
