// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/larder/pkg/recipe"
)

// DefaultMaxRequestBytes bounds request bodies when Config leaves it unset.
const DefaultMaxRequestBytes = 12 << 20

// Pipeline is the part of larder.Larder the server drives.
type Pipeline interface {
	Extract(ctx context.Context, rawURL string, tags []string) (*recipe.Recipe, error)
	ExtractHTML(ctx context.Context, html, sourceURL string, tags []string) (*recipe.Recipe, error)
	ExtractMarkdown(ctx context.Context, markdown, sourceURL string, tags []string) (*recipe.Recipe, error)
}

// Config configures the HTTP API.
type Config struct {
	// APIKey enables bearer auth on /api routes when non-empty.
	APIKey          string
	MaxRequestBytes int64
	// Tags is the vocabulary used when a request names none.
	Tags []string
}

// Server is the HTTP API server for larder.
type Server struct {
	router   chi.Router
	pipeline Pipeline
	log      *slog.Logger
	cfg      Config
}

// New creates and configures the HTTP server.
func New(p Pipeline, log *slog.Logger, cfg Config) *Server {
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = DefaultMaxRequestBytes
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		pipeline: p,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Post("/api/extract", s.handleExtract)
	})

	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
