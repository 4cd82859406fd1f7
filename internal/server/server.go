// Package server is the HTTP surface: route wiring, middleware, and the
// translation between transport shapes and the generation core.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/artboardhq/artboard/internal/orchestrator"
	"github.com/artboardhq/artboard/internal/realtime"
	"github.com/artboardhq/artboard/internal/storage"
	"github.com/artboardhq/artboard/internal/tools"
)

// generateTimeout bounds one synchronous generation request, including
// provider polling. Video backends need most of it.
const generateTimeout = 30 * time.Minute

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
	srv    *http.Server
}

// Options carries the collaborators the routes need.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Registry     *tools.Registry
	Content      storage.ContentStore
	Hub          *realtime.Hub
	// MediaDir, when non-empty, serves stored media under /api/file/.
	MediaDir string
}

// New builds the router with the standard middleware stack.
func New(port int, logger *slog.Logger, opts Options) *Server {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
	}))
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "artboard")
	})

	h := &handlers{
		orch:     opts.Orchestrator,
		registry: opts.Registry,
		content:  opts.Content,
		logger:   logger,
	}

	r.Route("/api", func(r chi.Router) {
		r.With(TimeoutMiddleware(generateTimeout)).Post("/generate", h.generate)
		r.With(TimeoutMiddleware(generateTimeout)).Post("/generate/feature", h.generateFeature)
		r.Post("/cancel/{id}", h.cancel)
		r.Get("/tools", h.listTools)
		r.Get("/features", h.listFeatures)
		r.Get("/content", h.listContent)
		r.Delete("/content/{id}", h.deleteContent)

		if opts.MediaDir != "" {
			fs := http.StripPrefix("/api/file/", http.FileServer(http.Dir(opts.MediaDir)))
			r.Get("/file/*", fs.ServeHTTP)
		}
	})

	if opts.Hub != nil {
		r.Get("/ws", opts.Hub.ServeHTTP)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Server{Router: r, Port: port, logger: logger}
}

func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	s.srv = &http.Server{Addr: fmt.Sprintf(":%d", s.Port), Handler: s.Router}
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
