// Package api provides the HTTP API server and handlers for the Pagemark application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pagemarkapp/pagemark-server/internal/config"
	"github.com/pagemarkapp/pagemark-server/internal/http/response"
	"github.com/pagemarkapp/pagemark-server/internal/ratelimit"
	"github.com/pagemarkapp/pagemark-server/internal/service"
	"github.com/pagemarkapp/pagemark-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	library       *service.LibraryService
	reader        *service.ReaderService
	validator     *validation.Validator
	uploadLimiter *ratelimit.KeyedRateLimiter
	maxUploadSize int64
	scratchDir    string
	router        *chi.Mux
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, library *service.LibraryService, reader *service.ReaderService, validator *validation.Validator, logger *slog.Logger) *Server {
	s := &Server{
		library:       library,
		reader:        reader,
		validator:     validator,
		uploadLimiter: ratelimit.New(cfg.Upload.RatePerSecond, cfg.Upload.Burst),
		maxUploadSize: cfg.Upload.MaxSize,
		scratchDir:    cfg.UploadScratchPath(),
		router:        chi.NewRouter(),
		logger:        logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.With(rateLimitMiddleware(s.uploadLimiter, s.logger)).Post("/", s.handleUploadBook)
			r.Get("/", s.handleListBooks)
			r.Get("/{id}", s.handleGetBook)
			r.Delete("/{id}", s.handleDeleteBook)
			r.Get("/{id}/toc", s.handleGetTOC)
			r.Get("/{id}/chapters/{ordinal}", s.handleGetChapter)
			r.Get("/{id}/reference", s.handleResolveReference)
			r.Get("/{id}/progress", s.handleGetProgress)
			r.Put("/{id}/progress", s.handleSaveProgress)
			r.Post("/{id}/bookmarks", s.handleAddBookmark)
			r.Get("/{id}/bookmarks", s.handleListBookmarks)
		})

		r.Get("/reading/current", s.handleCurrentBook)

		r.Route("/bookmarks", func(r chi.Router) {
			r.Get("/", s.handleListAllBookmarks)
			r.Delete("/{id}", s.handleDeleteBookmark)
		})
	})

	// Direct chi route for resource streaming.
	s.router.Get("/resources/{bookID}/{alias}", s.handleServeResource)
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
