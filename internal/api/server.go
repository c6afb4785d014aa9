// Package api provides the HTTP REST surface of the configurator: session
// lifecycle, option tree access, dimension edits, visualization proxying,
// saved configurations and the SSE event stream.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/fenestra-io/configurator/internal/core"
	"github.com/fenestra-io/configurator/internal/events"
	"github.com/fenestra-io/configurator/internal/session"
)

// CatalogProvider lists the model codes served by the demo catalog.
type CatalogProvider interface {
	Codes() []string
}

// Server provides the configurator HTTP endpoints.
type Server struct {
	router   chi.Router
	sessions *session.Manager
	store    core.ConfigStore
	bus      *events.Bus
	catalog  CatalogProvider
	logger   *slog.Logger
	origins  []string
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore sets the saved-configuration store.
func WithStore(store core.ConfigStore) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// WithCatalog sets the demo catalog listing source.
func WithCatalog(catalog CatalogProvider) ServerOption {
	return func(s *Server) {
		s.catalog = catalog
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates a new API server.
func NewServer(sessions *session.Manager, bus *events.Bus, opts ...ServerOption) *Server {
	s := &Server{
		sessions: sessions,
		bus:      bus,
		logger:   slog.Default(),
		origins:  []string{"*"},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.loggingMiddleware)

	// CORS for the browser front-end
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleCloseSession)

				r.Get("/definition", s.handleGetDefinition)
				r.Get("/tabs", s.handleGetTabs)
				r.Get("/options", s.handleGetOptions)
				r.Put("/options/{code}", s.handleSelectOption)

				r.Get("/dimensions", s.handleGetDimensions)
				r.Put("/dimensions/{key}", s.handleSetDimension)
				r.Post("/dimensions/refresh", s.handleRefreshDimensions)

				r.Get("/visualization", s.handleVisualization)

				r.Get("/export", s.handleExport)
				r.Post("/import", s.handleImport)
			})
		})

		r.Route("/configurations", func(r chi.Router) {
			r.Get("/", s.handleListConfigurations)
			r.Post("/", s.handleSaveConfiguration)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetConfiguration)
				r.Delete("/", s.handleDeleteConfiguration)
				r.Post("/apply", s.handleApplyConfiguration)
			})
		})

		// SSE endpoint for real-time updates
		r.Get("/events", s.handleSSE)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps a domain error to its HTTP status.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		status = http.StatusInternalServerError
	}
	respondError(w, status, err.Error())
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCatalog lists the model codes the demo catalog can serve.
func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	codes := []string{}
	if s.catalog != nil {
		codes = s.catalog.Codes()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"modelCodes": codes})
}

// ListenAndServe starts the HTTP server with graceful shutdown on context
// cancellation.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	return srv.ListenAndServe()
}
