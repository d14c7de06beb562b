// Package httpserver provides the HTTP JSON API of the paper discovery service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/repository"
)

// PaperSearcher answers paper searches and DOI lookups.
type PaperSearcher interface {
	Search(ctx context.Context, filter domain.SearchFilter) (*aggregator.Result, error)
	LookupDOI(ctx context.Context, doi string) (*domain.Paper, error)
}

// SummaryService serves generated paper summaries.
type SummaryService interface {
	Get(ctx context.Context, paperID int64) (*domain.Summary, error)
	Regenerate(ctx context.Context, paperID int64) (*domain.Summary, error)
}

// StoreHealth reports the state of the backing store.
type StoreHealth interface {
	Health(ctx context.Context) database.HealthStatus
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server

	searcher       PaperSearcher
	summaries      SummaryService
	papers         repository.PaperRepository
	savedPapers    repository.SavedPaperRepository
	recentSearches repository.RecentSearchRepository
	users          repository.UserRepository
	health         StoreHealth

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Deps are the services the API is built on.
type Deps struct {
	Searcher  PaperSearcher
	Summaries SummaryService
	Store     *repository.Store
	Metrics   *observability.Metrics
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		searcher:       deps.Searcher,
		summaries:      deps.Summaries,
		papers:         deps.Store.Papers,
		savedPapers:    deps.Store.SavedPapers,
		recentSearches: deps.Store.RecentSearches,
		users:          deps.Store.Users,
		health:         deps.Store,
		metrics:        deps.Metrics,
		logger:         observability.WithComponent(logger, "http-server"),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(correlationIDMiddleware)
	r.Use(requestLoggerMiddleware(s.logger))
	r.Use(metricsMiddleware(s.metrics))
	r.Use(middleware.Recoverer)
	r.Use(jsonContentTypeMiddleware)
	r.Use(bodyLimitMiddleware(maxRequestBodySize))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health endpoints
	r.Get("/health", s.healthHandler)
	r.Get("/health/live", s.livenessHandler)
	r.Get("/health/ready", s.readinessHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/papers", s.searchPapers)
		r.Get("/papers/doi/*", s.getPaperByDOI)
		r.Get("/papers/{id}", s.getPaper)
		r.Get("/papers/{id}/summary", s.getSummary)
		r.Post("/papers/{id}/regenerate-summary", s.regenerateSummary)

		r.Get("/domains", s.listDomains)
		r.Get("/platforms", s.listPlatforms)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/saved-papers", s.listSavedPapers)
			r.Post("/saved-papers", s.savePaper)
			r.Get("/saved-papers/{paperID}", s.isPaperSaved)
			r.Delete("/saved-papers/{paperID}", s.removeSavedPaper)

			r.Get("/recent-searches", s.listRecentSearches)
			r.Post("/recent-searches", s.addRecentSearch)
			r.Delete("/recent-searches", s.clearRecentSearches)
		})
	})

	return r
}

// Handler returns the root handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns the service status including the store.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
	if health.Healthy() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status": database.StatusUnhealthy,
		"store":  health.Status,
		"error":  health.Error,
	})
}

// livenessHandler reports that the process is serving requests.
func (s *Server) livenessHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// readinessHandler reports whether the store can serve requests.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
	if !health.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"store":  health.Status,
			"error":  health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"store":  database.StatusHealthy,
	})
}

// NewMetricsServer creates the server exposing Prometheus metrics on path.
func NewMetricsServer(address, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	return &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
