// Package server provides the HTTP API for Shirabe.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/graph"
	"github.com/hyperjump/shirabe/internal/orchestrator"
	"github.com/hyperjump/shirabe/internal/store"
)

// Server is the HTTP server for the Shirabe API.
type Server struct {
	orch   *orchestrator.Orchestrator
	store  *store.DocumentStore
	graph  *graph.Store
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies. store and graph
// may be nil when the corresponding backend is not configured; their routes
// respond 501.
func NewServer(
	orch *orchestrator.Orchestrator,
	docs *store.DocumentStore,
	facts *graph.Store,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		orch:   orch,
		store:  docs,
		graph:  facts,
		config: cfg,
		logger: logger,
	}
}

// routes assembles the router. Split from Start so tests can drive the
// handler stack directly.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(s.config.RequestTimeoutSeconds) * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/route", s.handleRoute)
	r.Post("/api/v1/documents", s.handleIndexDocument)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Post("/api/v1/facts", s.handleAddFact)
	r.Get("/api/v1/facts/{entity}", s.handleEntityFacts)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
