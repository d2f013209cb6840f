// Package server provides the HTTP API for DataWizard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/datawizard/internal/config"
	"github.com/hyperjump/datawizard/internal/history"
	"github.com/hyperjump/datawizard/internal/models"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req models.RunRequest) (*models.RunResult, error)
}

// Server is the HTTP server for the DataWizard API.
type Server struct {
	runner       Runner
	store        history.Store
	databasePath string
	config       *config.ServerConfig
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil when history is
// disabled; the history and stats endpoints then answer 501.
func NewServer(
	runner Runner,
	store history.Store,
	databasePath string,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		runner:       runner,
		store:        store,
		databasePath: databasePath,
		config:       cfg,
		logger:       logger,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	// must run before the other middleware so OPTIONS pre-flights are answered
	if len(s.config.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.config.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
		}).Handler)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// generation calls can be slow
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/runs", s.handleRun)
	r.Get("/api/v1/runs/{id}", s.handleGetRun)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/stats", s.handleStats)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
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
