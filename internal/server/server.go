package server

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sah21il/LoopAIProj/internal/config"
	"github.com/sah21il/LoopAIProj/internal/scheduler"
	"github.com/sah21il/LoopAIProj/internal/store"
)

// Server is the ingestion REST API server.
type Server struct {
	router     chi.Router
	logger     *slog.Logger
	config     config.ServerConfig
	startTime  time.Time
	store      store.Store
	dispatcher *scheduler.Dispatcher
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, st store.Store, d *scheduler.Dispatcher, logger *slog.Logger) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger.With("component", "server"),
		config:     cfg,
		startTime:  time.Now(),
		store:      st,
		dispatcher: d,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Post("/ingest", s.handleIngest)
	r.Get("/status/{id}", s.handleStatus)
	r.Get("/ingestions", s.handleListIngestions)
	r.Get("/health", s.handleHealth)
}
