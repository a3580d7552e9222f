// Package server provides the HTTP API for LexiLaw.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/casemeta"
	"github.com/hyperjump/lexilaw/internal/config"
	"github.com/hyperjump/lexilaw/internal/rag"
	"github.com/hyperjump/lexilaw/internal/session"
	"github.com/hyperjump/lexilaw/internal/storage"
)

// Server is the HTTP server for the LexiLaw API.
type Server struct {
	svc      *rag.Service
	sessions session.Store
	library  *casemeta.Library
	log      storage.Reader // nil when the log driver cannot be read back
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server

	locksMu sync.Mutex
	locks   map[string]*turnLock // held only while a request for the session is in flight
}

type turnLock struct {
	mu   sync.Mutex
	refs int
}

// NewServer creates a server with the given dependencies.
func NewServer(
	svc *rag.Service,
	sessions session.Store,
	library *casemeta.Library,
	log storage.Reader,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:      svc,
		sessions: sessions,
		library:  library,
		log:      log,
		config:   cfg,
		logger:   logger,
		locks:    make(map[string]*turnLock),
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(s.config.Server.TimeoutSeconds) * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/cases", s.handleListCases)
		r.Get("/issues", s.handleListIssues)
		r.Get("/insights", s.handleInsights)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/case", s.handleSelectCase)
			r.Post("/messages", s.handleAsk)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
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

// lockSession serializes requests that modify the session id and returns the unlock
// function. The entry is removed once no request holds or waits on it.
func (s *Server) lockSession(id string) (unlock func()) {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &turnLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}
