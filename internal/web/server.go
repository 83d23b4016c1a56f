// Package web serves the resolver over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/entity-resolver/internal/db"
	"github.com/entity-resolver/internal/logging"
	"github.com/entity-resolver/internal/normalize"
	"github.com/entity-resolver/internal/web/handlers"
	"github.com/entity-resolver/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	canon      *normalize.Canonicalizer
	store      *db.Store
	logger     *slog.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance. store may be nil, which
// disables the run endpoints.
func NewServer(config *Config, canon *normalize.Canonicalizer, store *db.Store, logger *slog.Logger) *Server {
	server := &Server{
		config: config,
		canon:  canon,
		store:  store,
		logger: logging.OrDiscard(logger),
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	apiHandler := &handlers.APIHandler{
		Canon:            s.canon,
		Engine:           s.config.Engine,
		Tiers:            s.config.Tiers,
		NormalizeWorkers: s.config.NormalizeWorkers,
		MaxRecords:       s.config.MaxRecords,
		MaxPairRecords:   s.config.MaxPairRecords,
		Store:            s.store,
		Logger:           s.logger,
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", apiHandler.Health).Methods("GET")
	api.HandleFunc("/resolve", apiHandler.Resolve).Methods("POST")
	api.HandleFunc("/classify", apiHandler.Classify).Methods("POST")
	api.HandleFunc("/normalize", apiHandler.Normalize).Methods("POST")

	if s.store != nil {
		api.HandleFunc("/runs", apiHandler.ListRuns).Methods("GET")
		api.HandleFunc("/runs/{id}/entities", apiHandler.RunEntities).Methods("GET")
		api.HandleFunc("/runs/{id}/decisions", apiHandler.RunDecisions).Methods("GET")
	}

	api.Use(middleware.Authentication(s.config.APIKey))
}

// Handler returns the router wrapped in the request middleware. CORS sits
// outside the router so preflight requests never reach method matching.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = middleware.RequestLogging(s.logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.CORS()(h)
	return h
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", "http://"+s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
