// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"identity-service/internal/handlers"
	"identity-service/internal/middleware"
	"identity-service/internal/repository"
	"identity-service/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter builds the router with every route and middleware registered.
func NewRouter(store repository.Store, logger *zap.Logger) *mux.Router {
	svc := service.NewReconciliationService(store, logger)

	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.Logging(logger))

	handlers.NewIdentifyHandler(svc, logger).RegisterRoutes(router)
	handlers.NewHealthHandler(store, logger).RegisterRoutes(router)
	return router
}

// Server is the HTTP front of the reconciliation service.
type Server struct {
	cfg    Config
	http   *http.Server
	logger *zap.Logger
}

// New creates a server for store.
func New(cfg Config, store repository.Store, logger *zap.Logger) *Server {
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      NewRouter(store, logger),
			ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
