// File: internal/mcp/server.go
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xkilldash9x/authcap-cli/internal/config"
)

const shutdownTimeout = 30 * time.Second

// Server hosts the HTTP tool surface over the capture and export services.
type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	handlers   *Handlers
	httpServer *http.Server
}

// NewServer wires the tool surface to its services. Dependencies are injected
// so tests can run the router against fakes.
func NewServer(cfg *config.Config, logger *zap.Logger, capturer Capturer, broker Broker) *Server {
	log := logger.Named("server")
	return &Server{
		cfg:      cfg,
		logger:   log,
		handlers: NewHandlers(log, cfg, capturer, broker),
	}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Captures can run for minutes; the request timeout must outlive them.
	r.Use(middleware.Timeout(10 * time.Minute))

	s.handlers.RegisterRoutes(r)
	return r
}

// Start runs the HTTP listener until the context is canceled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Server.Listen,
		Handler: s.Router(),
	}

	s.logger.Info("Tool surface starting", zap.String("address", s.cfg.Server.Listen))

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		s.logger.Info("Shutting down tool surface...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-shutdownDone
	s.logger.Info("Tool surface stopped.")
	return nil
}
