package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rightfit/rightfit-navigation/config"
	"github.com/rightfit/rightfit-navigation/logging"
)

// Server wraps an HTTP server with graceful shutdown.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// ServerConfigFrom takes the listener settings from the service config.
func ServerConfigFrom(cfg *config.Config) ServerConfig {
	sc := DefaultServerConfig()
	if cfg.Port > 0 {
		sc.Port = cfg.Port
	}
	if cfg.ReadTimeout > 0 {
		sc.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		sc.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.IdleTimeout > 0 {
		sc.IdleTimeout = cfg.IdleTimeout
	}
	return sc
}

// NewServer creates a new HTTP server.
func NewServer(sc ServerConfig, handler http.Handler, logger *logging.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", sc.Port),
			Handler:      handler,
			ReadTimeout:  sc.ReadTimeout,
			WriteTimeout: sc.WriteTimeout,
			IdleTimeout:  sc.IdleTimeout,
		},
		shutdownTimeout: sc.ShutdownTimeout,
		logger:          logging.OrDiscard(logger),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.server.Addr }

// Run starts the server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		return s.shutdown()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// shutdown gracefully shuts down the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
