package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/ssdsim/internal/logger"
	"github.com/marmos91/ssdsim/pkg/api/handlers"
)

// shutdownGrace bounds in-flight requests when Start's context is cancelled.
const shutdownGrace = 5 * time.Second

// Server provides an HTTP server for the device REST API.
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	config       APIConfig
	shutdownOnce sync.Once

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new API HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests. Defaults are applied here as well so the server works when built
// directly in tests.
func NewServer(config APIConfig, device handlers.Device) *Server {
	config.ApplyDefaults()

	server := &http.Server{
		Addr:         config.Listen,
		Handler:      NewRouter(device, config),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and returns.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the server fails to start or shutdown encounters an error
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("API server failed: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		addr := ln.Addr().String()
		logger.Info("API server listening", "address", addr)
		logger.Debug("API endpoints available",
			"health", fmt.Sprintf("http://%s/health", addr),
			"device", fmt.Sprintf("http://%s/api/v1/device", addr),
		)

		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// The cancelled ctx would abort shutdown immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server.
//
// Stop is safe to call multiple times and safe to call concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Addr returns the address the server is listening on, or the configured
// address before Start has bound it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Listen
}
