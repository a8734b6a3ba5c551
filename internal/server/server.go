// Package server implements the resource viewer API: account signup, token issuance
// and inventory collection behind bearer authentication.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server wraps the HTTP listener.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

func NewServer(host string, port int, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:              net.JoinHostPort(host, fmt.Sprint(port)),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// collections fan out to several AWS APIs
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func (s *Server) Addr() string { return s.server.Addr }

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
