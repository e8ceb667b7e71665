// Package server exposes the inventory services over a local JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/database"
	"github.com/stockroom/warehouse/internal/services"
	"github.com/stockroom/warehouse/internal/util"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front end of the inventory services.
type Server struct {
	cfg     config.ServerConfig
	db      *database.DB
	svc     *services.Services
	clock   util.Clock
	version string
	started time.Time
	engine  *gin.Engine
}

// New creates a server and registers its routes.
func New(cfg *config.Config, db *database.DB, svc *services.Services, clock util.Clock, version string) *Server {
	registerValidators()

	s := &Server{
		cfg:     cfg.Server,
		db:      db,
		svc:     svc,
		clock:   clock,
		version: version,
		started: clock.Now(),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Listen binds the configured address. When the port is in use the next
// PortFallback ports are tried in order.
func (s *Server) Listen() (net.Listener, error) {
	attempts := s.cfg.PortFallback + 1
	if s.cfg.Port == 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		port := s.cfg.Port
		if port != 0 {
			port += i
		}
		addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))

		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listening on %s: %w", addr, err)
		}
		slog.Warn("port in use, trying next", "port", port)
		lastErr = err
	}
	return nil, fmt.Errorf("no free port in %d-%d: %w", s.cfg.Port, s.cfg.Port+attempts-1, lastErr)
}

// Run listens, announces the bound port on out as LISTENING:PORT=<port> and
// serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, out io.Writer) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	port := ln.Addr().(*net.TCPAddr).Port
	fmt.Fprintf(out, "LISTENING:PORT=%d\n", port)
	slog.Info("server listening", "addr", ln.Addr().String())

	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
