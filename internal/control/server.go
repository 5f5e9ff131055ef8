// Package control implements the copy-trading engine's HTTP control
// plane: aggregated state, incremental updates, start/stop, and
// reconfiguration endpoints under /api/, protected by a single API key.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server runs the control-plane HTTP API.
type Server struct {
	cfg      Config
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
}

// Config configures the control server's listen address and auth.
type Config struct {
	Addr        string
	BearerToken string
}

// New builds a Server around handlers, wiring routes and bearer-token
// auth middleware.
func New(cfg Config, handlers *Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/api/state", requireAuth(cfg.BearerToken, http.HandlerFunc(handlers.HandleState)))
	mux.Handle("/api/updates", requireAuth(cfg.BearerToken, http.HandlerFunc(handlers.HandleUpdates)))
	mux.Handle("/api/configure", requireAuth(cfg.BearerToken, http.HandlerFunc(handlers.HandleConfigure)))
	mux.Handle("/api/start", requireAuth(cfg.BearerToken, http.HandlerFunc(handlers.HandleStart)))
	mux.Handle("/api/stop", requireAuth(cfg.BearerToken, http.HandlerFunc(handlers.HandleStop)))
	mux.Handle("/", requireAuth(cfg.BearerToken, http.HandlerFunc(handlers.HandleDashboard)))

	server := &http.Server{
		Addr:           cfg.Addr,
		Handler:        mux,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 64 << 10,
	}

	return &Server{cfg: cfg, handlers: handlers, server: server, logger: logger.With("component", "control-server")}
}

// Start blocks serving the control plane until Stop is called or the
// listener fails. The listener is localhost-only: an address with an
// empty host binds to 127.0.0.1, and any host other than 127.0.0.1 or
// localhost is refused.
func (s *Server) Start() error {
	host, port, err := net.SplitHostPort(s.server.Addr)
	if err != nil {
		return fmt.Errorf("control: invalid listen address %q: %w", s.server.Addr, err)
	}
	switch host {
	case "":
		s.server.Addr = net.JoinHostPort("127.0.0.1", port)
	case "127.0.0.1", "localhost":
	default:
		return fmt.Errorf("control: refusing non-localhost listen host %q", host)
	}
	s.logger.Info("control plane starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("control: server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.logger.Info("control plane stopping")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
