// Package server exposes the Heritage services over a JSON REST API.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/bobmcallan/heritage/internal/app"
	"github.com/bobmcallan/heritage/internal/common"
)

// Server serves the REST API for one App.
type Server struct {
	app    *app.App
	server *http.Server
	logger *common.Logger
}

// NewServer builds the route table and middleware chain for a and binds
// them to the configured listen address.
func NewServer(a *app.App) *Server {
	s := &Server{app: a, logger: a.Logger}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	read, write, idle := a.Config.Server.Timeouts()
	s.server = &http.Server{
		Addr:              a.Config.Server.Addr(),
		Handler:           applyMiddleware(mux, a.Logger),
		ReadHeaderTimeout: read,
		ReadTimeout:       read,
		WriteTimeout:      write,
		IdleTimeout:       idle,
	}
	return s
}

// Handler exposes the full middleware-wrapped handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens until Shutdown is called. A clean shutdown returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Dur("write_timeout", s.server.WriteTimeout).
		Msg("Heritage API listening")
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn().Msg("Shutdown deadline reached with requests still in flight")
	}
	return err
}
