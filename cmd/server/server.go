package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/internal/infrastructure"
)

// Server owns the infrastructure, the mounted modules, and the HTTP listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

// NewServer initializes infrastructure and modules without starting them.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("infrastructure: %w", err)
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, fmt.Errorf("modules: %w", err)
	}

	router := buildRouter(infra, cfg.Version)
	modules.Mount(router)

	srv := &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}

	infra.Logger.Info("regwatch configured",
		"addr", cfg.Server.Addr(),
		"env", cfg.Env(),
		"version", cfg.Version,
		"api_base", cfg.API.BasePath,
	)
	return srv, nil
}

// Start registers lifecycle hooks, binds the listener, and reports
// readiness in the background once every startup hook has returned.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(); err != nil {
		return err
	}

	go s.awaitReady()
	return nil
}

func (s *Server) awaitReady() {
	if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
		s.infra.Logger.Error("readiness checks failed", "error", err)
		return
	}
	s.infra.Logger.Info("regwatch ready")
}

// Done reports a fatal listener error.
func (s *Server) Done() <-chan error {
	return s.http.Err()
}

// Shutdown drains HTTP traffic first, then runs the lifecycle shutdown hooks
// within whatever remains of timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	s.infra.Logger.Info("stopping", "deadline", deadline.Format(time.RFC3339))

	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	return errors.Join(
		s.http.Shutdown(ctx),
		s.infra.Lifecycle.Shutdown(time.Until(deadline)),
	)
}
