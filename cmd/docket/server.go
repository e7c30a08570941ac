package main

import (
	"context"
	"time"

	"github.com/JaimeStill/docket/internal/api"
	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
)

// Server mounts the API module beside the probe and metrics routes and
// ties the listener to the infrastructure lifecycle.
type Server struct {
	infra    *infrastructure.Infrastructure
	listener *httpServer
}

func NewServer(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*Server, error) {
	mod, err := api.NewModule(ctx, cfg, infra)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	router.Mount(mod)

	infra.Logger.Info("http surface ready",
		"addr", cfg.Server.Addr(),
		"base_path", mod.Prefix(),
		"auth", cfg.API.Auth.Enabled,
	)
	return &Server{infra: infra, listener: newHTTPServer(&cfg.Server, router, infra.Logger)}, nil
}

// Start runs the infrastructure startup hooks and binds the listener.
// Readiness flips once every hook has finished.
func (s *Server) Start() error {
	for _, start := range []func() error{
		s.infra.Start,
		func() error { return s.listener.Start(s.infra.Lifecycle) },
	} {
		if err := start(); err != nil {
			return err
		}
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("startup complete")
	}()
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
