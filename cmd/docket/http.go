package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/pkg/lifecycle"
)

// httpServer binds the configured address and drains on lifecycle shutdown.
type httpServer struct {
	srv   *http.Server
	log   *slog.Logger
	grace time.Duration
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *httpServer {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeoutDuration(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
		WriteTimeout:      cfg.WriteTimeoutDuration(),
	}
	return &httpServer{srv: srv, log: logger.With("system", "http"), grace: cfg.ShutdownTimeoutDuration()}
}

// Start returns bind errors directly; serve errors after bind are logged.
func (s *httpServer) Start(lc *lifecycle.Coordinator) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}

	go s.serve(ln)
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.drain()
	})
	return nil
}

func (s *httpServer) serve(ln net.Listener) {
	s.log.Info("listening", "addr", ln.Addr().String())
	err := s.srv.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("serve failed", "error", err)
	}
}

func (s *httpServer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()

	s.log.Info("draining connections", "grace", s.grace)
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Error("drain incomplete", "error", err)
		return
	}
	s.log.Info("server stopped")
}
