// Package infrastructure assembles the shared systems every docket command
// builds on: logging, lifecycle, token acquisition, storage, the optional
// database, and the metrics registry.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/pkg/auth"
	"github.com/JaimeStill/docket/pkg/database"
	"github.com/JaimeStill/docket/pkg/lifecycle"
	"github.com/JaimeStill/docket/pkg/storage"
)

// Infrastructure holds the core systems required by commands and modules.
// Database is nil unless the configuration needs Postgres.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Tokens    *auth.Lazy
	Database  database.System
	Storage   storage.System
	Registry  *prometheus.Registry
}

// NewLogger builds the text logger at the configured level.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// New creates an Infrastructure from the application configuration. Systems
// are initialized but not started; call Start separately. Device code
// prompts are written to stderr on first token use.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	logger := NewLogger(cfg.LogLevel, os.Stderr)
	tokens := auth.NewLazy(&cfg.Auth, os.Stderr, logger)

	store, err := storage.New(&cfg.Storage, tokens.Token, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	var db database.System
	if cfg.NeedsDatabase() {
		db, err = database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Infrastructure{
		Lifecycle: lifecycle.New(ctx),
		Logger:    logger,
		Tokens:    tokens,
		Database:  db,
		Storage:   store,
		Registry:  reg,
	}, nil
}

// Start registers the database hooks with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database == nil {
		return nil
	}
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	return nil
}

// Close releases systems held outside a lifecycle, for one-shot commands.
func (i *Infrastructure) Close() error {
	if i.Database == nil {
		return nil
	}
	return i.Database.Close()
}
