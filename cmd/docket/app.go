package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JaimeStill/docket/internal/batch"
	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
	"github.com/JaimeStill/docket/internal/ledger"
	"github.com/JaimeStill/docket/internal/mail"
	"github.com/JaimeStill/docket/internal/oracle"
	"github.com/JaimeStill/docket/internal/records"
)

// app carries the loaded configuration and shared infrastructure for one
// command invocation.
type app struct {
	cfg   *config.Config
	infra *infrastructure.Infrastructure
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	infra, err := infrastructure.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	infra.Logger.Debug("docket configured",
		"version", cfg.Version,
		"env", cfg.Env(),
		"storage", cfg.Storage.Backend,
		"mail", cfg.Mail.Backend,
		"ledger", cfg.Ledger.Backend,
		"records", cfg.Records,
	)
	return &app{cfg: cfg, infra: infra}, nil
}

func (a *app) close() {
	if err := a.infra.Close(); err != nil {
		a.infra.Logger.Error("close infrastructure", "error", err)
	}
}

func (a *app) mail() (mail.Store, error) {
	return mail.New(&a.cfg.Mail, a.infra.Tokens.Token, a.infra.Logger)
}

// db returns the pool, or nil when no component needs Postgres.
func (a *app) db() *sql.DB {
	if a.infra.Database == nil {
		return nil
	}
	return a.infra.Database.Connection()
}

// runner wires a batch runner. A nil store builds a runner for single
// documents only.
func (a *app) runner(ctx context.Context, store mail.Store) (*batch.Runner, error) {
	o, err := oracle.New(&a.cfg.Oracle, nil, a.infra.Logger)
	if err != nil {
		return nil, err
	}

	if a.infra.Database != nil {
		if err := a.infra.Database.Ping(ctx); err != nil {
			return nil, err
		}
	}

	processed, err := ledger.New(&a.cfg.Ledger, a.db(), a.infra.Logger)
	if err != nil {
		return nil, fmt.Errorf("processed set: %w", err)
	}

	deps := batch.Deps{
		Mail:    store,
		Oracle:  o,
		Storage: a.infra.Storage,
		Ledger:  processed,
		Metrics: batch.NewMetrics(a.infra.Registry),
	}
	if a.cfg.Records {
		deps.Records = records.New(a.db(), a.infra.Logger, a.cfg.API.Pagination)
	}

	return batch.New(&a.cfg.Archive, deps, a.infra.Logger), nil
}
