// Package database provides the PostgreSQL connection pool used by the
// archive ledger, with lifecycle hooks for long-running commands.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/docket/pkg/lifecycle"
)

// System manages database connections and lifecycle coordination.
type System interface {
	// Connection returns the underlying database connection pool.
	Connection() *sql.DB
	// Ping verifies connectivity within the configured connection timeout.
	Ping(ctx context.Context) error
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Close releases the pool. Commands without a coordinator call it directly.
	Close() error
	// Ready reports whether the last ping succeeded.
	Ready() bool
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
	ready       atomic.Bool
}

// New opens a pool with the configured limits. No connection is made
// until Ping or Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	conn, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open %s@%s/%s: %w", cfg.User, cfg.Host, cfg.Name, err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	d := &database{conn: conn, connTimeout: cfg.ConnTimeoutDuration()}
	d.logger = logger.With("system", "database", "host", cfg.Host, "name", cfg.Name)
	return d, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()

	err := d.conn.PingContext(ctx)
	d.ready.Store(err == nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return nil
}

func (d *database) Ready() bool {
	return d.ready.Load()
}

func (d *database) Close() error {
	return d.conn.Close()
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.Require(d)
	lc.OnStartup(func() { d.connect(lc.Context()) })
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.release()
	})
	return nil
}

func (d *database) connect(ctx context.Context) {
	if err := d.Ping(ctx); err != nil {
		d.logger.Error("ping failed; readiness stays down", "error", err)
		return
	}
	stats := d.conn.Stats()
	d.logger.Info("connected", "max_open", stats.MaxOpenConnections)
}

func (d *database) release() {
	if err := d.Close(); err != nil {
		d.logger.Error("close failed", "error", err)
		return
	}
	d.logger.Info("pool closed")
}
