// Command migrate applies the archive ledger schema (records and
// processed_marks) to PostgreSQL.
package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/docket/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "DOCKET_DB_DSN"

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the docket ledger schema",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "database URL (default: $"+envDSN+", then DOCKET_DB_* settings)")

	// with opens a migrator for the duration of fn.
	with := func(fn func(cmd *cobra.Command, m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := open(dsn)
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(cmd, m, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: with(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
				return report(cmd, ignoreNoChange(m.Up()), "schema up to date")
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert every migration",
			Args:  cobra.NoArgs,
			RunE: with(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
				return report(cmd, ignoreNoChange(m.Down()), "schema reverted")
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations (negative N reverts)",
			Args:  cobra.ExactArgs(1),
			RunE: with(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("steps: want a non-zero integer, got %q", args[0])
				}
				return report(cmd, ignoreNoChange(m.Steps(n)), fmt.Sprintf("moved %d steps", n))
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: with(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
				v, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force V",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: with(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("force: %w", err)
				}
				return report(cmd, m.Force(v), fmt.Sprintf("forced to version %d", v))
			}),
		},
	)
	return root
}

func open(dsn string) (*migrate.Migrate, error) {
	url, err := resolveURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("resolve database url: %w", err)
	}
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", source, url)
}

// resolveURL prefers the flag, then DOCKET_DB_DSN, then the database
// section of the docket configuration.
func resolveURL(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.Database.URL(), nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func report(cmd *cobra.Command, err error, msg string) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
