package main

import (
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the archive ledger API, health probes, and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			srv, err := NewServer(ctx, a.cfg, a.infra)
			if err != nil {
				return err
			}
			if err := srv.Start(); err != nil {
				return err
			}

			<-ctx.Done()
			return srv.Shutdown(a.cfg.ShutdownTimeoutDuration())
		},
	}
}
