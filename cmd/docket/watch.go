package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/docket/internal/batch"
	"github.com/JaimeStill/docket/internal/mail"
	"github.com/JaimeStill/docket/internal/watch"
)

func watchCmd() *cobra.Command {
	var (
		serve bool
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Archive continuously on an interval and when PDFs land in the inbox directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("serve") {
				serve = a.cfg.Watch.Serve
			}

			store, err := a.mail()
			if err != nil {
				return err
			}
			runner, err := a.runner(ctx, store)
			if err != nil {
				return err
			}

			if dir == "" {
				dir = a.cfg.Watch.Dir
			}
			if dir == "" && a.cfg.Mail.Backend == mail.BackendDir {
				dir = a.cfg.Mail.Dir
			}

			var srv *Server
			if serve {
				if srv, err = NewServer(ctx, a.cfg, a.infra); err != nil {
					return err
				}
				if err := srv.Start(); err != nil {
					return err
				}
			}

			opts := batch.Options{Resume: true}
			w := watch.New(watch.Options{
				Interval: a.cfg.Watch.IntervalDuration(),
				Debounce: a.cfg.Watch.DebounceDuration(),
				Dir:      dir,
				Stop:     batch.Fatal,
			}, func(ctx context.Context) error {
				_, err := runner.Run(ctx, opts)
				return err
			}, a.infra.Logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return w.Run(gctx) })
			if srv != nil {
				g.Go(func() error {
					<-gctx.Done()
					return srv.Shutdown(a.cfg.ShutdownTimeoutDuration())
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&serve, "serve", false, "also serve the API, health probes, and metrics")
	cmd.Flags().StringVar(&dir, "dir", "", "directory to watch for new PDFs (default watch.dir, then mail.dir)")
	return cmd
}
