package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/docket/internal/batch"
)

func runCmd() *cobra.Command {
	var (
		opts   batch.Options
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Archive every validated event record in the inbox once",
		Long: `Walk the inbox newest first, classify each PDF attachment, and archive
validated event records into {year}/{month}/{day}/{record_id} - {name}/.

Examples:
  docket run --dry-run --limit 10
  docket run --resume`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("resume") {
				opts.Resume = a.cfg.Archive.Resume
			}

			store, err := a.mail()
			if err != nil {
				return err
			}
			runner, err := a.runner(ctx, store)
			if err != nil {
				return err
			}

			summary, runErr := runner.Run(ctx, opts)
			if err := printSummary(cmd.OutOrStdout(), summary, asJSON); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "skip attachments recorded in the processed set and record new ones")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "stop after this many PDF attachments (0 = no limit)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "resolve and report without writing to the archive")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run summary as JSON")

	return cmd
}

func printSummary(w io.Writer, s *batch.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value int
	}{
		{"found", s.Found},
		{"archived", s.Archived},
		{"deduplicated", s.Deduplicated},
		{"renamed", s.Renamed},
		{"already processed", s.AlreadyProcessed},
		{"skipped (invalid)", s.SkippedInvalid},
		{"failed", s.Failed},
		{"for review", len(s.Reviews)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\n", r.label, r.value)
	}
	if s.Report != "" {
		fmt.Fprintf(tw, "review report\t%s\n", s.Report)
	}
	for _, f := range s.Failures {
		fmt.Fprintf(tw, "failed: %s\t%s\n", f.Attachment, f.Error)
	}
	return tw.Flush()
}
