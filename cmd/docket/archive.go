package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/docket/internal/batch"
)

func archiveCmd() *cobra.Command {
	var (
		dryRun bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "archive <file.pdf>",
		Short: "Classify and archive a single local PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			runner, err := a.runner(ctx, nil)
			if err != nil {
				return err
			}

			sum := sha256.Sum256(data)
			summary, runErr := runner.ArchiveOne(ctx, batch.Document{
				MessageID:    "local:" + filepath.Base(args[0]),
				AttachmentID: hex.EncodeToString(sum[:]),
				Name:         filepath.Base(args[0]),
				Data:         data,
			}, batch.Options{DryRun: dryRun})

			if err := printSummary(cmd.OutOrStdout(), summary, asJSON); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve and report without writing to the archive")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}
