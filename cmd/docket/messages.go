package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func messagesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "messages",
		Short: "List recent inbox messages with a preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.mail()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RECEIVED\tFROM\tSUBJECT\tPREVIEW")

			n := 0
			for msg, err := range store.Messages(ctx) {
				if err != nil {
					tw.Flush()
					return err
				}
				if limit > 0 && n >= limit {
					break
				}
				n++

				from := msg.FromName
				if from == "" {
					from = msg.FromAddress
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					msg.ReceivedAt.Local().Format(time.DateTime),
					from,
					truncate(msg.Subject, 60),
					truncate(msg.Preview, 80),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of messages to list (0 = all)")
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
