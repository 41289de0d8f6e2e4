package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newUsageCmd() *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show recorded token usage and cost per model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			backend, err := openUsage(cmd.Context(), db)
			if err != nil {
				return err
			}
			defer backend.Close()

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			totals, err := backend.totals(cmd.Context(), from)
			if err != nil {
				return err
			}
			if len(totals) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no usage recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tREQUESTS\tINPUT\tOUTPUT\tCOST")
			var total float64
			for _, t := range totals {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t$%s\n", t.Provider, t.Model, t.Requests, t.Input, t.Output, t.TotalCost)
				c, _ := strconv.ParseFloat(t.TotalCost, 64)
				total += c
			}
			fmt.Fprintf(w, "\t\t\t\t\t$%s\n", strconv.FormatFloat(total, 'f', 6, 64))
			return w.Flush()
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "only count requests newer than this (e.g. 24h); sqlite ledger only")
	return cmd
}
