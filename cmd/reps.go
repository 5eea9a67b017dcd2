package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andresmejia3/sightline/internal/events"
	"github.com/andresmejia3/sightline/internal/store"
	"github.com/spf13/cobra"
)

var repsOpts struct {
	Limit  int
	Totals bool
}

var repsCmd = &cobra.Command{
	Use:   "reps",
	Short: "List recorded reps from the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		if repsOpts.Totals {
			totals, err := db.RepTotals(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load rep totals: %w", err)
			}
			printTotals(cmd.OutOrStdout(), totals)
			return nil
		}
		recent, err := db.RecentReps(cmd.Context(), repsOpts.Limit)
		if err != nil {
			return fmt.Errorf("failed to list reps: %w", err)
		}
		printReps(cmd.OutOrStdout(), recent)
		return nil
	},
}

func init() {
	repsCmd.Flags().IntVarP(&repsOpts.Limit, "limit", "n", 20, "Number of most recent reps to show")
	repsCmd.Flags().BoolVar(&repsOpts.Totals, "totals", false, "Show per-exercise totals instead of individual reps")
	rootCmd.AddCommand(repsCmd)
}

func printReps(out io.Writer, reps []events.RepEvent) {
	if len(reps) == 0 {
		fmt.Fprintln(out, "No reps recorded yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WHEN\tEXERCISE\tREP\tANGLE\tRUN")
	fmt.Fprintln(w, "----\t--------\t---\t-----\t---")
	for _, r := range reps {
		run := r.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f°\t%s\n", r.At.Local().Format("2006-01-02 15:04:05"), r.Exercise, r.Count, r.Angle, run)
	}
	w.Flush()
}

func printTotals(out io.Writer, totals []store.RepTotal) {
	if len(totals) == 0 {
		fmt.Fprintln(out, "No reps recorded yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "EXERCISE\tREPS\tRUNS\tLAST")
	fmt.Fprintln(w, "--------\t----\t----\t----")
	for _, t := range totals {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", t.Exercise, t.Reps, t.Runs, t.Last.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}
