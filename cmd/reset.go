package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the rep history tables",
	Long:  "Clears all recorded reps. The tables are recreated the next time the database is opened.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !resetYes && !confirm(bufio.NewReader(cmd.InOrStdin()), out, "⚠️  Are you sure you want to DROP the rep history?") {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}

		fmt.Fprintln(out, "🗑️  Clearing rep history...")
		if err := db.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Fprintln(out, "✨ Reset complete.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}

