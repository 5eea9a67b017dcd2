package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andresmejia3/sightline/internal/capture"
	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check which detectors and which camera are usable, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(Cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		// One read decides whether the device delivers frames or placeholders
		a.Camera.Next()
		printProbe(cmd.OutOrStdout(), a.Collaborators.Report, Cfg.Camera.Backend, a.Camera.Available())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func printProbe(out io.Writer, report []detect.Availability, backend string, cameraOK bool) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tSTATUS\tDETAILS")
	fmt.Fprintln(w, "---------\t------\t-------")

	cameraDetail := backend
	status := "✅ ready"
	if !cameraOK {
		status = "❌ unavailable"
		cameraDetail = fmt.Sprintf("%s (serving %dx%d placeholder)", backend, capture.PlaceholderWidth, capture.PlaceholderHeight)
	}
	fmt.Fprintf(w, "camera\t%s\t%s\n", status, cameraDetail)

	for _, r := range report {
		status, detail := "✅ ready", ""
		if !r.Available {
			status, detail = "❌ unavailable", r.Reason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, status, detail)
	}
	w.Flush()
}
