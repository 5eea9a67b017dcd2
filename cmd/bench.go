package cmd

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"time"

	"github.com/andresmejia3/sightline/internal/modes"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var benchOpts struct {
	Mode   string
	Frames int
	Out    string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the pipeline for a number of frames without serving and report throughput",
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchOpts.Frames < 1 {
			return fmt.Errorf("--frames must be at least 1")
		}
		sel := modes.Select(benchOpts.Mode)
		if sel.Mode == modes.Unknown {
			return fmt.Errorf("unknown mode %q", benchOpts.Mode)
		}
		return runBench(cmd, sel)
	},
}

func init() {
	benchCmd.Flags().StringVarP(&benchOpts.Mode, "mode", "m", "emotion", "Mode to run (emotion, alphabet, exercise, object)")
	benchCmd.Flags().IntVarP(&benchOpts.Frames, "frames", "n", 300, "Number of frames to produce")
	benchCmd.Flags().StringVarP(&benchOpts.Out, "out", "o", "", "Write the last annotated frame to this JPEG file")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, sel modes.Selection) error {
	a, err := buildApp(Cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	bar := progressbar.NewOptions(benchOpts.Frames,
		progressbar.OptionSetDescription(fmt.Sprintf("⏱️  Benchmarking %s", sel)),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
	)

	start := time.Now()
	var slowest time.Duration
	produced := 0
	for produced < benchOpts.Frames {
		if cmd.Context().Err() != nil {
			break
		}
		t := time.Now()
		frame := a.Orchestrator.Produce(sel)
		if d := time.Since(t); d > slowest {
			slowest = d
		}
		produced++
		bar.Add(1)

		if produced == benchOpts.Frames && benchOpts.Out != "" {
			if err := writeJPEG(benchOpts.Out, frame); err != nil {
				return err
			}
		}
	}
	bar.Finish()

	elapsed := time.Since(start)
	if produced == 0 {
		return nil
	}
	fmt.Fprintf(os.Stderr, "\n🏁 %d frames in %s: %.1f fps average, %.1f ms mean, %.1f ms slowest\n",
		produced, elapsed.Round(time.Millisecond),
		float64(produced)/elapsed.Seconds(),
		float64(elapsed.Milliseconds())/float64(produced),
		float64(slowest.Microseconds())/1000)
	if !a.Camera.Available() {
		fmt.Fprintln(os.Stderr, "⚠️  Camera unavailable: timings are for placeholder frames")
	}
	if sel.Mode == modes.Exercise && a.Exercise != nil {
		fmt.Fprintf(os.Stderr, "🏋️  squats: %d, curls: %d\n", a.Exercise.Count("squat"), a.Exercise.Count("curl"))
	}
	return nil
}

func writeJPEG(path string, frame image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := jpeg.Encode(f, frame, &jpeg.Options{Quality: Cfg.Stream.JPEGQuality}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return f.Close()
}
