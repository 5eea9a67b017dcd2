package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andresmejia3/sightline/internal/config"
	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/events"
	"github.com/andresmejia3/sightline/internal/modes"
	"github.com/andresmejia3/sightline/internal/store"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPrintReps(t *testing.T) {
	var buf bytes.Buffer
	printReps(&buf, nil)
	if !strings.Contains(buf.String(), "No reps") {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	printReps(&buf, []events.RepEvent{
		{RunID: "0123456789abcdef", Exercise: "squat", Count: 3, Angle: 164.6, At: time.Now()},
	})
	out := buf.String()
	for _, want := range []string{"EXERCISE", "squat", "165°", "01234567"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "89abcdef") {
		t.Error("run id should be shortened")
	}
}

func TestPrintTotals(t *testing.T) {
	var buf bytes.Buffer
	printTotals(&buf, []store.RepTotal{{Exercise: "curl", Reps: 12, Runs: 2, Last: time.Now()}})
	if !strings.Contains(buf.String(), "curl") || !strings.Contains(buf.String(), "12") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintProbe(t *testing.T) {
	var buf bytes.Buffer
	printProbe(&buf, []detect.Availability{
		{Name: detect.NameFaces, Available: true},
		{Name: detect.NameObjects, Reason: "object model path is empty"},
	}, "ffmpeg", false)
	out := buf.String()
	for _, want := range []string{"camera", "placeholder", "emotion", "object model path is empty"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProcessorConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Exercise.Squat.Down = 95
	pc := processorConfig(cfg)
	if pc.Exercise.Thresholds["squat"].Down != 95 || pc.Exercise.Thresholds["curl"].Up != 150 {
		t.Errorf("thresholds = %+v", pc.Exercise.Thresholds)
	}
	if pc.SignConfidence != 60 || pc.ObjectConfidence != 0.5 {
		t.Errorf("confidences = %v / %v", pc.SignConfidence, pc.ObjectConfidence)
	}
}

// TestBuildAppDegradesGracefully starts the pipeline with every optional piece missing.
// It links OpenCV and Tesseract, so it is skipped in short mode.
func TestBuildAppDegradesGracefully(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping cgo-backed pipeline test in short mode")
	}

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Camera.Backend = "file"
	cfg.Camera.Device = filepath.Join(dir, "missing.mp4")
	cfg.Emotion.Script = filepath.Join(dir, "missing_emotion.py")
	cfg.Pose.Script = filepath.Join(dir, "missing_pose.py")
	cfg.Object.Model = ""

	a, err := buildApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	for _, name := range []string{detect.NameFaces, detect.NamePose, detect.NameObjects} {
		if a.Collaborators.Available(name) {
			t.Errorf("%s should be unavailable", name)
		}
	}
	for _, m := range modes.Known {
		frame := a.Orchestrator.Produce(modes.Of(m))
		if frame.Bounds() != image.Rect(0, 0, 640, 480) {
			t.Errorf("%v: bounds = %v", m, frame.Bounds())
		}
	}
	if a.Camera.Available() {
		t.Error("camera should be serving placeholders")
	}
}

// TestRepsAndResetCommands runs the history commands against a real Postgres container.
func TestRepsAndResetCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Fatalf("Docker not available, cannot run integration test: %v", err)
	}

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sightline_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(noopLogger{}),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, _ := pgContainer.ConnectionString(ctx, "sslmode=disable")
	db, err := store.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		ev := events.RepEvent{RunID: "run-1", Exercise: "squat", Count: i, Angle: 165, At: time.Now()}
		if err := db.InsertRepEvent(ctx, ev); err != nil {
			t.Fatalf("InsertRepEvent: %v", err)
		}
	}
	db.Close(ctx)

	run := func(args ...string) string {
		t.Helper()
		// cobra keeps flag values between executions of the same command tree
		repsOpts.Totals, repsOpts.Limit, resetYes = false, 20, false
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetIn(strings.NewReader(""))
		rootCmd.SetArgs(append([]string{"--db", connStr}, args...))
		if err := rootCmd.ExecuteContext(ctx); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if out := run("reps", "--totals"); !strings.Contains(out, "squat") || !strings.Contains(out, "3") {
		t.Errorf("totals output:\n%s", out)
	}
	if out := run("reps", "--limit", "2"); strings.Count(out, "squat") != 2 {
		t.Errorf("limited output:\n%s", out)
	}
	// Without --yes and with no answer on stdin, nothing is dropped
	if out := run("reset"); !strings.Contains(out, "Aborted") {
		t.Errorf("reset without confirmation:\n%s", out)
	}
	run("reset", "--yes")
	// Opening the store again recreates the empty table
	if out := run("reps"); !strings.Contains(out, "No reps") {
		t.Errorf("after reset:\n%s", out)
	}
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}
