package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andresmejia3/sightline/internal/capture"
	"github.com/andresmejia3/sightline/internal/config"
	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/events"
	"github.com/andresmejia3/sightline/internal/modes"
	"github.com/andresmejia3/sightline/internal/ocr"
	"github.com/andresmejia3/sightline/internal/pipeline"
	"github.com/andresmejia3/sightline/internal/worker"
	"github.com/rs/zerolog/log"
)

// app is everything a running pipeline owns. Close releases it in reverse order of importance:
// event delivery first, then collaborators, the camera last.
type app struct {
	Collaborators *detect.Collaborators
	Camera        *capture.Camera
	Dispatcher    *events.Dispatcher
	Orchestrator  *pipeline.Orchestrator
	Exercise      *modes.ExerciseProcessor

	cancel  context.CancelFunc
	closers []func()
}

// buildApp probes collaborators, opens the camera and wires the processors. sinks receive rep
// events; pass none to count reps without recording them.
func buildApp(cfg *config.Config, sinks ...events.Sink) (*app, error) {
	// Child processes outlive the request context; they are stopped explicitly in Close
	ctx, cancel := context.WithCancel(context.Background())
	a := &app{cancel: cancel}

	a.Collaborators = detect.Probe(a.candidates(ctx, cfg))
	a.Camera = capture.NewCamera(cameraOpener(ctx, cfg.Camera),
		capture.WithRetryInterval(time.Duration(cfg.Camera.RetryS)*time.Second))
	a.Dispatcher = events.NewDispatcher(cfg.Events.Buffer, sinks...)

	table, err := pipeline.Processors(a.Collaborators, processorConfig(cfg), a.Dispatcher)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Exercise, _ = table[modes.Exercise].(*modes.ExerciseProcessor)
	a.Orchestrator = pipeline.New(a.Camera, table)
	return a, nil
}

func processorConfig(cfg *config.Config) pipeline.ProcessorConfig {
	return pipeline.ProcessorConfig{
		Exercise: modes.ExerciseConfig{
			MinVisibility: cfg.Exercise.MinVisibility,
			Thresholds:    cfg.Exercise.Thresholds(),
		},
		SignConfidence:   cfg.Alphabet.MinConfidence,
		ObjectConfidence: cfg.Object.MinConfidence,
	}
}

func cameraOpener(ctx context.Context, c config.CameraConfig) capture.Opener {
	switch strings.ToLower(c.Backend) {
	case "opencv":
		return openCVCamera(c)
	case "file":
		return capture.FileOpener(ctx, c.Device, c.Width, c.Height)
	default:
		return capture.FFmpegOpener(ctx, capture.FFmpegConfig{
			InputFormat: c.InputFormat,
			Device:      c.Device,
			Width:       c.Width,
			Height:      c.Height,
			FPS:         c.FPS,
		})
	}
}

// candidates returns one constructor per collaborator. Successful constructors register their
// cleanup on a.
func (a *app) candidates(ctx context.Context, cfg *config.Config) detect.Candidates {
	return detect.Candidates{
		Faces: func() (detect.FaceClassifier, error) {
			locator, err := detect.NewFaceLocator(detect.FaceLocatorConfig{
				CascadePath: cfg.Emotion.Cascade,
				MinScore:    cfg.Emotion.MinFaceScore,
			})
			if err != nil {
				return nil, err
			}
			engine, err := a.startEngine(ctx, cfg.Python, "emotion", cfg.Emotion.Script)
			if err != nil {
				return nil, err
			}
			return detect.NewEmotionClassifier(locator, engine), nil
		},
		Pose: func() (detect.PoseExtractor, error) {
			engine, err := a.startEngine(ctx, cfg.Python, "pose", cfg.Pose.Script)
			if err != nil {
				return nil, err
			}
			return detect.NewPoseEngine(engine), nil
		},
		Signs: func() (detect.SignRecognizer, error) {
			r, err := ocr.NewSignReader(ocr.Config{
				Language:      cfg.Alphabet.Language,
				MinConfidence: cfg.Alphabet.MinConfidence,
				ROIFraction:   cfg.Alphabet.ROIFraction,
			})
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, func() { r.Close() })
			return r, nil
		},
		Objects: func() (detect.ObjectDetector, error) {
			d, closeFn, err := newObjectDetector(cfg.Object)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, closeFn)
			return d, nil
		},
	}
}

// startEngine launches a Python engine and pings it, so a broken install is caught at probe time.
func (a *app) startEngine(ctx context.Context, python, name, script string) (*worker.Engine, error) {
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%s engine script: %w", name, err)
	}
	engine := worker.NewEngine(ctx, name, python, script)
	if err := engine.Ping(); err != nil {
		engine.Close()
		return nil, fmt.Errorf("%s engine did not answer: %w", name, err)
	}
	a.closers = append(a.closers, engine.Close)
	return engine, nil
}

// Close flushes pending rep events, stops collaborators and finally releases the camera.
func (a *app) Close() {
	if a.Dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.Dispatcher.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("pending rep events were not delivered")
		}
		cancel()
		st := a.Dispatcher.Stats()
		log.Info().Uint64("delivered", st.Delivered).Uint64("dropped", st.Dropped).Uint64("failed", st.Failed).Msg("rep events")
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.Camera != nil {
		if err := a.Camera.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close camera")
		}
	}
	a.cancel()
}
