package pipeline

import (
	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/modes"
)

// ProcessorConfig carries the per-mode thresholds.
type ProcessorConfig struct {
	Exercise         modes.ExerciseConfig
	SignConfidence   float64 // 0-100
	ObjectConfidence float64 // 0-1
}

// Processors builds the dispatch table from the probed collaborators. Unavailable collaborators
// are passed as nil and render a badge. pub may be nil.
func Processors(c *detect.Collaborators, cfg ProcessorConfig, pub modes.RepPublisher) (map[modes.Mode]modes.Processor, error) {
	exercise, err := modes.NewExercise(c.Pose, cfg.Exercise, pub)
	if err != nil {
		return nil, err
	}
	return map[modes.Mode]modes.Processor{
		modes.Emotion:  modes.NewEmotion(c.Faces),
		modes.Alphabet: modes.NewAlphabet(c.Signs, cfg.SignConfidence),
		modes.Exercise: exercise,
		modes.Object:   modes.NewObject(c.Objects, cfg.ObjectConfidence),
	}, nil
}
