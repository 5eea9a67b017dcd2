package modes

import (
	"fmt"
	"image"

	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/hud"
)

// EmotionProcessor boxes every face with its top emotion.
type EmotionProcessor struct {
	faces detect.FaceClassifier
}

// NewEmotion returns the emotion processor. A nil classifier renders an unavailable badge.
func NewEmotion(faces detect.FaceClassifier) *EmotionProcessor {
	return &EmotionProcessor{faces: faces}
}

// Annotate implements Processor.
func (p *EmotionProcessor) Annotate(frame *image.RGBA) *image.RGBA {
	if p.faces == nil {
		return unavailable(frame, "Emotion detection")
	}
	faces, err := p.faces.ClassifyFaces(frame)
	if err != nil {
		return failed(frame, Emotion, err)
	}
	for _, f := range faces {
		label := ""
		if l, score, ok := f.Top(); ok {
			label = fmt.Sprintf("%s %.2f", l, score)
		}
		hud.Box(frame, f.Box, label, hud.ColorBox)
	}
	return frame
}
