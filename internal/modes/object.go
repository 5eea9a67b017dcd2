package modes

import (
	"fmt"
	"image"

	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/hud"
)

// ObjectProcessor boxes detector hits above a confidence threshold.
type ObjectProcessor struct {
	objects       detect.ObjectDetector
	minConfidence float64
}

// NewObject returns the object processor. minConfidence is in [0,1].
func NewObject(objects detect.ObjectDetector, minConfidence float64) *ObjectProcessor {
	return &ObjectProcessor{objects: objects, minConfidence: minConfidence}
}

// Annotate implements Processor.
func (p *ObjectProcessor) Annotate(frame *image.RGBA) *image.RGBA {
	if p.objects == nil {
		return unavailable(frame, "Object detection")
	}
	dets, err := p.objects.DetectObjects(frame)
	if err != nil {
		return failed(frame, Object, err)
	}
	for _, d := range dets {
		if d.Confidence < p.minConfidence {
			continue
		}
		hud.Box(frame, d.Box, fmt.Sprintf("%s %.2f", d.Label, d.Confidence), hud.ColorBox)
	}
	return frame
}
