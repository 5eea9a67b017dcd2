package detect

import (
	"fmt"
	"image"

	"github.com/andresmejia3/sightline/internal/types"
	"github.com/andresmejia3/sightline/internal/worker"
)

// PoseEngine asks the pose engine for body landmarks.
// The engine answers in normalized [0,1] coordinates; they are scaled to frame pixels here.
type PoseEngine struct {
	engine requester
}

// NewPoseEngine wraps a running engine.
func NewPoseEngine(engine *worker.Engine) *PoseEngine {
	return &PoseEngine{engine: engine}
}

type poseResponse struct {
	Landmarks map[string]types.Landmark `json:"landmarks"`
}

// ExtractPose implements PoseExtractor.
func (p *PoseEngine) ExtractPose(frame *image.RGBA) (types.Pose, error) {
	payload, err := encodePayload(frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	var resp poseResponse
	if err := p.engine.Request(payload, &resp); err != nil {
		return nil, err
	}

	b := frame.Bounds()
	pose := make(types.Pose, len(resp.Landmarks))
	for name, lm := range resp.Landmarks {
		pose[name] = types.Landmark{
			X:          float64(b.Min.X) + lm.X*float64(b.Dx()),
			Y:          float64(b.Min.Y) + lm.Y*float64(b.Dy()),
			Visibility: lm.Visibility,
		}
	}
	return pose, nil
}
