package detect

import (
	"fmt"
	"image"
	"os"

	"github.com/andresmejia3/sightline/internal/types"
	"github.com/andresmejia3/sightline/internal/worker"
	pigo "github.com/esimov/pigo/core"
)

// FaceLocatorConfig tunes the pigo cascade.
type FaceLocatorConfig struct {
	CascadePath string
	MinSize     int
	MaxSize     int
	MinScore    float32
}

// FaceLocator finds face boxes with a pigo cascade.
type FaceLocator struct {
	classifier *pigo.Pigo
	cfg        FaceLocatorConfig
}

// NewFaceLocator reads and unpacks the cascade file.
func NewFaceLocator(cfg FaceLocatorConfig) (*FaceLocator, error) {
	data, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("error reading the cascade file: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = 60
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 600
	}
	return &FaceLocator{classifier: classifier, cfg: cfg}, nil
}

// Locate returns square face boxes scoring at least MinScore.
func (l *FaceLocator) Locate(frame *image.RGBA) []image.Rectangle {
	b := frame.Bounds()
	cParams := pigo.CascadeParams{
		MinSize:     l.cfg.MinSize,
		MaxSize:     l.cfg.MaxSize,
		ShiftFactor: 0.15,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(frame),
			Rows:   b.Dy(),
			Cols:   b.Dx(),
			Dim:    b.Dx(),
		},
	}
	dets := l.classifier.RunCascade(cParams, 0.0)
	dets = l.classifier.ClusterDetections(dets, 0.2)

	var boxes []image.Rectangle
	for _, det := range dets {
		if det.Q < l.cfg.MinScore {
			continue
		}
		half := det.Scale / 2
		r := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).Add(b.Min)
		if r = r.Intersect(b); !r.Empty() {
			boxes = append(boxes, r)
		}
	}
	return boxes
}

// EmotionClassifier locates faces locally and asks the emotion engine to score each crop.
type EmotionClassifier struct {
	locator interface {
		Locate(frame *image.RGBA) []image.Rectangle
	}
	engine requester
}

type requester interface {
	Request(data []byte, out any) error
}

// NewEmotionClassifier pairs a locator with a running engine.
func NewEmotionClassifier(locator *FaceLocator, engine *worker.Engine) *EmotionClassifier {
	return &EmotionClassifier{locator: locator, engine: engine}
}

type emotionResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// ClassifyFaces implements FaceClassifier.
func (c *EmotionClassifier) ClassifyFaces(frame *image.RGBA) ([]types.FaceEmotion, error) {
	boxes := c.locator.Locate(frame)
	out := make([]types.FaceEmotion, 0, len(boxes))
	for _, box := range boxes {
		payload, err := encodePayload(frame.SubImage(box))
		if err != nil {
			return nil, fmt.Errorf("encode face crop: %w", err)
		}
		var resp emotionResponse
		if err := c.engine.Request(payload, &resp); err != nil {
			return nil, err
		}
		out = append(out, types.FaceEmotion{Box: box, Scores: resp.Scores})
	}
	return out, nil
}
