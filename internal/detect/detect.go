// Package detect defines the detector collaborators consumed by the mode processors, the
// pure-Go adapters for them, and the one-shot capability probe.
package detect

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/andresmejia3/sightline/internal/types"
)

// FaceClassifier finds faces and scores their emotions.
type FaceClassifier interface {
	ClassifyFaces(frame *image.RGBA) ([]types.FaceEmotion, error)
}

// SignRecognizer reads a single hand-sign symbol. ok is false when nothing was recognized.
type SignRecognizer interface {
	RecognizeSign(frame *image.RGBA) (sign types.Sign, ok bool, err error)
}

// PoseExtractor returns named body landmarks in frame pixels. An empty Pose means no person.
type PoseExtractor interface {
	ExtractPose(frame *image.RGBA) (types.Pose, error)
}

// ObjectDetector returns every object hit, unfiltered.
type ObjectDetector interface {
	DetectObjects(frame *image.RGBA) ([]types.Detection, error)
}

// payloadQuality is the JPEG quality used on the pipe to the Python engines.
const payloadQuality = 90

func encodePayload(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: payloadQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CenterROI returns a centered square covering frac of the shorter side of bounds.
// frac outside (0,1] falls back to the whole shorter side.
func CenterROI(bounds image.Rectangle, frac float64) image.Rectangle {
	if frac <= 0 || frac > 1 {
		frac = 1
	}
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	side = int(float64(side) * frac)
	c := image.Pt(bounds.Min.X+bounds.Dx()/2, bounds.Min.Y+bounds.Dy()/2)
	return image.Rect(c.X-side/2, c.Y-side/2, c.X-side/2+side, c.Y-side/2+side).Intersect(bounds)
}
