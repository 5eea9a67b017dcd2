package types

import "image"

// Landmark is a single pose keypoint in frame pixel space.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Point returns the landmark position as an image point (rounded down).
func (l Landmark) Point() image.Point {
	return image.Pt(int(l.X), int(l.Y))
}

// Pose maps joint names (e.g. "left_knee") to landmarks.
// A nil or empty Pose means no person was found.
type Pose map[string]Landmark

// FaceEmotion is one face box with its emotion scores (label -> score in [0,1]).
type FaceEmotion struct {
	Box    image.Rectangle
	Scores map[string]float64
}

// Top returns the highest scoring label. ok is false when there are no scores.
func (f FaceEmotion) Top() (label string, score float64, ok bool) {
	for l, s := range f.Scores {
		// Ties break alphabetically so the overlay doesn't flicker between equal labels
		if !ok || s > score || (s == score && l < label) {
			label, score, ok = l, s, true
		}
	}
	return label, score, ok
}

// Sign is a recognized hand-sign symbol with a confidence in [0,100].
type Sign struct {
	Symbol     string
	Confidence float64
	Box        image.Rectangle
}

// Detection is one object detector hit.
type Detection struct {
	Label      string
	Confidence float64
	Box        image.Rectangle
}

// ErrorResult captures the error object returned by Python on failure
type ErrorResult struct {
	Error string `json:"error"`
}
