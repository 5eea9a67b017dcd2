package detect

import (
	"encoding/json"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresmejia3/sightline/internal/types"
)

// fakeEngine answers every request with a canned JSON body.
type fakeEngine struct {
	body     string
	err      error
	requests int
}

func (f *fakeEngine) Request(data []byte, out any) error {
	f.requests++
	if f.err != nil {
		return f.err
	}
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal([]byte(f.body), out)
}

type fixedLocator []image.Rectangle

func (l fixedLocator) Locate(*image.RGBA) []image.Rectangle { return l }

type stubPose struct{}

func (stubPose) ExtractPose(*image.RGBA) (types.Pose, error) { return nil, nil }

func TestProbe(t *testing.T) {
	c := Probe(Candidates{
		Faces: func() (FaceClassifier, error) { return nil, errors.New("cascade missing") },
		Pose:  func() (PoseExtractor, error) { return stubPose{}, nil },
		Signs: func() (SignRecognizer, error) { panic("libtesseract not found") },
		// Objects not configured
	})

	if c.Faces != nil || c.Signs != nil || c.Objects != nil {
		t.Errorf("unavailable collaborators must be nil: %+v", c)
	}
	if c.Pose == nil {
		t.Error("pose should be available")
	}

	want := map[string]bool{NameFaces: false, NamePose: true, NameSigns: false, NameObjects: false}
	if len(c.Report) != len(want) {
		t.Fatalf("report has %d entries, want %d", len(c.Report), len(want))
	}
	for name, ok := range want {
		if c.Available(name) != ok {
			t.Errorf("Available(%s) = %v, want %v", name, !ok, ok)
		}
	}
	for _, a := range c.Report {
		if !a.Available && a.Reason == "" {
			t.Errorf("%s: missing reason", a.Name)
		}
	}
}

func TestPoseEngineScalesToPixels(t *testing.T) {
	eng := &fakeEngine{body: `{"landmarks": {"left_knee": {"x": 0.5, "y": 0.25, "visibility": 0.9}}}`}
	p := &PoseEngine{engine: eng}

	pose, err := p.ExtractPose(image.NewRGBA(image.Rect(0, 0, 640, 480)))
	if err != nil {
		t.Fatal(err)
	}
	knee, ok := pose["left_knee"]
	if !ok {
		t.Fatalf("left_knee missing from %v", pose)
	}
	if math.Abs(knee.X-320) > 1e-9 || math.Abs(knee.Y-120) > 1e-9 || knee.Visibility != 0.9 {
		t.Errorf("knee = %+v, want (320,120,0.9)", knee)
	}
}

func TestPoseEngineNoPerson(t *testing.T) {
	p := &PoseEngine{engine: &fakeEngine{body: `{"landmarks": {}}`}}
	pose, err := p.ExtractPose(image.NewRGBA(image.Rect(0, 0, 64, 48)))
	if err != nil || len(pose) != 0 {
		t.Errorf("ExtractPose() = %v, %v; want empty, nil", pose, err)
	}
}

func TestEmotionClassifierScoresEachFace(t *testing.T) {
	eng := &fakeEngine{body: `{"scores": {"happy": 0.8, "neutral": 0.2}}`}
	c := &EmotionClassifier{
		locator: fixedLocator{image.Rect(10, 10, 60, 60), image.Rect(100, 20, 150, 70)},
		engine:  eng,
	}

	faces, err := c.ClassifyFaces(image.NewRGBA(image.Rect(0, 0, 200, 100)))
	if err != nil {
		t.Fatal(err)
	}
	if len(faces) != 2 || eng.requests != 2 {
		t.Fatalf("got %d faces from %d requests, want 2/2", len(faces), eng.requests)
	}
	if label, _, _ := faces[1].Top(); label != "happy" {
		t.Errorf("top label = %q, want happy", label)
	}
	if faces[1].Box != image.Rect(100, 20, 150, 70) {
		t.Errorf("box = %v", faces[1].Box)
	}
}

func TestEmotionClassifierNoFaces(t *testing.T) {
	eng := &fakeEngine{err: errors.New("should not be called")}
	c := &EmotionClassifier{locator: fixedLocator(nil), engine: eng}

	faces, err := c.ClassifyFaces(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	if err != nil || len(faces) != 0 || eng.requests != 0 {
		t.Errorf("ClassifyFaces() = %v, %v (requests %d)", faces, err, eng.requests)
	}
}

func TestNewFaceLocatorMissingCascade(t *testing.T) {
	if _, err := NewFaceLocator(FaceLocatorConfig{CascadePath: "does/not/exist"}); err == nil {
		t.Error("expected error for missing cascade")
	}
}

func TestCenterROI(t *testing.T) {
	tests := []struct {
		name   string
		bounds image.Rectangle
		frac   float64
		want   image.Rectangle
	}{
		{"landscape half", image.Rect(0, 0, 640, 480), 0.5, image.Rect(200, 120, 440, 360)},
		{"full side", image.Rect(0, 0, 640, 480), 1, image.Rect(80, 0, 560, 480)},
		{"bad frac", image.Rect(0, 0, 100, 200), 0, image.Rect(0, 50, 100, 150)},
		{"offset bounds", image.Rect(10, 10, 110, 110), 0.5, image.Rect(35, 35, 85, 85)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CenterROI(tt.bounds, tt.frac); got != tt.want {
				t.Errorf("CenterROI(%v, %v) = %v, want %v", tt.bounds, tt.frac, got, tt.want)
			}
		})
	}
}

func TestParseSSD(t *testing.T) {
	labels := []string{"background", "aeroplane", "bicycle"}
	values := []float32{
		0, 2, 0.9, 0.25, 0.5, 0.75, 1.0, // bicycle
		0, 1, 0.0, 0.1, 0.1, 0.2, 0.2, // padding
		0, 7, 0.3, 0.0, 0.0, 0.5, 0.5, // unknown class id
		0, 1, 0.8, 0.5, 0.5, 0.5, 0.6, // zero width
		0, 1, 0.4, // truncated tail
	}
	got := ParseSSD(values, image.Rect(0, 0, 640, 480), labels)
	if len(got) != 2 {
		t.Fatalf("got %d detections, want 2: %+v", len(got), got)
	}
	if got[0].Label != "bicycle" || got[0].Box != image.Rect(160, 240, 480, 480) {
		t.Errorf("first = %+v", got[0])
	}
	if math.Abs(got[0].Confidence-0.9) > 1e-6 {
		t.Errorf("confidence = %v", got[0].Confidence)
	}
	if got[1].Label != "class 7" {
		t.Errorf("second label = %q", got[1].Label)
	}
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	if err := os.WriteFile(path, []byte("background\n\nperson\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	labels, err := LoadLabels(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 3 || labels[2] != "person" || labelFor(labels, 1) != "class 1" {
		t.Errorf("labels = %q", labels)
	}
	if _, err := LoadLabels(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
