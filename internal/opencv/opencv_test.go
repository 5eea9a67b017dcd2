package opencv

import (
	"testing"
)

func TestNewObjectDetectorRejectsMissingModel(t *testing.T) {
	if _, err := NewObjectDetector(DetectorConfig{}); err == nil {
		t.Error("expected error for empty model path")
	}
	if _, err := NewObjectDetector(DetectorConfig{Model: "m.caffemodel", Labels: "does/not/exist.txt"}); err == nil {
		t.Error("expected error for missing labels")
	}
}

// TestOpenCameraMissingDevice needs OpenCV with video I/O; no camera is expected at index 99.
func TestOpenCameraMissingDevice(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping OpenCV device test in short mode")
	}
	if cam, err := OpenCamera(CameraConfig{Index: 99}); err == nil {
		cam.Close()
		t.Skip("a device unexpectedly exists at index 99")
	}
}
