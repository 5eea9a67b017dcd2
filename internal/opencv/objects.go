package opencv

import (
	"fmt"
	"image"
	"sync"

	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/types"
	"gocv.io/x/gocv"
)

// DetectorConfig describes an SSD-style network (MobileNet-SSD by default).
type DetectorConfig struct {
	Model  string
	Config string
	Labels string

	InputSize int     // square blob side, 300 when zero
	Scale     float64 // pixel scale, 1/127.5 when zero
	Mean      float64 // subtracted per channel, 127.5 when zero
}

// ObjectDetector implements detect.ObjectDetector on gocv's DNN module.
type ObjectDetector struct {
	mu     sync.Mutex
	net    gocv.Net
	labels []string
	cfg    DetectorConfig
}

// NewObjectDetector loads the network and its label file.
func NewObjectDetector(cfg DetectorConfig) (*ObjectDetector, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("object model path is empty")
	}
	if cfg.InputSize == 0 {
		cfg.InputSize = 300
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1 / 127.5
	}
	if cfg.Mean == 0 {
		cfg.Mean = 127.5
	}

	var labels []string
	if cfg.Labels != "" {
		var err error
		if labels, err = detect.LoadLabels(cfg.Labels); err != nil {
			return nil, err
		}
	}

	net := gocv.ReadNet(cfg.Model, cfg.Config)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read network %s", cfg.Model)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, err
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, err
	}
	return &ObjectDetector{net: net, labels: labels, cfg: cfg}, nil
}

// DetectObjects implements detect.ObjectDetector.
func (d *ObjectDetector) DetectObjects(frame *image.RGBA) ([]types.Detection, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	size := image.Pt(d.cfg.InputSize, d.cfg.InputSize)
	mean := gocv.NewScalar(d.cfg.Mean, d.cfg.Mean, d.cfg.Mean, 0)
	blob := gocv.BlobFromImage(mat, d.cfg.Scale, size, mean, true, false)
	defer blob.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.net.SetInput(blob, "")
	results := d.net.Forward("")
	defer results.Close()

	values, err := results.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}
	return detect.ParseSSD(values, frame.Bounds(), d.labels), nil
}

// Close releases the network.
func (d *ObjectDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

var _ detect.ObjectDetector = (*ObjectDetector)(nil)
