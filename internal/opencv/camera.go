// Package opencv holds the gocv-backed camera and object detector. It is the only package
// that links OpenCV.
package opencv

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/andresmejia3/sightline/internal/capture"
	"gocv.io/x/gocv"
)

// CameraConfig selects the capture device and requested geometry.
type CameraConfig struct {
	Index  int
	Width  int
	Height int
	FPS    int
}

// Camera reads frames from a local device through OpenCV.
type Camera struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

// OpenCamera opens the device and applies the requested size. Drivers may ignore the request.
func OpenCamera(cfg CameraConfig) (*Camera, error) {
	vc, err := gocv.VideoCaptureDevice(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %d is not opened", cfg.Index)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	}
	return &Camera{vc: vc, mat: gocv.NewMat()}, nil
}

// CameraOpener adapts OpenCamera to capture.Opener.
func CameraOpener(cfg CameraConfig) capture.Opener {
	return func() (capture.Source, error) {
		return OpenCamera(cfg)
	}
}

// Read implements capture.Source. Every call returns a freshly allocated frame.
func (c *Camera) Read() (*image.RGBA, error) {
	if ok := c.vc.Read(&c.mat); !ok {
		return nil, fmt.Errorf("camera read failed")
	}
	if c.mat.Empty() {
		return nil, capture.ErrNoFrame
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

// Close implements capture.Source.
func (c *Camera) Close() error {
	c.mat.Close()
	return c.vc.Close()
}

var _ capture.Source = (*Camera)(nil)
