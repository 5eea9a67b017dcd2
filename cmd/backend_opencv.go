//go:build !noopencv

package cmd

import (
	"github.com/andresmejia3/sightline/internal/capture"
	"github.com/andresmejia3/sightline/internal/config"
	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/opencv"
)

func openCVCamera(c config.CameraConfig) capture.Opener {
	return opencv.CameraOpener(opencv.CameraConfig{Index: c.Index, Width: c.Width, Height: c.Height, FPS: c.FPS})
}

func newObjectDetector(c config.ObjectConfig) (detect.ObjectDetector, func(), error) {
	d, err := opencv.NewObjectDetector(opencv.DetectorConfig{
		Model:  c.Model,
		Config: c.Config,
		Labels: c.Labels,
	})
	if err != nil {
		return nil, nil, err
	}
	return d, func() { d.Close() }, nil
}
