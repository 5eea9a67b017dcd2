//go:build noopencv

package cmd

import (
	"errors"

	"github.com/andresmejia3/sightline/internal/capture"
	"github.com/andresmejia3/sightline/internal/config"
	"github.com/andresmejia3/sightline/internal/detect"
)

// errNoOpenCV is reported by the OpenCV-backed pieces of a binary built with -tags noopencv.
var errNoOpenCV = errors.New("built without OpenCV (noopencv tag)")

// openCVCamera keeps the camera in placeholder mode; the device is never opened.
func openCVCamera(config.CameraConfig) capture.Opener {
	return func() (capture.Source, error) { return nil, errNoOpenCV }
}

func newObjectDetector(config.ObjectConfig) (detect.ObjectDetector, func(), error) {
	return nil, nil, errNoOpenCV
}
