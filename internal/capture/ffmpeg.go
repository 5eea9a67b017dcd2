package capture

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/andresmejia3/sightline/internal/utils"
)

// FFmpegSource decodes a capture device through an ffmpeg child process emitting raw RGBA.
type FFmpegSource struct {
	cmd    *utils.SafeCommand
	out    io.ReadCloser
	width  int
	height int
}

// FFmpegConfig selects the device and output geometry.
type FFmpegConfig struct {
	InputFormat string
	Device      string
	Width       int
	Height      int
	FPS         int
}

// OpenFFmpeg starts ffmpeg on the device.
func OpenFFmpeg(ctx context.Context, cfg FFmpegConfig) (*FFmpegSource, error) {
	cmd := utils.NewFFmpegCaptureCmd(ctx, cfg.InputFormat, cfg.Device, cfg.Width, cfg.Height, cfg.FPS)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return newFFmpegSource(cmd, out, cfg.Width, cfg.Height), nil
}

func newFFmpegSource(cmd *utils.SafeCommand, out io.ReadCloser, width, height int) *FFmpegSource {
	return &FFmpegSource{cmd: cmd, out: out, width: width, height: height}
}

// FFmpegOpener adapts OpenFFmpeg for Camera.
func FFmpegOpener(ctx context.Context, cfg FFmpegConfig) Opener {
	return func() (Source, error) {
		return OpenFFmpeg(ctx, cfg)
	}
}

// Read blocks until one whole frame has been decoded.
func (s *FFmpegSource) Read() (*image.RGBA, error) {
	// Fresh buffer per frame: frames already handed downstream must never be overwritten
	buf := make([]byte, s.width*s.height*4)
	if _, err := io.ReadFull(s.out, buf); err != nil {
		if s.cmd != nil && s.cmd.Stderr.Len() > 0 {
			return nil, fmt.Errorf("ffmpeg read failed: %w (%s)", err, s.cmd.Stderr.String())
		}
		return nil, fmt.Errorf("ffmpeg read failed: %w", err)
	}

	// Zero-Copy: Wrap the raw bytes in an image.RGBA struct
	return &image.RGBA{
		Pix:    buf,
		Stride: s.width * 4,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}, nil
}

// Close stops ffmpeg and reaps it.
func (s *FFmpegSource) Close() error {
	s.out.Close()
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	s.cmd.Process.Kill()
	s.cmd.Wait()
	return nil
}
