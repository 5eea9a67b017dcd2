package capture

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"

	"github.com/andresmejia3/sightline/internal/utils"
)

const megabyte = 1024 * 1024

// FileSource replays a video file as if it were a camera. ffmpeg encodes every frame as a JPEG
// and the stream is split on the JPEG markers.
type FileSource struct {
	cmd     *utils.SafeCommand
	out     io.ReadCloser
	scanner *bufio.Scanner
}

// OpenFile starts ffmpeg on path.
func OpenFile(ctx context.Context, path string, width, height int) (*FileSource, error) {
	cmd := utils.NewFFmpegFileCmd(ctx, path, width, height)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return newFileSource(cmd, out), nil
}

func newFileSource(cmd *utils.SafeCommand, out io.ReadCloser) *FileSource {
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, megabyte), 64*megabyte)
	scanner.Split(utils.SplitJpeg)
	return &FileSource{cmd: cmd, out: out, scanner: scanner}
}

// FileOpener adapts OpenFile for Camera.
func FileOpener(ctx context.Context, path string, width, height int) Opener {
	return func() (Source, error) {
		return OpenFile(ctx, path, width, height)
	}
}

// Read decodes the next JPEG from the pipe.
func (s *FileSource) Read() (*image.RGBA, error) {
	if !s.scanner.Scan() {
		err := s.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		if s.cmd != nil && s.cmd.Stderr.Len() > 0 {
			return nil, fmt.Errorf("ffmpeg read failed: %w (%s)", err, s.cmd.Stderr.String())
		}
		return nil, fmt.Errorf("ffmpeg read failed: %w", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(s.scanner.Bytes()))
	if err != nil {
		// A corrupt frame is skipped; the pipe itself is still good
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

// Close stops ffmpeg and reaps it.
func (s *FileSource) Close() error {
	s.out.Close()
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	s.cmd.Process.Kill()
	s.cmd.Wait()
	return nil
}
