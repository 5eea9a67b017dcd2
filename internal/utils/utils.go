package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// --- 1. Process Safety & Command Wrapping ---

// SafeCommand wraps a standard exec.Cmd with a buffer to catch Stderr (ffmpeg and Python logs)
// This ensures we don't lose critical crash information if a child process dies.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

// NewSafeCommand initializes a command and attaches a buffer to its Stderr pipe
// It prepares the command for execution but does not start it.
func NewSafeCommand(ctx context.Context, name string, args ...string) *SafeCommand {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// ShowError prints a formatted error box and dumps child process logs if a SafeCommand is provided.
// Unlike Die it returns.
func ShowError(context string, err error, s *SafeCommand) {
	WriteError(os.Stderr, context, err, s)
}

// WriteError renders the error box to w.
func WriteError(w io.Writer, context string, err error, s *SafeCommand) {
	fmt.Fprintf(w, "\n---------------------------------------------------------\n")
	fmt.Fprintf(w, "🚨 SIGHTLINE ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(w, "DETAILS: %v\n", err)
	}

	// If we have a SafeCommand and it captured logs, print them.
	if s != nil && s.Stderr.Len() > 0 {
		fmt.Fprintf(w, "\nCHILD PROCESS LOGS:\n%s\n", s.Stderr.String())
	}
	fmt.Fprintf(w, "---------------------------------------------------------\n")
}

// Die is the unified exit strategy for unrecoverable startup failures.
func Die(context string, err error, s *SafeCommand) {
	ShowError(context, err, s)
	os.Exit(1)
}

// --- 2. Video Engine ---

var (
	JpegSOI = []byte{0xFF, 0xD8} // Start of Image
	JpegEOI = []byte{0xFF, 0xD9} // End of Image
)

// SplitJpeg is the custom splitter for bufio.Scanner
// It locates the Start Of Image (FFD8) and End Of Image (FFD9) markers to extract full JPEG frames.
func SplitJpeg(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := bytes.Index(data, JpegSOI)
	if start == -1 {
		return 0, nil, nil
	}
	end := bytes.Index(data[start:], JpegEOI)
	if end == -1 {
		return 0, nil, nil
	}
	return start + end + 2, data[start : start+end+2], nil
}

// NewFFmpegCaptureCmd opens a capture device and emits raw RGBA frames of the requested size on
// Stdout. inputFormat is the ffmpeg demuxer for the platform (v4l2, avfoundation, dshow).
func NewFFmpegCaptureCmd(ctx context.Context, inputFormat, device string, width, height, fps int) *SafeCommand {
	// -loglevel error keeps the stderr buffer small on long-running captures
	return NewSafeCommand(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", inputFormat,
		"-framerate", strconv.Itoa(fps),
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-i", device,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-f", "rawvideo", "-pix_fmt", "rgba", "-")
}

// NewFFmpegFileCmd plays a video file at its native rate, looping forever, and emits a stream of
// concatenated JPEGs on Stdout (split them with SplitJpeg).
func NewFFmpegFileCmd(ctx context.Context, path string, width, height int) *SafeCommand {
	return NewSafeCommand(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-re", "-stream_loop", "-1",
		"-i", path,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-f", "image2pipe", "-vcodec", "mjpeg", "-q:v", "2", "-")
}
