package utils

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestSplitJpeg(t *testing.T) {
	// Construct a stream containing: [Garbage] [JPEG] [Garbage]
	// SOI (Start of Image): FF D8
	// EOI (End of Image):   FF D9

	jpegData := []byte{0xFF, 0xD8, 0x01, 0x02, 0x03, 0xFF, 0xD9}

	streamData := []byte{0x00, 0x00} // Garbage at start
	streamData = append(streamData, jpegData...)
	streamData = append(streamData, []byte{0x00, 0x00}...) // Garbage at end

	scanner := bufio.NewScanner(bytes.NewReader(streamData))
	scanner.Split(SplitJpeg)

	// Scan() should skip the first garbage bytes and find the JPEG
	if !scanner.Scan() {
		t.Fatal("Expected to find a token, got EOF")
	}

	if !bytes.Equal(scanner.Bytes(), jpegData) {
		t.Errorf("Expected %X, got %X", jpegData, scanner.Bytes())
	}

	// Scan() again should return false (EOF) because the trailing garbage is not a JPEG
	if scanner.Scan() {
		t.Error("Expected only one token, found more")
	}
}

func TestNewFFmpegCaptureCmd(t *testing.T) {
	cmd := NewFFmpegCaptureCmd(context.Background(), "v4l2", "/dev/video0", 640, 480, 30)

	want := []string{"-f", "v4l2", "-framerate", "30", "-video_size", "640x480", "-i", "/dev/video0"}
	for i := 0; i+1 < len(want); i += 2 {
		idx := slices.Index(cmd.Args, want[i+1])
		if idx < 1 || cmd.Args[idx-1] != want[i] {
			t.Errorf("expected %s %s in args %v", want[i], want[i+1], cmd.Args)
		}
	}
	if cmd.Args[len(cmd.Args)-1] != "-" {
		t.Errorf("expected output to stdout, got %v", cmd.Args)
	}
	if cmd.Cmd.Stderr != cmd.Stderr {
		t.Error("stderr not captured")
	}
}

func TestNewFFmpegFileCmd(t *testing.T) {
	cmd := NewFFmpegFileCmd(context.Background(), "demo.mp4", 320, 240)

	for _, pair := range [][2]string{{"-i", "demo.mp4"}, {"-stream_loop", "-1"}, {"-f", "image2pipe"}, {"-vf", "scale=320:240"}} {
		idx := slices.Index(cmd.Args, pair[1])
		if idx < 1 || cmd.Args[idx-1] != pair[0] {
			t.Errorf("expected %s %s in args %v", pair[0], pair[1], cmd.Args)
		}
	}
}

func TestWriteErrorIncludesChildLogs(t *testing.T) {
	cmd := NewSafeCommand(context.Background(), "ffmpeg")
	cmd.Stderr.WriteString("/dev/video0: No such file or directory")

	var buf bytes.Buffer
	WriteError(&buf, "camera failed", errors.New("exit status 1"), cmd)
	out := buf.String()
	for _, want := range []string{"SIGHTLINE ERROR: camera failed", "DETAILS: exit status 1", "CHILD PROCESS LOGS", "No such file"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	WriteError(&buf, "command failed", errors.New("boom"), nil)
	if strings.Contains(buf.String(), "CHILD PROCESS LOGS") {
		t.Error("no command, no child logs section")
	}
}
