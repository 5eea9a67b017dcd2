// Package worker talks to the Python detector engines.
//
// Protocol, one request at a time:
//
//	Go -> stdin : [uint32 BE length][payload]   (payload is a JPEG; length 0 is a ping)
//	FD 3 -> Go  : [uint32 BE length][JSON]      (result object, or {"error": "..."})
package worker

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/andresmejia3/sightline/internal/types"
	"github.com/andresmejia3/sightline/internal/utils" // Using the SafeCommand wrapper
)

// maxResponse guards against a corrupted length header allocating gigabytes.
const maxResponse = 64 << 20

// ErrNotStarted is returned by an Engine that was closed or never configured.
var ErrNotStarted = errors.New("engine not started")

type PythonWorker struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser
}

// NewPythonWorker starts `python -u script args...` with a side-channel result pipe.
func NewPythonWorker(ctx context.Context, id int, python, script string, args ...string) (*PythonWorker, error) {
	py := utils.NewSafeCommand(ctx, python, append([]string{"-u", script}, args...)...)

	// Create a side-channel pipe (FD 3) for clean data transfer
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	// Pass the write-end to the child process. It will appear as FD 3.
	py.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := py.StdinPipe()
	if err != nil {
		w.Close() // Prevent FD leak
		r.Close() // Close read-end too!
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := py.Start(); err != nil {
		w.Close() // Close write end if start fails
		r.Close() // Close read-end too!
		return nil, fmt.Errorf("worker %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	return &PythonWorker{
		ID:       id,
		Cmd:      py,
		Stdin:    stdin,
		DataPipe: r,
	}, nil
}

// Communicate sends one framed request and returns the raw framed response body.
func (w *PythonWorker) Communicate(data []byte) ([]byte, error) {
	// Protocol: [Length][Data]
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(data))); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if _, err := w.Stdin.Write(data); err != nil {
			return nil, err
		}
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(w.DataPipe, header); err != nil {
		return nil, err // This is where we catch the "ModuleNotFoundError" crash
	}

	respLen := binary.BigEndian.Uint32(header)
	if respLen > maxResponse {
		return nil, fmt.Errorf("response too large: %d bytes", respLen)
	}
	respBody := make([]byte, respLen)
	_, err := io.ReadFull(w.DataPipe, respBody)
	return respBody, err
}

// Request sends data and decodes the JSON response into out.
// A Python error object comes back as an error; the worker itself stays usable.
func (w *PythonWorker) Request(data []byte, out any) error {
	resp, err := w.Communicate(data)
	if err != nil {
		return &TransportError{Err: err}
	}

	var errorResult types.ErrorResult
	if json.Unmarshal(resp, &errorResult) == nil && errorResult.Error != "" {
		return fmt.Errorf("python worker error: %s", errorResult.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("malformed worker response: %w", err)
	}
	return nil
}

func (w *PythonWorker) Close() {
	w.Stdin.Close()
	w.DataPipe.Close()
	if w.Cmd != nil {
		w.Cmd.Wait()
	}
}

// TransportError means the pipe broke; the process is gone or wedged and must be restarted.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "worker pipe failed: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }
