package worker

import (
	"context"
	"errors"
	"sync"
)

// Engine owns one PythonWorker, starting it lazily and restarting it after a pipe failure.
type Engine struct {
	Name  string
	spawn func() (*PythonWorker, error)

	mu     sync.Mutex
	w      *PythonWorker
	closed bool
}

// NewEngine describes an engine without starting it.
func NewEngine(ctx context.Context, name, python, script string, args ...string) *Engine {
	return NewEngineFunc(name, func() (*PythonWorker, error) {
		return NewPythonWorker(ctx, 0, python, script, args...)
	})
}

// NewEngineFunc builds an engine around a custom spawn function.
func NewEngineFunc(name string, spawn func() (*PythonWorker, error)) *Engine {
	return &Engine{Name: name, spawn: spawn}
}

func (e *Engine) ensure() error {
	if e.closed {
		return ErrNotStarted
	}
	if e.w != nil {
		return nil
	}
	w, err := e.spawn()
	if err != nil {
		return err
	}
	e.w = w
	return nil
}

// Ping starts the engine if needed and checks it answers.
func (e *Engine) Ping() error {
	return e.Request(nil, nil)
}

// Request forwards to the worker, restarting it on the next call if the pipe broke.
func (e *Engine) Request(data []byte, out any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensure(); err != nil {
		return err
	}
	err := e.w.Request(data, out)
	var te *TransportError
	if errors.As(err, &te) {
		e.w.Close()
		e.w = nil
	}
	return err
}

// Close stops the worker process. Further requests fail with ErrNotStarted.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.w != nil {
		e.w.Close()
		e.w = nil
	}
}
