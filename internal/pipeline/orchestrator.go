// Package pipeline turns a mode request into an annotated frame.
package pipeline

import (
	"image"
	"sync"

	"github.com/andresmejia3/sightline/internal/fps"
	"github.com/andresmejia3/sightline/internal/hud"
	"github.com/andresmejia3/sightline/internal/modes"
)

// FrameSource yields frames the caller owns. It never fails; see capture.Camera.
type FrameSource interface {
	Next() *image.RGBA
}

// Orchestrator owns the camera, the per-mode processors and the FPS meter.
// Produce is serialized, so concurrent streams take turns frame by frame and share
// processor state (rep counts included) and the FPS reading.
type Orchestrator struct {
	mu         sync.Mutex
	frames     FrameSource
	processors map[modes.Mode]modes.Processor
	meter      *fps.Meter
}

// Option tweaks an Orchestrator.
type Option func(*Orchestrator)

// WithMeter replaces the FPS meter (tests inject a fake clock).
func WithMeter(m *fps.Meter) Option {
	return func(o *Orchestrator) { o.meter = m }
}

// New wires the dispatch table. Every processor is wrapped so that a panic only costs one frame.
func New(frames FrameSource, processors map[modes.Mode]modes.Processor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		frames:     frames,
		processors: make(map[modes.Mode]modes.Processor, len(processors)),
		meter:      fps.NewMeter(),
	}
	for m, p := range processors {
		o.processors[m] = modes.Guard(m, p)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Produce reads one frame, annotates it for the selected mode and draws the HUD on top.
// The HUD shows the requested name.
func (o *Orchestrator) Produce(sel modes.Selection) *image.RGBA {
	o.mu.Lock()
	defer o.mu.Unlock()

	frame := o.frames.Next()
	if p, ok := o.processors[sel.Mode]; ok {
		frame = p.Annotate(frame)
	} else {
		frame = modes.UnknownMode(frame)
	}
	rate := o.meter.Tick()
	return hud.Draw(frame, sel.String(), rate)
}

// FPS returns the most recent frame rate.
func (o *Orchestrator) FPS() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.meter.FPS()
}
