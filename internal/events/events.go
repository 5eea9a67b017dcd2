// Package events fans completed reps out to their sinks without ever blocking the frame loop.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RepEvent is emitted once per completed repetition.
type RepEvent struct {
	RunID    string    `json:"run_id"`
	Exercise string    `json:"exercise"`
	Count    int       `json:"count"`
	Angle    float64   `json:"angle"`
	At       time.Time `json:"at"`
}

// Sink receives events on the dispatcher goroutine.
type Sink interface {
	Name() string
	WriteRepEvent(ctx context.Context, ev RepEvent) error
}

// sinkTimeout bounds a single sink write so one slow sink cannot stall the others forever.
const sinkTimeout = 5 * time.Second

// Dispatcher queues events in a bounded buffer and delivers them to every sink in order.
// When the buffer is full the event is dropped and counted.
type Dispatcher struct {
	runID string
	sinks []Sink
	ch    chan RepEvent

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. A buffer below 1 is raised to 1.
func NewDispatcher(buffer int, sinks ...Sink) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	d := &Dispatcher{
		runID: uuid.NewString(),
		sinks: sinks,
		ch:    make(chan RepEvent, buffer),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// RunID identifies this process run in every event it stamps.
func (d *Dispatcher) RunID() string { return d.runID }

// Publish never blocks. It reports whether the event was queued.
func (d *Dispatcher) Publish(ev RepEvent) bool {
	if ev.RunID == "" {
		ev.RunID = d.runID
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return false
	}
	select {
	case d.ch <- ev:
		return true
	default:
		n := d.dropped.Add(1)
		log.Debug().Str("exercise", ev.Exercise).Uint64("dropped_total", n).Msg("rep event dropped, buffer full")
		return false
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.ch {
		for _, s := range d.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			err := s.WriteRepEvent(ctx, ev)
			cancel()
			if err != nil {
				d.failed.Add(1)
				log.Warn().Err(err).Str("sink", s.Name()).Str("exercise", ev.Exercise).Msg("failed to deliver rep event")
			}
		}
		d.delivered.Add(1)
	}
}

// Close stops accepting events and waits for queued ones to be delivered, or for ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Delivered uint64
	Dropped   uint64
	Failed    uint64
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}
