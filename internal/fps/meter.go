// Package fps measures the instantaneous frame rate of the pipeline.
package fps

import "time"

// Meter derives frames-per-second from the wall-clock gap between successive ticks.
// There is no smoothing: each tick replaces the previous value.
type Meter struct {
	now  func() time.Time
	last time.Time
	fps  float64
}

// NewMeter starts a meter using the real clock.
func NewMeter() *Meter {
	return NewMeterWithClock(time.Now)
}

// NewMeterWithClock starts a meter with an injected clock (tests, replay).
func NewMeterWithClock(now func() time.Time) *Meter {
	return &Meter{now: now, last: now()}
}

// Tick records a frame and returns the updated rate. A zero or negative gap yields 0.
func (m *Meter) Tick() float64 {
	t := m.now()
	dt := t.Sub(m.last).Seconds()
	m.last = t
	if dt > 0 {
		m.fps = 1.0 / dt
	} else {
		m.fps = 0
	}
	return m.fps
}

// FPS returns the value computed by the last Tick.
func (m *Meter) FPS() float64 { return m.fps }
