// Package reps counts exercise repetitions from a stream of joint angles.
//
// A Counter is a two-state machine (rest, active) driven by a pair of hysteresis thresholds.
// Starting at rest, an angle below Down moves it to active; from active, an angle above Up moves
// it back to rest and completes one rep. Angles inside [Down, Up] never change the phase, so
// sensor jitter around either threshold cannot produce extra reps.
package reps

import (
	"fmt"
)

// Phase is the position of the tracked joint.
type Phase int

const (
	// PhaseRest is the extended position a rep starts and ends in.
	PhaseRest Phase = iota
	// PhaseActive is the flexed position reached mid-rep.
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseRest:
		return "rest"
	case PhaseActive:
		return "active"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Thresholds is a hysteresis pair in degrees. Down must be strictly less than Up; the gap between
// them is the dead zone.
type Thresholds struct {
	Down float64 `yaml:"down"`
	Up   float64 `yaml:"up"`
}

// Validate reports whether the pair is usable.
func (t Thresholds) Validate() error {
	// Written positively so that NaN fails every check
	if !(t.Down >= 0 && t.Up <= 180) {
		return fmt.Errorf("thresholds must lie within [0, 180], got down=%.1f up=%.1f", t.Down, t.Up)
	}
	if !(t.Down < t.Up) {
		return fmt.Errorf("down threshold (%.1f) must be below up threshold (%.1f)", t.Down, t.Up)
	}
	return nil
}

// Counter holds the (phase, count) state for one exercise. It is not safe for concurrent use;
// the pipeline serializes access.
type Counter struct {
	thresholds Thresholds
	phase      Phase
	count      int
}

// NewCounter returns a counter at rest with a zero count.
func NewCounter(t Thresholds) (*Counter, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Counter{thresholds: t, phase: PhaseRest}, nil
}

// Update feeds one angle sample and reports whether it completed a rep.
func (c *Counter) Update(angle float64) (completed bool) {
	switch c.phase {
	case PhaseRest:
		if angle < c.thresholds.Down {
			c.phase = PhaseActive
		}
	case PhaseActive:
		if angle > c.thresholds.Up {
			c.phase = PhaseRest
			c.count++
			return true
		}
	}
	return false
}

// Reset returns the phase to rest without touching the count. A half-finished rep is discarded.
func (c *Counter) Reset() { c.phase = PhaseRest }

// Phase returns the current phase.
func (c *Counter) Phase() Phase { return c.phase }

// Count returns the number of completed reps.
func (c *Counter) Count() int { return c.count }

// Thresholds returns the configured pair.
func (c *Counter) Thresholds() Thresholds { return c.thresholds }
