package modes

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/events"
	"github.com/andresmejia3/sightline/internal/geometry"
	"github.com/andresmejia3/sightline/internal/hud"
	"github.com/andresmejia3/sightline/internal/reps"
	"github.com/andresmejia3/sightline/internal/types"
)

// Default rep thresholds, in degrees.
var (
	DefaultSquat = reps.Thresholds{Down: 100, Up: 160}
	DefaultCurl  = reps.Thresholds{Down: 50, Up: 150}
)

// RepPublisher receives an event for every completed rep. It must not block.
type RepPublisher interface {
	Publish(ev events.RepEvent) bool
}

// ExerciseConfig holds per-exercise thresholds keyed by exercise name. MinVisibility is used as
// given: landmarks below it are treated as missing, and 0 accepts every landmark.
type ExerciseConfig struct {
	MinVisibility float64
	Thresholds    map[string]reps.Thresholds
}

// tracker follows one limb per exercise. The side is kept while it stays visible; a different
// side only takes over once the tracked one is lost, and it has to be seen at rest before its
// movements count.
type tracker struct {
	exercise reps.Exercise
	counter  *reps.Counter
	side     string
	armed    bool
	angle    float64
	seen     bool
}

func (t *tracker) update(side string, angle float64) (completed bool) {
	if side != t.side {
		if t.side != "" {
			t.counter.Reset()
			t.armed = false
		}
		t.side = side
	}
	if !t.armed {
		if angle <= t.counter.Thresholds().Up {
			return false
		}
		t.armed = true
	}
	return t.counter.Update(angle)
}

// ExerciseProcessor counts squats and curls from pose landmarks. Counts persist across frames
// and are shared by every viewer of the exercise stream.
type ExerciseProcessor struct {
	pose          detect.PoseExtractor
	minVisibility float64
	trackers      []*tracker
	publisher     RepPublisher
	now           func() time.Time
}

// NewExercise builds one counter per known exercise. Missing thresholds fall back to defaults.
// pub may be nil.
func NewExercise(pose detect.PoseExtractor, cfg ExerciseConfig, pub RepPublisher) (*ExerciseProcessor, error) {
	if v := cfg.MinVisibility; !(v >= 0 && v <= 1) {
		return nil, fmt.Errorf("min visibility must be in [0,1], got %v", v)
	}
	p := &ExerciseProcessor{
		pose:          pose,
		minVisibility: cfg.MinVisibility,
		publisher:     pub,
		now:           time.Now,
	}
	for _, ex := range reps.Exercises {
		t, ok := cfg.Thresholds[ex.Name]
		if !ok {
			t = defaultThresholds(ex.Name)
		}
		c, err := reps.NewCounter(t)
		if err != nil {
			return nil, fmt.Errorf("%s thresholds: %w", ex.Name, err)
		}
		p.trackers = append(p.trackers, &tracker{exercise: ex, counter: c, armed: true})
	}
	return p, nil
}

func defaultThresholds(name string) reps.Thresholds {
	if name == reps.Curl.Name {
		return DefaultCurl
	}
	return DefaultSquat
}

// Count returns the current count for the named exercise.
func (p *ExerciseProcessor) Count(name string) int {
	for _, t := range p.trackers {
		if t.exercise.Name == name {
			return t.counter.Count()
		}
	}
	return 0
}

// Phase returns the current phase for the named exercise.
func (p *ExerciseProcessor) Phase(name string) reps.Phase {
	for _, t := range p.trackers {
		if t.exercise.Name == name {
			return t.counter.Phase()
		}
	}
	return reps.PhaseRest
}

// Annotate implements Processor.
func (p *ExerciseProcessor) Annotate(frame *image.RGBA) *image.RGBA {
	if p.pose == nil {
		return unavailable(frame, "Pose detection")
	}
	pose, err := p.pose.ExtractPose(frame)
	if err != nil {
		return failed(frame, Exercise, err)
	}

	anySeen := false
	for _, t := range p.trackers {
		t.seen = false
		side, a, vertex, c, ok := p.joints(pose, t.exercise, t.side)
		if !ok {
			continue
		}
		t.seen, anySeen = true, true
		t.angle = geometry.JointAngle(geometry.Vec(a.X, a.Y), geometry.Vec(vertex.X, vertex.Y), geometry.Vec(c.X, c.Y))
		if t.update(side, t.angle) && p.publisher != nil {
			p.publisher.Publish(events.RepEvent{
				Exercise: t.exercise.Name,
				Count:    t.counter.Count(),
				Angle:    t.angle,
				At:       p.now(),
			})
		}
		hud.Badge(frame, fmt.Sprintf("%.0f", t.angle), vertex.Point().Add(image.Pt(10, 0)), hud.ColorText)
	}

	row := 0
	if !anySeen {
		badge(frame, msgNoPose)
		row++
	}
	for _, t := range p.trackers {
		text := fmt.Sprintf("%s: %d", title(t.exercise.Name), t.counter.Count())
		if t.seen {
			text += fmt.Sprintf("  angle %.0f", t.angle)
		}
		hud.Badge(frame, text, line(row), hud.ColorOK)
		row++
	}
	return frame
}

// joints returns the landmarks of the preferred side while all three clear the visibility
// threshold. Otherwise it picks the side whose weakest landmark is most visible. ok is false when
// neither side qualifies.
func (p *ExerciseProcessor) joints(pose types.Pose, ex reps.Exercise, preferred string) (side string, a, vertex, c types.Landmark, ok bool) {
	best := -1.0
	for _, s := range []string{"left", "right"} {
		na, nv, nc := ex.Joints(s)
		la, okA := pose[na]
		lv, okV := pose[nv]
		lc, okC := pose[nc]
		if !okA || !okV || !okC {
			continue
		}
		vis := min(la.Visibility, lv.Visibility, lc.Visibility)
		if vis < p.minVisibility {
			continue
		}
		if s == preferred {
			return s, la, lv, lc, true
		}
		if vis <= best {
			continue
		}
		best = vis
		side, a, vertex, c, ok = s, la, lv, lc, true
	}
	return side, a, vertex, c, ok
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
