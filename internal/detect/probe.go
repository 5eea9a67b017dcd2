package detect

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Collaborator names, as shown by the probe report and the logs.
const (
	NameFaces   = "emotion"
	NamePose    = "pose"
	NameSigns   = "alphabet"
	NameObjects = "object"
)

// Candidates are the constructors tried by Probe. A nil constructor means "not configured".
type Candidates struct {
	Faces   func() (FaceClassifier, error)
	Pose    func() (PoseExtractor, error)
	Signs   func() (SignRecognizer, error)
	Objects func() (ObjectDetector, error)
}

// Availability is one line of the probe report.
type Availability struct {
	Name      string
	Available bool
	Reason    string
}

// Collaborators is the immutable outcome of the probe. A nil member is unavailable and stays
// that way for the life of the process.
type Collaborators struct {
	Faces   FaceClassifier
	Pose    PoseExtractor
	Signs   SignRecognizer
	Objects ObjectDetector

	Report []Availability
}

// Probe runs every constructor once, logging each unavailable collaborator a single time.
// A constructor that panics (cgo libraries missing models, etc.) counts as unavailable.
func Probe(c Candidates) *Collaborators {
	out := &Collaborators{}
	out.Faces = try(out, NameFaces, c.Faces)
	out.Pose = try(out, NamePose, c.Pose)
	out.Signs = try(out, NameSigns, c.Signs)
	out.Objects = try(out, NameObjects, c.Objects)
	return out
}

func try[T any](out *Collaborators, name string, build func() (T, error)) (got T) {
	var zero T
	report := Availability{Name: name}
	defer func() {
		if r := recover(); r != nil {
			report.Available = false
			report.Reason = fmt.Sprintf("panic: %v", r)
			got = zero
		}
		if !report.Available {
			log.Warn().Str("collaborator", name).Str("reason", report.Reason).Msg("collaborator unavailable, mode will render a badge")
		} else {
			log.Info().Str("collaborator", name).Msg("collaborator ready")
		}
		out.Report = append(out.Report, report)
	}()

	if build == nil {
		report.Reason = "not configured"
		return zero
	}
	v, err := build()
	if err != nil {
		report.Reason = err.Error()
		return zero
	}
	report.Available = true
	return v
}

// Available reports whether the named collaborator passed the probe.
func (c *Collaborators) Available(name string) bool {
	for _, a := range c.Report {
		if a.Name == name {
			return a.Available
		}
	}
	return false
}
