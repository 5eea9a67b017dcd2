package reps

import "strings"

// Exercise describes which joint drives a counter. Vertex is the joint the angle is measured at;
// A and C are its neighbours. Names are side-less ("hip"); callers pick left_ or right_.
type Exercise struct {
	Name   string
	A      string
	Vertex string
	C      string
}

var (
	// Squat tracks the knee: hip - knee - ankle.
	Squat = Exercise{Name: "squat", A: "hip", Vertex: "knee", C: "ankle"}
	// Curl tracks the elbow: shoulder - elbow - wrist.
	Curl = Exercise{Name: "curl", A: "shoulder", Vertex: "elbow", C: "wrist"}
)

// Exercises lists every supported exercise in display order.
var Exercises = []Exercise{Squat, Curl}

// Lookup finds an exercise by name, case-insensitively.
func Lookup(name string) (Exercise, bool) {
	for _, e := range Exercises {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Exercise{}, false
}

// Joints returns the three landmark names for the given side ("left" or "right").
func (e Exercise) Joints(side string) (a, vertex, c string) {
	return side + "_" + e.A, side + "_" + e.Vertex, side + "_" + e.C
}
