// Package geometry turns landmark positions into joint angles.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// epsilon keeps the cosine finite when two points coincide.
const epsilon = 1e-6

// JointAngle returns the angle at vertex b, in degrees, between the rays b->a and b->c.
// The result is always within [0, 180]. Coincident points do not fail; they yield a finite angle
// (90 degrees, since the dot product collapses to zero).
func JointAngle(a, b, c r2.Vec) float64 {
	ba := r2.Sub(a, b)
	bc := r2.Sub(c, b)

	cos := r2.Dot(ba, bc) / (r2.Norm(ba)*r2.Norm(bc) + epsilon)
	// Clip floating-point overshoot before acos
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Vec is a small helper for callers holding plain coordinates.
func Vec(x, y float64) r2.Vec {
	return r2.Vec{X: x, Y: y}
}
