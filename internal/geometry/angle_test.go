package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestJointAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c r2.Vec
		want    float64
	}{
		{"Straight line", Vec(100, 200), Vec(200, 200), Vec(300, 200), 180},
		{"Right angle", Vec(300, 200), Vec(200, 200), Vec(200, 300), 90},
		{"Folded", Vec(300, 200), Vec(200, 200), Vec(400, 200), 0},
		{"Forty five", Vec(300, 200), Vec(200, 200), Vec(300, 300), 45},
		{"Collinear far apart", Vec(0, -300), Vec(0, 10), Vec(0, 480), 180},
	}

	// Landmarks live in pixel space; the epsilon guard costs well under 0.01 degree there
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JointAngle(tt.a, tt.b, tt.c)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("JointAngle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJointAngleTranslationInvariant(t *testing.T) {
	a, b, c := Vec(12, 40), Vec(30, 90), Vec(75, 110)
	base := JointAngle(a, b, c)

	for _, shift := range []r2.Vec{Vec(100, 0), Vec(-50, 250), Vec(0.5, -0.25), Vec(1e4, 1e4)} {
		got := JointAngle(r2.Add(a, shift), r2.Add(b, shift), r2.Add(c, shift))
		if math.Abs(got-base) > 1e-6 {
			t.Errorf("shift %v: angle %v, want %v", shift, got, base)
		}
	}
}

func TestJointAngleDegenerate(t *testing.T) {
	cases := [][3]r2.Vec{
		{Vec(5, 5), Vec(5, 5), Vec(9, 1)},
		{Vec(9, 1), Vec(5, 5), Vec(5, 5)},
		{Vec(5, 5), Vec(5, 5), Vec(5, 5)},
	}
	for _, pts := range cases {
		got := JointAngle(pts[0], pts[1], pts[2])
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("JointAngle(%v) = %v, want finite", pts, got)
		}
		if got < 0 || got > 180 {
			t.Errorf("JointAngle(%v) = %v, outside [0,180]", pts, got)
		}
	}
}
