package hud

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func blackFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func anyBright(img *image.RGBA, r image.Rectangle) bool {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y).R > 200 {
				return true
			}
		}
	}
	return false
}

func TestDrawDoesNotMutateInput(t *testing.T) {
	in := blackFrame(640, 480)
	before := bytes.Clone(in.Pix)

	out := Draw(in, "emotion", 29.97)

	if !bytes.Equal(in.Pix, before) {
		t.Fatal("Draw mutated its input frame")
	}
	if out == in {
		t.Fatal("Draw returned the input buffer")
	}
	if out.Bounds() != in.Bounds() {
		t.Errorf("bounds = %v, want %v", out.Bounds(), in.Bounds())
	}
}

func TestDrawPanelAndText(t *testing.T) {
	out := Draw(blackFrame(640, 480), "exercise", 12.34)

	// Inside the panel, away from the text: white blended at 15% over black
	p := out.RGBAAt(370, 130)
	if p.R < 25 || p.R > 50 || p.R != p.G || p.G != p.B {
		t.Errorf("panel pixel = %v, want light gray around 38", p)
	}

	// Outside the panel stays black
	if q := out.RGBAAt(500, 400); q.R != 0 || q.G != 0 || q.B != 0 {
		t.Errorf("pixel outside panel = %v, want black", q)
	}

	if !anyBright(out, image.Rect(ModeOrigin.X, ModeOrigin.Y-22, 360, ModeOrigin.Y+4)) {
		t.Error("no mode text drawn")
	}
	if !anyBright(out, image.Rect(FPSOrigin.X, FPSOrigin.Y-22, 360, FPSOrigin.Y+4)) {
		t.Error("no fps text drawn")
	}
}

func TestBadgeDrawsInPlace(t *testing.T) {
	frame := blackFrame(640, 480)
	Badge(frame, "Unknown mode", BadgeOrigin, ColorAlert)

	if !anyBright(frame, image.Rect(BadgeOrigin.X, BadgeOrigin.Y-18, 300, BadgeOrigin.Y+4)) {
		t.Error("badge text not drawn")
	}
}

func TestBoxClipsAndDraws(t *testing.T) {
	frame := blackFrame(200, 100)
	Box(frame, image.Rect(50, 40, 120, 90), "cup 0.91", color.RGBA{R: 255, A: 255})

	if p := frame.RGBAAt(50, 65); p.R < 128 {
		t.Errorf("left edge pixel = %v, want red stroke", p)
	}

	// Entirely outside: no panic, no change
	clean := blackFrame(200, 100)
	Box(clean, image.Rect(300, 300, 400, 400), "x", ColorBox)
	if !bytes.Equal(clean.Pix, blackFrame(200, 100).Pix) {
		t.Error("Box outside bounds modified the frame")
	}
}
