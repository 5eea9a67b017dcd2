// Package hud draws the status panel, badges and boxes onto frames.
//
// Draw works on a copy and leaves its input untouched. Badge and Box draw in place and are meant
// for the stage that currently owns the frame.
package hud

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Panel geometry, in pixels.
var (
	PanelRect   = image.Rect(20, 20, 380, 140)
	ModeOrigin  = image.Pt(32, 60)
	FPSOrigin   = image.Pt(32, 100)
	BadgeOrigin = image.Pt(30, 180)
)

// PanelAlpha is the opacity of the white panel blended under the HUD text.
const PanelAlpha = 0.15

// Palette shared by the mode overlays.
var (
	ColorText  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorOK    = color.RGBA{R: 180, G: 255, B: 0, A: 255}
	ColorAlert = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	ColorBox   = color.RGBA{R: 0, G: 200, B: 255, A: 255}
)

var (
	// freetype faces keep glyph caches and are not safe for concurrent use
	mu        sync.Mutex
	fontsOnce sync.Once
	titleFace font.Face
	badgeFace font.Face
)

func loadFonts() {
	fontsOnce.Do(func() {
		titleFace = parseFace(gobold.TTF, 22)
		badgeFace = parseFace(goregular.TTF, 18)
	})
}

func parseFace(ttf []byte, size float64) font.Face {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// Clone returns a deep copy of frame with the same bounds.
func Clone(frame *image.RGBA) *image.RGBA {
	b := frame.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, frame, b.Min, draw.Src)
	return dst
}

// Draw returns a copy of frame with the translucent status panel, the mode name and the frame
// rate. It never fails and never mutates frame.
func Draw(frame *image.RGBA, modeName string, fps float64) *image.RGBA {
	out := Clone(frame)

	loadFonts()
	mu.Lock()
	defer mu.Unlock()

	dc := gg.NewContextForRGBA(out)
	dc.SetRGBA(1, 1, 1, PanelAlpha)
	dc.DrawRectangle(float64(PanelRect.Min.X), float64(PanelRect.Min.Y), float64(PanelRect.Dx()), float64(PanelRect.Dy()))
	dc.Fill()

	dc.SetFontFace(titleFace)
	dc.SetColor(ColorText)
	dc.DrawString("Mode: "+strings.ToUpper(modeName), float64(ModeOrigin.X), float64(ModeOrigin.Y))
	dc.DrawString(fmt.Sprintf("FPS: %.1f", fps), float64(FPSOrigin.X), float64(FPSOrigin.Y))
	return out
}

// Badge writes text at the given baseline origin, in place.
func Badge(frame *image.RGBA, text string, at image.Point, c color.Color) {
	loadFonts()
	mu.Lock()
	defer mu.Unlock()

	dc := gg.NewContextForRGBA(frame)
	dc.SetFontFace(badgeFace)
	dc.SetColor(c)
	dc.DrawString(text, float64(at.X), float64(at.Y))
}

// Box outlines r and writes label just above it, in place. An empty label draws only the box.
func Box(frame *image.RGBA, r image.Rectangle, label string, c color.Color) {
	r = r.Intersect(frame.Bounds())
	if r.Empty() {
		return
	}

	loadFonts()
	mu.Lock()
	defer mu.Unlock()

	dc := gg.NewContextForRGBA(frame)
	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()

	if label == "" {
		return
	}
	y := r.Min.Y - 6
	if y < 16 {
		// No room above the box; write inside it
		y = r.Min.Y + 18
	}
	dc.SetFontFace(badgeFace)
	dc.DrawString(label, float64(r.Min.X), float64(y))
}
