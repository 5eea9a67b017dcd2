// Package modes holds the per-mode frame annotators and the mode enum used to pick them.
package modes

import (
	"image"
	"strings"
)

// Mode selects which processor annotates a frame.
type Mode int

const (
	Unknown Mode = iota
	Emotion
	Alphabet
	Exercise
	Object
)

var names = map[Mode]string{
	Unknown:  "unknown",
	Emotion:  "emotion",
	Alphabet: "alphabet",
	Exercise: "exercise",
	Object:   "object",
}

// aliases are accepted on the query string in addition to the canonical names.
var aliases = map[string]Mode{
	"squat": Exercise,
	"curl":  Exercise,
}

// Known lists the selectable modes in display order.
var Known = []Mode{Emotion, Alphabet, Exercise, Object}

func (m Mode) String() string {
	if n, ok := names[m]; ok {
		return n
	}
	return names[Unknown]
}

// ParseMode is case-insensitive. An empty string selects Emotion, anything unrecognized is Unknown.
func ParseMode(s string) Mode {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Emotion
	}
	for m, n := range names {
		if n == s && m != Unknown {
			return m
		}
	}
	if m, ok := aliases[s]; ok {
		return m
	}
	return Unknown
}

// maxLabel bounds how much of a requested name is echoed on the HUD.
const maxLabel = 24

// Selection is a parsed mode request. Label keeps the name as it was requested and is what the
// HUD shows, so an unrecognized mode is displayed the way the viewer typed it.
type Selection struct {
	Mode  Mode
	Label string
}

// Select parses a requested mode name.
func Select(s string) Selection {
	m := ParseMode(s)
	label := strings.TrimSpace(s)
	if label == "" {
		label = m.String()
	}
	if r := []rune(label); len(r) > maxLabel {
		label = string(r[:maxLabel])
	}
	return Selection{Mode: m, Label: label}
}

// Of selects m under its canonical name.
func Of(m Mode) Selection {
	return Selection{Mode: m, Label: m.String()}
}

func (s Selection) String() string {
	if s.Label == "" {
		return s.Mode.String()
	}
	return s.Label
}

// Processor annotates a frame it owns and returns it. State kept between calls belongs to
// the processor; callers serialize access.
type Processor interface {
	Annotate(frame *image.RGBA) *image.RGBA
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(frame *image.RGBA) *image.RGBA

// Annotate implements Processor.
func (f ProcessorFunc) Annotate(frame *image.RGBA) *image.RGBA { return f(frame) }
