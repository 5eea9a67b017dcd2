package modes

import (
	"fmt"
	"image"

	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/hud"
)

// AlphabetProcessor shows the hand-sign letter currently held up.
type AlphabetProcessor struct {
	signs         detect.SignRecognizer
	minConfidence float64
}

// NewAlphabet returns the alphabet processor. Signs below minConfidence (0-100) are ignored.
func NewAlphabet(signs detect.SignRecognizer, minConfidence float64) *AlphabetProcessor {
	return &AlphabetProcessor{signs: signs, minConfidence: minConfidence}
}

// Annotate implements Processor.
func (p *AlphabetProcessor) Annotate(frame *image.RGBA) *image.RGBA {
	if p.signs == nil {
		return unavailable(frame, "Sign recognition")
	}
	sign, ok, err := p.signs.RecognizeSign(frame)
	if err != nil {
		return failed(frame, Alphabet, err)
	}
	if !ok || sign.Symbol == "" || sign.Confidence < p.minConfidence {
		return badge(frame, msgNoSign)
	}
	if !sign.Box.Empty() {
		hud.Box(frame, sign.Box, "", hud.ColorBox)
	}
	return badge(frame, fmt.Sprintf("Sign: %s (%.0f%%)", sign.Symbol, sign.Confidence))
}
