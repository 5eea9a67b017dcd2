// Package ocr reads single hand-sign letters with Tesseract.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/andresmejia3/sightline/internal/detect"
	"github.com/andresmejia3/sightline/internal/types"
	"github.com/otiai10/gosseract/v2"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Config controls the sign reader.
type Config struct {
	Language      string
	MinConfidence float64 // 0-100, Tesseract scale
	ROIFraction   float64 // share of the shorter frame side read around the center
}

// SignReader implements detect.SignRecognizer.
// A gosseract client is not safe for concurrent use, so calls are serialized.
type SignReader struct {
	mu     sync.Mutex
	client *gosseract.Client
	cfg    Config
}

// NewSignReader creates a Tesseract client restricted to one uppercase letter.
func NewSignReader(cfg Config) (*SignReader, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.ROIFraction == 0 {
		cfg.ROIFraction = 0.6
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(alphabet); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	return &SignReader{client: client, cfg: cfg}, nil
}

// RecognizeSign implements detect.SignRecognizer.
func (r *SignReader) RecognizeSign(frame *image.RGBA) (types.Sign, bool, error) {
	roi := detect.CenterROI(frame.Bounds(), r.cfg.ROIFraction)
	if roi.Empty() {
		return types.Sign{}, false, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.SubImage(roi)); err != nil {
		return types.Sign{}, false, fmt.Errorf("encode sign roi: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return types.Sign{}, false, fmt.Errorf("failed to set OCR image: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return types.Sign{}, false, fmt.Errorf("failed to extract text: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return types.Sign{}, false, fmt.Errorf("failed to get bounding boxes: %w", err)
	}

	sign, ok := pickSymbol(text, boxes, r.cfg.MinConfidence)
	if !ok {
		return types.Sign{}, false, nil
	}
	sign.Box = sign.Box.Add(roi.Min).Intersect(roi)
	if sign.Box.Empty() {
		sign.Box = roi
	}
	return sign, true, nil
}

// Close releases the Tesseract client.
func (r *SignReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}

// pickSymbol chooses the most confident letter. Box coordinates are relative to the ROI.
func pickSymbol(text string, boxes []gosseract.BoundingBox, minConfidence float64) (types.Sign, bool) {
	var best types.Sign
	found := false
	for _, b := range boxes {
		sym := strings.ToUpper(strings.TrimSpace(b.Word))
		if len(sym) != 1 || !strings.Contains(alphabet, sym) {
			continue
		}
		if !found || b.Confidence > best.Confidence {
			best = types.Sign{Symbol: sym, Confidence: b.Confidence, Box: b.Box}
			found = true
		}
	}
	if !found {
		// Some builds return text without symbol boxes.
		sym := strings.ToUpper(strings.TrimSpace(text))
		if len(sym) != 1 || !strings.Contains(alphabet, sym) {
			return types.Sign{}, false
		}
		best = types.Sign{Symbol: sym}
		if minConfidence > 0 {
			return types.Sign{}, false
		}
		return best, true
	}
	if best.Confidence < minConfidence {
		return types.Sign{}, false
	}
	return best, true
}

var _ detect.SignRecognizer = (*SignReader)(nil)
