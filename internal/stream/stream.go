// Package stream writes the never-ending multipart JPEG sequence served on /video_feed.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"time"

	"github.com/andresmejia3/sightline/internal/modes"
	"github.com/rs/zerolog/log"
)

// Boundary separates the JPEG parts.
const Boundary = "frame"

// ContentType is the response content type for a stream.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// DefaultQuality is the JPEG quality of streamed parts.
const DefaultQuality = 80

// Producer renders the next annotated frame for a mode.
type Producer interface {
	Produce(sel modes.Selection) *image.RGBA
}

// Multiplexer turns produced frames into multipart parts for one or more sessions.
type Multiplexer struct {
	producer    Producer
	quality     int
	minInterval time.Duration
	encode      func(w io.Writer, img image.Image, quality int) error
}

// Option tweaks a Multiplexer.
type Option func(*Multiplexer)

// WithQuality sets the JPEG quality (1-100).
func WithQuality(q int) Option {
	return func(m *Multiplexer) {
		if q >= 1 && q <= 100 {
			m.quality = q
		}
	}
}

// WithMaxFPS caps how often a single session produces a frame. Zero means uncapped.
func WithMaxFPS(n int) Option {
	return func(m *Multiplexer) {
		if n > 0 {
			m.minInterval = time.Second / time.Duration(n)
		}
	}
}

// New builds a multiplexer over p.
func New(p Producer, opts ...Option) *Multiplexer {
	m := &Multiplexer{
		producer: p,
		quality:  DefaultQuality,
		encode: func(w io.Writer, img image.Image, q int) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
		},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

type flusher interface{ Flush() }

// Stream writes parts to w until ctx is done or a write fails. Both are normal session ends,
// so Stream returns nil for them. A frame that fails to encode is skipped.
func (m *Multiplexer) Stream(ctx context.Context, w io.Writer, sel modes.Selection) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(Boundary); err != nil {
		return fmt.Errorf("set boundary: %w", err)
	}
	f, _ := w.(flusher)

	var buf bytes.Buffer
	var parts, skipped uint64
	logger := log.With().Str("mode", sel.Mode.String()).Logger()
	defer func() {
		logger.Debug().Uint64("parts", parts).Uint64("skipped", skipped).Msg("stream ended")
	}()

	var last time.Time
	for {
		if ctx.Err() != nil {
			return nil
		}
		if m.minInterval > 0 {
			if wait := m.minInterval - time.Since(last); wait > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(wait):
				}
			}
			last = time.Now()
		}

		frame := m.producer.Produce(sel)

		buf.Reset()
		if err := m.encode(&buf, frame, m.quality); err != nil {
			skipped++
			logger.Warn().Err(err).Msg("failed to encode frame, skipping part")
			continue
		}

		if err := writePart(mw, buf.Bytes()); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Debug().Err(err).Msg("client went away")
			}
			return nil
		}
		if f != nil {
			f.Flush()
		}
		parts++
	}
}

func writePart(mw *multipart.Writer, jpg []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", "image/jpeg")
	h.Set("Content-Length", strconv.Itoa(len(jpg)))
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(jpg)
	return err
}
