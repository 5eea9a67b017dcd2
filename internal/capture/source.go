// Package capture owns the camera device and always hands the pipeline a usable frame.
package capture

import (
	"errors"
	"image"
	"time"

	"github.com/andresmejia3/sightline/internal/hud"
	"github.com/rs/zerolog/log"
)

// Placeholder frame size, used whenever the device cannot deliver.
const (
	PlaceholderWidth  = 640
	PlaceholderHeight = 480
)

// ErrNoFrame is returned by a Source that is open but produced nothing this time.
var ErrNoFrame = errors.New("no frame available")

// Source is a device backend. Read returns a freshly allocated frame the caller may keep.
type Source interface {
	Read() (*image.RGBA, error)
	Close() error
}

// Opener opens a backend. It is retried while the device is unavailable.
type Opener func() (Source, error)

// Camera wraps a Source so that Next never fails: device errors become a placeholder frame.
// The device handle is held until Close, which only happens at process shutdown.
// Camera is not safe for concurrent use; the pipeline serializes reads.
type Camera struct {
	open       Opener
	src        Source
	retryEvery time.Duration
	lastOpen   time.Time
	failing    bool
	failures   uint64
	now        func() time.Time

	placeholder *image.RGBA
}

// Option tweaks a Camera.
type Option func(*Camera)

// WithRetryInterval sets how often a missing device is re-opened.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Camera) { c.retryEvery = d }
}

// WithClock injects the clock used for the reopen schedule.
func WithClock(now func() time.Time) Option {
	return func(c *Camera) { c.now = now }
}

// NewCamera opens the device once. Failure is not an error here: Next serves placeholders and
// keeps trying to open the device every retry interval.
func NewCamera(open Opener, opts ...Option) *Camera {
	c := &Camera{
		open:        open,
		retryEvery:  2 * time.Second,
		now:         time.Now,
		placeholder: Placeholder(PlaceholderWidth, PlaceholderHeight),
	}
	for _, o := range opts {
		o(c)
	}
	c.tryOpen()
	return c
}

func (c *Camera) tryOpen() {
	c.lastOpen = c.now()
	src, err := c.open()
	if err != nil {
		c.markFailing(err)
		return
	}
	c.src = src
}

// Next returns the next camera frame, or a placeholder when the device is unavailable.
func (c *Camera) Next() *image.RGBA {
	if c.src == nil && c.now().Sub(c.lastOpen) >= c.retryEvery {
		c.tryOpen()
	}
	if c.src == nil {
		return hud.Clone(c.placeholder)
	}

	frame, err := c.src.Read()
	if err != nil || frame == nil {
		if err == nil {
			err = ErrNoFrame
		}
		c.markFailing(err)
		if !errors.Is(err, ErrNoFrame) {
			// The backend is broken (process died, device unplugged); reopen on schedule
			c.src.Close()
			c.src = nil
		}
		return hud.Clone(c.placeholder)
	}

	if c.failing {
		log.Info().Uint64("failed_reads", c.failures).Msg("camera recovered")
		c.failing = false
		c.failures = 0
	}
	return frame
}

func (c *Camera) markFailing(err error) {
	c.failures++
	if !c.failing {
		log.Warn().Err(err).Msg("camera not available, serving placeholder frames")
		c.failing = true
	}
}

// Available reports whether the last read came from the device.
func (c *Camera) Available() bool { return !c.failing && c.src != nil }

// Close releases the device.
func (c *Camera) Close() error {
	if c.src == nil {
		return nil
	}
	err := c.src.Close()
	c.src = nil
	return err
}

// Placeholder renders the "camera not available" frame.
func Placeholder(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	hud.Badge(img, "Camera not available", image.Pt(width/2-120, height/2), hud.ColorAlert)
	return img
}
