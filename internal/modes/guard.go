package modes

import (
	"fmt"
	"image"
	"time"

	"github.com/andresmejia3/sightline/internal/hud"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// frameSampler limits per-frame collaborator failures, which can repeat at camera rate.
var frameSampler = &zerolog.BurstSampler{Burst: 5, Period: time.Minute}

func frameLog() zerolog.Logger {
	return log.Sample(frameSampler)
}

// Badge texts shared by the processors.
const (
	msgNoPose   = "Pose not detected"
	msgNoSign   = "No sign detected"
	msgUnknown  = "Unknown mode"
	lineSpacing = 32
)

func unavailable(frame *image.RGBA, what string) *image.RGBA {
	hud.Badge(frame, what+" unavailable", hud.BadgeOrigin, hud.ColorAlert)
	return frame
}

func failed(frame *image.RGBA, mode Mode, err error) *image.RGBA {
	l := frameLog()
	l.Warn().Err(err).Str("mode", mode.String()).Msg("collaborator failed on frame")
	hud.Badge(frame, mode.String()+" error", hud.BadgeOrigin, hud.ColorAlert)
	return frame
}

func badge(frame *image.RGBA, text string) *image.RGBA {
	hud.Badge(frame, text, hud.BadgeOrigin, hud.ColorOK)
	return frame
}

// line returns the badge origin of the i-th stacked line.
func line(i int) image.Point {
	return hud.BadgeOrigin.Add(image.Pt(0, i*lineSpacing))
}

// Guard keeps a panicking processor from taking the stream down. The frame that panicked
// is returned with an error badge; processor state is left as the panic found it.
func Guard(mode Mode, p Processor) Processor {
	return ProcessorFunc(func(frame *image.RGBA) (out *image.RGBA) {
		defer func() {
			if r := recover(); r != nil {
				out = failed(frame, mode, fmt.Errorf("panic: %v", r))
			}
		}()
		out = p.Annotate(frame)
		if out == nil {
			out = frame
		}
		return out
	})
}

// UnknownMode passes the frame through with an "Unknown mode" badge.
func UnknownMode(frame *image.RGBA) *image.RGBA {
	hud.Badge(frame, msgUnknown, hud.BadgeOrigin, hud.ColorAlert)
	return frame
}
