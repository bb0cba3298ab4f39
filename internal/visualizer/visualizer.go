// Package visualizer turns quantized spectrum rows into terminal output and
// moves them off the capture thread.
package visualizer

import (
	"context"
	"time"

	"github.com/olivier-w/specterm/internal/spectrum"
)

// Renderer draws one completed row.
type Renderer interface {
	Render(row *spectrum.Row) error
}

// glyphs is the block-height ramp for L0 through L7.
var glyphs = [spectrum.NumLevels]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Glyph returns the block character for a graduated level. The event
// sentinel and out-of-range values render as the lowest block.
func Glyph(l spectrum.Level) rune {
	if l < spectrum.L0 || l > spectrum.L7 {
		return glyphs[0]
	}
	return glyphs[l]
}

// FormatRow returns the glyph line for a row's levels.
func FormatRow(levels []spectrum.Level) string {
	out := make([]rune, len(levels))
	for i, l := range levels {
		out[i] = Glyph(l)
	}
	return string(out)
}

// Pump polls slot every interval and renders each new row until ctx is
// done. Polling keeps the producer side free of channel operations.
func Pump(ctx context.Context, slot *Slot[spectrum.Row], r Renderer, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if row, ok := slot.Take(); ok {
				if err := r.Render(row); err != nil {
					return err
				}
			}
			return nil
		case <-ticker.C:
			row, ok := slot.Take()
			if !ok {
				continue
			}
			if err := r.Render(row); err != nil {
				return err
			}
		}
	}
}
