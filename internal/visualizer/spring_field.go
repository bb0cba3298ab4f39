package visualizer

import (
	"strings"

	"github.com/charmbracelet/harmonica"

	"github.com/olivier-w/specterm/internal/spectrum"
)

// PeakMeter smooths the per-row peak level with a critically damped spring
// so the meter glides between rows instead of jumping. Only the display is
// smoothed; row levels are never altered.
type PeakMeter struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

// NewPeakMeter creates a meter updated fps times per second.
func NewPeakMeter(fps int) *PeakMeter {
	if fps < 1 {
		fps = 1
	}
	return &PeakMeter{spring: harmonica.NewSpring(harmonica.FPS(fps), 8.5, 1.0)}
}

// Update moves the meter towards the peak of row and returns the new
// position in [0, 1].
func (p *PeakMeter) Update(row *spectrum.Row) float64 {
	target := float64(row.Peak()) / float64(spectrum.NumLevels-1)
	p.pos, p.vel = p.spring.Update(p.pos, p.vel, target)
	return clamp01(p.pos)
}

// Value returns the current meter position in [0, 1].
func (p *PeakMeter) Value() float64 { return clamp01(p.pos) }

// View draws the meter as a bar of the given width.
func (p *PeakMeter) View(width int) string {
	if width < 10 {
		width = 10
	}
	filled := int(p.Value() * float64(width))

	var sb strings.Builder
	color := newANSIState(currentColorProfile())
	for i := range width {
		if i < filled {
			color.set(&sb, heatColor(float64(i)/float64(width)))
			sb.WriteRune('█')
			continue
		}
		color.reset(&sb)
		sb.WriteRune('─')
	}
	color.reset(&sb)
	return sb.String()
}
