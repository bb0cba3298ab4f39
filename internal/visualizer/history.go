package visualizer

import (
	"strings"

	"github.com/olivier-w/specterm/internal/spectrum"
)

// History keeps the most recent rows for a scrolling spectrogram view.
// Row 0 is the oldest; new rows enter at the bottom.
type History struct {
	rows    [][]spectrum.Level
	events  []bool
	filled  int
	profile colorProfile
}

// NewHistory creates an empty history of the given height.
func NewHistory(height int) *History {
	h := &History{profile: currentColorProfile()}
	h.Resize(height)
	return h
}

// Resize changes the number of kept rows, keeping the newest ones.
func (h *History) Resize(height int) {
	if height < 1 {
		height = 1
	}
	if height == len(h.rows) {
		return
	}

	rows := make([][]spectrum.Level, height)
	events := make([]bool, height)
	keep := min(h.filled, height)
	for i := range keep {
		src := len(h.rows) - keep + i
		dst := height - keep + i
		rows[dst] = h.rows[src]
		events[dst] = h.events[src]
	}
	h.rows = rows
	h.events = events
	h.filled = keep
}

// Push appends a copy of row, scrolling the oldest row out.
func (h *History) Push(row *spectrum.Row) {
	height := len(h.rows)
	oldest := h.rows[0]
	copy(h.rows, h.rows[1:])
	copy(h.events, h.events[1:])

	if cap(oldest) < len(row.Levels) {
		oldest = make([]spectrum.Level, len(row.Levels))
	}
	oldest = oldest[:len(row.Levels)]
	copy(oldest, row.Levels)
	h.rows[height-1] = oldest
	h.events[height-1] = row.Event
	if h.filled < height {
		h.filled++
	}
}

// Len returns how many rows hold data.
func (h *History) Len() int { return h.filled }

// View renders the history. Older rows fade towards the background colour.
// Event rows are drawn as a marker line.
func (h *History) View() string {
	var out strings.Builder
	color := newANSIState(h.profile)
	height := len(h.rows)

	for r := range height {
		if r > 0 {
			out.WriteByte('\n')
		}
		if r < height-h.filled {
			continue
		}
		if h.events[r] {
			color.reset(&out)
			out.WriteString(eventStyle.Render(detectedSound))
			continue
		}
		age := float64(height-1-r) / float64(height)
		for _, l := range h.rows[r] {
			if h.profile != colorNone {
				col := lerpColor(levelColor(l), colorRGB{R: 18, G: 22, B: 32}, age*0.65)
				color.set(&out, col)
			}
			out.WriteRune(Glyph(l))
		}
		color.reset(&out)
	}
	return out.String()
}
