package visualizer

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/specterm/internal/spectrum"
)

// LineMode selects how consecutive rows share the terminal.
type LineMode string

const (
	// LineScroll ends every row with a newline so rows scroll upwards.
	LineScroll LineMode = "scroll"
	// LineInplace rewrites a single line by returning the cursor first.
	LineInplace LineMode = "inplace"
)

const (
	clearScreen   = "\x1b[H\x1b[2J"
	detectedSound = "detected sound..."
)

var eventStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FF8C00"})

// EventBanner returns the styled message shown in place of an event row.
func EventBanner() string { return eventStyle.Render(detectedSound) }

// LineRenderer writes rows as plain glyph lines and flushes after each one.
type LineRenderer struct {
	w    *bufio.Writer
	mode LineMode
	buf  []byte
}

// NewLineRenderer writes to w in the given mode.
func NewLineRenderer(w io.Writer, mode LineMode) *LineRenderer {
	if mode != LineInplace {
		mode = LineScroll
	}
	return &LineRenderer{
		w:    bufio.NewWriter(w),
		mode: mode,
	}
}

// Render writes row. An event row clears the screen and prints the
// detection message instead of the glyphs.
func (r *LineRenderer) Render(row *spectrum.Row) error {
	if row.Event {
		if _, err := fmt.Fprintf(r.w, "%s\n%s\n", clearScreen, eventStyle.Render(detectedSound)); err != nil {
			return err
		}
		return r.w.Flush()
	}

	r.buf = r.buf[:0]
	if r.mode == LineInplace {
		r.buf = append(r.buf, '\r')
	}
	for _, l := range row.Levels {
		r.buf = utf8.AppendRune(r.buf, Glyph(l))
	}
	if r.mode == LineScroll {
		r.buf = append(r.buf, '\n')
	}
	if _, err := r.w.Write(r.buf); err != nil {
		return err
	}
	return r.w.Flush()
}

// Finish ends an in-place line so later output starts on a fresh line.
func (r *LineRenderer) Finish() error {
	if r.mode != LineInplace {
		return nil
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	return r.w.Flush()
}
