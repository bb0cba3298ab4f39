package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/olivier-w/specterm/internal/capture"
)

func renderProgressBar(elapsed, total float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2

	var ratio float64
	if total > 0 {
		ratio = elapsed / total
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

func renderStats(st capture.Stats) string {
	s := fmt.Sprintf("rows %d  dropped %d  events %d", st.Frames, st.Dropped, st.Events)
	if st.Overflows > 0 {
		s += fmt.Sprintf("  overflows %d", st.Overflows)
	}
	if st.MaxCallback > 0 {
		s += fmt.Sprintf("  max callback %s", st.MaxCallback.Round(time.Microsecond))
	}
	return s
}
