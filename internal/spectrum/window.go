package spectrum

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWindow reports a frequency band that selects no usable bins for
// the given sample rate and buffer size.
var ErrInvalidWindow = errors.New("invalid frequency window")

// Window is a contiguous run of bins [Start, Start+Length) inside the
// non-redundant half of a half-complex spectrum.
type Window struct {
	Start  int
	Length int
}

// ComputeWindow maps the band [lowHz, highHz] onto spectrum bins. Bin k of a
// bufferSize-point transform sits at k*sampleRate/bufferSize Hz; the end of
// the band is clamped to bufferSize/2.
func ComputeWindow(sampleRate float64, bufferSize int, lowHz, highHz float64) (Window, error) {
	if sampleRate <= 0 || bufferSize <= 0 {
		return Window{}, fmt.Errorf("%w: sample rate %g, buffer size %d", ErrInvalidWindow, sampleRate, bufferSize)
	}

	ratio := float64(bufferSize) / sampleRate
	start := int(math.Ceil(ratio * lowHz))
	end := int(math.Ceil(ratio * highHz))
	if half := bufferSize / 2; end > half {
		end = half
	}
	length := end - start

	if start < 0 || length <= 0 {
		return Window{}, fmt.Errorf("%w: %g-%g Hz gives start %d length %d at %g Hz / %d frames",
			ErrInvalidWindow, lowHz, highHz, start, length, sampleRate, bufferSize)
	}
	return Window{Start: start, Length: length}, nil
}

// End returns the first bin past the window.
func (w Window) End() int { return w.Start + w.Length }

// SampleIndices returns the bin read by each of width display cells:
// cell i reads Start + floor(i/width * Length). Neighbouring bins that fall
// between cells are skipped, never averaged.
func (w Window) SampleIndices(width int) []int {
	if width <= 0 {
		return nil
	}
	idx := make([]int, width)
	for i := range width {
		proportion := float64(i) / float64(width)
		idx[i] = w.Start + int(proportion*float64(w.Length))
	}
	return idx
}

// Band returns the frequencies of the first and last bins in the window.
func (w Window) Band(sampleRate float64, bufferSize int) (lowHz, highHz float64) {
	binHz := sampleRate / float64(bufferSize)
	return float64(w.Start) * binHz, float64(w.End()-1) * binHz
}
