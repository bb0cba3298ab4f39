package spectrum

// Row is one quantized display line. Levels has a fixed width for the
// lifetime of a session; Event is set when any sampled cell hit the event
// band.
type Row struct {
	Seq    uint64
	Levels []Level
	Event  bool
}

// NewRow allocates a row of the given width.
func NewRow(width int) Row {
	return Row{Levels: make([]Level, width)}
}

// Fill quantizes spectrum at the precomputed bin indices into r. It does not
// allocate; len(indices) must equal len(r.Levels).
func (r *Row) Fill(spectrum []float64, indices []int) {
	r.Event = false
	for i, bin := range indices {
		l := Quantize(spectrum[bin])
		if l == LevelEvent {
			r.Event = true
		}
		r.Levels[i] = l
	}
}

// Peak returns the highest graduated level in the row.
func (r *Row) Peak() Level {
	peak := L0
	for _, l := range r.Levels {
		if l > peak {
			peak = l
		}
	}
	return peak
}
