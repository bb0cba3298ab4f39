package spectrum

// Level is a discrete display intensity. LevelEvent marks a detection
// instead of an intensity.
type Level int8

const (
	LevelEvent Level = iota - 1
	L0
	L1
	L2
	L3
	L4
	L5
	L6
	L7
)

// NumLevels is the number of graduated levels, L0 through L7.
const NumLevels = 8

const (
	eventLow  = 0.05
	eventHigh = 0.1
	levelStep = 0.125
)

// Quantize buckets a raw half-complex coefficient. The value is compared as
// is: it is neither normalized nor converted to a magnitude, so negative
// coefficients land in L0. The event band (0.05, 0.1] is tested before the
// ladder and wins even though it overlaps L0. NaN fails every comparison and
// lands in L7.
func Quantize(v float64) Level {
	if v > eventLow && v <= eventHigh {
		return LevelEvent
	}
	for l := L0; l < L7; l++ {
		if v < float64(l+1)*levelStep {
			return l
		}
	}
	return L7
}

// IsEvent reports whether l is the detection sentinel.
func (l Level) IsEvent() bool { return l == LevelEvent }

func (l Level) String() string {
	if l == LevelEvent {
		return "EVENT"
	}
	if l < L0 || l > L7 {
		return "L?"
	}
	return "L" + string(rune('0'+l))
}
