package spectrum

import (
	"math"
	"testing"
)

func TestQuantizeLadder(t *testing.T) {
	for _, tc := range []struct {
		v    float64
		want Level
	}{
		{-3, L0},
		{0, L0},
		{0.05, L0},
		{0.0500001, LevelEvent},
		{0.075, LevelEvent},
		{0.1, LevelEvent},
		{0.1000001, L0},
		{0.124, L0},
		{0.125, L1},
		{0.2499, L1},
		{0.25, L2},
		{0.375, L3},
		{0.5, L4},
		{0.625, L5},
		{0.75, L6},
		{0.8749, L6},
		{0.875, L7},
		{12, L7},
		{math.Inf(1), L7},
		{math.Inf(-1), L0},
		{math.NaN(), L7},
	} {
		if got := Quantize(tc.v); got != tc.want {
			t.Fatalf("Quantize(%v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestQuantizeEventPrecedesLadder(t *testing.T) {
	for v := 0.051; v <= 0.1; v += 0.001 {
		if got := Quantize(v); got != LevelEvent {
			t.Fatalf("Quantize(%v) = %v, want EVENT", v, got)
		}
	}
}

func TestQuantizeMonotonicOutsideEventBand(t *testing.T) {
	prev := L0
	for v := -1.0; v < 2.0; v += 0.0005 {
		got := Quantize(v)
		if got == LevelEvent {
			continue
		}
		if got < prev {
			t.Fatalf("Quantize(%v) = %v after %v: not monotonic", v, got, prev)
		}
		prev = got
	}
	if prev != L7 {
		t.Fatalf("ladder ended at %v, want L7", prev)
	}
}

func TestLevelString(t *testing.T) {
	if LevelEvent.String() != "EVENT" || L0.String() != "L0" || L7.String() != "L7" {
		t.Fatalf("unexpected level names %s %s %s", LevelEvent, L0, L7)
	}
}
