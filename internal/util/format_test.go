package util

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{9*time.Second + 900*time.Millisecond, "0:09"},
		{75 * time.Second, "1:15"},
		{61 * time.Minute, "61:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Fatalf("FormatDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatHz(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{86.13, "86 Hz"},
		{999.4, "999 Hz"},
		{20067.2, "20.1 kHz"},
	}
	for _, tt := range tests {
		if got := FormatHz(tt.in); got != tt.want {
			t.Fatalf("FormatHz(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
