package player

import (
	"bytes"
	"io"
	"testing"
)

func TestNewMonitorValidatesFormat(t *testing.T) {
	if _, err := NewMonitor(44100, 6, 1); err == nil {
		t.Fatal("expected error for 6-channel playback")
	}
	if _, err := NewMonitor(0, 2, 1); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	m, err := NewMonitor(48000, 1, 3)
	if err != nil {
		t.Fatalf("NewMonitor returned error: %v", err)
	}
	if m.volume != 1 {
		t.Fatalf("expected volume clamped to 1, got %v", m.volume)
	}
}

func TestCountingReaderMarksDrained(t *testing.T) {
	cr := &countingReader{reader: bytes.NewReader([]byte{1, 2, 3})}
	buf := make([]byte, 8)
	if _, err := cr.Read(buf); err != nil {
		t.Fatalf("first read returned error: %v", err)
	}
	if cr.Drained() {
		t.Fatal("reader reported drained before EOF")
	}
	if _, err := cr.Read(buf); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
	if !cr.Drained() {
		t.Fatal("expected reader to be drained after EOF")
	}
}
