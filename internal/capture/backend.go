// Package capture drives the spectrogram pipeline from an audio input
// callback: it owns the transform plan and frequency window, runs one
// pipeline pass per hardware buffer and hands finished rows to the render
// side without blocking.
package capture

import (
	"errors"
	"time"
)

var (
	// ErrNoDevices is returned when the backend reports no input devices.
	ErrNoDevices = errors.New("no audio input devices")

	// ErrDeviceOutOfRange is returned for a device index the backend did not
	// enumerate.
	ErrDeviceOutOfRange = errors.New("device index out of range")

	// ErrBackend wraps failures reported by the audio backend while opening,
	// starting or stopping a stream.
	ErrBackend = errors.New("audio backend")
)

// Device describes an input device as enumerated by a backend.
type Device struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	InputLatency      time.Duration
}

// StatusFlags carries per-buffer conditions reported by the backend.
type StatusFlags uint32

const (
	InputUnderflow StatusFlags = 1 << iota
	InputOverflow
)

// Callback receives one interleaved buffer of FramesPerBuffer*Channels
// samples. It runs on the backend's real-time thread and returns false to
// ask the backend to stop delivering buffers.
type Callback func(in []float32, status StatusFlags) bool

// StreamParams fixes the shape of a capture stream for its whole life.
type StreamParams struct {
	Device          Device
	SampleRate      float64
	FramesPerBuffer int
	Channels        int
}

// Period returns the time covered by one buffer.
func (p StreamParams) Period() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(p.FramesPerBuffer) / p.SampleRate * float64(time.Second))
}

// Stream is an opened capture stream.
type Stream interface {
	Start() error
	// Stop returns once no further callbacks will run.
	Stop() error
	Close() error
}

// Finisher is implemented by streams that can run out of input on their
// own, such as file replay.
type Finisher interface {
	Done() <-chan struct{}
}

// Backend is the audio input capability the scheduler consumes.
type Backend interface {
	Devices() ([]Device, error)
	DefaultInput() (Device, error)
	Open(p StreamParams, cb Callback) (Stream, error)
}
