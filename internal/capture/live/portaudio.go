// Package live captures from a hardware input device through PortAudio.
package live

import (
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/olivier-w/specterm/internal/capture"
)

// Backend is the PortAudio capture backend. Initialize must be called once
// before use and Terminate once after every stream is closed.
type Backend struct{}

func New() *Backend { return &Backend{} }

func (b *Backend) Initialize() error { return portaudio.Initialize() }

func (b *Backend) Terminate() error { return portaudio.Terminate() }

func (b *Backend) Devices() ([]capture.Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	out := make([]capture.Device, len(infos))
	for i, info := range infos {
		out[i] = toDevice(info)
	}
	return out, nil
}

func (b *Backend) DefaultInput() (capture.Device, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return capture.Device{}, err
	}
	return toDevice(info), nil
}

func toDevice(info *portaudio.DeviceInfo) capture.Device {
	return capture.Device{
		Index:             info.Index,
		Name:              info.Name,
		MaxInputChannels:  info.MaxInputChannels,
		DefaultSampleRate: info.DefaultSampleRate,
		InputLatency:      info.DefaultLowInputLatency,
	}
}

// Open opens a callback stream on the device with the index p.Device.Index.
func (b *Backend) Open(p capture.StreamParams, cb capture.Callback) (capture.Stream, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	idx := p.Device.Index
	if idx < 0 || idx >= len(infos) {
		return nil, fmt.Errorf("%w: %d", capture.ErrDeviceOutOfRange, idx)
	}
	info := infos[idx]

	s := &stream{cb: cb}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: p.Channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      p.SampleRate,
		FramesPerBuffer: p.FramesPerBuffer,
	}
	ps, err := portaudio.OpenStream(params, s.process)
	if err != nil {
		return nil, err
	}
	s.pa = ps
	return s, nil
}

// stream adapts the scheduler callback to PortAudio. The binding offers no
// way to end a stream from inside the callback, so a false return latches
// halted and later buffers are ignored until the control side stops it.
type stream struct {
	pa     *portaudio.Stream
	cb     capture.Callback
	halted atomic.Bool
}

func (s *stream) process(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if s.halted.Load() {
		return
	}
	var status capture.StatusFlags
	if flags&portaudio.InputUnderflow != 0 {
		status |= capture.InputUnderflow
	}
	if flags&portaudio.InputOverflow != 0 {
		status |= capture.InputOverflow
	}
	if !s.cb(in, status) {
		s.halted.Store(true)
	}
}

func (s *stream) Start() error { return s.pa.Start() }

func (s *stream) Stop() error { return s.pa.Stop() }

func (s *stream) Close() error { return s.pa.Close() }
