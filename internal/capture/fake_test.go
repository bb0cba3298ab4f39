package capture

import (
	"errors"
	"sync"
)

type fakeBackend struct {
	devices    []Device
	defaultIdx int
	listErr    error
	openErr    error
	startErr   error

	mu     sync.Mutex
	cb     Callback
	params StreamParams
	opened int
	stream *fakeStream
}

func newFakeBackend(n int) *fakeBackend {
	b := &fakeBackend{}
	for i := 0; i < n; i++ {
		b.devices = append(b.devices, Device{
			Index:             i,
			Name:              "fake input",
			MaxInputChannels:  2,
			DefaultSampleRate: 44100,
		})
	}
	return b
}

func (b *fakeBackend) Devices() ([]Device, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.devices, nil
}

func (b *fakeBackend) DefaultInput() (Device, error) {
	if len(b.devices) == 0 {
		return Device{}, errors.New("no default device")
	}
	return b.devices[b.defaultIdx], nil
}

func (b *fakeBackend) Open(p StreamParams, cb Callback) (Stream, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cb = cb
	b.params = p
	b.opened++
	b.stream = &fakeStream{startErr: b.startErr}
	return b.stream, nil
}

// deliver runs the callback as the backend thread would.
func (b *fakeBackend) deliver(in []float32) bool {
	b.mu.Lock()
	cb := b.cb
	b.mu.Unlock()
	return cb(in, 0)
}

type fakeStream struct {
	startErr error
	started  bool
	stopped  bool
	closed   bool
}

func (s *fakeStream) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *fakeStream) Stop() error  { s.stopped = true; return nil }
func (s *fakeStream) Close() error { s.closed = true; return nil }
