package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Source is decoded interleaved signed 16-bit little-endian PCM.
type Source interface {
	io.Reader
	SampleRate() int
	ChannelCount() int
}

// Driver pulls PCM from r at playback speed until r is exhausted or stop is
// closed.
type Driver interface {
	Drive(r io.Reader, stop <-chan struct{}) error
}

// FileBackend replays a decoded file through the capture callback so the
// pipeline can run without an input device. It exposes the file as a single
// virtual device.
type FileBackend struct {
	src    Source
	label  string
	driver Driver
}

// NewFileBackend wraps src. A nil driver paces buffers with a ticker at the
// buffer period.
func NewFileBackend(src Source, label string, driver Driver) *FileBackend {
	return &FileBackend{src: src, label: label, driver: driver}
}

func (b *FileBackend) device() Device {
	return Device{
		Index:             0,
		Name:              b.label,
		MaxInputChannels:  b.src.ChannelCount(),
		DefaultSampleRate: float64(b.src.SampleRate()),
	}
}

func (b *FileBackend) Devices() ([]Device, error) { return []Device{b.device()}, nil }

func (b *FileBackend) DefaultInput() (Device, error) { return b.device(), nil }

// Open checks that the stream shape matches the file; replay never
// resamples or remixes.
func (b *FileBackend) Open(p StreamParams, cb Callback) (Stream, error) {
	if p.SampleRate != float64(b.src.SampleRate()) {
		return nil, fmt.Errorf("file sample rate is %d Hz, stream wants %g Hz", b.src.SampleRate(), p.SampleRate)
	}
	if p.Channels != b.src.ChannelCount() {
		return nil, fmt.Errorf("file has %d channels, stream wants %d", b.src.ChannelCount(), p.Channels)
	}

	driver := b.driver
	if driver == nil {
		driver = tickerDriver{chunk: p.FramesPerBuffer * p.Channels * 2, period: p.Period()}
	}
	return &fileStream{
		framer: newFramer(b.src, p.FramesPerBuffer*p.Channels, cb),
		driver: driver,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

type fileStream struct {
	framer *framer
	driver Driver

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
	started   atomic.Bool

	mu  sync.Mutex
	err error
}

func (s *fileStream) Start() error {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go func() {
			defer close(s.done)
			err := s.driver.Drive(s.framer, s.stop)
			s.framer.flush()
			if err != nil && !errors.Is(err, io.EOF) {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
		}()
	})
	return nil
}

func (s *fileStream) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fileStream) Close() error { return nil }

// Done closes once the file has been fully replayed or the stream stopped.
func (s *fileStream) Done() <-chan struct{} { return s.done }

// framer slices a PCM byte stream into interleaved float32 buffers and hands
// each full buffer to the callback. It is an io.Reader so a playback driver
// can pull through it.
type framer struct {
	src     io.Reader
	cb      Callback
	buf     []float32
	fill    int
	carry   byte
	carried bool
	halted  bool
}

func newFramer(src io.Reader, samples int, cb Callback) *framer {
	return &framer{src: src, cb: cb, buf: make([]float32, samples)}
}

func (f *framer) Read(p []byte) (int, error) {
	n, err := f.src.Read(p)
	f.consume(p[:n])
	return n, err
}

func (f *framer) consume(b []byte) {
	if f.carried && len(b) > 0 {
		f.push(int16(uint16(f.carry) | uint16(b[0])<<8))
		b = b[1:]
		f.carried = false
	}
	for len(b) >= 2 {
		f.push(int16(binary.LittleEndian.Uint16(b)))
		b = b[2:]
	}
	if len(b) == 1 {
		f.carry = b[0]
		f.carried = true
	}
}

func (f *framer) push(s int16) {
	f.buf[f.fill] = float32(s) / 32768
	f.fill++
	if f.fill == len(f.buf) {
		f.emit()
	}
}

func (f *framer) emit() {
	f.fill = 0
	if f.halted {
		return
	}
	if !f.cb(f.buf, 0) {
		f.halted = true
	}
}

// flush zero-pads and emits a trailing partial buffer.
func (f *framer) flush() {
	if f.fill == 0 {
		return
	}
	clear(f.buf[f.fill:])
	f.emit()
}

// tickerDriver reads one buffer's worth of bytes per buffer period.
type tickerDriver struct {
	chunk  int
	period time.Duration
}

func (d tickerDriver) Drive(r io.Reader, stop <-chan struct{}) error {
	chunk := make([]byte, d.chunk)
	period := d.period
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
		}
		if _, err := io.ReadFull(r, chunk); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
