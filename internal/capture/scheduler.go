package capture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olivier-w/specterm/internal/spectrum"
	"github.com/olivier-w/specterm/internal/visualizer"
)

// ErrInvalidTransition is returned when a lifecycle call does not match the
// scheduler's current state.
var ErrInvalidTransition = errors.New("invalid scheduler transition")

// State is the scheduler lifecycle position.
type State int32

const (
	Uninitialized State = iota
	Armed
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Armed:
		return "armed"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Fault records why the callback asked to stop.
type Fault int32

const (
	FaultNone Fault = iota
	FaultBufferSize
	FaultTransform
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultBufferSize:
		return "unexpected buffer size"
	case FaultTransform:
		return "transform failed"
	}
	return fmt.Sprintf("fault(%d)", int32(f))
}

// Params configures a capture session. Device -1 selects the backend's
// default input.
type Params struct {
	SampleRate      float64
	FramesPerBuffer int
	Channels        int
	Device          int
	LowHz           float64
	HighHz          float64
	Width           int
}

// Stats is a point-in-time copy of the scheduler counters.
type Stats struct {
	Frames       uint64
	Events       uint64
	Dropped      uint64
	Overflows    uint64
	Underflows   uint64
	Fault        Fault
	LastCallback time.Duration
	MaxCallback  time.Duration
}

// Scheduler runs the spectral pipeline once per audio buffer.
//
// Lifecycle calls (Arm, Start, Stop, Release) are serialized by a mutex and
// must come from a control goroutine. Process is the audio callback: it
// touches only atomics and storage built by Arm, so it never blocks on the
// control side.
type Scheduler struct {
	backend Backend

	mu     sync.Mutex
	state  atomic.Int32
	stream Stream

	params  StreamParams
	width   int
	window  spectrum.Window
	plan    *spectrum.Plan
	indices []int
	rows    *visualizer.Slot[spectrum.Row]

	seq uint64 // callback-owned

	stopRequested atomic.Bool
	fault         atomic.Int32
	frames        atomic.Uint64
	events        atomic.Uint64
	overflows     atomic.Uint64
	underflows    atomic.Uint64
	lastNanos     atomic.Int64
	maxNanos      atomic.Int64
}

// NewScheduler creates an uninitialized scheduler on top of backend.
func NewScheduler(backend Backend) *Scheduler {
	return &Scheduler{backend: backend}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Arm selects the device and builds the transform plan, frequency window and
// row handoff together. Uninitialized -> Armed.
func (s *Scheduler) Arm(p Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Uninitialized {
		return fmt.Errorf("%w: arm from %s", ErrInvalidTransition, s.State())
	}
	if err := p.validate(); err != nil {
		return err
	}

	dev, err := s.selectDevice(p)
	if err != nil {
		return err
	}

	window, err := spectrum.ComputeWindow(p.SampleRate, p.FramesPerBuffer, p.LowHz, p.HighHz)
	if err != nil {
		return err
	}
	plan, err := spectrum.NewPlan(p.FramesPerBuffer)
	if err != nil {
		return err
	}

	width := p.Width
	s.params = StreamParams{
		Device:          dev,
		SampleRate:      p.SampleRate,
		FramesPerBuffer: p.FramesPerBuffer,
		Channels:        p.Channels,
	}
	s.width = width
	s.window = window
	s.plan = plan
	s.indices = window.SampleIndices(width)
	s.rows = visualizer.NewSlot(func() spectrum.Row { return spectrum.NewRow(width) })
	s.seq = 0
	s.resetStats()
	s.state.Store(int32(Armed))
	return nil
}

func (p Params) validate() error {
	var errs []error
	if p.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate %g must be positive", p.SampleRate))
	}
	if p.FramesPerBuffer < 2 {
		errs = append(errs, fmt.Errorf("frames per buffer %d must be at least 2", p.FramesPerBuffer))
	}
	if p.Channels < 1 {
		errs = append(errs, fmt.Errorf("channel count %d must be at least 1", p.Channels))
	}
	if p.Width < 1 {
		errs = append(errs, fmt.Errorf("display width %d must be at least 1", p.Width))
	}
	return errors.Join(errs...)
}

func (s *Scheduler) selectDevice(p Params) (Device, error) {
	devices, err := s.backend.Devices()
	if err != nil {
		return Device{}, fmt.Errorf("%w: list devices: %w", ErrBackend, err)
	}
	if len(devices) == 0 {
		return Device{}, ErrNoDevices
	}

	var dev Device
	switch {
	case p.Device < 0:
		dev, err = s.backend.DefaultInput()
		if err != nil {
			return Device{}, fmt.Errorf("%w: default input: %w", ErrBackend, err)
		}
	case p.Device >= len(devices):
		return Device{}, fmt.Errorf("%w: %d (have %d devices)", ErrDeviceOutOfRange, p.Device, len(devices))
	default:
		dev = devices[p.Device]
	}

	if dev.MaxInputChannels < p.Channels {
		return Device{}, fmt.Errorf("device %d %q has %d input channels, need %d",
			dev.Index, dev.Name, dev.MaxInputChannels, p.Channels)
	}
	return dev, nil
}

// Start opens and starts the stream. Armed -> Running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Armed {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.State())
	}

	s.stopRequested.Store(false)
	stream, err := s.backend.Open(s.params, s.Process)
	if err != nil {
		return fmt.Errorf("%w: open stream: %w", ErrBackend, err)
	}

	s.state.Store(int32(Running))
	if err := stream.Start(); err != nil {
		s.state.Store(int32(Armed))
		stream.Close()
		return fmt.Errorf("%w: start stream: %w", ErrBackend, err)
	}
	s.stream = stream
	return nil
}

// Stream returns the running stream, or nil.
func (s *Scheduler) Stream() Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Process is the per-buffer callback. It extracts channel 0, transforms it,
// quantizes the sampled window bins into the next row and publishes the row.
// A malformed buffer or a failed transform latches a stop request.
func (s *Scheduler) Process(in []float32, status StatusFlags) bool {
	start := time.Now()
	if State(s.state.Load()) != Running || s.stopRequested.Load() {
		return false
	}
	if status&InputOverflow != 0 {
		s.overflows.Add(1)
	}
	if status&InputUnderflow != 0 {
		s.underflows.Add(1)
	}

	n, ch := s.params.FramesPerBuffer, s.params.Channels
	if len(in) != n*ch {
		s.requestStop(FaultBufferSize)
		return false
	}

	frame := s.plan.Input()
	for i := range frame {
		frame[i] = float64(in[i*ch])
	}
	if err := s.plan.Execute(); err != nil {
		s.requestStop(FaultTransform)
		return false
	}

	s.seq++
	row := s.rows.Back()
	row.Seq = s.seq
	row.Fill(s.plan.Output(), s.indices)
	if row.Event {
		s.events.Add(1)
	}
	s.rows.Publish()
	s.frames.Add(1)

	s.recordDuration(time.Since(start))
	return true
}

func (s *Scheduler) requestStop(f Fault) {
	s.fault.CompareAndSwap(int32(FaultNone), int32(f))
	s.stopRequested.Store(true)
}

func (s *Scheduler) recordDuration(d time.Duration) {
	ns := int64(d)
	s.lastNanos.Store(ns)
	for {
		cur := s.maxNanos.Load()
		if ns <= cur || s.maxNanos.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// StopRequested reports whether the callback has asked to stop.
func (s *Scheduler) StopRequested() bool { return s.stopRequested.Load() }

// RequestStop makes the next callback return false. It is safe to call from
// any goroutine.
func (s *Scheduler) RequestStop() { s.stopRequested.Store(true) }

// Stop stops and closes the stream. Running -> Stopped. The plan and window
// stay alive until Release.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Running {
		return fmt.Errorf("%w: stop from %s", ErrInvalidTransition, s.State())
	}

	s.stopRequested.Store(true)
	var errs []error
	if err := s.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("%w: stop stream: %w", ErrBackend, err))
	}
	if err := s.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close stream: %w", ErrBackend, err))
	}
	s.stream = nil
	s.state.Store(int32(Stopped))
	return errors.Join(errs...)
}

// Release destroys the plan and forgets the window. Stopped -> Uninitialized.
// Armed -> Uninitialized is allowed only to clean up after a failed Start.
func (s *Scheduler) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case Stopped, Armed:
	default:
		return fmt.Errorf("%w: release from %s", ErrInvalidTransition, s.State())
	}

	s.plan.Destroy()
	s.plan = nil
	s.window = spectrum.Window{}
	s.indices = nil
	s.state.Store(int32(Uninitialized))
	return nil
}

// Rows returns the handoff the render side takes rows from.
func (s *Scheduler) Rows() *visualizer.Slot[spectrum.Row] { return s.rows }

// Window returns the armed frequency window.
func (s *Scheduler) Window() spectrum.Window { return s.window }

// StreamParams returns the armed stream shape.
func (s *Scheduler) StreamParams() StreamParams { return s.params }

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Frames:       s.frames.Load(),
		Events:       s.events.Load(),
		Overflows:    s.overflows.Load(),
		Underflows:   s.underflows.Load(),
		Fault:        Fault(s.fault.Load()),
		LastCallback: time.Duration(s.lastNanos.Load()),
		MaxCallback:  time.Duration(s.maxNanos.Load()),
	}
	if s.rows != nil {
		st.Dropped = s.rows.Dropped()
	}
	return st
}

func (s *Scheduler) resetStats() {
	s.stopRequested.Store(false)
	s.fault.Store(int32(FaultNone))
	s.frames.Store(0)
	s.events.Store(0)
	s.overflows.Store(0)
	s.underflows.Store(0)
	s.lastNanos.Store(0)
	s.maxNanos.Store(0)
}
