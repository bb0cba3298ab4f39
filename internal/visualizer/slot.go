package visualizer

import "sync/atomic"

const freshBit = 1 << 2

// Slot is a single-value handoff between one producer and one consumer.
// It keeps three buffers: the producer's back buffer, the shared middle
// buffer and the consumer's front buffer. Publish and Take only swap an
// index, so neither side ever blocks or allocates. A value published before
// the previous one was taken replaces it.
type Slot[T any] struct {
	bufs    [3]T
	state   atomic.Uint32 // middle buffer index, plus freshBit when unread
	back    uint32        // owned by the producer
	front   uint32        // owned by the consumer
	dropped atomic.Uint64
}

// NewSlot creates a slot whose three buffers are built by newT.
func NewSlot[T any](newT func() T) *Slot[T] {
	s := &Slot[T]{back: 0, front: 1}
	for i := range s.bufs {
		s.bufs[i] = newT()
	}
	s.state.Store(2)
	return s
}

// Back returns the producer's buffer. Its contents are stale and must be
// overwritten before Publish.
func (s *Slot[T]) Back() *T {
	return &s.bufs[s.back]
}

// Publish hands the back buffer to the consumer. It reports whether an
// unread value was overwritten.
func (s *Slot[T]) Publish() bool {
	old := s.state.Swap(s.back | freshBit)
	s.back = old &^ freshBit
	if old&freshBit != 0 {
		s.dropped.Add(1)
		return true
	}
	return false
}

// Take returns the newest published value, or false when nothing new has
// arrived since the last Take. The value stays valid until the next Take.
func (s *Slot[T]) Take() (*T, bool) {
	if s.state.Load()&freshBit == 0 {
		return nil, false
	}
	old := s.state.Swap(s.front)
	s.front = old &^ freshBit
	return &s.bufs[s.front], true
}

// Dropped returns how many published values were overwritten unread.
func (s *Slot[T]) Dropped() uint64 {
	return s.dropped.Load()
}
