package visualizer

import (
	"sync"
	"testing"
)

type frame struct {
	seq  int
	data []int
}

func newFrame() frame { return frame{data: make([]int, 4)} }

func TestSlotTakeEmpty(t *testing.T) {
	s := NewSlot(newFrame)
	if _, ok := s.Take(); ok {
		t.Fatal("expected nothing to take from a fresh slot")
	}
}

func TestSlotDeliversPublishedValue(t *testing.T) {
	s := NewSlot(newFrame)
	b := s.Back()
	b.seq = 1
	b.data[0] = 42
	if s.Publish() {
		t.Fatal("first publish must not report an overwrite")
	}

	got, ok := s.Take()
	if !ok {
		t.Fatal("expected a value")
	}
	if got.seq != 1 || got.data[0] != 42 {
		t.Fatalf("got %+v", got)
	}
	if _, ok := s.Take(); ok {
		t.Fatal("value must be delivered once")
	}
}

func TestSlotLatestValueWins(t *testing.T) {
	s := NewSlot(newFrame)
	for i := 1; i <= 3; i++ {
		s.Back().seq = i
		overwrote := s.Publish()
		if want := i > 1; overwrote != want {
			t.Fatalf("publish %d overwrote = %v, want %v", i, overwrote, want)
		}
	}
	got, ok := s.Take()
	if !ok || got.seq != 3 {
		t.Fatalf("Take() = %+v, %v; want seq 3", got, ok)
	}
	if s.Dropped() != 2 {
		t.Fatalf("Dropped() = %d, want 2", s.Dropped())
	}
}

func TestSlotProducerNeverWritesConsumerBuffer(t *testing.T) {
	s := NewSlot(newFrame)
	s.Back().seq = 1
	s.Publish()
	held, _ := s.Take()

	for i := 2; i < 10; i++ {
		if s.Back() == held {
			t.Fatalf("producer buffer aliases the consumer's held value at publish %d", i)
		}
		s.Back().seq = i
		s.Publish()
	}
	if held.seq != 1 {
		t.Fatalf("held value changed to %d", held.seq)
	}
}

func TestSlotConcurrentSequenceIsMonotonic(t *testing.T) {
	s := NewSlot(newFrame)
	const n = 20000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			b := s.Back()
			b.seq = i
			for j := range b.data {
				b.data[j] = i
			}
			s.Publish()
		}
	}()

	last := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		if v, ok := s.Take(); ok {
			if v.seq <= last {
				t.Fatalf("sequence went from %d to %d", last, v.seq)
			}
			for _, d := range v.data {
				if d != v.seq {
					t.Fatalf("torn value: seq %d data %v", v.seq, v.data)
				}
			}
			last = v.seq
		}
		select {
		case <-done:
			if v, ok := s.Take(); ok {
				last = v.seq
			}
			if last != n {
				t.Fatalf("last seen %d, want %d", last, n)
			}
			return
		default:
		}
	}
}
