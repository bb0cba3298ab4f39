package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olivier-w/specterm/internal/visualizer"
)

// ErrFault is returned by Session.Run when the callback stopped the stream.
var ErrFault = errors.New("capture fault")

// Session runs an armed scheduler until its duration elapses, the context
// is cancelled, the callback faults or the source runs dry.
type Session struct {
	Scheduler *Scheduler

	// Renderer, when set, receives rows on a polling goroutine.
	Renderer visualizer.Renderer

	// Duration bounds the run. Zero runs until ctx is done.
	Duration time.Duration

	// PollInterval paces both the render pump and the stop watcher.
	PollInterval time.Duration

	Logger *slog.Logger
}

// Run starts the stream and blocks until the session ends. The scheduler is
// left Stopped; the caller releases it.
func (s *Session) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	poll := s.PollInterval
	if poll <= 0 {
		poll = 5 * time.Millisecond
	}

	if err := s.Scheduler.Start(); err != nil {
		return err
	}
	params := s.Scheduler.StreamParams()
	logger.Info("capture started",
		"device", params.Device.Name,
		"sample_rate", params.SampleRate,
		"frames", params.FramesPerBuffer,
		"channels", params.Channels,
		"window_start", s.Scheduler.Window().Start,
		"window_length", s.Scheduler.Window().Length,
	)

	var finished <-chan struct{}
	if f, ok := s.Scheduler.Stream().(Finisher); ok {
		finished = f.Done()
	}

	g, gctx := errgroup.WithContext(ctx)
	pumpCtx, stopPump := context.WithCancel(gctx)
	defer stopPump()

	if s.Renderer != nil {
		g.Go(func() error {
			return visualizer.Pump(pumpCtx, s.Scheduler.Rows(), s.Renderer, poll)
		})
	}

	g.Go(func() error {
		defer stopPump()
		reason := s.watch(gctx, poll, finished)
		err := s.Scheduler.Stop()
		st := s.Scheduler.Stats()
		logger.Info("capture stopped",
			"reason", reason,
			"frames", st.Frames,
			"events", st.Events,
			"dropped", st.Dropped,
			"overflows", st.Overflows,
			"max_callback", st.MaxCallback,
		)
		if st.Fault != FaultNone {
			return fmt.Errorf("%w: %s", ErrFault, st.Fault)
		}
		return err
	})

	return g.Wait()
}

func (s *Session) watch(ctx context.Context, poll time.Duration, finished <-chan struct{}) string {
	var deadline <-chan time.Time
	if s.Duration > 0 {
		timer := time.NewTimer(s.Duration)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "interrupted"
		case <-deadline:
			return "duration elapsed"
		case <-finished:
			return "source finished"
		case <-ticker.C:
			if s.Scheduler.StopRequested() {
				return "stop requested"
			}
		}
	}
}
