// Package player plays replayed audio aloud while it is analysed.
package player

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const pollInterval = 20 * time.Millisecond

// countingReader wraps an io.Reader and records when it runs dry.
type countingReader struct {
	reader io.Reader
	eof    bool
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	if err != nil {
		cr.eof = true
	}
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Drained() bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.eof
}

var (
	globalOtoCtx  *oto.Context
	otoOnce       sync.Once
	otoInitErr    error
	otoSampleRate int
	otoChannels   int
)

// initOto creates the process-wide output context. Oto allows one context
// per process, so later callers must ask for the same format.
func initOto(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoSampleRate = sampleRate
			otoChannels = channels
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if sampleRate != otoSampleRate || channels != otoChannels {
		return nil, fmt.Errorf("audio output already opened at %d Hz x%d", otoSampleRate, otoChannels)
	}
	return globalOtoCtx, nil
}

// Monitor pulls PCM through the speakers. The output device consumes bytes
// at the playback rate, so whatever reads through Monitor is paced by what
// is heard.
type Monitor struct {
	sampleRate int
	channels   int
	volume     float64
}

// NewMonitor validates the output format. Oto plays mono and stereo only.
func NewMonitor(sampleRate, channels int, volume float64) (*Monitor, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("monitor playback supports 1 or 2 channels, got %d", channels)
	}
	if sampleRate <= 0 {
		return nil, errors.New("monitor playback needs a positive sample rate")
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	return &Monitor{sampleRate: sampleRate, channels: channels, volume: volume}, nil
}

// Drive plays r until it is drained and the output has finished, or until
// stop is closed.
func (m *Monitor) Drive(r io.Reader, stop <-chan struct{}) error {
	ctx, err := initOto(m.sampleRate, m.channels)
	if err != nil {
		return err
	}

	cr := &countingReader{reader: r}
	p := ctx.NewPlayer(cr)
	defer p.Close()
	p.SetVolume(m.volume)
	p.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			p.Pause()
			return nil
		case <-ticker.C:
		}
		if cr.Drained() && !p.IsPlaying() {
			return p.Err()
		}
	}
}
