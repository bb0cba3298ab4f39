package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/olivier-w/specterm/internal/capture"
	"github.com/olivier-w/specterm/internal/capture/live"
	"github.com/olivier-w/specterm/internal/config"
	"github.com/olivier-w/specterm/internal/media"
	"github.com/olivier-w/specterm/internal/player"
)

// source is an opened audio backend plus what it takes to release it.
type source struct {
	backend capture.Backend
	label   string
	close   func() error
}

// openSource opens the replay file named in cfg, or the PortAudio host when
// no file is set. In file mode the stream shape is taken from the file.
func openSource(cfg *config.Config) (*source, error) {
	if cfg.Source.File == "" {
		pa := live.New()
		if err := pa.Initialize(); err != nil {
			return nil, fmt.Errorf("initialize portaudio: %w", err)
		}
		return &source{backend: pa, label: "live input", close: pa.Terminate}, nil
	}

	f, err := media.Open(cfg.Source.File)
	if err != nil {
		return nil, err
	}
	meta := media.ReadMetadata(cfg.Source.File)

	if rate := float64(f.SampleRate()); rate != cfg.Audio.SampleRate {
		slog.Info("using file sample rate", "configured", cfg.Audio.SampleRate, "file", rate)
		cfg.Audio.SampleRate = rate
	}
	if ch := f.ChannelCount(); ch != cfg.Audio.Channels {
		slog.Info("using file channel count", "configured", cfg.Audio.Channels, "file", ch)
		cfg.Audio.Channels = ch
	}

	var driver capture.Driver
	if cfg.Source.Monitor {
		mon, err := player.NewMonitor(f.SampleRate(), f.ChannelCount(), cfg.Source.Volume)
		if err != nil {
			f.Close()
			return nil, err
		}
		driver = mon
	}

	return &source{
		backend: capture.NewFileBackend(f, meta.Label(), driver),
		label:   meta.Label(),
		close:   f.Close,
	}, nil
}

func logDevices(b capture.Backend) {
	devices, err := b.Devices()
	if err != nil {
		slog.Warn("could not list devices", "err", err)
		return
	}
	for _, d := range devices {
		slog.Info("device",
			"index", d.Index,
			"name", d.Name,
			"max_input_channels", d.MaxInputChannels,
			"default_sample_rate", d.DefaultSampleRate,
		)
	}
}

func printDevices(w io.Writer, b capture.Backend) error {
	devices, err := b.Devices()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tINPUTS\tRATE")
	for _, d := range devices {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%g\n", d.Index, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return tw.Flush()
}
