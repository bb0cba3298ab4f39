// Command specterm draws a live audio spectrogram in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/specterm/internal/capture"
	"github.com/olivier-w/specterm/internal/config"
	"github.com/olivier-w/specterm/internal/observe"
	"github.com/olivier-w/specterm/internal/ui"
	"github.com/olivier-w/specterm/internal/util"
	"github.com/olivier-w/specterm/internal/visualizer"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("specterm", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	envFile := fs.String("env-file", ".env", "dotenv file with SPECTERM_ overrides")
	listDevices := fs.Bool("list-devices", false, "print the input devices and exit")
	flags := config.BindFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Resolve(*configPath, *envFile, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "specterm: %v\n", err)
		return 1
	}

	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	src, err := openSource(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "specterm: %v\n", err)
		return 1
	}
	defer func() {
		if err := src.close(); err != nil {
			slog.Warn("source close error", "err", err)
		}
	}()

	if *listDevices {
		if err := printDevices(os.Stdout, src.backend); err != nil {
			fmt.Fprintf(os.Stderr, "specterm: %v\n", err)
			return 1
		}
		return 0
	}
	logDevices(src.backend)

	sched := capture.NewScheduler(src.backend)
	err = sched.Arm(capture.Params{
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		Channels:        cfg.Audio.Channels,
		Device:          cfg.Audio.Device,
		LowHz:           cfg.Band.LowHz,
		HighHz:          cfg.Band.HighHz,
		Width:           cfg.Display.Width,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "specterm: %v\n", err)
		return 1
	}
	defer func() {
		if err := sched.Release(); err != nil {
			slog.Warn("release error", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.MetricsAddr != "" {
		shutdown, err := startMetrics(ctx, cfg.Server.MetricsAddr, sched)
		if err != nil {
			fmt.Fprintf(os.Stderr, "specterm: metrics: %v\n", err)
			return 1
		}
		defer shutdown()
	}

	slog.Debug("specterm starting",
		"version", version,
		"mode", cfg.Display.Mode,
		"duration", cfg.Duration,
		"source", src.label,
	)

	lo, hi := sched.Window().Band(cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer)
	band := util.FormatHz(lo) + " to " + util.FormatHz(hi)
	slog.Info("frequency band", "band", band, "cells", cfg.Display.Width)

	if cfg.Display.Mode == config.ModeTUI {
		err = runTUI(ctx, cfg, sched, src.label+"  "+band)
	} else {
		err = runLines(ctx, cfg, sched)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "specterm: %v\n", err)
		return 1
	}
	return 0
}

func runLines(ctx context.Context, cfg *config.Config, sched *capture.Scheduler) error {
	mode := visualizer.LineScroll
	if cfg.Display.Mode == config.ModeInplace {
		mode = visualizer.LineInplace
	}
	r := visualizer.NewLineRenderer(os.Stdout, mode)
	sess := &capture.Session{
		Scheduler: sched,
		Renderer:  r,
		Duration:  cfg.Duration,
	}
	err := sess.Run(ctx)
	if ferr := r.Finish(); err == nil {
		err = ferr
	}
	return err
}

func runTUI(ctx context.Context, cfg *config.Config, sched *capture.Scheduler, label string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := func() {
		sched.RequestStop()
		cancel()
	}
	model := ui.New(sched, label, cfg.Duration, quit)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	sess := &capture.Session{
		Scheduler: sched,
		Duration:  cfg.Duration,
		Logger:    slog.New(slog.DiscardHandler),
	}
	done := make(chan error, 1)
	go func() {
		err := sess.Run(ctx)
		p.Send(ui.SessionEndedMsg{Err: err})
		done <- err
	}()

	_, perr := p.Run()
	cancel()
	err := <-done
	if perr != nil && !errors.Is(perr, tea.ErrProgramKilled) {
		return errors.Join(err, perr)
	}
	return err
}

func startMetrics(ctx context.Context, addr string, sched *capture.Scheduler) (func(), error) {
	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return nil, err
	}
	metrics, err := observe.NewMetrics(provider.MeterProvider, sched.Stats)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := observe.Serve(ctx, addr, provider.Handler()); err != nil {
			slog.Error("metrics server error", "err", err)
		}
	}()
	return func() {
		metrics.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}, nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level.SlogLevel()}))
}
