// Package config defines the specterm configuration and loads it from YAML,
// the environment and command-line flags, in that order of precedence.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to a slog level. Unknown values map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Mode selects how rows reach the terminal.
type Mode string

const (
	// ModeScroll prints one line per row and lets the terminal scroll.
	ModeScroll Mode = "scroll"

	// ModeInplace redraws a single line with a carriage return.
	ModeInplace Mode = "inplace"

	// ModeTUI runs a full-screen view with history, peak meter and stats.
	ModeTUI Mode = "tui"
)

// IsValid reports whether m is a recognised render mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeScroll, ModeInplace, ModeTUI:
		return true
	}
	return false
}

// Config is the top-level configuration.
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Band    BandConfig    `yaml:"band"`
	Display DisplayConfig `yaml:"display"`
	Source  SourceConfig  `yaml:"source"`
	Server  ServerConfig  `yaml:"server"`

	// Duration bounds a run. Zero runs until interrupted.
	Duration time.Duration `yaml:"duration"`
}

// AudioConfig fixes the capture stream shape.
type AudioConfig struct {
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	Channels        int     `yaml:"channels"`

	// Device is an index into the enumerated device list; -1 selects the
	// default input.
	Device int `yaml:"device"`
}

// BandConfig is the displayed frequency range in Hz.
type BandConfig struct {
	LowHz  float64 `yaml:"low_hz"`
	HighHz float64 `yaml:"high_hz"`
}

// DisplayConfig controls rendering.
type DisplayConfig struct {
	Width int  `yaml:"width"`
	Mode  Mode `yaml:"mode"`
}

// SourceConfig selects file replay instead of a live device.
type SourceConfig struct {
	// File, when set, is decoded and replayed through the capture path.
	File string `yaml:"file"`

	// Monitor plays the replayed file aloud and paces it by playback.
	Monitor bool `yaml:"monitor"`

	// Volume is the monitor playback volume in [0, 1].
	Volume float64 `yaml:"volume"`
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	// MetricsAddr, when set, serves Prometheus metrics at /metrics.
	MetricsAddr string `yaml:"metrics_addr"`

	LogLevel LogLevel `yaml:"log_level"`
}

// Default returns the built-in configuration: 44.1 kHz stereo in 512-frame
// buffers from the default input, 20 Hz to 20 kHz over 100 cells, for 10
// seconds.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate:      44100,
			FramesPerBuffer: 512,
			Channels:        2,
			Device:          -1,
		},
		Band: BandConfig{
			LowHz:  20,
			HighHz: 20000,
		},
		Display: DisplayConfig{
			Width: 100,
			Mode:  ModeScroll,
		},
		Source: SourceConfig{
			Volume: 0.8,
		},
		Server: ServerConfig{
			LogLevel: LogInfo,
		},
		Duration: 10 * time.Second,
	}
}
