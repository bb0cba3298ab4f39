package config_test

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/olivier-w/specterm/internal/config"
)

func TestLoadFromReader_EmptyKeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := config.Default()
	if *cfg != want {
		t.Fatalf("got %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoadFromReader_OverridesFields(t *testing.T) {
	t.Parallel()
	yaml := `
audio:
  sample_rate: 48000
  frames_per_buffer: 1024
  device: 3
band:
  high_hz: 8000
display:
  mode: tui
duration: 0s
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.FramesPerBuffer != 1024 || cfg.Audio.Device != 3 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.Channels != 2 {
		t.Errorf("channels = %d, want default 2", cfg.Audio.Channels)
	}
	if cfg.Band.LowHz != 20 || cfg.Band.HighHz != 8000 {
		t.Errorf("band = %+v", cfg.Band)
	}
	if cfg.Display.Mode != config.ModeTUI {
		t.Errorf("mode = %q, want tui", cfg.Display.Mode)
	}
	if cfg.Duration != 0 {
		t.Errorf("duration = %s, want 0", cfg.Duration)
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("audio:\n  samplerate: 48000\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_ReportsEveryFailure(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Audio.SampleRate = 0
	cfg.Band.LowHz, cfg.Band.HighHz = 500, 100
	cfg.Display.Mode = "braille"
	cfg.Source.Monitor = true
	cfg.Server.LogLevel = "verbose"

	err := config.Validate(&cfg)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{"sample_rate", "high_hz", "display.mode", "source.monitor", "log_level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	err := config.ApplyEnv(&cfg, map[string]string{
		"SPECTERM_DEVICE":      "2",
		"SPECTERM_SAMPLE_RATE": "48000",
		"SPECTERM_DURATION":    "1m",
		"SPECTERM_MONITOR":     "true",
		"SPECTERM_LOG_LEVEL":   "debug",
		"UNRELATED":            "x",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.Device != 2 || cfg.Audio.SampleRate != 48000 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Duration != time.Minute || !cfg.Source.Monitor || cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	err := config.ApplyEnv(&cfg, map[string]string{"SPECTERM_WIDTH": "wide"})
	if err == nil || !strings.Contains(err.Error(), "SPECTERM_WIDTH") {
		t.Fatalf("expected SPECTERM_WIDTH error, got %v", err)
	}
}

func TestReadEnv_MissingFileIsFine(t *testing.T) {
	t.Parallel()
	if _, err := config.ReadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolve_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "specterm.yaml")
	if err := os.WriteFile(cfgPath, []byte("display:\n  width: 60\naudio:\n  device: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SPECTERM_WIDTH=80\nSPECTERM_LOW_HZ=100\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := flag.NewFlagSet("specterm", flag.ContinueOnError)
	flags := config.BindFlags(fs)
	if err := fs.Parse([]string{"-low", "200", "-mode", "inplace"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Resolve(cfgPath, envPath, flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.Device != 1 {
		t.Errorf("device = %d, want 1 from file", cfg.Audio.Device)
	}
	if cfg.Display.Width != 80 {
		t.Errorf("width = %d, want 80 from env file", cfg.Display.Width)
	}
	if cfg.Band.LowHz != 200 {
		t.Errorf("low = %g, want 200 from flag", cfg.Band.LowHz)
	}
	if cfg.Display.Mode != config.ModeInplace {
		t.Errorf("mode = %q, want inplace from flag", cfg.Display.Mode)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("sample rate = %g, want default", cfg.Audio.SampleRate)
	}
}

func TestResolve_LaterLayersCompleteFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "specterm.yaml")
	if err := os.WriteFile(cfgPath, []byte("source:\n  monitor: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := flag.NewFlagSet("specterm", flag.ContinueOnError)
	flags := config.BindFlags(fs)
	if err := fs.Parse([]string{"-file", "song.wav"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Resolve(cfgPath, filepath.Join(dir, "absent.env"), flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Source.Monitor || cfg.Source.File != "song.wav" {
		t.Fatalf("source = %+v, want monitor from file and path from flag", cfg.Source)
	}

	if _, err := config.Resolve(cfgPath, filepath.Join(dir, "absent.env"), nil); err == nil {
		t.Fatal("expected monitor without file to fail validation")
	}
}

func TestResolve_MissingConfigFile(t *testing.T) {
	t.Parallel()
	_, err := config.Resolve(filepath.Join(t.TempDir(), "nope.yaml"), "", nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLogLevelSlogLevel(t *testing.T) {
	t.Parallel()
	if config.LogDebug.SlogLevel().String() != "DEBUG" || config.LogLevel("").SlogLevel().String() != "INFO" {
		t.Fatal("unexpected slog level mapping")
	}
}
