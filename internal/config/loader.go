package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPECTERM_"

// Load reads the YAML file at path over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	if err := decode(f, cfg); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

// decode overlays YAML from r onto cfg without validating it, so later
// layers can still complete a partial file.
func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the YAML file
// at path (if any), then env overrides, then flags set on the command line.
func Resolve(path, envFile string, flags *Flags) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	env, err := ReadEnv(envFile)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(&cfg, env); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if flags != nil {
		flags.Apply(&cfg)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadEnv collects SPECTERM_ variables from envFile (if it exists) and the
// process environment. Process variables win over the file.
func ReadEnv(envFile string) (map[string]string, error) {
	env := map[string]string{}
	if envFile != "" {
		fileEnv, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read %q: %w", envFile, err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	for _, o := range options {
		key := EnvPrefix + o.env
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides cfg fields from env, keyed SPECTERM_<NAME>.
func ApplyEnv(cfg *Config, env map[string]string) error {
	var errs []error
	for _, o := range options {
		v, ok := env[EnvPrefix+o.env]
		if !ok {
			continue
		}
		if err := o.parse(cfg, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, o.env, err))
		}
	}
	return errors.Join(errs...)
}

// Flags registers one command-line flag per option. Only flags that were
// set on the command line override the loaded configuration.
type Flags struct {
	fs   *flag.FlagSet
	vals Config
}

// BindFlags registers the option flags on fs with built-in defaults.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs, vals: Default()}
	for _, o := range options {
		o.bind(fs, &f.vals)
	}
	return f
}

// Apply copies every flag that was set on the command line into cfg.
func (f *Flags) Apply(cfg *Config) {
	set := map[string]bool{}
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	for _, o := range options {
		if set[o.flag] {
			o.copy(cfg, &f.vals)
		}
	}
}

// option ties one setting to its flag name, env name and Config field.
type option struct {
	flag  string
	env   string
	usage string
	field func(c *Config) any // pointer into c
}

var options = []option{
	{"sample-rate", "SAMPLE_RATE", "capture sample rate in Hz", func(c *Config) any { return &c.Audio.SampleRate }},
	{"frames", "FRAMES", "frames per buffer and transform size", func(c *Config) any { return &c.Audio.FramesPerBuffer }},
	{"channels", "CHANNELS", "input channel count; channel 0 is analysed", func(c *Config) any { return &c.Audio.Channels }},
	{"device", "DEVICE", "input device index, -1 for the default input", func(c *Config) any { return &c.Audio.Device }},
	{"low", "LOW_HZ", "lowest displayed frequency in Hz", func(c *Config) any { return &c.Band.LowHz }},
	{"high", "HIGH_HZ", "highest displayed frequency in Hz", func(c *Config) any { return &c.Band.HighHz }},
	{"width", "WIDTH", "display cells per row", func(c *Config) any { return &c.Display.Width }},
	{"mode", "MODE", "render mode: scroll, inplace or tui", func(c *Config) any { return &c.Display.Mode }},
	{"duration", "DURATION", "run time, 0 to run until interrupted", func(c *Config) any { return &c.Duration }},
	{"file", "FILE", "replay an audio file instead of capturing", func(c *Config) any { return &c.Source.File }},
	{"monitor", "MONITOR", "play the replayed file aloud", func(c *Config) any { return &c.Source.Monitor }},
	{"volume", "VOLUME", "monitor playback volume, 0 to 1", func(c *Config) any { return &c.Source.Volume }},
	{"metrics-addr", "METRICS_ADDR", "serve Prometheus metrics on this address", func(c *Config) any { return &c.Server.MetricsAddr }},
	{"log-level", "LOG_LEVEL", "log level: debug, info, warn or error", func(c *Config) any { return &c.Server.LogLevel }},
}

func (o option) bind(fs *flag.FlagSet, c *Config) {
	switch p := o.field(c).(type) {
	case *float64:
		fs.Float64Var(p, o.flag, *p, o.usage)
	case *int:
		fs.IntVar(p, o.flag, *p, o.usage)
	case *bool:
		fs.BoolVar(p, o.flag, *p, o.usage)
	case *string:
		fs.StringVar(p, o.flag, *p, o.usage)
	case *time.Duration:
		fs.DurationVar(p, o.flag, *p, o.usage)
	case *Mode:
		fs.Func(o.flag, fmt.Sprintf("%s (default %s)", o.usage, *p), func(s string) error {
			*p = Mode(s)
			return nil
		})
	case *LogLevel:
		fs.Func(o.flag, fmt.Sprintf("%s (default %s)", o.usage, *p), func(s string) error {
			*p = LogLevel(s)
			return nil
		})
	}
}

func (o option) parse(c *Config, s string) error {
	var err error
	switch p := o.field(c).(type) {
	case *float64:
		*p, err = strconv.ParseFloat(s, 64)
	case *int:
		*p, err = strconv.Atoi(s)
	case *bool:
		*p, err = strconv.ParseBool(s)
	case *string:
		*p = s
	case *time.Duration:
		*p, err = time.ParseDuration(s)
	case *Mode:
		*p = Mode(s)
	case *LogLevel:
		*p = LogLevel(s)
	}
	return err
}

func (o option) copy(dst, src *Config) {
	switch p := o.field(dst).(type) {
	case *float64:
		*p = *o.field(src).(*float64)
	case *int:
		*p = *o.field(src).(*int)
	case *bool:
		*p = *o.field(src).(*bool)
	case *string:
		*p = *o.field(src).(*string)
	case *time.Duration:
		*p = *o.field(src).(*time.Duration)
	case *Mode:
		*p = *o.field(src).(*Mode)
	case *LogLevel:
		*p = *o.field(src).(*LogLevel)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Audio
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %g must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FramesPerBuffer < 2 {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer %d must be at least 2", cfg.Audio.FramesPerBuffer))
	}
	if cfg.Audio.Channels < 1 {
		errs = append(errs, fmt.Errorf("audio.channels %d must be at least 1", cfg.Audio.Channels))
	}
	if cfg.Audio.Device < -1 {
		errs = append(errs, fmt.Errorf("audio.device %d is invalid; use -1 for the default input", cfg.Audio.Device))
	}

	// Band
	if cfg.Band.LowHz < 0 {
		errs = append(errs, fmt.Errorf("band.low_hz %g must not be negative", cfg.Band.LowHz))
	}
	if cfg.Band.HighHz <= cfg.Band.LowHz {
		errs = append(errs, fmt.Errorf("band.high_hz %g must be above band.low_hz %g", cfg.Band.HighHz, cfg.Band.LowHz))
	}

	// Display
	if cfg.Display.Width < 1 {
		errs = append(errs, fmt.Errorf("display.width %d must be at least 1", cfg.Display.Width))
	}
	if !cfg.Display.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("display.mode %q is invalid; valid values: scroll, inplace, tui", cfg.Display.Mode))
	}

	// Source
	if cfg.Source.Monitor && cfg.Source.File == "" {
		errs = append(errs, errors.New("source.monitor requires source.file"))
	}
	if cfg.Source.Volume < 0 || cfg.Source.Volume > 1 {
		errs = append(errs, fmt.Errorf("source.volume %.2f is out of range [0, 1]", cfg.Source.Volume))
	}

	if cfg.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration %s must not be negative", cfg.Duration))
	}

	// Server
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	return errors.Join(errs...)
}
