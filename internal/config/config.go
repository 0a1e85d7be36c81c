package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-audiotest/dsp/core"
)

var ErrInvalid = errors.New("config: invalid configuration")

// Transports understood by the generator section.
const (
	TransportSim    = "sim"
	TransportTCP    = "tcp"
	TransportUSBTMC = "usbtmc"
)

// Simulated device responses.
const (
	ResponseFlat    = "flat"
	ResponseGain    = "gain"
	ResponseLowPass = "lowpass"
)

// Config represents the main application configuration.
type Config struct {
	Settings   Settings   `yaml:"settings"`
	Generator  Generator  `yaml:"generator"`
	Digitizer  Digitizer  `yaml:"digitizer"`
	Simulation Simulation `yaml:"simulation"`
	Sampling   Sampling   `yaml:"sampling"`
	Estimation Estimation `yaml:"estimation"`
	Level      Level      `yaml:"level"`
	Storage    Storage    `yaml:"storage"`
	Metrics    Metrics    `yaml:"metrics"`
}

// Settings represents global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
	// Name labels stored runs.
	Name string `yaml:"name"`
}

// Generator selects and drives the signal generator.
type Generator struct {
	Transport string `yaml:"transport"`
	// Address is host[:port] for the tcp transport.
	Address string `yaml:"address"`
	// Device is the usbtmc node; empty picks the first one found.
	Device  string        `yaml:"device"`
	Timeout time.Duration `yaml:"timeout"`
	// Amplitude is the sweep output level in Vpp.
	Amplitude float64 `yaml:"amplitude"`
	// HardLimit rejects amplitudes above it before the output is enabled.
	HardLimit float64 `yaml:"hardLimit"`
}

// Digitizer describes the acquisition side.
type Digitizer struct {
	// Channels lists one channel for level only, or reference and device
	// channels for level and phase.
	Channels      []string `yaml:"channels"`
	MaxSampleRate float64  `yaml:"maxSampleRate"`
}

// Simulation configures the simulated bench.
type Simulation struct {
	Response string  `yaml:"response"`
	GainDB   float64 `yaml:"gainDB"`
	Cutoff   float64 `yaml:"cutoff"`
	Noise    float64 `yaml:"noise"`
	Seed     int64   `yaml:"seed"`
}

// Sampling holds the sweep grid and per-point capture settings.
type Sampling struct {
	FrequencyMin    float64       `yaml:"frequencyMin"`
	FrequencyMax    float64       `yaml:"frequencyMax"`
	PointsPerDecade float64       `yaml:"pointsPerDecade"`
	FsMultiplier    float64       `yaml:"fsMultiplier"`
	Samples         int           `yaml:"samples"`
	SamplesMax      int           `yaml:"samplesMax"`
	InitialDelay    time.Duration `yaml:"initialDelay"`
	Delay           time.Duration `yaml:"delay"`
}

// Estimation configures the RMS and phase estimators.
type Estimation struct {
	Mode              string `yaml:"mode"`
	InterpolationRate int    `yaml:"interpolationRate"`
	Interpolation     string `yaml:"interpolation"`
	Trim              *bool  `yaml:"trim"`
	PhasePolicy       string `yaml:"phasePolicy"`
}

// Level configures closed-loop amplitude leveling.
type Level struct {
	Target float64 `yaml:"target"`
	// Unit of Target: Vrms, Vpp, dBu or dBV.
	Unit           string        `yaml:"unit"`
	Frequency      float64       `yaml:"frequency"`
	StartAmplitude float64       `yaml:"startAmplitude"`
	Threshold      float64       `yaml:"threshold"`
	MaxAmplitude   float64       `yaml:"maxAmplitude"`
	MinAmplitude   float64       `yaml:"minAmplitude"`
	KTotal         float64       `yaml:"kTotal"`
	TauI           float64       `yaml:"tauI"`
	TauD           float64       `yaml:"tauD"`
	SampleRate     float64       `yaml:"sampleRate"`
	Samples        int           `yaml:"samples"`
	Settle         time.Duration `yaml:"settle"`
	MaxIterations  int           `yaml:"maxIterations"`
	MaxRetries     int           `yaml:"maxRetries"`
	// BeforeSweep levels the generator and sweeps at the leveled amplitude
	// instead of generator.amplitude.
	BeforeSweep bool `yaml:"beforeSweep"`
}

// Storage represents storage settings. An empty path disables persistence.
type Storage struct {
	Path string `yaml:"path"`
}

// Metrics configures the Prometheus endpoint. An empty listen address
// disables it.
type Metrics struct {
	Listen string `yaml:"listen"`
}

// Load reads a YAML file and fills everything it leaves unset from
// [Default].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses YAML from r like [Load].
func Read(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg = cfg.Merge(Default())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Merge returns c with every unset field taken from other.
func (c Config) Merge(other Config) Config {
	merge(reflect.ValueOf(&c).Elem(), reflect.ValueOf(other), false)
	return c
}

// Override returns c with every field that is set in other replaced.
func (c Config) Override(other Config) Config {
	merge(reflect.ValueOf(&c).Elem(), reflect.ValueOf(other), true)
	return c
}

// merge walks dst and src field by field. Zero values count as unset.
func merge(dst, src reflect.Value, override bool) {
	if dst.Kind() == reflect.Struct {
		for i := range dst.NumField() {
			merge(dst.Field(i), src.Field(i), override)
		}
		return
	}
	if src.IsZero() {
		return
	}
	if !override && !dst.IsZero() {
		return
	}

	switch src.Kind() {
	case reflect.Pointer:
		p := reflect.New(src.Type().Elem())
		p.Elem().Set(src.Elem())
		dst.Set(p)
	case reflect.Slice:
		dst.Set(reflect.AppendSlice(reflect.MakeSlice(src.Type(), 0, src.Len()), src))
	default:
		dst.Set(src)
	}
}

// Validate checks the values that cannot be checked by the measurement
// packages themselves.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, err := c.SlogLevel(); err != nil {
		add("settings.logLevel %q", c.Settings.LogLevel)
	}

	switch c.Generator.Transport {
	case TransportSim, TransportUSBTMC:
	case TransportTCP:
		if c.Generator.Address == "" {
			add("generator.address is required for the tcp transport")
		}
	default:
		add("generator.transport %q", c.Generator.Transport)
	}
	if c.Generator.Timeout < 0 {
		add("generator.timeout %s", c.Generator.Timeout)
	}

	if n := len(c.Digitizer.Channels); n < 1 || n > 2 {
		add("digitizer.channels needs one or two channels, got %d", n)
	}

	switch strings.ToLower(c.Simulation.Response) {
	case ResponseFlat, ResponseGain:
	case ResponseLowPass:
		if !(c.Simulation.Cutoff > 0) {
			add("simulation.cutoff %g", c.Simulation.Cutoff)
		}
	default:
		add("simulation.response %q", c.Simulation.Response)
	}
	if c.Simulation.Noise < 0 {
		add("simulation.noise %g", c.Simulation.Noise)
	}

	if _, err := c.EstimatorOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, _, _, err := c.PhaseOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := core.ParseUnit(c.Level.Unit); err != nil {
		add("level.unit %q", c.Level.Unit)
	}

	if c.Sampling.InitialDelay < 0 || c.Sampling.Delay < 0 || c.Level.Settle < 0 {
		add("delays must not be negative")
	}

	return errors.Join(errs...)
}

// SlogLevel parses settings.logLevel. An empty level means info.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if c.Settings.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return 0, err
	}
	return lvl, nil
}
