package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-audiotest/measure/level"
	"github.com/cwbudde/algo-audiotest/measure/rms"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestReadEmptyIsDefault(t *testing.T) {
	cfg, err := Read(strings.NewReader("\n"))
	require.NoError(t, err)
	require.Equal(t, Default(), *cfg)
}

func TestReadMergesDefaults(t *testing.T) {
	const doc = `
settings:
  logLevel: debug
generator:
  transport: tcp
  address: 192.168.1.20
  amplitude: 1.5
digitizer:
  channels: [dut]
sampling:
  frequencyMin: 100
  delay: 150ms
estimation:
  trim: false
level:
  target: 1
  unit: Vrms
`
	cfg, err := Read(strings.NewReader(doc))
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Settings.LogLevel)
	require.Equal(t, TransportTCP, cfg.Generator.Transport)
	require.Equal(t, "192.168.1.20", cfg.Generator.Address)
	require.Equal(t, 1.5, cfg.Generator.Amplitude)
	require.Equal(t, []string{"dut"}, cfg.Digitizer.Channels)
	require.Equal(t, 100.0, cfg.Sampling.FrequencyMin)
	require.Equal(t, 150*time.Millisecond, cfg.Sampling.Delay)
	require.NotNil(t, cfg.Estimation.Trim)
	require.False(t, *cfg.Estimation.Trim)

	// Unset fields come from the defaults.
	def := Default()
	require.Equal(t, def.Generator.Timeout, cfg.Generator.Timeout)
	require.Equal(t, def.Sampling.FrequencyMax, cfg.Sampling.FrequencyMax)
	require.Equal(t, def.Sampling.InitialDelay, cfg.Sampling.InitialDelay)
	require.Equal(t, def.Level.KTotal, cfg.Level.KTotal)
}

func TestReadRejectsUnknownFields(t *testing.T) {
	_, err := Read(strings.NewReader("sampling:\n  pointsPerDecad: 10\n"))
	require.Error(t, err)
}

func TestReadValidates(t *testing.T) {
	_, err := Read(strings.NewReader("generator:\n  transport: gpib\n"))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Read(strings.NewReader("generator:\n  transport: tcp\n"))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  path: runs.sqlite\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "runs.sqlite", cfg.Storage.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)

	cfg, err := Read(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Equal(t, Default(), *cfg)
}

func TestMergeFillsUnset(t *testing.T) {
	base := Config{Generator: Generator{Amplitude: 3}}
	other := Config{Generator: Generator{Amplitude: 1, Transport: TransportSim}}

	got := base.Merge(other)
	require.Equal(t, 3.0, got.Generator.Amplitude)
	require.Equal(t, TransportSim, got.Generator.Transport)
}

func TestOverrideReplacesSet(t *testing.T) {
	base := Default()
	trim := false
	other := Config{
		Generator:  Generator{Amplitude: 1},
		Estimation: Estimation{Trim: &trim},
	}

	got := base.Override(other)
	require.Equal(t, 1.0, got.Generator.Amplitude)
	require.Equal(t, base.Generator.Transport, got.Generator.Transport)
	require.False(t, *got.Estimation.Trim)

	// The result does not share the pointer or slices of its inputs.
	trim = true
	require.False(t, *got.Estimation.Trim)

	merged := Config{}.Merge(base)
	merged.Digitizer.Channels[0] = "x"
	require.Equal(t, "ref", base.Digitizer.Channels[0])
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Settings.LogLevel = "loud"
	cfg.Digitizer.Channels = []string{"a", "b", "c"}
	cfg.Simulation.Response = "notch"
	cfg.Estimation.Mode = "peak"
	cfg.Level.Unit = "W"
	cfg.Sampling.Delay = -time.Second

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{"logLevel", "channels", "response", "estimation.mode", "level.unit", "delays"} {
		require.Contains(t, err.Error(), want)
	}
}

func TestSweepConfig(t *testing.T) {
	cfg := Default()
	sc, err := cfg.SweepConfig()
	require.NoError(t, err)

	require.Equal(t, 31, sc.Scale.Len())
	require.Equal(t, 20.0, sc.Scale.Frequencies()[0])
	require.Equal(t, 1e6, sc.Sampling.FsMax)
	require.Equal(t, 2.0, sc.Amplitude)
	require.Equal(t, []string{"ref", "dut"}, sc.Channels)

	cfg.Sampling.FrequencyMax = 10
	_, err = cfg.SweepConfig()
	require.Error(t, err)
}

func TestLevelConfig(t *testing.T) {
	lc, err := Default().LevelConfig()
	require.NoError(t, err)
	require.InDelta(t, level.DefaultTarget, lc.Target, 1e-6)
	require.Equal(t, "dut", lc.Channel)
	require.Equal(t, float64(level.DefaultHardLimit), lc.HardLimit)
	require.Equal(t, level.DefaultMinAmplitude, lc.MinAmplitude)

	cfg := Default()
	cfg.Level.Target = 2
	cfg.Level.Unit = "vpp"
	lc, err = cfg.LevelConfig()
	require.NoError(t, err)
	require.InDelta(t, 1/math.Sqrt2, lc.Target, 1e-12)
}

func TestEstimatorOptions(t *testing.T) {
	cfg := Default()
	cfg.Estimation.Mode = "integrate"

	opts, err := cfg.EstimatorOptions()
	require.NoError(t, err)
	require.Equal(t, rms.Integrate, rms.New(opts...).Mode())

	policy, rate, kind, err := cfg.PhaseOptions()
	require.NoError(t, err)
	require.Equal(t, "any", policy.String())
	require.Equal(t, 10, rate)
	require.Equal(t, "cubic", kind.String())
}

func TestSlogLevel(t *testing.T) {
	cfg := Config{}
	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, "INFO", lvl.String())

	cfg.Settings.LogLevel = "warn"
	lvl, err = cfg.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, "WARN", lvl.String())
}
