package config

import (
	"time"

	"github.com/cwbudde/algo-audiotest/measure/level"
	"github.com/cwbudde/algo-audiotest/measure/sweep"
)

// DefaultStoragePath is used by the CLI when persistence is switched on
// without a path.
const DefaultStoragePath = "audiotest.sqlite"

// Default returns the configuration used for every field a file leaves
// unset: a simulated bench, 20 Hz to 20 kHz at ten points per decade and a
// +4 dBu leveling target at 1 kHz.
func Default() Config {
	sampling := sweep.DefaultSampling()
	lvl := level.DefaultConfig()
	trim := true

	return Config{
		Settings: Settings{LogLevel: "info"},
		Generator: Generator{
			Transport: TransportSim,
			Timeout:   5 * time.Second,
			Amplitude: 2,
			HardLimit: sweep.DefaultHardLimit,
		},
		Digitizer: Digitizer{
			Channels:      []string{"ref", "dut"},
			MaxSampleRate: sampling.FsMax,
		},
		Simulation: Simulation{
			Response: ResponseFlat,
			Cutoff:   1000,
			Seed:     1,
		},
		Sampling: Sampling{
			FrequencyMin:    20,
			FrequencyMax:    20000,
			PointsPerDecade: 10,
			FsMultiplier:    sampling.FsMultiplier,
			Samples:         sampling.Samples,
			SamplesMax:      sampling.SamplesMax,
			InitialDelay:    sweep.DefaultInitialSettle,
			Delay:           sweep.DefaultSettle,
		},
		Estimation: Estimation{
			Mode:              "fft",
			InterpolationRate: 10,
			Interpolation:     "cubic",
			Trim:              &trim,
			PhasePolicy:       "any",
		},
		Level: Level{
			Target:         4,
			Unit:           "dBu",
			Frequency:      lvl.Frequency,
			StartAmplitude: lvl.StartAmplitude,
			Threshold:      lvl.Threshold,
			MaxAmplitude:   lvl.MaxAmplitude,
			MinAmplitude:   lvl.MinAmplitude,
			KTotal:         lvl.KTotal,
			TauI:           lvl.TauI,
			TauD:           lvl.TauD,
			SampleRate:     lvl.SampleRate,
			Samples:        lvl.Samples,
			Settle:         lvl.Settle,
			MaxIterations:  lvl.MaxIterations,
			MaxRetries:     lvl.MaxRetries,
		},
	}
}
