package config

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-audiotest/dsp/core"
	"github.com/cwbudde/algo-audiotest/dsp/interp"
	"github.com/cwbudde/algo-audiotest/instrument/sim"
	"github.com/cwbudde/algo-audiotest/measure/level"
	"github.com/cwbudde/algo-audiotest/measure/phase"
	"github.com/cwbudde/algo-audiotest/measure/rms"
	"github.com/cwbudde/algo-audiotest/measure/sweep"
)

// SweepSampling returns the per-point capture settings.
func (c Config) SweepSampling() sweep.Sampling {
	return sweep.Sampling{
		FsMultiplier: c.Sampling.FsMultiplier,
		FsMax:        c.Digitizer.MaxSampleRate,
		Samples:      c.Sampling.Samples,
		SamplesMax:   c.Sampling.SamplesMax,
	}
}

// SweepConfig builds the sweep runner configuration.
func (c Config) SweepConfig() (sweep.Config, error) {
	scale, err := sweep.NewLogScale(c.Sampling.FrequencyMin, c.Sampling.FrequencyMax, c.Sampling.PointsPerDecade)
	if err != nil {
		return sweep.Config{}, err
	}

	cfg := sweep.Config{
		Scale:         scale,
		Sampling:      c.SweepSampling(),
		Amplitude:     c.Generator.Amplitude,
		HardLimit:     c.Generator.HardLimit,
		Channels:      append([]string(nil), c.Digitizer.Channels...),
		InitialSettle: c.Sampling.InitialDelay,
		Settle:        c.Sampling.Delay,
	}
	return cfg, cfg.Validate()
}

// LevelConfig builds the leveling configuration. The target is converted
// to Vrms and the last digitizer channel is measured.
func (c Config) LevelConfig() (level.Config, error) {
	unit, err := core.ParseUnit(c.Level.Unit)
	if err != nil {
		return level.Config{}, fmt.Errorf("%w: level.unit: %w", ErrInvalid, err)
	}
	target, err := core.Convert(c.Level.Target, unit, core.Vrms)
	if err != nil {
		return level.Config{}, err
	}

	cfg := level.Config{
		Target:         target,
		StartAmplitude: c.Level.StartAmplitude,
		Threshold:      c.Level.Threshold,
		Frequency:      c.Level.Frequency,
		SampleRate:     c.Level.SampleRate,
		Samples:        c.Level.Samples,
		KTotal:         c.Level.KTotal,
		TauI:           c.Level.TauI,
		TauD:           c.Level.TauD,
		HardLimit:      c.Generator.HardLimit,
		MaxAmplitude:   c.Level.MaxAmplitude,
		MinAmplitude:   c.Level.MinAmplitude,
		Settle:         c.Level.Settle,
		MaxIterations:  c.Level.MaxIterations,
		MaxRetries:     c.Level.MaxRetries,
	}
	if n := len(c.Digitizer.Channels); n > 0 {
		cfg.Channel = c.Digitizer.Channels[n-1]
	}
	return cfg, cfg.Validate()
}

// EstimatorOptions returns the RMS estimator options.
func (c Config) EstimatorOptions() ([]rms.Option, error) {
	mode, err := rms.ParseMode(c.Estimation.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: estimation.mode: %w", ErrInvalid, err)
	}
	kind, err := interp.ParseKind(c.Estimation.Interpolation)
	if err != nil {
		return nil, fmt.Errorf("%w: estimation.interpolation: %w", ErrInvalid, err)
	}

	opts := []rms.Option{
		rms.WithMode(mode),
		rms.WithInterpolation(c.Estimation.InterpolationRate, kind),
	}
	if c.Estimation.Trim != nil {
		opts = append(opts, rms.WithTrim(*c.Estimation.Trim))
	}
	return opts, nil
}

// PhaseOptions returns the phase search policy and the interpolation used
// before the phase estimate.
func (c Config) PhaseOptions() (phase.Policy, int, interp.Kind, error) {
	policy, err := phase.ParsePolicy(c.Estimation.PhasePolicy)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: estimation.phasePolicy: %w", ErrInvalid, err)
	}
	kind, err := interp.ParseKind(c.Estimation.Interpolation)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: estimation.interpolation: %w", ErrInvalid, err)
	}
	return policy, c.Estimation.InterpolationRate, kind, nil
}

// SimOptions returns the options for a simulated bench.
func (c Config) SimOptions() []sim.Option {
	opts := []sim.Option{sim.WithMaxSampleRate(c.Digitizer.MaxSampleRate)}

	switch strings.ToLower(c.Simulation.Response) {
	case ResponseGain:
		opts = append(opts, sim.WithResponse(sim.Gain(c.Simulation.GainDB)))
	case ResponseLowPass:
		opts = append(opts, sim.WithResponse(sim.LowPass(c.Simulation.Cutoff)))
	}
	if c.Simulation.Noise > 0 {
		opts = append(opts, sim.WithNoise(c.Simulation.Noise, c.Simulation.Seed))
	}
	return opts
}
