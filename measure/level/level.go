package level

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/algo-audiotest/control/pid"
	"github.com/cwbudde/algo-audiotest/dsp/core"
	"github.com/cwbudde/algo-audiotest/instrument"
	"github.com/cwbudde/algo-audiotest/measure/rms"
	"github.com/cwbudde/algo-audiotest/measure/waveform"
)

// Errors returned by the leveler.
var (
	ErrSafetyLimit   = errors.New("level: amplitude exceeds safety limit")
	ErrNotConverged  = errors.New("level: did not converge")
	ErrInvalidConfig = errors.New("level: invalid configuration")
	ErrNoSignal      = errors.New("level: no signal at the device output")
)

// Defaults for [DefaultConfig].
const (
	DefaultTarget         = 1.227653 // Vrms, +4 dBu
	DefaultStartAmplitude = 0.01     // Vpp
	DefaultThreshold      = 0.001    // V
	DefaultFrequency      = 1000     // Hz
	DefaultKTotal         = 0.2745
	DefaultHardLimit      = 12    // Vpp
	DefaultMaxAmplitude   = 11    // Vpp
	DefaultMinAmplitude   = 0.001 // Vpp
	DefaultSettle         = 400 * time.Millisecond
	DefaultMaxIterations  = 100
	DefaultMaxRetries     = 10
)

// Config describes one leveling run.
type Config struct {
	// Target is the RMS voltage to reach at the device output.
	Target float64
	// StartAmplitude is the first peak-to-peak amplitude programmed.
	StartAmplitude float64
	// Threshold ends the loop once |Target - rms| < Threshold.
	Threshold float64
	Frequency float64

	// Digitizer settings used for every measurement.
	Channel    string
	SampleRate float64
	Samples    int

	KTotal float64
	TauI   float64
	TauD   float64

	// HardLimit rejects a start amplitude before the output is enabled.
	HardLimit float64
	// MaxAmplitude and MinAmplitude clamp every programmed amplitude.
	MaxAmplitude float64
	MinAmplitude float64

	Settle        time.Duration
	MaxIterations int
	// MaxRetries bounds consecutive failed measurements.
	MaxRetries int
}

// DefaultConfig returns a +4 dBu calibration at 1 kHz.
func DefaultConfig() Config {
	return Config{
		Target:         DefaultTarget,
		StartAmplitude: DefaultStartAmplitude,
		Threshold:      DefaultThreshold,
		Frequency:      DefaultFrequency,
		Channel:        "dut",
		SampleRate:     50 * DefaultFrequency,
		Samples:        1000,
		KTotal:         DefaultKTotal,
		TauI:           1,
		TauD:           0.5,
		HardLimit:      DefaultHardLimit,
		MaxAmplitude:   DefaultMaxAmplitude,
		MinAmplitude:   DefaultMinAmplitude,
		Settle:         DefaultSettle,
		MaxIterations:  DefaultMaxIterations,
		MaxRetries:     DefaultMaxRetries,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case !(c.Target > 0):
		return fmt.Errorf("%w: target %g", ErrInvalidConfig, c.Target)
	case !(c.StartAmplitude > 0):
		return fmt.Errorf("%w: start amplitude %g", ErrInvalidConfig, c.StartAmplitude)
	case !(c.Threshold > 0):
		return fmt.Errorf("%w: threshold %g", ErrInvalidConfig, c.Threshold)
	case c.Channel == "":
		return fmt.Errorf("%w: no channel", ErrInvalidConfig)
	case c.Samples <= 0:
		return fmt.Errorf("%w: samples %d", ErrInvalidConfig, c.Samples)
	case !(c.KTotal > 0):
		return fmt.Errorf("%w: kTotal %g", ErrInvalidConfig, c.KTotal)
	case !(c.MaxAmplitude > 0) || c.MaxAmplitude > c.HardLimit:
		return fmt.Errorf("%w: max amplitude %g must be in (0, %g]", ErrInvalidConfig, c.MaxAmplitude, c.HardLimit)
	case !(c.MinAmplitude > 0) || c.MinAmplitude > c.StartAmplitude:
		return fmt.Errorf("%w: min amplitude %g must be in (0, %g]", ErrInvalidConfig, c.MinAmplitude, c.StartAmplitude)
	case c.MaxIterations <= 0 || c.MaxRetries < 0:
		return fmt.Errorf("%w: iterations %d, retries %d", ErrInvalidConfig, c.MaxIterations, c.MaxRetries)
	}
	if err := waveform.CheckNyquist(c.Frequency, c.SampleRate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// CheckPreflight rejects an amplitude above limit.
func CheckPreflight(amplitude, limit float64) error {
	if amplitude > limit {
		return fmt.Errorf("%w: %g Vpp > %g Vpp", ErrSafetyLimit, amplitude, limit)
	}
	return nil
}

// Step is one iteration of the loop.
type Step struct {
	Iteration int
	// Amplitude is the peak-to-peak amplitude the measurement was taken at.
	Amplitude float64
	RMS       float64
	Error     float64
	// GainDB compares RMS with the generator output amplitude.
	GainDB float64
	// Control is the controller update, zero for the converging step.
	Control   pid.Iteration
	Converged bool
}

// Result is the outcome of a run.
type Result struct {
	// Amplitude is the peak-to-peak amplitude that produced the target.
	Amplitude  float64
	RMS        float64
	GainDB     float64
	Iterations int
	// Gain is the calibrated controller gain.
	Gain    float64
	Steps   []Step
	History *pid.History
}

// Leveler runs the calibration loop against a generator and a digitizer.
type Leveler struct {
	gen       instrument.Generator
	acq       instrument.Acquirer
	cfg       Config
	estimator *rms.Estimator
	logger    *slog.Logger
	onStep    func(Step)
}

// Option configures a Leveler.
type Option func(*Leveler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Leveler) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithEstimator sets the RMS estimator. Default [rms.New] with defaults.
func WithEstimator(e *rms.Estimator) Option {
	return func(l *Leveler) {
		if e != nil {
			l.estimator = e
		}
	}
}

// WithStepHandler registers fn to be called after every iteration.
func WithStepHandler(fn func(Step)) Option {
	return func(l *Leveler) { l.onStep = fn }
}

// NewLeveler validates cfg and returns a Leveler.
func NewLeveler(gen instrument.Generator, acq instrument.Acquirer, cfg Config, opts ...Option) (*Leveler, error) {
	if gen == nil || acq == nil {
		return nil, fmt.Errorf("%w: generator and acquirer are required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Leveler{
		gen:    gen,
		acq:    acq,
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.estimator == nil {
		l.estimator = rms.New(rms.WithLogger(l.logger))
	}
	return l, nil
}

// Run levels the generator. On success the output is left programmed at
// Result.Amplitude but switched off.
func (l *Leveler) Run(ctx context.Context) (res Result, err error) {
	cfg := l.cfg
	defer func() {
		off := context.WithoutCancel(ctx)
		if _, offErr := instrument.Exec(off, l.gen, instrument.SetOutput(1, instrument.Off)); offErr != nil {
			l.logger.Error("failed to switch output off", slog.String("err", offErr.Error()))
			err = errors.Join(err, offErr)
		}
	}()

	if err := CheckPreflight(cfg.StartAmplitude, cfg.HardLimit); err != nil {
		l.logger.Error("pre-flight check failed",
			slog.Float64("amplitude", cfg.StartAmplitude),
			slog.Float64("threshold", cfg.HardLimit))
		return Result{}, err
	}

	setup := []string{
		instrument.Clear(),
		instrument.SetOutput(1, instrument.Off),
		instrument.SetFunctionSine(1),
		instrument.SetAmplitude(1, cfg.StartAmplitude),
		instrument.SetFrequency(1, cfg.Frequency),
		instrument.SetOutput(1, instrument.On),
	}
	if _, err := instrument.Exec(ctx, l.gen, setup...); err != nil {
		return Result{}, fmt.Errorf("level: setup: %w", err)
	}

	history := pid.NewHistory(cfg.StartAmplitude)
	ctrl, err := pid.New(pid.Params{
		SetPoint:   cfg.Target,
		Gain:       cfg.KTotal,
		TauI:       cfg.TauI,
		TauD:       cfg.TauD,
		OutputZero: cfg.StartAmplitude,
	}, pid.WithHistory(history), pid.WithOutputLimits(cfg.MinAmplitude, cfg.MaxAmplitude))
	if err != nil {
		return Result{}, fmt.Errorf("level: %w", err)
	}

	res.History = history
	amplitude := cfg.StartAmplitude
	started := time.Now()
	calibrated := false
	retries := 0

	for iteration := 0; iteration < cfg.MaxIterations; {
		if err := instrument.Settle(ctx, cfg.Settle); err != nil {
			return res, err
		}

		v, err := l.measure(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			retries++
			l.logger.Warn("measurement failed, retrying",
				slog.Int("iteration", iteration),
				slog.Int("retry", retries),
				slog.Float64("amplitude", amplitude),
				slog.String("err", err.Error()))
			if retries > cfg.MaxRetries {
				return res, fmt.Errorf("level: %d consecutive failed measurements: %w", retries, err)
			}
			continue
		}
		retries = 0

		if !calibrated {
			if v == 0 {
				l.logger.Error("no signal, cannot calibrate controller gain",
					slog.Float64("amplitude", amplitude),
					slog.Float64("rms", v))
				return res, fmt.Errorf("%w at %g Vpp", ErrNoSignal, amplitude)
			}
			apparent := v / cfg.StartAmplitude
			if err := ctrl.SetGain(cfg.KTotal / apparent); err != nil {
				return res, fmt.Errorf("level: calibrate gain: %w", err)
			}
			calibrated = true
			l.logger.Debug("calibrated controller gain",
				slog.Float64("apparent_gain", apparent),
				slog.Float64("gain", ctrl.Params().Gain))
		}

		e, err := ctrl.Record(v, time.Since(started))
		if err != nil {
			return res, fmt.Errorf("level: %w", err)
		}

		step := Step{
			Iteration: iteration,
			Amplitude: amplitude,
			RMS:       v,
			Error:     e,
			GainDB:    core.GainDB(v, core.VppToVrms(amplitude)),
		}

		if pid.WithinTolerance(e, cfg.Threshold) {
			ctrl.MarkConverged()
			step.Converged = true
			l.record(&res, step)
			res.Amplitude = amplitude
			res.RMS = v
			res.GainDB = step.GainDB
			res.Iterations = iteration
			res.Gain = ctrl.Params().Gain
			l.logger.Info("level reached",
				slog.Float64("amplitude", amplitude),
				slog.Float64("rms", v),
				slog.Float64("gain_db", step.GainDB),
				slog.Int("iterations", iteration))
			return res, nil
		}

		it, err := ctrl.Update()
		if err != nil {
			return res, fmt.Errorf("level: %w", err)
		}
		step.Control = it
		l.record(&res, step)

		if it.Clamped {
			limit := cfg.MaxAmplitude
			if it.Raw < cfg.MinAmplitude {
				limit = cfg.MinAmplitude
			}
			l.logger.Warn("amplitude clamped",
				slog.Float64("amplitude", it.Raw),
				slog.Float64("rms", v),
				slog.Float64("threshold", limit))
		}

		amplitude = it.Output
		if err := l.gen.Send(ctx, instrument.SetAmplitude(1, amplitude)); err != nil {
			return res, fmt.Errorf("level: set amplitude: %w", err)
		}
		iteration++
	}

	res.Iterations = cfg.MaxIterations
	res.Gain = ctrl.Params().Gain
	return res, fmt.Errorf("%w after %d iterations", ErrNotConverged, cfg.MaxIterations)
}

func (l *Leveler) record(res *Result, s Step) {
	res.Steps = append(res.Steps, s)
	l.logger.Debug("level step",
		slog.Int("iteration", s.Iteration),
		slog.Float64("amplitude", s.Amplitude),
		slog.Float64("rms", s.RMS),
		slog.Float64("error", s.Error),
		slog.Float64("gain_db", s.GainDB))
	if l.onStep != nil {
		l.onStep(s)
	}
}

// measure returns the RMS at the configured frequency. Zero is a valid
// reading of a silent device.
func (l *Leveler) measure(ctx context.Context) (float64, error) {
	cfg := l.cfg
	data, err := l.acq.Acquire(ctx, []string{cfg.Channel}, cfg.SampleRate, cfg.Samples)
	if err != nil {
		return 0, err
	}
	if len(data) != 1 {
		return 0, fmt.Errorf("%w: got %d channels, want 1", instrument.ErrAcquisition, len(data))
	}
	w, err := waveform.New(data[0], cfg.Frequency, cfg.SampleRate)
	if err != nil {
		return 0, err
	}
	r, err := l.estimator.Estimate(w)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(r.RMS) || math.IsInf(r.RMS, 0) || r.RMS < 0 {
		return 0, fmt.Errorf("%w: rms %g", instrument.ErrAcquisition, r.RMS)
	}
	return r.RMS, nil
}
