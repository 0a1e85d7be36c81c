package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-audiotest/dsp/core"
	"github.com/cwbudde/algo-audiotest/dsp/interp"
	"github.com/cwbudde/algo-audiotest/instrument"
	"github.com/cwbudde/algo-audiotest/measure/level"
	"github.com/cwbudde/algo-audiotest/measure/phase"
	"github.com/cwbudde/algo-audiotest/measure/rms"
	"github.com/cwbudde/algo-audiotest/measure/waveform"
)

// Defaults for [Config].
const (
	DefaultInitialSettle = 2 * time.Second
	DefaultSettle        = 200 * time.Millisecond
	DefaultHardLimit     = level.DefaultHardLimit
)

// Config describes one sweep.
type Config struct {
	Scale    LogScale
	Sampling Sampling
	// Amplitude is the generator peak-to-peak amplitude.
	Amplitude float64
	// HardLimit rejects Amplitude before the output is enabled.
	HardLimit float64
	// Channels are captured together at every point. The RMS is taken on
	// the last channel. With two channels the phase of the second relative
	// to the first is measured as well.
	Channels []string
	// InitialSettle is waited once after the output is enabled, Settle
	// after every frequency change.
	InitialSettle time.Duration
	Settle        time.Duration
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Scale.Validate(); err != nil {
		return err
	}
	if c.Scale.Len() == 0 {
		return fmt.Errorf("%w: scale has no points, use NewLogScale", ErrInvalidConfig)
	}
	if err := c.Sampling.Validate(); err != nil {
		return err
	}
	if !(c.Amplitude > 0) {
		return fmt.Errorf("%w: amplitude %g", ErrInvalidConfig, c.Amplitude)
	}
	if n := len(c.Channels); n < 1 || n > 2 {
		return fmt.Errorf("%w: %d channels, want 1 or 2", ErrInvalidConfig, n)
	}
	if c.InitialSettle < 0 || c.Settle < 0 {
		return fmt.Errorf("%w: negative settle time", ErrInvalidConfig)
	}
	return nil
}

// Record is the measurement at one frequency.
type Record struct {
	Point
	RMS    float64
	GainDB float64
	// Phase is the offset of the second channel in degrees; valid when
	// HasPhase is set.
	Phase    float64
	HasPhase bool
	// Min and Max are the extreme voltages of the series the RMS was
	// computed on.
	Min     float64
	Max     float64
	Trimmed bool
}

// Skip is a frequency that could not be measured.
type Skip struct {
	Frequency float64
	Err       error
}

// Observer is notified as the sweep progresses.
type Observer interface {
	ObservePoint(Record)
	ObserveSkip(Skip)
}

// Runner drives the generator and the digitizer through a sweep.
type Runner struct {
	gen       instrument.Generator
	acq       instrument.Acquirer
	cfg       Config
	estimator *rms.Estimator
	policy    phase.Policy
	phaseRate int
	phaseKind interp.Kind
	logger    *slog.Logger
	observers []Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEstimator sets the RMS estimator.
func WithEstimator(e *rms.Estimator) Option {
	return func(r *Runner) {
		if e != nil {
			r.estimator = e
		}
	}
}

// WithPhasePolicy sets the zero-crossing search policy. Default
// [phase.AnySlope].
func WithPhasePolicy(p phase.Policy) Option {
	return func(r *Runner) { r.policy = p }
}

// WithPhaseInterpolation sets the upsampling applied to both channels
// before the phase is estimated. Default 10, cubic.
func WithPhaseInterpolation(rate int, kind interp.Kind) Option {
	return func(r *Runner) {
		r.phaseRate = rate
		r.phaseKind = kind
	}
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(gen instrument.Generator, acq instrument.Acquirer, cfg Config, opts ...Option) (*Runner, error) {
	if gen == nil || acq == nil {
		return nil, fmt.Errorf("%w: generator and acquirer are required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.HardLimit == 0 {
		cfg.HardLimit = DefaultHardLimit
	}
	r := &Runner{
		gen:       gen,
		acq:       acq,
		cfg:       cfg,
		policy:    phase.AnySlope,
		phaseRate: 10,
		phaseKind: interp.Cubic,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.estimator == nil {
		r.estimator = rms.New(rms.WithLogger(r.logger))
	}
	return r, nil
}

// Run performs the sweep. A point that fails is logged, reported to the
// observers and skipped. Run stops early only when ctx is done or the
// generator cannot be configured; the points measured so far are returned
// with the error. The generator output is switched off before Run returns.
func (r *Runner) Run(ctx context.Context) (res Result, err error) {
	cfg := r.cfg
	res = Result{
		Amplitude: cfg.Amplitude,
		Reference: core.VppToVrms(cfg.Amplitude),
		Started:   time.Now(),
	}
	defer func() {
		off := context.WithoutCancel(ctx)
		if _, offErr := instrument.Exec(off, r.gen, instrument.ShutdownSequence()...); offErr != nil {
			r.logger.Error("failed to switch output off", slog.String("err", offErr.Error()))
			err = errors.Join(err, offErr)
		}
		res.Finished = time.Now()
	}()

	if err := level.CheckPreflight(cfg.Amplitude, cfg.HardLimit); err != nil {
		r.logger.Error("pre-flight check failed",
			slog.Float64("amplitude", cfg.Amplitude),
			slog.Float64("threshold", cfg.HardLimit))
		return res, err
	}

	freqs := cfg.Scale.Frequencies()
	setup := append(instrument.SetupSequence(cfg.Amplitude, freqs[0]), instrument.SetOutput(1, instrument.On))
	if _, err := instrument.Exec(ctx, r.gen, setup...); err != nil {
		return res, fmt.Errorf("sweep: setup: %w", err)
	}
	if err := instrument.Settle(ctx, cfg.InitialSettle); err != nil {
		return res, err
	}

	r.logger.Info("sweep started",
		slog.Float64("min", cfg.Scale.Min),
		slog.Float64("max", cfg.Scale.Max),
		slog.Int("points", len(freqs)),
		slog.Float64("amplitude", cfg.Amplitude))

	for _, f := range freqs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rec, err := r.measure(ctx, f, res.Reference)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			skip := Skip{Frequency: f, Err: err}
			res.Skipped = append(res.Skipped, skip)
			r.logger.Warn("skipping point",
				slog.Float64("frequency", f),
				slog.String("err", err.Error()))
			for _, o := range r.observers {
				o.ObserveSkip(skip)
			}
			continue
		}

		res.Points = append(res.Points, rec)
		attrs := []any{
			slog.Float64("frequency", rec.Frequency),
			slog.Float64("sampling_frequency", rec.SamplingFrequency),
			slog.Int("samples", rec.Samples),
			slog.Float64("rms", rec.RMS),
			slog.Float64("gain_db", rec.GainDB),
		}
		if rec.HasPhase {
			attrs = append(attrs, slog.Float64("phase", rec.Phase))
		}
		r.logger.Debug("point measured", attrs...)
		for _, o := range r.observers {
			o.ObservePoint(rec)
		}
	}

	r.logger.Info("sweep finished",
		slog.Int("points", len(res.Points)),
		slog.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (r *Runner) measure(ctx context.Context, f, reference float64) (Record, error) {
	cfg := r.cfg

	plan, err := cfg.Sampling.Plan(f)
	if err != nil {
		return Record{}, err
	}
	if err := r.gen.Send(ctx, instrument.SetFrequency(1, f)); err != nil {
		return Record{}, err
	}
	if err := instrument.Settle(ctx, cfg.Settle); err != nil {
		return Record{}, err
	}

	data, err := r.acq.Acquire(ctx, cfg.Channels, plan.SamplingFrequency, plan.Samples)
	if err != nil {
		return Record{}, err
	}
	if len(data) != len(cfg.Channels) {
		return Record{}, fmt.Errorf("%w: got %d channels, want %d", instrument.ErrAcquisition, len(data), len(cfg.Channels))
	}

	waves := make([]*waveform.Waveform, len(data))
	for i, samples := range data {
		if waves[i], err = waveform.New(samples, f, plan.SamplingFrequency); err != nil {
			return Record{}, fmt.Errorf("channel %s: %w", cfg.Channels[i], err)
		}
	}

	est, err := r.estimator.Estimate(waves[len(waves)-1])
	if err != nil {
		return Record{}, err
	}
	stats := est.Waveform.Stats()
	rec := Record{
		Point:   plan,
		RMS:     est.RMS,
		GainDB:  core.GainDB(est.RMS, reference),
		Min:     stats.Min,
		Max:     stats.Max,
		Trimmed: est.Trimmed,
	}

	if len(waves) == 2 {
		a, err := waves[0].Upsample(r.phaseRate, r.phaseKind)
		if err != nil {
			return Record{}, err
		}
		b, err := waves[1].Upsample(r.phaseRate, r.phaseKind)
		if err != nil {
			return Record{}, err
		}
		p, err := phase.Offset(a, b, r.policy)
		if err != nil {
			return Record{}, err
		}
		rec.Phase = p.Degrees
		rec.HasPhase = true
	}
	return rec, nil
}
