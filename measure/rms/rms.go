package rms

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/cwbudde/algo-audiotest/dsp/interp"
	"github.com/cwbudde/algo-audiotest/dsp/spectrum"
	"github.com/cwbudde/algo-audiotest/measure/waveform"
	timestats "github.com/cwbudde/algo-audiotest/stats/time"
)

// SineFormFactor is RMS / mean(|v|) of a pure sine, π/(2√2).
const SineFormFactor = math.Pi / (2 * math.Sqrt2)

// Errors returned by the estimator.
var (
	ErrInvalidInput = errors.New("rms: invalid input")
	ErrUnknownMode  = errors.New("rms: unknown mode")
)

// Mode selects the estimation method.
type Mode int

const (
	FFT Mode = iota
	Average
	Integrate
)

var modeNames = []string{
	FFT:       "fft",
	Average:   "average",
	Integrate: "integrate",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Result is the outcome of one estimation.
type Result struct {
	// RMS is the value produced by the selected mode. For [Integrate] it is
	// the uncorrected time-average of |v|.
	RMS float64
	// SineRMS is RMS with the sine form factor applied where the mode does
	// not already account for it.
	SineRMS float64
	// Waveform is the series the value was computed on, after upsampling
	// and, if it succeeded, trimming.
	Waveform *waveform.Waveform
	Trimmed  bool
	Window   waveform.Window
}

// Estimator computes RMS values with a fixed configuration.
type Estimator struct {
	mode   Mode
	rate   int
	kind   interp.Kind
	trim   bool
	logger *slog.Logger
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithMode sets the estimation mode. Default [FFT].
func WithMode(m Mode) Option {
	return func(e *Estimator) { e.mode = m }
}

// WithInterpolation sets the upsampling rate and kernel applied before
// estimation. A rate <= 1 disables upsampling. Default 10, cubic.
func WithInterpolation(rate int, kind interp.Kind) Option {
	return func(e *Estimator) {
		e.rate = rate
		e.kind = kind
	}
}

// WithTrim enables or disables whole-cycle trimming. Default enabled.
func WithTrim(trim bool) Option {
	return func(e *Estimator) { e.trim = trim }
}

// WithLogger sets the logger used to report trim fallbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New returns an Estimator.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		mode:   FFT,
		rate:   10,
		kind:   interp.Cubic,
		trim:   true,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Mode returns the configured mode.
func (e *Estimator) Mode() Mode { return e.mode }

// Estimate computes the RMS of w.
func (e *Estimator) Estimate(w *waveform.Waveform) (Result, error) {
	if w == nil || w.Len() == 0 {
		return Result{}, fmt.Errorf("%w: empty waveform", ErrInvalidInput)
	}

	used, err := w.Upsample(e.rate, e.kind)
	if err != nil {
		return Result{}, fmt.Errorf("rms: %w", err)
	}

	res := Result{Waveform: used}
	if e.trim {
		trimmed, win, err := used.Trim()
		if err != nil {
			e.logger.Warn("trim failed, using untrimmed series",
				slog.Float64("frequency", used.InputFrequency()),
				slog.Int("samples", used.Len()),
				slog.String("err", err.Error()))
		} else {
			res.Waveform = trimmed
			res.Trimmed = true
			res.Window = win
		}
	}

	samples := res.Waveform.Samples()
	switch e.mode {
	case FFT:
		v, err := FromSpectrum(samples)
		if err != nil {
			return Result{}, err
		}
		res.RMS, res.SineRMS = v, v
	case Average:
		v := FromAverage(samples)
		res.RMS, res.SineRMS = v, v
	case Integrate:
		v := FromIntegral(samples, res.Waveform.SamplingFrequency())
		res.RMS, res.SineRMS = v, v*SineFormFactor
	default:
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownMode, e.mode)
	}

	return res, nil
}

// FromSpectrum returns sqrt(Σ|X[k]|²)/N. The transform is zero-padded, so
// the bin energy is normalised by the padded size before dividing by N.
func FromSpectrum(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("%w: empty series", ErrInvalidInput)
	}
	energy, err := spectrum.Energy(samples)
	if err != nil {
		return 0, fmt.Errorf("rms: %w", err)
	}
	return math.Sqrt(energy / float64(len(samples))), nil
}

// FromAverage returns mean(|v|) * [SineFormFactor].
func FromAverage(samples []float64) float64 {
	return timestats.MeanAbs(samples) * SineFormFactor
}

// FromIntegral returns ∫|v|dt / T over the window, integrating each sample
// interval as a rectangle plus triangle. Across a sign change the interval
// contributes a quarter of each sample's rectangle.
func FromIntegral(samples []float64, sampleRate float64) float64 {
	if len(samples) == 0 || !(sampleRate > 0) {
		return 0
	}

	dt := 1 / sampleRate

	var area float64
	for i := 0; i+1 < len(samples); i++ {
		y, y1 := samples[i], samples[i+1]
		l, r := math.Abs(y)*dt, math.Abs(y1)*dt
		if y*y1 < 0 {
			area += l/4 + r/4
			continue
		}
		area += math.Min(l, r) + math.Abs(l-r)/2
	}

	return area / (float64(len(samples)) * dt)
}
