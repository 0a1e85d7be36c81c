package waveform

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-audiotest/dsp/interp"
	timestats "github.com/cwbudde/algo-audiotest/stats/time"
)

// Errors returned by waveform functions.
var (
	ErrEmpty            = errors.New("waveform: no samples")
	ErrInvalidFrequency = errors.New("waveform: frequencies must be positive")
	ErrNyquist          = errors.New("waveform: input frequency exceeds Nyquist limit")
	ErrNoZeroCrossing   = errors.New("waveform: no usable zero crossing")
)

// Waveform is an immutable sequence of voltage samples captured while the
// generator was driven at InputFrequency.
type Waveform struct {
	samples           []float64
	inputFrequency    float64
	samplingFrequency float64
}

// CheckNyquist reports whether inputFrequency can be captured at
// samplingFrequency, i.e. inputFrequency <= samplingFrequency/2.
func CheckNyquist(inputFrequency, samplingFrequency float64) error {
	if !(inputFrequency > 0) || !(samplingFrequency > 0) {
		return fmt.Errorf("%w: f=%g Fs=%g", ErrInvalidFrequency, inputFrequency, samplingFrequency)
	}
	if inputFrequency > samplingFrequency/2 {
		return fmt.Errorf("%w: f=%g Hz > Fs/2=%g Hz", ErrNyquist, inputFrequency, samplingFrequency/2)
	}
	return nil
}

// New copies samples into a Waveform.
func New(samples []float64, inputFrequency, samplingFrequency float64) (*Waveform, error) {
	if len(samples) == 0 {
		return nil, ErrEmpty
	}
	if err := CheckNyquist(inputFrequency, samplingFrequency); err != nil {
		return nil, err
	}
	return &Waveform{
		samples:           append([]float64(nil), samples...),
		inputFrequency:    inputFrequency,
		samplingFrequency: samplingFrequency,
	}, nil
}

// Samples returns a copy of the sample values.
func (w *Waveform) Samples() []float64 {
	return append([]float64(nil), w.samples...)
}

// Len returns the number of samples.
func (w *Waveform) Len() int { return len(w.samples) }

// InputFrequency returns the generator frequency in Hz.
func (w *Waveform) InputFrequency() float64 { return w.inputFrequency }

// SamplingFrequency returns the sample rate in Hz.
func (w *Waveform) SamplingFrequency() float64 { return w.samplingFrequency }

// Duration returns the window length in seconds.
func (w *Waveform) Duration() float64 {
	return float64(len(w.samples)) / w.samplingFrequency
}

// Periods returns how many input periods the window spans.
func (w *Waveform) Periods() float64 {
	return w.Duration() * w.inputFrequency
}

// Stats returns time-domain statistics of the samples.
func (w *Waveform) Stats() timestats.Stats {
	return timestats.Calculate(w.samples)
}

// Upsample returns a waveform densified by rate with the given kernel. The
// sampling frequency is scaled by rate. A rate <= 1 returns the receiver.
func (w *Waveform) Upsample(rate int, kind interp.Kind) (*Waveform, error) {
	if rate <= 1 || len(w.samples) < 2 {
		return w, nil
	}
	up, err := interp.Upsample(w.samples, rate, kind)
	if err != nil {
		return nil, fmt.Errorf("waveform: upsample x%d: %w", rate, err)
	}
	return &Waveform{
		samples:           up,
		inputFrequency:    w.inputFrequency,
		samplingFrequency: w.samplingFrequency * float64(rate),
	}, nil
}

// RemoveDC returns the waveform shifted so that its peak midpoint
// (max+min)/2 is zero.
func (w *Waveform) RemoveDC() *Waveform {
	dc := timestats.Midpoint(w.samples)
	out := make([]float64, len(w.samples))
	for i, v := range w.samples {
		out[i] = v - dc
	}
	return &Waveform{
		samples:           out,
		inputFrequency:    w.inputFrequency,
		samplingFrequency: w.samplingFrequency,
	}
}

// Window is a half-open sample range [Start, End).
type Window struct {
	Start, End int
}

// Trim returns the whole-cycle portion of the waveform, see [TrimWholeCycles].
func (w *Waveform) Trim() (*Waveform, Window, error) {
	trimmed, start, end, err := TrimWholeCycles(w.samples)
	if err != nil {
		return nil, Window{}, err
	}
	return &Waveform{
		samples:           trimmed,
		inputFrequency:    w.inputFrequency,
		samplingFrequency: w.samplingFrequency,
	}, Window{Start: start, End: end}, nil
}
