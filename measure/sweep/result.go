package sweep

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-audiotest/dsp/interp"
	"github.com/cwbudde/algo-audiotest/stats/frequency"
)

// Result is the outcome of a sweep, in frequency order.
type Result struct {
	Points  []Record
	Skipped []Skip
	// Amplitude is the generator peak-to-peak amplitude and Reference the
	// RMS it corresponds to; GainDB is relative to Reference.
	Amplitude float64
	Reference float64
	Started   time.Time
	Finished  time.Time
}

// Frequencies returns the frequency of every measured point.
func (r Result) Frequencies() []float64 {
	return r.column(func(p Record) float64 { return p.Frequency })
}

// Gains returns the gain in dB of every measured point.
func (r Result) Gains() []float64 {
	return r.column(func(p Record) float64 { return p.GainDB })
}

// Levels returns the RMS voltage of every measured point.
func (r Result) Levels() []float64 {
	return r.column(func(p Record) float64 { return p.RMS })
}

// Phases returns the frequencies and phase offsets of the points that
// carry a phase.
func (r Result) Phases() (freqs, degrees []float64) {
	for _, p := range r.Points {
		if p.HasPhase {
			freqs = append(freqs, p.Frequency)
			degrees = append(degrees, p.Phase)
		}
	}
	return freqs, degrees
}

func (r Result) column(fn func(Record) float64) []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = fn(p)
	}
	return out
}

// Smooth resamples the gain curve onto n points evenly spaced in log10(f),
// as needed for plotting on a logarithmic axis.
func (r Result) Smooth(n int, kind interp.Kind) (freqs, gains []float64, err error) {
	freqs, gains, err = interp.ResampleLogX(r.Frequencies(), r.Gains(), n, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("sweep: smooth: %w", err)
	}
	return freqs, gains, nil
}

// Summary returns the peak, spread and -3 dB band edges of the gain curve.
func (r Result) Summary() (frequency.Stats, error) {
	return frequency.Calculate(r.Frequencies(), r.Gains())
}
