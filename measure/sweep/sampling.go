package sweep

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-audiotest/measure/waveform"
)

// Sampling derives the digitizer settings for a test frequency.
type Sampling struct {
	// FsMultiplier is the requested sample rate as a multiple of the test
	// frequency.
	FsMultiplier float64
	// FsMax is the digitizer rate limit in Hz.
	FsMax float64
	// Samples is the capture length.
	Samples int
	// SamplesMax caps Samples when > 0.
	SamplesMax int
}

// DefaultSampling returns 50× oversampling, 1000 samples and the 1 MS/s
// limit of a typical simultaneous-sampling digitizer.
func DefaultSampling() Sampling {
	return Sampling{
		FsMultiplier: 50,
		FsMax:        1e6,
		Samples:      1000,
	}
}

// Validate checks the sampling configuration.
func (s Sampling) Validate() error {
	if !(s.FsMultiplier > 0) || !(s.FsMax > 0) {
		return fmt.Errorf("%w: multiplier %g, max rate %g", ErrInvalidSampling, s.FsMultiplier, s.FsMax)
	}
	if s.Samples <= 0 || s.SamplesMax < 0 {
		return fmt.Errorf("%w: samples %d, max %d", ErrInvalidSampling, s.Samples, s.SamplesMax)
	}
	return nil
}

// Point is the capture plan for one frequency.
type Point struct {
	Frequency         float64
	SamplingFrequency float64
	// OversamplingRatio is SamplingFrequency / Frequency.
	OversamplingRatio float64
	// Periods is the number of signal periods in the capture.
	Periods float64
	Samples int
}

// Plan returns the capture plan for frequency. The sample rate is
// min(frequency·FsMultiplier, FsMax) and must satisfy the Nyquist limit.
func (s Sampling) Plan(frequency float64) (Point, error) {
	if err := s.Validate(); err != nil {
		return Point{}, err
	}
	if !(frequency > 0) {
		return Point{}, ErrInvalidFrequency
	}

	fs := math.Min(frequency*s.FsMultiplier, s.FsMax)
	if err := waveform.CheckNyquist(frequency, fs); err != nil {
		return Point{}, err
	}

	n := s.Samples
	if s.SamplesMax > 0 && n > s.SamplesMax {
		n = s.SamplesMax
	}
	ratio := fs / frequency
	return Point{
		Frequency:         frequency,
		SamplingFrequency: fs,
		OversamplingRatio: ratio,
		Periods:           float64(n) / ratio,
		Samples:           n,
	}, nil
}
