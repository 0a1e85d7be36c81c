package sweep

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by sweep functions.
var (
	ErrInvalidFrequency = errors.New("sweep: frequency must be positive")
	ErrFrequencyOrder   = errors.New("sweep: minimum frequency must not exceed maximum frequency")
	ErrPointsPerDecade  = errors.New("sweep: points per decade must be positive")
	ErrInvalidSampling  = errors.New("sweep: invalid sampling configuration")
	ErrInvalidConfig    = errors.New("sweep: invalid configuration")
)

// countEpsilon absorbs the rounding of log10 at exact decade boundaries, so
// 10 Hz to 1 kHz at 10 points per decade yields 21 points and not 20.
const countEpsilon = 1e-9

// LogScale is an ordered list of frequencies evenly spaced in log10(f),
// including both ends.
type LogScale struct {
	Min             float64
	Max             float64
	PointsPerDecade float64

	frequencies []float64
}

// NewLogScale returns the scale from minHz to maxHz with
// floor((log10 max - log10 min)·ppd) + 1 points.
func NewLogScale(minHz, maxHz, pointsPerDecade float64) (LogScale, error) {
	s := LogScale{Min: minHz, Max: maxHz, PointsPerDecade: pointsPerDecade}
	if err := s.Validate(); err != nil {
		return LogScale{}, err
	}

	lo, hi := math.Log10(minHz), math.Log10(maxHz)
	count := int(math.Floor((hi-lo)*pointsPerDecade+countEpsilon)) + 1
	if count < 2 {
		s.frequencies = []float64{minHz}
		return s, nil
	}

	exps := floats.Span(make([]float64, count), lo, hi)
	s.frequencies = make([]float64, count)
	for i, x := range exps {
		s.frequencies[i] = math.Pow(10, x)
	}
	s.frequencies[0] = minHz
	s.frequencies[count-1] = maxHz
	return s, nil
}

// Validate checks the scale bounds.
func (s LogScale) Validate() error {
	if !(s.Min > 0) || !(s.Max > 0) || math.IsInf(s.Max, 0) {
		return ErrInvalidFrequency
	}
	if s.Min > s.Max {
		return ErrFrequencyOrder
	}
	if !(s.PointsPerDecade > 0) || math.IsInf(s.PointsPerDecade, 0) {
		return ErrPointsPerDecade
	}
	return nil
}

// Frequencies returns a copy of the scale frequencies in Hz.
func (s LogScale) Frequencies() []float64 {
	return append([]float64(nil), s.frequencies...)
}

// Len returns the number of points.
func (s LogScale) Len() int { return len(s.frequencies) }
