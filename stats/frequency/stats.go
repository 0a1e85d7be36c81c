// Package frequency summarizes measured magnitude responses.
//
// A response is a list of strictly increasing frequencies with one gain in
// dB per frequency, as produced by a logarithmic sweep. Band edges are
// interpolated linearly in gain against log10(frequency), which matches the
// spacing of the sweep grid.
package frequency

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultDrop is the attenuation relative to the peak that defines the band
// edges.
const DefaultDrop = 3.0

var ErrInvalidInput = errors.New("frequency: invalid input")

// Stats holds the summary of a magnitude response.
type Stats struct {
	Points int

	Peak          float64 // dB
	PeakFrequency float64 // Hz
	Min           float64 // dB
	MinFrequency  float64 // Hz
	Average       float64 // mean of the dB values
	Range         float64 // Peak - Min

	// Lower and Upper are the frequencies where the response falls Drop dB
	// below Peak. When the response stays above that level up to the end of
	// the sweep, the edge is the first or last frequency and the matching
	// Found flag is false.
	Drop       float64
	Lower      float64
	Upper      float64
	LowerFound bool
	UpperFound bool
	Bandwidth  float64 // Upper - Lower, Hz
	Octaves    float64 // log2(Upper / Lower)
}

// Calculate summarizes the response with [DefaultDrop] band edges.
func Calculate(freqs, gainDB []float64) (Stats, error) {
	return CalculateWithDrop(freqs, gainDB, DefaultDrop)
}

// CalculateWithDrop summarizes the response with band edges drop dB below
// the peak.
func CalculateWithDrop(freqs, gainDB []float64, drop float64) (Stats, error) {
	if err := validate(freqs, gainDB); err != nil {
		return Stats{}, err
	}
	if !(drop > 0) || math.IsInf(drop, 0) {
		return Stats{}, fmt.Errorf("%w: drop %g", ErrInvalidInput, drop)
	}

	peakIdx := floats.MaxIdx(gainDB)
	minIdx := floats.MinIdx(gainDB)
	s := Stats{
		Points:        len(freqs),
		Peak:          gainDB[peakIdx],
		PeakFrequency: freqs[peakIdx],
		Min:           gainDB[minIdx],
		MinFrequency:  freqs[minIdx],
		Average:       floats.Sum(gainDB) / float64(len(gainDB)),
		Drop:          drop,
	}
	s.Range = s.Peak - s.Min

	s.Lower, s.LowerFound, s.Upper, s.UpperFound = edges(freqs, gainDB, peakIdx, s.Peak-drop)
	s.Bandwidth = s.Upper - s.Lower
	s.Octaves = math.Log2(s.Upper / s.Lower)
	return s, nil
}

// Bandwidth returns the width in Hz of the band around the peak where the
// response stays within drop dB of it.
func Bandwidth(freqs, gainDB []float64, drop float64) (float64, error) {
	s, err := CalculateWithDrop(freqs, gainDB, drop)
	if err != nil {
		return 0, err
	}
	return s.Bandwidth, nil
}

// Ripple returns the peak-to-peak variation in dB of the points between lo
// and hi inclusive.
func Ripple(freqs, gainDB []float64, lo, hi float64) (float64, error) {
	if err := validate(freqs, gainDB); err != nil {
		return 0, err
	}

	minV, maxV := math.Inf(1), math.Inf(-1)
	for i, f := range freqs {
		if f < lo || f > hi {
			continue
		}
		minV = math.Min(minV, gainDB[i])
		maxV = math.Max(maxV, gainDB[i])
	}
	if math.IsInf(minV, 1) {
		return 0, fmt.Errorf("%w: no points in [%g, %g]", ErrInvalidInput, lo, hi)
	}
	return maxV - minV, nil
}

func validate(freqs, gainDB []float64) error {
	if len(freqs) == 0 {
		return fmt.Errorf("%w: empty response", ErrInvalidInput)
	}
	if len(freqs) != len(gainDB) {
		return fmt.Errorf("%w: %d frequencies, %d gains", ErrInvalidInput, len(freqs), len(gainDB))
	}
	for i, f := range freqs {
		if !(f > 0) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: frequency %g", ErrInvalidInput, f)
		}
		if i > 0 && f <= freqs[i-1] {
			return fmt.Errorf("%w: frequencies not increasing at %d", ErrInvalidInput, i)
		}
		if math.IsNaN(gainDB[i]) || math.IsInf(gainDB[i], 0) {
			return fmt.Errorf("%w: gain %g at %g Hz", ErrInvalidInput, gainDB[i], f)
		}
	}
	return nil
}

// edges searches outwards from the peak for the first crossings of level.
func edges(freqs, gainDB []float64, peak int, level float64) (lower float64, lowerOK bool, upper float64, upperOK bool) {
	n := len(freqs)
	lower, upper = freqs[0], freqs[n-1]

	for i := peak; i >= 1; i-- {
		if gainDB[i-1] <= level && gainDB[i] > level {
			lower = interpFreq(freqs[i-1], freqs[i], gainDB[i-1], gainDB[i], level)
			lowerOK = true
			break
		}
	}
	for i := peak; i < n-1; i++ {
		if gainDB[i+1] <= level && gainDB[i] > level {
			upper = interpFreq(freqs[i], freqs[i+1], gainDB[i], gainDB[i+1], level)
			upperOK = true
			break
		}
	}
	return lower, lowerOK, upper, upperOK
}

// interpFreq returns the frequency between fLow and fHigh where the gain
// crosses level, interpolating on a log-frequency axis.
func interpFreq(fLow, fHigh, gLow, gHigh, level float64) float64 {
	denom := gHigh - gLow
	if denom == 0 {
		return math.Sqrt(fLow * fHigh)
	}
	t := (level - gLow) / denom
	return math.Pow(10, math.Log10(fLow)+t*(math.Log10(fHigh)-math.Log10(fLow)))
}
