package time

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Stats holds time-domain statistics of a measured waveform.
type Stats struct {
	Length        int
	Min           float64
	MinPos        int
	Max           float64
	MaxPos        int
	Peak          float64 // max(|max|, |min|)
	PeakToPeak    float64 // max - min
	Midpoint      float64 // (max + min) / 2
	Mean          float64
	MeanAbs       float64
	RMS           float64
	CrestFactor   float64 // peak / RMS, 0 when RMS is 0
	ZeroCrossings int
}

// Calculate computes all statistics of signal. An empty signal yields the
// zero Stats.
func Calculate(signal []float64) Stats {
	if len(signal) == 0 {
		return Stats{}
	}

	s := Stats{
		Length:        len(signal),
		MinPos:        floats.MinIdx(signal),
		MaxPos:        floats.MaxIdx(signal),
		Mean:          floats.Sum(signal) / float64(len(signal)),
		MeanAbs:       MeanAbs(signal),
		RMS:           RMS(signal),
		ZeroCrossings: ZeroCrossings(signal),
	}
	s.Min = signal[s.MinPos]
	s.Max = signal[s.MaxPos]
	s.Peak = math.Max(math.Abs(s.Min), math.Abs(s.Max))
	s.PeakToPeak = s.Max - s.Min
	s.Midpoint = (s.Max + s.Min) / 2
	if s.RMS > 0 {
		s.CrestFactor = s.Peak / s.RMS
	}
	return s
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	return floats.Norm(signal, 2) / math.Sqrt(float64(len(signal)))
}

// MeanAbs returns the mean absolute value of the signal.
func MeanAbs(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	return floats.Norm(signal, 1) / float64(len(signal))
}

// Midpoint returns (max+min)/2, the DC estimate used for waveforms whose
// sampling window does not hold a whole number of periods.
func Midpoint(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	return (floats.Max(signal) + floats.Min(signal)) / 2
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(signal)), math.Abs(floats.Min(signal)))
}

// ZeroCrossings returns the number of zero crossings in the signal.
// A crossing is counted when consecutive samples have opposite signs.
func ZeroCrossings(signal []float64) int {
	var count int
	for i := 1; i < len(signal); i++ {
		if signal[i-1]*signal[i] < 0 {
			count++
		}
	}
	return count
}
