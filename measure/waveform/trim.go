package waveform

import (
	"fmt"
	"math"
)

// TrimWholeCycles returns samples[start:end] where start sits on the first
// zero crossing and end on the last crossing running in the opposite
// direction, so the window spans an odd number of half-cycles. Each boundary
// is the sample of its crossing pair closer to zero. The returned slice is a
// copy.
func TrimWholeCycles(samples []float64) (trimmed []float64, start, end int, err error) {
	var startSlope float64

	found := false
	for i := 1; i < len(samples); i++ {
		prev, curr := samples[i-1], samples[i]
		if prev*curr < 0 {
			startSlope = curr - prev
			start = closerToZero(samples, i-1, i)
			found = true
			break
		}
	}
	if !found {
		return nil, 0, 0, fmt.Errorf("%w: no sign change in %d samples", ErrNoZeroCrossing, len(samples))
	}

	found = false
	for i := len(samples) - 2; i >= 0; i-- {
		a, b := samples[i], samples[i+1]
		if a*b < 0 && startSlope*(b-a) < 0 {
			end = closerToZero(samples, i, i+1)
			found = true
			break
		}
	}
	if !found {
		return nil, 0, 0, fmt.Errorf("%w: no closing crossing after index %d", ErrNoZeroCrossing, start)
	}

	if end-start <= 1 {
		return nil, 0, 0, fmt.Errorf("%w: degenerate window [%d, %d)", ErrNoZeroCrossing, start, end)
	}

	return append([]float64(nil), samples[start:end]...), start, end, nil
}

func closerToZero(samples []float64, a, b int) int {
	if math.Abs(samples[b]) < math.Abs(samples[a]) {
		return b
	}
	return a
}
