package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a sine wave starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	return PhasedSine(freqHz, sampleRate, amplitude, 0, length)
}

// PhasedSine generates amplitude*sin(2πft + phase) with phase in degrees.
func PhasedSine(freqHz, sampleRate, amplitude, phaseDeg float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	phase := phaseDeg * math.Pi / 180
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i)+phase)
	}
	return out
}

// Square generates a ±amplitude square wave aligned with [PhasedSine].
func Square(freqHz, sampleRate, amplitude, phaseDeg float64, length int) []float64 {
	out := PhasedSine(freqHz, sampleRate, 1, phaseDeg, length)
	for i, v := range out {
		out[i] = math.Copysign(amplitude, v)
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}
