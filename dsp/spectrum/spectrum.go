package spectrum

import (
	"errors"
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// ErrEmptyInput is returned when a transform is requested on no samples.
var ErrEmptyInput = errors.New("spectrum: input is empty")

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

// Transform returns the full complex spectrum of samples. The input is
// zero-padded to the next power of two (at least 2), so len(result) >= len(samples).
func Transform(samples []float64) ([]complex128, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyInput
	}

	size := nextPowerOf2(max(len(samples), 2))
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	in := make([]complex128, size)
	for i, v := range samples {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}
	return out, nil
}

// Power returns |X[k]|^2 for each bin.
func Power(in []complex128) []float64 {
	return reduce(in, vecmath.Power)
}

// Magnitude returns |X[k]| for each bin.
func Magnitude(in []complex128) []float64 {
	return reduce(in, vecmath.Magnitude)
}

func reduce(in []complex128, kernel func(dst, re, im []float64)) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))
	defer scratchPool.Put(buf)

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	kernel(out, re, im)
	return out
}

// Energy returns Σ x[n]² of samples, computed in the frequency domain as
// Σ|X[k]|² / M where M is the transform size.
func Energy(samples []float64) (float64, error) {
	bins, err := Transform(samples)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, p := range Power(bins) {
		sum += p
	}
	return sum / float64(len(bins)), nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
