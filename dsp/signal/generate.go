package signal

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	// ErrInvalidLength is returned for a non-positive sample count.
	ErrInvalidLength = errors.New("signal: sample count must be > 0")
	// ErrInvalidSampleRate is returned for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("signal: sample rate must be > 0")
)

// Tone describes a periodic test signal.
type Tone struct {
	Frequency float64 // Hz
	Amplitude float64 // peak, volts
	Phase     float64 // degrees, added to the instantaneous phase
	Offset    float64 // DC, volts
}

// Generator creates deterministic signals at a fixed sample rate.
type Generator struct {
	sampleRate float64
	seed       int64
	noise      float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the deterministic random seed used for noise.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithNoise adds uniform white noise of the given peak amplitude to every
// generated tone.
func WithNoise(amplitude float64) Option {
	return func(g *Generator) {
		if amplitude > 0 {
			g.noise = amplitude
		}
	}
}

// NewGenerator creates a generator for sampleRate.
func NewGenerator(sampleRate float64, opts ...Option) (*Generator, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidSampleRate, sampleRate)
	}
	g := &Generator{sampleRate: sampleRate, seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// SampleRate returns the generator sample rate in Hz.
func (g *Generator) SampleRate() float64 {
	return g.sampleRate
}

// Sine generates n samples of a sine tone.
func (g *Generator) Sine(tone Tone, n int) ([]float64, error) {
	return g.render(tone, n, math.Sin)
}

// Square generates n samples of a square tone with the sine's zero crossings.
func (g *Generator) Square(tone Tone, n int) ([]float64, error) {
	return g.render(tone, n, func(x float64) float64 {
		if math.Sin(x) < 0 {
			return -1
		}
		return 1
	})
}

// Triangle generates n samples of a triangle tone in phase with the sine.
func (g *Generator) Triangle(tone Tone, n int) ([]float64, error) {
	return g.render(tone, n, func(x float64) float64 {
		return 2 / math.Pi * math.Asin(math.Sin(x))
	})
}

func (g *Generator) render(tone Tone, n int, shape func(float64) float64) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	out := make([]float64, n)
	step := 2 * math.Pi * tone.Frequency / g.sampleRate
	phase := tone.Phase * math.Pi / 180
	for i := range out {
		out[i] = tone.Amplitude*shape(step*float64(i)+phase) + tone.Offset
	}

	if g.noise > 0 {
		addNoise(out, g.noise, g.seed)
	}
	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("signal: noise amplitude must be >= 0: %f", amplitude)
	}
	out := make([]float64, n)
	addNoise(out, amplitude, g.seed)
	return out, nil
}

func addNoise(dst []float64, amplitude float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range dst {
		dst[i] += (rng.Float64()*2 - 1) * amplitude
	}
}
