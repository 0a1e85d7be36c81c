// Package sim models a measurement bench in process: a SCPI signal
// generator driving a device under test, and a two-channel digitizer that
// captures the generator output ("ref") and the device output ("dut").
package sim

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/cwbudde/algo-audiotest/dsp/core"
	"github.com/cwbudde/algo-audiotest/dsp/signal"
	"github.com/cwbudde/algo-audiotest/instrument"
)

// Channel names understood by Acquire.
const (
	ChannelReference = "ref"
	ChannelDUT       = "dut"
)

// DefaultIdentity is returned for *IDN? unless overridden.
const DefaultIdentity = "ALGO-AUDIOTEST,SIMBENCH,0,1.0"

// Response describes the device under test at one frequency.
type Response func(frequency float64) (gainDB, phaseDeg float64)

// Flat is a unity-gain, zero-phase device.
func Flat() Response {
	return func(float64) (float64, float64) { return 0, 0 }
}

// Gain is a frequency-independent gain in dB.
func Gain(db float64) Response {
	return func(float64) (float64, float64) { return db, 0 }
}

// LowPass is a first-order low-pass with corner frequency cutoff.
func LowPass(cutoff float64) Response {
	return func(f float64) (float64, float64) {
		r := f / cutoff
		return -10 * math.Log10(1+r*r), -math.Atan(r) * 180 / math.Pi
	}
}

// FailureFunc decides whether acquisition number n at frequency f fails.
type FailureFunc func(n int, frequency float64) error

// Bench is a simulated generator and digitizer. It implements
// [instrument.Generator] and [instrument.Acquirer] and is safe for
// concurrent use.
type Bench struct {
	mu sync.Mutex

	response      Response
	maxSampleRate float64
	noise         float64
	seed          int64
	identity      string
	fail          FailureFunc

	amplitude    float64 // Vpp
	frequency    float64
	phase        float64
	output       bool
	acquisitions int
	commands     []string
}

// Option configures a Bench.
type Option func(*Bench)

// WithResponse sets the device model. Default [Flat].
func WithResponse(r Response) Option {
	return func(b *Bench) {
		if r != nil {
			b.response = r
		}
	}
}

// WithMaxSampleRate sets the digitizer rate limit in Hz. Default 1 MHz.
func WithMaxSampleRate(fs float64) Option {
	return func(b *Bench) {
		if fs > 0 {
			b.maxSampleRate = fs
		}
	}
}

// WithNoise adds uniform noise of the given peak amplitude to every channel.
func WithNoise(amplitude float64, seed int64) Option {
	return func(b *Bench) {
		b.noise = amplitude
		b.seed = seed
	}
}

// WithIdentity sets the *IDN? response.
func WithIdentity(id string) Option {
	return func(b *Bench) { b.identity = id }
}

// WithFailures injects acquisition failures.
func WithFailures(fn FailureFunc) Option {
	return func(b *Bench) { b.fail = fn }
}

// NewBench returns a bench with the generator reset.
func NewBench(opts ...Option) *Bench {
	b := &Bench{
		response:      Flat(),
		maxSampleRate: 1e6,
		seed:          1,
		identity:      DefaultIdentity,
	}
	b.reset()
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Bench) reset() {
	b.amplitude = 0.1
	b.frequency = 1000
	b.phase = 0
	b.output = false
}

// Send applies one SCPI command.
func (b *Bench) Send(ctx context.Context, cmd string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.commands = append(b.commands, cmd)

	header, arg, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	key := strings.ToUpper(strings.TrimPrefix(header, ":"))
	switch {
	case key == "*RST":
		b.reset()
	case key == "*CLS", key == "FUNCTION:VOLTAGE:AC", key == "VOLTAGE:AC:BANDWIDTH":
	case strings.HasPrefix(key, "OUTPUT") && strings.HasSuffix(key, ":IMPEDANCE"):
	case strings.HasPrefix(key, "OUTPUT"):
		switch strings.ToUpper(arg) {
		case "ON", "1":
			b.output = true
		case "OFF", "0":
			b.output = false
		default:
			return fmt.Errorf("%w: %q", instrument.ErrCommand, cmd)
		}
	case strings.HasPrefix(key, "SOURCE") && strings.HasSuffix(key, ":FUNCTION"):
		if !strings.EqualFold(arg, "SIN") {
			return fmt.Errorf("%w: only SIN is simulated: %q", instrument.ErrCommand, cmd)
		}
	case strings.HasPrefix(key, "SOURCE"):
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", instrument.ErrCommand, cmd, err)
		}
		switch {
		case strings.HasSuffix(key, ":FREQ"):
			if v <= 0 {
				return fmt.Errorf("%w: frequency %g", instrument.ErrCommand, v)
			}
			b.frequency = v
		case strings.HasSuffix(key, ":VOLTAGE:AMPLITUDE"):
			if v < 0 {
				return fmt.Errorf("%w: amplitude %g", instrument.ErrCommand, v)
			}
			b.amplitude = v
		case strings.HasSuffix(key, ":PHASE"):
			b.phase = v
		default:
			return fmt.Errorf("%w: %q", instrument.ErrCommand, cmd)
		}
	default:
		return fmt.Errorf("%w: %q", instrument.ErrCommand, cmd)
	}
	return nil
}

// Query answers *IDN? and the frequency and amplitude queries.
func (b *Bench) Query(ctx context.Context, cmd string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.commands = append(b.commands, cmd)
	key := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(cmd), ":"))
	switch {
	case key == "*IDN?":
		return b.identity, nil
	case strings.HasSuffix(key, ":FREQ?"):
		return strconv.FormatFloat(b.frequency, 'g', -1, 64), nil
	case strings.HasSuffix(key, ":VOLTAGE:AMPLITUDE?"):
		return strconv.FormatFloat(b.amplitude, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("%w: %q", instrument.ErrCommand, cmd)
}

// Acquire captures n samples per channel at sampleRate. Each capture starts
// at a different point of the cycle, like a free-running digitizer.
func (b *Bench) Acquire(ctx context.Context, channels []string, sampleRate float64, n int) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	count := b.acquisitions
	b.acquisitions++

	if n <= 0 || len(channels) == 0 {
		return nil, fmt.Errorf("%w: %d samples on %d channels", instrument.ErrAcquisition, n, len(channels))
	}
	if !(sampleRate > 0) || sampleRate > b.maxSampleRate {
		return nil, fmt.Errorf("%w: sample rate %g outside (0, %g]", instrument.ErrAcquisition, sampleRate, b.maxSampleRate)
	}
	if b.fail != nil {
		if err := b.fail(count, b.frequency); err != nil {
			return nil, fmt.Errorf("%w: %w", instrument.ErrAcquisition, err)
		}
	}

	start := math.Mod(float64(count)*37, 360)
	out := make([][]float64, len(channels))
	for i, ch := range channels {
		tone := signal.Tone{
			Frequency: b.frequency,
			Amplitude: b.amplitude / 2,
			Phase:     start + b.phase,
		}
		switch ch {
		case ChannelReference:
		case ChannelDUT:
			g, p := b.response(b.frequency)
			tone.Amplitude *= core.DBToLinear(g)
			tone.Phase += p
		default:
			return nil, fmt.Errorf("%w: unknown channel %q", instrument.ErrAcquisition, ch)
		}
		if !b.output {
			tone.Amplitude = 0
		}

		var opts []signal.Option
		if b.noise > 0 {
			opts = append(opts, signal.WithNoise(b.noise), signal.WithSeed(b.seed+int64(count*len(channels)+i)))
		}
		gen, err := signal.NewGenerator(sampleRate, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", instrument.ErrAcquisition, err)
		}
		samples, err := gen.Sine(tone, n)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", instrument.ErrAcquisition, err)
		}
		out[i] = samples
	}
	return out, nil
}

// Output reports whether the generator output is on.
func (b *Bench) Output() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.output
}

// Amplitude returns the programmed peak-to-peak amplitude.
func (b *Bench) Amplitude() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amplitude
}

// Frequency returns the programmed frequency.
func (b *Bench) Frequency() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frequency
}

// Commands returns every command and query received so far.
func (b *Bench) Commands() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.commands...)
}

var (
	_ instrument.Generator = (*Bench)(nil)
	_ instrument.Acquirer  = (*Bench)(nil)
)
