package phase

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-audiotest/measure/waveform"
)

// Errors returned by [Offset].
var (
	ErrInvalidInput      = errors.New("phase: invalid input")
	ErrFrequencyMismatch = errors.New("phase: channels have different input frequencies")
)

// Policy selects which zero crossings are accepted.
type Policy int

const (
	// AnySlope accepts the first crossing in either direction.
	AnySlope Policy = iota
	// RisingEdge accepts only crossings with a positive slope.
	RisingEdge
)

func (p Policy) String() string {
	switch p {
	case AnySlope:
		return "any"
	case RisingEdge:
		return "rising"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "any" or "rising".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any", "":
		return AnySlope, nil
	case "rising":
		return RisingEdge, nil
	}
	return 0, fmt.Errorf("%w: unknown policy %q", ErrInvalidInput, s)
}

// Result is a phase offset of channel B relative to channel A.
type Result struct {
	Degrees float64
	// Sign is -1 when the two crossings ran in opposite directions and the
	// 180° correction was applied, +1 otherwise.
	Sign int
}

type crossing struct {
	prev  int     // index of the sample before the sign change
	slope float64 // curr - prev
	time  float64 // interpolated zero time in seconds
}

// Offset returns the phase of b relative to a in degrees, in (-180, 180].
// A positive value means b lags a. With [RisingEdge] the lag is reported
// in [0, 360).
func Offset(a, b *waveform.Waveform, policy Policy) (Result, error) {
	if a == nil || b == nil || a.Len() < 2 || b.Len() < 2 {
		return Result{}, fmt.Errorf("%w: need two waveforms with at least 2 samples", ErrInvalidInput)
	}
	if a.InputFrequency() != b.InputFrequency() {
		return Result{}, fmt.Errorf("%w: %g Hz vs %g Hz", ErrFrequencyMismatch, a.InputFrequency(), b.InputFrequency())
	}

	va := a.RemoveDC().Samples()
	vb := b.RemoveDC().Samples()

	ca, ok := firstCrossing(va, 1, a.SamplingFrequency(), policy)
	if !ok {
		return Result{}, fmt.Errorf("%w on channel A", waveform.ErrNoZeroCrossing)
	}

	// Channel B is searched from A's crossing sample, mapped onto B's grid.
	from := ca.prev
	if policy == RisingEdge {
		from = ca.prev + 1
	}
	if a.SamplingFrequency() != b.SamplingFrequency() {
		from = int(float64(from) * b.SamplingFrequency() / a.SamplingFrequency())
	}

	cb, ok := firstCrossing(vb, max(from, 1), b.SamplingFrequency(), policy)
	if !ok {
		return Result{}, fmt.Errorf("%w on channel B after index %d", waveform.ErrNoZeroCrossing, from)
	}

	res := Result{
		Degrees: (cb.time - ca.time) * a.InputFrequency() * 360,
		Sign:    1,
	}
	if ca.slope*cb.slope < 0 {
		res.Sign = -1
		res.Degrees -= 180
	}
	res.Degrees = wrap(res.Degrees, policy)
	return res, nil
}

// wrap folds d into (-180, 180], or [0, 360) for [RisingEdge].
func wrap(d float64, policy Policy) float64 {
	d = math.Mod(d, 360)
	if policy == RisingEdge {
		if d < 0 {
			d += 360
		}
		if d >= 360 {
			d = 0
		}
		return d
	}
	switch {
	case d <= -180:
		d += 360
	case d > 180:
		d -= 360
	}
	return d
}

// firstCrossing scans pairs (i-1, i) for i >= from.
func firstCrossing(v []float64, from int, fs float64, policy Policy) (crossing, bool) {
	for i := from; i < len(v); i++ {
		prev, curr := v[i-1], v[i]
		if prev*curr >= 0 {
			continue
		}
		slope := curr - prev
		if policy == RisingEdge && slope <= 0 {
			continue
		}

		// Line through (t0, prev) and (t1, curr); solve for v = 0.
		t0 := float64(i-1) / fs
		t1 := float64(i) / fs
		m := slope / (t1 - t0)
		q := prev - m*t0

		return crossing{prev: i - 1, slope: slope, time: -q / m}, true
	}
	return crossing{}, false
}
