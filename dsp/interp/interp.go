package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	gonuminterp "gonum.org/v1/gonum/interp"
)

// ErrInvalidInput is returned for empty, mismatched or degenerate input.
var ErrInvalidInput = errors.New("interp: invalid input")

// splineMinPoints is the smallest input size the spline kinds accept.
// Shorter inputs fall back to linear interpolation.
const splineMinPoints = 4

// Kind selects the interpolation kernel.
type Kind int

const (
	Linear Kind = iota
	Nearest
	Previous
	Next
	Cubic
	Akima
	Monotone
	Hermite
)

var kindNames = []string{
	Linear:   "linear",
	Nearest:  "nearest",
	Previous: "previous",
	Next:     "next",
	Cubic:    "cubic",
	Akima:    "akima",
	Monotone: "monotone",
	Hermite:  "hermite",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses a kind name. "zero" is accepted as an alias for
// [Previous] and "slinear" for [Linear].
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "zero":
		return Previous, nil
	case "slinear":
		return Linear, nil
	}
	for k, name := range kindNames {
		if s == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, s)
}

// Resample evaluates the interpolant of (x, y) at n evenly spaced points
// covering [x[0], x[len-1]] inclusive. x must be strictly increasing. A nil
// x means sample indices 0..len(y)-1.
func Resample(x, y []float64, n int, kind Kind) (xs, ys []float64, err error) {
	if x == nil {
		x = indices(len(y))
	}
	if err := validate(x, y, n); err != nil {
		return nil, nil, err
	}

	xs = make([]float64, n)
	floats.Span(xs, x[0], x[len(x)-1])

	ys, err = evaluate(x, y, xs, kind)
	if err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}

// ResampleLogX behaves like [Resample] but spaces the output evenly in
// log10(x). All x values must be positive.
func ResampleLogX(x, y []float64, n int, kind Kind) (xs, ys []float64, err error) {
	if err := validate(x, y, n); err != nil {
		return nil, nil, err
	}
	if x[0] <= 0 {
		return nil, nil, fmt.Errorf("%w: log-x needs positive abscissae, got %g", ErrInvalidInput, x[0])
	}

	logX := make([]float64, len(x))
	for i, v := range x {
		logX[i] = math.Log10(v)
	}

	logXs, ys, err := Resample(logX, y, n, kind)
	if err != nil {
		return nil, nil, err
	}

	xs = logXs
	for i, v := range logXs {
		xs[i] = math.Pow(10, v)
	}
	return xs, ys, nil
}

// Upsample densifies uniformly spaced samples by an integer rate. The result
// has (len(y)-1)*rate+1 samples, so the new spacing is exactly 1/rate of the
// original and both end samples are preserved. A rate <= 1 returns a copy.
func Upsample(y []float64, rate int, kind Kind) ([]float64, error) {
	if len(y) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
	if rate <= 1 {
		return append([]float64(nil), y...), nil
	}

	_, ys, err := Resample(nil, y, (len(y)-1)*rate+1, kind)
	return ys, err
}

func indices(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func validate(x, y []float64, n int) error {
	if len(y) == 0 {
		return fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: length mismatch %d vs %d", ErrInvalidInput, len(x), len(y))
	}
	if len(x) < 2 {
		return fmt.Errorf("%w: need at least 2 distinct x values", ErrInvalidInput)
	}
	if n < 2 {
		return fmt.Errorf("%w: target count %d < 2", ErrInvalidInput, n)
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return fmt.Errorf("%w: x not strictly increasing at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}

func evaluate(x, y, at []float64, kind Kind) ([]float64, error) {
	pred, err := predictor(x, y, kind)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(at))
	for i, v := range at {
		out[i] = pred.Predict(v)
	}
	return out, nil
}

func predictor(x, y []float64, kind Kind) (gonuminterp.Predictor, error) {
	var fp gonuminterp.FittablePredictor

	switch kind {
	case Linear:
		fp = &gonuminterp.PiecewiseLinear{}
	case Nearest:
		return stepPredictor{x: x, y: y, mode: Nearest}, nil
	case Previous:
		return stepPredictor{x: x, y: y, mode: Previous}, nil
	case Next:
		return stepPredictor{x: x, y: y, mode: Next}, nil
	case Hermite:
		return hermitePredictor{x: x, y: y}, nil
	case Cubic, Akima, Monotone:
		if len(x) < splineMinPoints {
			fp = &gonuminterp.PiecewiseLinear{}
			break
		}
		switch kind {
		case Cubic:
			fp = &gonuminterp.NaturalCubic{}
		case Akima:
			fp = &gonuminterp.AkimaSpline{}
		default:
			fp = &gonuminterp.FritschButland{}
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %v", ErrInvalidInput, kind)
	}

	if err := fp.Fit(x, y); err != nil {
		return nil, fmt.Errorf("interp: fit %v: %w", kind, err)
	}
	return fp, nil
}

type stepPredictor struct {
	x, y []float64
	mode Kind
}

func (s stepPredictor) Predict(v float64) float64 {
	// i is the first index with x[i] > v.
	i := sort.Search(len(s.x), func(i int) bool { return s.x[i] > v })
	switch {
	case i == 0:
		return s.y[0]
	case i == len(s.x):
		return s.y[len(s.y)-1]
	}

	switch s.mode {
	case Next:
		if v == s.x[i-1] {
			return s.y[i-1]
		}
		return s.y[i]
	case Nearest:
		if s.x[i]-v < v-s.x[i-1] {
			return s.y[i]
		}
	}
	return s.y[i-1]
}

type hermitePredictor struct {
	x, y []float64
}

func (h hermitePredictor) Predict(v float64) float64 {
	n := len(h.x)
	i := sort.Search(n, func(i int) bool { return h.x[i] > v }) - 1
	switch {
	case i < 0:
		return h.y[0]
	case i >= n-1:
		return h.y[n-1]
	}

	// Missing neighbours at the ends are extrapolated linearly.
	ym1 := 2*h.y[i] - h.y[i+1]
	if i > 0 {
		ym1 = h.y[i-1]
	}
	y2 := 2*h.y[i+1] - h.y[i]
	if i+2 < n {
		y2 = h.y[i+2]
	}

	t := (v - h.x[i]) / (h.x[i+1] - h.x[i])
	return Hermite4(t, ym1, h.y[i], h.y[i+1], y2)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}
