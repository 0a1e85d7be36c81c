package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-audiotest/internal/testutil"
)

func TestHermite4IdentityOnLinearRamp(t *testing.T) {
	xm1, x0, x1, x2 := -1.0, 0.0, 1.0, 2.0
	for _, tc := range []struct {
		t float64
		w float64
	}{
		{t: 0.0, w: 0.0},
		{t: 0.25, w: 0.25},
		{t: 0.5, w: 0.5},
		{t: 1.0, w: 1.0},
	} {
		got := Hermite4(tc.t, xm1, x0, x1, x2)
		if diff := got - tc.w; diff < -1e-12 || diff > 1e-12 {
			t.Fatalf("t=%v: got %v want %v", tc.t, got, tc.w)
		}
	}
}

func TestResampleGridCoversEndpoints(t *testing.T) {
	x := []float64{1, 2, 4, 8}
	y := []float64{0, 1, 2, 3}

	for k := Linear; k <= Hermite; k++ {
		t.Run(k.String(), func(t *testing.T) {
			xs, ys, err := Resample(x, y, 15, k)
			if err != nil {
				t.Fatal(err)
			}
			if len(xs) != 15 || len(ys) != 15 {
				t.Fatalf("len = %d/%d, want 15", len(xs), len(ys))
			}
			if xs[0] != 1 || xs[14] != 8 {
				t.Fatalf("grid = [%v, %v], want [1, 8]", xs[0], xs[14])
			}
			if math.Abs(ys[0]-0) > 1e-12 || math.Abs(ys[14]-3) > 1e-12 {
				t.Fatalf("endpoints = %v, %v; want 0, 3", ys[0], ys[14])
			}
			testutil.RequireFinite(t, ys)
		})
	}
}

func TestResampleLinearRampExact(t *testing.T) {
	y := []float64{0, 2, 4, 6, 8}
	for _, k := range []Kind{Linear, Cubic, Akima, Monotone, Hermite} {
		_, ys, err := Resample(nil, y, 9, k)
		if err != nil {
			t.Fatalf("%v: %v", k, err)
		}
		want := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}
		testutil.RequireSliceNearlyEqual(t, ys, want, 1e-9)
	}
}

func TestStepKinds(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{10, 20, 30}

	tests := []struct {
		kind Kind
		want []float64
	}{
		// grid: 0, 0.4, 0.8, 1.2, 1.6, 2.0
		{Previous, []float64{10, 10, 10, 20, 20, 30}},
		{Next, []float64{10, 20, 20, 30, 30, 30}},
		{Nearest, []float64{10, 10, 20, 20, 30, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			_, ys, err := Resample(x, y, 6, tt.kind)
			if err != nil {
				t.Fatal(err)
			}
			testutil.RequireSliceNearlyEqual(t, ys, tt.want, 0)
		})
	}
}

func TestResampleInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		n    int
	}{
		{"empty", nil, nil, 4},
		{"single point", []float64{1}, []float64{1}, 4},
		{"duplicate x", []float64{1, 1}, []float64{1, 2}, 4},
		{"decreasing", []float64{2, 1, 0}, []float64{1, 2, 3}, 4},
		{"mismatch", []float64{0, 1, 2}, []float64{1, 2}, 4},
		{"target too small", []float64{0, 1}, []float64{1, 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Resample(tt.x, tt.y, tt.n, Linear)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestResampleLogX(t *testing.T) {
	// y = log10(x) is linear in log-x, so linear interpolation is exact.
	x := []float64{10, 100, 1000}
	y := []float64{1, 2, 3}

	xs, ys, err := ResampleLogX(x, y, 5, Linear)
	if err != nil {
		t.Fatal(err)
	}
	for i := range xs {
		if math.Abs(math.Log10(xs[i])-ys[i]) > 1e-9 {
			t.Fatalf("index %d: log10(%v) != %v", i, xs[i], ys[i])
		}
	}
	if math.Abs(xs[2]-math.Sqrt(10*1000)) > 1e-9 {
		t.Fatalf("midpoint = %v, want %v", xs[2], math.Sqrt(10*1000))
	}

	if _, _, err := ResampleLogX([]float64{0, 1}, []float64{1, 2}, 4, Linear); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("non-positive x err = %v", err)
	}
}

func TestUpsampleSine(t *testing.T) {
	const (
		fs   = 1000.0
		f    = 10.0
		rate = 10
	)
	in := testutil.DeterministicSine(f, fs, 1, 201)

	out, err := Upsample(in, rate, Cubic)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 200*rate+1 {
		t.Fatalf("len = %d, want %d", len(out), 200*rate+1)
	}
	for i := 0; i < len(in); i++ {
		if math.Abs(out[i*rate]-in[i]) > 1e-9 {
			t.Fatalf("original sample %d not preserved: %v vs %v", i, out[i*rate], in[i])
		}
	}

	want := testutil.DeterministicSine(f, fs*rate, 1, len(out))
	diff, err := testutil.MaxAbsDiff(out, want)
	if err != nil {
		t.Fatal(err)
	}
	if diff > 1e-3 {
		t.Fatalf("max deviation from ideal sine = %v", diff)
	}
}

func TestUpsampleRateOneCopies(t *testing.T) {
	in := []float64{1, 2, 3}
	out, err := Upsample(in, 1, Cubic)
	if err != nil {
		t.Fatal(err)
	}
	out[0] = 99
	if in[0] != 1 {
		t.Fatal("Upsample aliased its input")
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"linear": Linear, "Cubic": Cubic, "zero": Previous, "slinear": Linear,
		"akima": Akima, "monotone": Monotone, "next": Next, "nearest": Nearest,
	}
	for s, want := range tests {
		got, err := ParseKind(s)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %v, %v; want %v", s, got, err, want)
		}
	}
	if _, err := ParseKind("quintic"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ParseKind(quintic) err = %v", err)
	}
}
