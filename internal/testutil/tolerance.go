package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t unless got and want have the same length
// and every pair lies within eps of each other.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	diff, err := MaxAbsDiff(got, want)
	if err != nil {
		t.Fatal(err)
	}
	if diff > eps {
		for i := range got {
			if math.Abs(got[i]-want[i]) == diff {
				t.Fatalf("index %d: got %v, want %v (|diff| %v > %v)", i, got[i], want[i], diff, eps)
			}
		}
	}
}

// RequireWithinPercent fails t if got is further than pct percent from want.
func RequireWithinPercent(t *testing.T, name string, got, want, pct float64) {
	t.Helper()
	if want == 0 {
		t.Fatalf("%s: reference value is zero", name)
	}
	dev := 100 * math.Abs(got-want) / math.Abs(want)
	if !(dev <= pct) {
		t.Fatalf("%s: got %v, want %v (%.3f%% off, limit %.3f%%)", name, got, want, dev, pct)
	}
}

// RequireFinite fails t on the first NaN or Inf in data.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// MaxAbsDiff returns the largest element-wise distance between a and b.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	var d float64
	for i := range a {
		d = math.Max(d, math.Abs(a[i]-b[i]))
	}
	return d, nil
}

// AngleDiff returns a-b in degrees, wrapped to [-180, 180).
func AngleDiff(a, b float64) float64 {
	d := math.Mod(a-b+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}
