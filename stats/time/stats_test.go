package time

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-audiotest/internal/testutil"
)

func TestCalculateSine(t *testing.T) {
	// 5 whole periods, 100 samples each, 1.5 V peak on a 0.25 V offset.
	x := testutil.DeterministicSine(10, 1000, 1.5, 500)
	for i := range x {
		x[i] += 0.25
	}

	s := Calculate(x)
	if s.Length != 500 {
		t.Fatalf("Length=%d", s.Length)
	}
	if math.Abs(s.Max-1.75) > 1e-9 || math.Abs(s.Min+1.25) > 1e-9 {
		t.Fatalf("Max/Min = %v/%v", s.Max, s.Min)
	}
	if s.MaxPos%100 != 25 || s.MinPos%100 != 75 {
		t.Fatalf("MaxPos/MinPos = %d/%d", s.MaxPos, s.MinPos)
	}
	if math.Abs(s.Midpoint-0.25) > 1e-9 {
		t.Fatalf("Midpoint=%v want 0.25", s.Midpoint)
	}
	if math.Abs(s.Mean-0.25) > 1e-9 {
		t.Fatalf("Mean=%v want 0.25", s.Mean)
	}
	if math.Abs(s.PeakToPeak-3) > 1e-9 || math.Abs(s.Peak-1.75) > 1e-9 {
		t.Fatalf("PeakToPeak/Peak = %v/%v", s.PeakToPeak, s.Peak)
	}
	wantRMS := math.Sqrt(1.5*1.5/2 + 0.25*0.25)
	if math.Abs(s.RMS-wantRMS) > 1e-9 {
		t.Fatalf("RMS=%v want %v", s.RMS, wantRMS)
	}
}

func TestMeanAbsSine(t *testing.T) {
	x := testutil.DeterministicSine(10, 1000, 1, 1000)
	if got := MeanAbs(x); math.Abs(got-2/math.Pi) > 1e-3 {
		t.Fatalf("MeanAbs=%v want %v", got, 2/math.Pi)
	}
}

func TestZeroCrossings(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want int
	}{
		{"empty", nil, 0},
		{"single", []float64{1}, 0},
		{"alternating", []float64{1, -1, 1, -1}, 3},
		{"touching zero", []float64{1, 0, -1}, 0},
		{"constant", []float64{2, 2, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ZeroCrossings(tt.in); got != tt.want {
				t.Fatalf("ZeroCrossings=%d want %d", got, tt.want)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	if s := Calculate(nil); s != (Stats{}) {
		t.Fatalf("Calculate(nil) = %+v", s)
	}
	if RMS(nil) != 0 || MeanAbs(nil) != 0 || Midpoint(nil) != 0 || Peak(nil) != 0 {
		t.Fatal("expected zero for empty input")
	}
}

func TestCrestFactorSquare(t *testing.T) {
	s := Calculate([]float64{1, -1, 1, -1})
	if math.Abs(s.CrestFactor-1) > 1e-12 {
		t.Fatalf("CrestFactor=%v want 1", s.CrestFactor)
	}
}
