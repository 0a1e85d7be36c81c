package phase

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-audiotest/internal/testutil"
	"github.com/cwbudde/algo-audiotest/measure/waveform"
)

func pair(t *testing.T, f, fs float64, n int, lagDeg float64) (*waveform.Waveform, *waveform.Waveform) {
	t.Helper()
	// A small start phase keeps samples off exact zeros. Channel B gets a
	// different amplitude and a DC offset.
	a, err := waveform.New(testutil.PhasedSine(f, fs, 1, 7, n), f, fs)
	if err != nil {
		t.Fatal(err)
	}
	bs := testutil.PhasedSine(f, fs, 0.3, 7-lagDeg, n)
	for i := range bs {
		bs[i] += 0.1
	}
	b, err := waveform.New(bs, f, fs)
	if err != nil {
		t.Fatal(err)
	}
	return a, b
}

func TestOffsetRecoversInjectedShift(t *testing.T) {
	for _, oversampling := range []float64{20, 100} {
		for lag := -175.0; lag <= 175; lag += 5 {
			a, b := pair(t, 1000, 1000*oversampling, int(10*oversampling), lag)
			got, err := Offset(a, b, AnySlope)
			if err != nil {
				t.Fatalf("x%v lag %v: %v", oversampling, lag, err)
			}
			if math.Abs(got.Degrees-lag) > 2 {
				t.Fatalf("x%v lag %v: got %v (sign %d)", oversampling, lag, got.Degrees, got.Sign)
			}
		}
	}
}

func TestOffsetSign(t *testing.T) {
	tests := []struct {
		lag  float64
		sign int
	}{
		{10, 1},
		{90, 1},
		{170, 1},
		{-10, -1},
		{-90, -1},
		{-170, -1},
	}
	for _, tt := range tests {
		a, b := pair(t, 1000, 100000, 1000, tt.lag)
		got, err := Offset(a, b, AnySlope)
		if err != nil {
			t.Fatal(err)
		}
		if got.Sign != tt.sign {
			t.Fatalf("lag %v: sign=%d want %d", tt.lag, got.Sign, tt.sign)
		}
	}
}

func TestOffsetIdenticalChannels(t *testing.T) {
	a, _ := pair(t, 50, 48000, 4800, 0)
	got, err := Offset(a, a, AnySlope)
	if err != nil {
		t.Fatal(err)
	}
	if got.Degrees != 0 || got.Sign != 1 {
		t.Fatalf("got %+v, want 0° sign +1", got)
	}
}

func TestRisingEdgePolicy(t *testing.T) {
	tests := []struct {
		lag, want float64
	}{
		{0, 0},
		{45, 45},
		{90, 90},
		{180, 180},
		{270, 270},
		{-90, 270},
		{-10, 350},
	}
	for _, tt := range tests {
		a, b := pair(t, 1000, 20000, 200, tt.lag)
		got, err := Offset(a, b, RisingEdge)
		if err != nil {
			t.Fatal(err)
		}
		// 359.99... matches 0.
		if math.Abs(testutil.AngleDiff(got.Degrees, tt.want)) > 0.5 || got.Sign != 1 || got.Degrees < 0 || got.Degrees >= 360 {
			t.Fatalf("lag %v: got %+v, want %v", tt.lag, got, tt.want)
		}
	}
}

func TestOffsetFailures(t *testing.T) {
	flat, err := waveform.New(testutil.DC(1, 100), 10, 1000)
	if err != nil {
		t.Fatal(err)
	}
	sine, err := waveform.New(testutil.PhasedSine(10, 1000, 1, 7, 100), 10, 1000)
	if err != nil {
		t.Fatal(err)
	}
	other, err := waveform.New(testutil.PhasedSine(20, 1000, 1, 7, 100), 20, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Offset(flat, sine, AnySlope); !errors.Is(err, waveform.ErrNoZeroCrossing) {
		t.Fatalf("flat A err=%v", err)
	}
	if _, err := Offset(sine, flat, AnySlope); !errors.Is(err, waveform.ErrNoZeroCrossing) {
		t.Fatalf("flat B err=%v", err)
	}
	if _, err := Offset(sine, other, AnySlope); !errors.Is(err, ErrFrequencyMismatch) {
		t.Fatalf("mismatch err=%v", err)
	}
	if _, err := Offset(nil, sine, AnySlope); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("nil err=%v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("Rising"); err != nil || p != RisingEdge {
		t.Fatalf("ParsePolicy(Rising) = %v, %v", p, err)
	}
	if p, err := ParsePolicy(""); err != nil || p != AnySlope {
		t.Fatalf("ParsePolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParsePolicy("falling"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ParsePolicy(falling) err=%v", err)
	}
}
