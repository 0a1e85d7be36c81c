package waveform

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-audiotest/dsp/interp"
	"github.com/cwbudde/algo-audiotest/internal/testutil"
)

func TestCheckNyquist(t *testing.T) {
	tests := []struct {
		name    string
		f, fs   float64
		wantErr error
	}{
		{"well below", 1000, 48000, nil},
		{"at limit", 24000, 48000, nil},
		{"above", 24001, 48000, ErrNyquist},
		{"zero frequency", 0, 48000, ErrInvalidFrequency},
		{"zero rate", 1000, 0, ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNyquist(tt.f, tt.fs)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckNyquist(%v, %v) = %v, want %v", tt.f, tt.fs, err, tt.wantErr)
			}
		})
	}
}

func TestNewCopiesSamples(t *testing.T) {
	in := []float64{1, -1, 1, -1}
	w, err := New(in, 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	in[0] = 99
	if w.Samples()[0] != 1 {
		t.Fatal("waveform shares storage with caller slice")
	}
	out := w.Samples()
	out[1] = 99
	if w.Samples()[1] != -1 {
		t.Fatal("Samples exposes internal storage")
	}
}

func TestNewRejects(t *testing.T) {
	if _, err := New(nil, 10, 100); !errors.Is(err, ErrEmpty) {
		t.Fatalf("New(nil) err=%v", err)
	}
	if _, err := New([]float64{1}, 60, 100); !errors.Is(err, ErrNyquist) {
		t.Fatalf("New above Nyquist err=%v", err)
	}
}

func TestDurationAndPeriods(t *testing.T) {
	w, err := New(make([]float64, 500), 20, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if w.Duration() != 0.5 || w.Periods() != 10 {
		t.Fatalf("Duration=%v Periods=%v", w.Duration(), w.Periods())
	}
}

func TestUpsampleScalesRate(t *testing.T) {
	w, err := New(testutil.DeterministicSine(10, 1000, 1, 201), 10, 1000)
	if err != nil {
		t.Fatal(err)
	}
	up, err := w.Upsample(10, interp.Cubic)
	if err != nil {
		t.Fatal(err)
	}
	if up.SamplingFrequency() != 10000 || up.InputFrequency() != 10 {
		t.Fatalf("Fs=%v f=%v", up.SamplingFrequency(), up.InputFrequency())
	}
	if up.Len() != 2001 {
		t.Fatalf("Len=%d want 2001", up.Len())
	}
	if w.Len() != 201 {
		t.Fatal("receiver modified")
	}

	same, err := w.Upsample(1, interp.Cubic)
	if err != nil || same != w {
		t.Fatalf("rate 1 should return receiver, err=%v", err)
	}
}

func TestRemoveDCMidpoint(t *testing.T) {
	x := testutil.DeterministicSine(10, 1000, 2, 100)
	for i := range x {
		x[i] += 0.75
	}
	w, err := New(x, 10, 1000)
	if err != nil {
		t.Fatal(err)
	}
	s := w.RemoveDC().Stats()
	if math.Abs(s.Midpoint) > 1e-9 {
		t.Fatalf("midpoint after RemoveDC = %v", s.Midpoint)
	}
	if math.Abs(w.Stats().Midpoint-0.75) > 1e-9 {
		t.Fatal("receiver modified")
	}
}

func TestTrimKeepsFrequencies(t *testing.T) {
	w, err := New(testutil.PhasedSine(10, 1000, 1, 30, 400), 10, 1000)
	if err != nil {
		t.Fatal(err)
	}
	tw, win, err := w.Trim()
	if err != nil {
		t.Fatal(err)
	}
	if tw.Len() != win.End-win.Start || tw.SamplingFrequency() != 1000 || tw.InputFrequency() != 10 {
		t.Fatalf("trimmed %d samples for window %+v", tw.Len(), win)
	}
}
