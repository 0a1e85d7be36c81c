package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestPhasedSine(t *testing.T) {
	s := PhasedSine(10, 1000, 2, 90, 10)
	if math.Abs(s[0]-2) > 1e-12 {
		t.Fatalf("s[0] = %v, want 2", s[0])
	}
}

func TestSquare(t *testing.T) {
	s := Square(10, 1000, 0.5, 1, 100)
	for i, v := range s {
		if math.Abs(v) != 0.5 {
			t.Fatalf("s[%d] = %v, want +-0.5", i, v)
		}
	}
	if s[10] != 0.5 || s[60] != -0.5 {
		t.Fatalf("unexpected polarity: %v %v", s[10], s[60])
	}
}

func TestDeterministicNoiseReproducible(t *testing.T) {
	a := DeterministicNoise(3, 1, 64)
	b := DeterministicNoise(3, 1, 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at index %d", i)
		}
		if math.Abs(a[i]) > 1 {
			t.Fatalf("a[%d] = %v out of range", i, a[i])
		}
	}
}
