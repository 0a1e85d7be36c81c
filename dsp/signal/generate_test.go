package signal

import (
	"errors"
	"math"
	"testing"
)

func TestSineLength(t *testing.T) {
	g, err := NewGenerator(48000)
	if err != nil {
		t.Fatal(err)
	}
	s, err := g.Sine(Tone{Frequency: 1000, Amplitude: 1}, 64)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}
	if len(s) != 64 {
		t.Fatalf("len = %d, want 64", len(s))
	}
}

func TestSinePhaseAndOffset(t *testing.T) {
	g, err := NewGenerator(1000)
	if err != nil {
		t.Fatal(err)
	}
	s, err := g.Sine(Tone{Frequency: 10, Amplitude: 2, Phase: 90, Offset: 0.5}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s[0]-2.5) > 1e-12 {
		t.Fatalf("s[0] = %v, want 2.5", s[0])
	}
}

func TestSquareLevels(t *testing.T) {
	g, err := NewGenerator(1000)
	if err != nil {
		t.Fatal(err)
	}
	s, err := g.Square(Tone{Frequency: 10, Amplitude: 1, Phase: 1}, 200)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range s {
		if v != 1 && v != -1 {
			t.Fatalf("s[%d] = %v, want +-1", i, v)
		}
	}
}

func TestTriangleBounds(t *testing.T) {
	g, err := NewGenerator(1000)
	if err != nil {
		t.Fatal(err)
	}
	s, err := g.Triangle(Tone{Frequency: 10, Amplitude: 1}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s[25]-1) > 1e-9 {
		t.Fatalf("peak = %v, want 1", s[25])
	}
}

func TestWhiteNoiseDeterministic(t *testing.T) {
	g1, _ := NewGenerator(48000, WithSeed(42))
	g2, _ := NewGenerator(48000, WithSeed(42))

	n1, err := g1.WhiteNoise(1, 16)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}
	n2, err := g2.WhiteNoise(1, 16)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	for i := range n1 {
		if n1[i] != n2[i] {
			t.Fatalf("noise mismatch at %d: %v != %v", i, n1[i], n2[i])
		}
	}
}

func TestNoiseOption(t *testing.T) {
	g, _ := NewGenerator(1000, WithNoise(0.01))
	s, err := g.Sine(Tone{Frequency: 10, Amplitude: 1}, 100)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range s {
		ideal := math.Sin(2 * math.Pi * 10 * float64(i) / 1000)
		if math.Abs(v-ideal) > 0.01 {
			t.Fatalf("s[%d] deviates by %v", i, v-ideal)
		}
	}
}

func TestInvalidArguments(t *testing.T) {
	if _, err := NewGenerator(0); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("NewGenerator(0) err = %v", err)
	}
	g, _ := NewGenerator(1000)
	if _, err := g.Sine(Tone{Frequency: 1}, 0); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("Sine(n=0) err = %v", err)
	}
	if _, err := g.WhiteNoise(-1, 4); err == nil {
		t.Fatal("expected error for negative noise amplitude")
	}
}
