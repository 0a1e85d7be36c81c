package sweep

import (
	"context"
	"testing"

	"github.com/cwbudde/algo-audiotest/instrument/sim"
)

func BenchmarkNewLogScale(b *testing.B) {
	for b.Loop() {
		if _, err := NewLogScale(20, 20000, 48); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRunnerDecade(b *testing.B) {
	bench := sim.NewBench()
	scale, err := NewLogScale(1000, 10000, 10)
	if err != nil {
		b.Fatal(err)
	}
	r, err := NewRunner(bench, bench, Config{
		Scale:     scale,
		Sampling:  DefaultSampling(),
		Amplitude: 1,
		Channels:  []string{sim.ChannelReference, sim.ChannelDUT},
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()

	for b.Loop() {
		if _, err := r.Run(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
