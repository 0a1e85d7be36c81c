package level_test

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-audiotest/instrument/sim"
	"github.com/cwbudde/algo-audiotest/measure/level"
)

func ExampleLeveler_Run() {
	// A device with 6 dB of gain needs about half the +4 dBu drive.
	bench := sim.NewBench(sim.WithResponse(sim.Gain(6)))

	cfg := level.DefaultConfig()
	cfg.Settle = 0

	l, err := level.NewLeveler(bench, bench, cfg)
	if err != nil {
		panic(err)
	}
	res, err := l.Run(context.Background())
	if err != nil {
		panic(err)
	}
	fmt.Printf("amplitude=%.2f Vpp rms=%.2f V gain=%.1f dB output=%v\n",
		res.Amplitude, res.RMS, res.GainDB, bench.Output())
	// Output:
	// amplitude=1.74 Vpp rms=1.23 V gain=6.0 dB output=false
}
