// Package sweep runs a stepped-sine frequency response measurement.
//
// A [LogScale] lists the test frequencies, evenly spaced in log10(f). For
// every frequency a [Sampling] configuration derives the digitizer rate and
// capture length, capped by the hardware limits. The [Runner] programs the
// generator, waits for the device to settle, captures the configured
// channels and reduces each capture to an RMS level, a gain relative to the
// generator output and, when two channels are captured, a phase offset.
//
// A point that cannot be measured is logged and skipped; the sweep goes on.
// The generator output is switched off when the run ends, whatever the
// reason.
//
// # Usage
//
//	scale, _ := sweep.NewLogScale(20, 20000, 10)
//	r, _ := sweep.NewRunner(gen, acq, sweep.Config{
//	    Scale:     scale,
//	    Sampling:  sweep.DefaultSampling(),
//	    Amplitude: 2,
//	    Channels:  []string{"dut"},
//	})
//	res, _ := r.Run(ctx)
//	for _, p := range res.Points {
//	    fmt.Println(p.Frequency, p.GainDB)
//	}
package sweep
