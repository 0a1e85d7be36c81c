// Package rms estimates the RMS amplitude of a captured waveform.
//
// Three modes are available:
//
//   - [FFT]: sqrt(Σ|X[k]|²)/N via Parseval's theorem. Exact for any signal.
//   - [Average]: mean(|v|) scaled by the sine form factor π/(2√2). Valid for
//     pure sines only.
//   - [Integrate]: ∫|v|dt over the window divided by its duration, i.e. the
//     time-average of |v|. The form factor is NOT applied to
//     [Result.RMS]; [Result.SineRMS] carries the corrected value.
//
// Before the mode is applied the waveform is optionally upsampled with a
// cubic kernel and trimmed to whole half-cycles. A failed trim is logged and
// the untrimmed series is used.
package rms
