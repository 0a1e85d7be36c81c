// Package waveform holds captured voltage waveforms and the whole-cycle
// trimmer used before RMS estimation.
//
// A [Waveform] is immutable: [Waveform.Upsample], [Waveform.RemoveDC] and
// [Waveform.Trim] return new values and never share sample storage with
// the receiver.
//
// # Whole-cycle trimming
//
// [TrimWholeCycles] cuts a sampled periodic signal to the span between its
// first zero crossing and the last crossing running in the opposite
// direction. The window then holds a whole number of half-cycles, so partial
// cycles at the edges do not bias an RMS estimate:
//
//	trimmed, start, end, err := waveform.TrimWholeCycles(samples)
//	if errors.Is(err, waveform.ErrNoZeroCrossing) {
//	    // fall back to the untrimmed samples
//	}
//
// No sub-sample interpolation is applied; both boundaries sit on the
// sample closer to zero of their crossing pair.
package waveform
