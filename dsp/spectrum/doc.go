// Package spectrum computes discrete spectra of real waveforms.
//
// [Transform] runs a forward FFT (zero-padded to a power of two) and
// [Power] and [Magnitude] reduce the bins to |X|² and |X| using SIMD
// kernels. [Energy] applies Parseval's theorem, which is what the
// FFT-mode RMS estimator builds on.
package spectrum
