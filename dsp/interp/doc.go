// Package interp resamples ordered sample sequences onto denser, evenly
// spaced grids.
//
// Available kinds:
//
//   - [Linear]:   piecewise linear
//   - [Nearest]:  nearest neighbour
//   - [Previous]: zero-order hold (value of the sample at or before x)
//   - [Next]:     value of the sample at or after x
//   - [Cubic]:    natural cubic spline (good default for waveforms)
//   - [Akima]:    Akima spline, robust to outliers
//   - [Monotone]: Fritsch-Butland monotone cubic
//   - [Hermite]:  4-point cubic Hermite (Catmull-Rom) per segment
//
// [Resample] works on arbitrary strictly increasing abscissae, [ResampleLogX]
// interpolates in log10(x) for frequency-response curves and [Upsample]
// densifies a uniformly sampled waveform by an integer factor.
package interp
