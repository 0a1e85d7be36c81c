// Package phase estimates the phase offset between two simultaneously
// sampled waveforms of the same frequency.
//
// Both channels are centred on their peak midpoint, the first zero crossing
// of channel A is located and channel B is searched from that sample on.
// Each crossing time is refined by linear interpolation between the two
// samples that straddle zero. When the crossings run in opposite directions
// the result is corrected by -180° and [Result.Sign] is -1.
//
// The [RisingEdge] policy only accepts positive-slope crossings on both
// channels; the result is then the lag of B behind A and Sign is always +1.
package phase
