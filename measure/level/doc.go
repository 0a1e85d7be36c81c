// Package level calibrates the generator amplitude so that the device under
// test produces a target RMS voltage.
//
// The loop measures the RMS at a fixed frequency, feeds it to a PID
// controller and programs the controller output as the new peak-to-peak
// amplitude, waiting for the device to settle before the next measurement.
// The controller gain is calibrated from the first measurement as
// KTotal / (rms / start amplitude), which makes the loop response
// independent of the device gain.
//
// A start amplitude above the hard limit aborts before the output is
// switched on. While running, outputs above the amplitude ceiling are
// clamped and logged. The output is always switched off at the end.
package level
