// Package pid implements a discrete PID controller with an explicit,
// append-only history.
//
// One process-variable sample is consumed per iteration. The terms are
//
//	P = Kc·e[n]
//	I = Kc·trapz(e[0..n])/τI
//	D = -Kc·τD·(pv[n]-pv[n-1])
//
// and the output is OutputZero + P + I + D. The integral is recomputed over
// the whole error history with unit spacing. The derivative acts on the
// measurement, not on the error, so set-point changes do not kick the
// output.
//
// A controller is accumulating until [Controller.MarkConverged] is called,
// after which every further update fails with [ErrConverged].
package pid
