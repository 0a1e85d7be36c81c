package pid

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-audiotest/dsp/core"
	"gonum.org/v1/gonum/integrate"
)

// Errors returned by the controller.
var (
	ErrInvalidParameter = errors.New("pid: invalid parameter")
	ErrConverged        = errors.New("pid: controller has converged")
	ErrNoSample         = errors.New("pid: no process variable recorded")
)

// Sample is an error value with an optional timestamp relative to the start
// of the run.
type Sample struct {
	Value float64
	Time  time.Duration
}

// History holds every value the controller has seen or produced. The term
// and output series start with one seed entry, so they are one longer than
// Errors after each full iteration.
type History struct {
	Errors           []Sample
	ProcessVariables []float64
	Proportional     []float64
	Integral         []float64
	Derivative       []float64
	Outputs          []float64
}

// NewHistory returns a history seeded with zero terms and outputZero.
func NewHistory(outputZero float64) *History {
	return &History{
		Proportional: []float64{0},
		Integral:     []float64{0},
		Derivative:   []float64{0},
		Outputs:      []float64{outputZero},
	}
}

// Len returns the number of recorded process-variable samples.
func (h *History) Len() int { return len(h.ProcessVariables) }

// LastOutput returns the most recent output, or 0 for an empty history.
func (h *History) LastOutput() float64 {
	if len(h.Outputs) == 0 {
		return 0
	}
	return h.Outputs[len(h.Outputs)-1]
}

// Params are the tuning values of a controller.
type Params struct {
	SetPoint   float64
	Gain       float64 // Kc
	TauI       float64 // integral (reset) time constant, in iterations
	TauD       float64 // derivative time constant, in iterations
	OutputZero float64
}

// Validate checks that the parameters describe a usable controller.
func (p Params) Validate() error {
	for name, v := range map[string]float64{
		"set point":   p.SetPoint,
		"gain":        p.Gain,
		"tauI":        p.TauI,
		"tauD":        p.TauD,
		"output zero": p.OutputZero,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidParameter, name)
		}
	}
	if p.TauI <= 0 {
		return fmt.Errorf("%w: tauI must be > 0, got %g", ErrInvalidParameter, p.TauI)
	}
	if p.TauD < 0 {
		return fmt.Errorf("%w: tauD must be >= 0, got %g", ErrInvalidParameter, p.TauD)
	}
	return nil
}

// Iteration is the result of one controller update.
type Iteration struct {
	Error        float64
	Proportional float64
	Integral     float64
	Derivative   float64
	// Raw is OutputZero + P + I + D before limits are applied.
	Raw float64
	// Output is Raw clamped to the configured limits.
	Output  float64
	Clamped bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithHistory makes the controller append to h instead of a fresh history.
func WithHistory(h *History) Option {
	return func(c *Controller) {
		if h != nil {
			c.history = h
		}
	}
}

// WithOutputLimits clamps every output to [lo, hi].
func WithOutputLimits(lo, hi float64) Option {
	return func(c *Controller) {
		if lo <= hi {
			c.lo, c.hi = lo, hi
		}
	}
}

// Controller is a stateful discrete PID controller. It is not safe for
// concurrent use.
type Controller struct {
	params    Params
	history   *History
	lo, hi    float64
	converged bool
}

// New returns a controller for p.
func New(p Params, opts ...Option) (*Controller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		params: p,
		lo:     math.Inf(-1),
		hi:     math.Inf(1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.history == nil {
		c.history = NewHistory(p.OutputZero)
	}
	return c, nil
}

// Params returns the current tuning values.
func (c *Controller) Params() Params { return c.params }

// History returns the controller's history. The caller must not modify it
// while the controller is in use.
func (c *Controller) History() *History { return c.history }

// SetGain replaces Kc. Used for calibrating the gain from the first
// measurement.
func (c *Controller) SetGain(kc float64) error {
	if math.IsNaN(kc) || math.IsInf(kc, 0) {
		return fmt.Errorf("%w: gain must be finite", ErrInvalidParameter)
	}
	c.params.Gain = kc
	return nil
}

// Converged reports whether the controller reached its terminal state.
func (c *Controller) Converged() bool { return c.converged }

// MarkConverged moves the controller to its terminal state.
func (c *Controller) MarkConverged() { c.converged = true }

// Record appends a process-variable sample and its error against the set
// point, and returns the error.
func (c *Controller) Record(pv float64, at time.Duration) (float64, error) {
	if c.converged {
		return 0, ErrConverged
	}
	if math.IsNaN(pv) || math.IsInf(pv, 0) {
		return 0, fmt.Errorf("%w: process variable must be finite", ErrInvalidParameter)
	}
	e := c.params.SetPoint - pv
	c.history.ProcessVariables = append(c.history.ProcessVariables, pv)
	c.history.Errors = append(c.history.Errors, Sample{Value: e, Time: at})
	return e, nil
}

// Update computes the terms over the recorded history and appends them and
// the new output.
func (c *Controller) Update() (Iteration, error) {
	if c.converged {
		return Iteration{}, ErrConverged
	}
	h := c.history
	if len(h.Errors) == 0 {
		return Iteration{}, ErrNoSample
	}

	it := Iteration{
		Error:        h.Errors[len(h.Errors)-1].Value,
		Proportional: c.Proportional(),
		Integral:     c.Integral(),
		Derivative:   c.Derivative(),
	}
	it.Raw = c.params.OutputZero + it.Proportional + it.Integral + it.Derivative
	it.Output = core.Clamp(it.Raw, c.lo, c.hi)
	it.Clamped = it.Output != it.Raw

	h.Proportional = append(h.Proportional, it.Proportional)
	h.Integral = append(h.Integral, it.Integral)
	h.Derivative = append(h.Derivative, it.Derivative)
	h.Outputs = append(h.Outputs, it.Output)
	return it, nil
}

// Step records pv and updates the controller.
func (c *Controller) Step(pv float64) (Iteration, error) {
	if _, err := c.Record(pv, 0); err != nil {
		return Iteration{}, err
	}
	return c.Update()
}

// Proportional returns Kc times the latest error.
func (c *Controller) Proportional() float64 {
	errs := c.history.Errors
	if len(errs) == 0 {
		return 0
	}
	return c.params.Gain * errs[len(errs)-1].Value
}

// Integral returns Kc times the trapezoidal area of the error history
// divided by τI.
func (c *Controller) Integral() float64 {
	errs := c.history.Errors
	if len(errs) < 2 {
		return 0
	}
	x := make([]float64, len(errs))
	f := make([]float64, len(errs))
	for i, e := range errs {
		x[i] = float64(i)
		f[i] = e.Value
	}
	return c.params.Gain * integrate.Trapezoidal(x, f) / c.params.TauI
}

// Derivative returns -Kc·τD times the backward difference of the last two
// process-variable samples.
func (c *Controller) Derivative() float64 {
	pv := c.history.ProcessVariables
	if len(pv) < 2 {
		return 0
	}
	return -c.params.Gain * c.params.TauD * (pv[len(pv)-1] - pv[len(pv)-2])
}

// WithinTolerance reports whether |e| < limit.
func WithinTolerance(e, limit float64) bool {
	return math.Abs(e) < limit
}
