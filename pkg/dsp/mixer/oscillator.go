package mixer

import (
	"math"
)

// Oscillator is the receive side NCO. Its period and phase offset are
// steered by a loop filter; every accumulator wrap is counted as one wave.
type Oscillator struct {
	accumulator

	samplePeriod float64
	period       float64
	phase        float64

	waves  int
	cycles uint64

	wrapPhase bool
	refPeriod float64
	maxDrift  float64
}

type OscillatorOption func(o *Oscillator)

// WithPhaseWrap keeps the phase offset inside (-tau, tau).
func WithPhaseWrap() OscillatorOption {
	return func(o *Oscillator) {
		o.wrapPhase = true
	}
}

// WithPeriodBound clamps the tracked period to refPeriod*(1±maxDrift).
// A maxDrift of zero leaves the period unbounded.
func WithPeriodBound(maxDrift float64) OscillatorOption {
	return func(o *Oscillator) {
		o.maxDrift = maxDrift
	}
}

func NewOscillator(samplePeriod, period, phase float64, opts ...OscillatorOption) *Oscillator {
	o := &Oscillator{
		samplePeriod: samplePeriod,
		period:       period,
		phase:        phase,
		refPeriod:    period,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Step advances the accumulator by samplePeriod*tau/period and returns the
// in-phase and quadrature references cos(acc+phase) and -sin(acc+phase).
func (o *Oscillator) Step() (float64, float64) {
	if o.advance(o.samplePeriod * tau / o.period) {
		o.waves++
		o.cycles++
	}

	sin, cos := math.Sincos(o.phase + o.acc)
	return cos, -sin
}

// Steer adds the given corrections to the phase offset and the period.
func (o *Oscillator) Steer(dPhase, dPeriod float64) {
	o.phase += dPhase
	o.period += dPeriod

	if o.wrapPhase {
		if o.phase > tau {
			o.phase -= tau
		} else if o.phase < -tau {
			o.phase += tau
		}
	}

	if o.maxDrift > 0 {
		lo := o.refPeriod * (1 - o.maxDrift)
		hi := o.refPeriod * (1 + o.maxDrift)
		o.period = math.Max(lo, math.Min(hi, o.period))
	}
}

// TakeWaves returns the waves counted since the previous call and clears the
// count.
func (o *Oscillator) TakeWaves() int {
	w := o.waves
	o.waves = 0
	return w
}

// Waves is the pending wave count without consuming it.
func (o *Oscillator) Waves() int {
	return o.waves
}

// Cycles is the total number of accumulator wraps since construction.
func (o *Oscillator) Cycles() uint64 {
	return o.cycles
}

func (o *Oscillator) Period() float64 {
	return o.period
}

func (o *Oscillator) Phase() float64 {
	return o.phase
}

// Accumulator is the current reference phase in [0, tau).
func (o *Oscillator) Accumulator() float64 {
	return o.acc
}
