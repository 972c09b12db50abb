package mixer

import (
	"math"
)

const (
	tau float64 = math.Pi * 2
)

// accumulator is a phase register in [0, tau). A step that crosses tau is
// folded back exactly once, so increments must stay below tau.
type accumulator struct {
	acc float64
}

func (a *accumulator) advance(increment float64) bool {
	a.acc += increment
	if a.acc > tau {
		a.acc -= tau
		return true
	}
	return false
}

// Carrier is a fixed-frequency sine source, the transmit side counterpart of
// Oscillator.
type Carrier struct {
	accumulator
	increment float64
	cycles    uint64
}

// NewCarrier returns a carrier with the given sample and carrier periods
// (same unit). The first sample is taken at phase zero.
func NewCarrier(samplePeriod, period float64) *Carrier {
	inc := samplePeriod * tau / period
	return &Carrier{
		accumulator: accumulator{acc: -inc},
		increment:   inc,
	}
}

// Next advances one sample and returns sin(phase) and whether a full carrier
// cycle completed on this step.
func (c *Carrier) Next() (float64, bool) {
	wrapped := c.advance(c.increment)
	if wrapped {
		c.cycles++
	}
	return math.Sin(c.acc), wrapped
}

func (c *Carrier) Phase() float64 {
	return c.acc
}

func (c *Carrier) Cycles() uint64 {
	return c.cycles
}
