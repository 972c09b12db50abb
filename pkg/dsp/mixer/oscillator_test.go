package mixer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestOscillatorQuadrature(t *testing.T) {
	o := NewOscillator(5, 19, 0.3)
	for n := 0; n < 100; n++ {
		i, q := o.Step()
		assert.InDelta(t, 1.0, i*i+q*q, 1e-12)
		assert.InDelta(t, math.Cos(o.Accumulator()+0.3), i, 1e-12)
		assert.InDelta(t, -math.Sin(o.Accumulator()+0.3), q, 1e-12)
	}
}

func TestOscillatorAccumulatorRange(t *testing.T) {
	o := NewOscillator(5, 19, 0)
	for n := 0; n < 1000; n++ {
		o.Step()
		assert.GreaterOrEqual(t, o.Accumulator(), 0.0)
		assert.LessOrEqual(t, o.Accumulator(), tau)
	}
}

func TestOscillatorWaveCounter(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		samplePeriod := rapid.Float64Range(1, 10).Draw(t, "samplePeriod")
		// keep at least two samples per cycle
		period := samplePeriod * rapid.Float64Range(2.01, 50).Draw(t, "samplesPerCycle")
		steps := rapid.IntRange(0, 2000).Draw(t, "steps")

		o := NewOscillator(samplePeriod, period, 0)
		var wraps uint64
		prevAcc := o.Accumulator()
		prevCycles := o.Cycles()
		for n := 0; n < steps; n++ {
			o.Step()
			if o.Accumulator() < prevAcc {
				wraps++
			}
			if o.Cycles() < prevCycles || o.Cycles()-prevCycles > 1 {
				t.Fatalf("cycles went from %d to %d", prevCycles, o.Cycles())
			}
			prevAcc = o.Accumulator()
			prevCycles = o.Cycles()
		}
		if o.Cycles() != wraps {
			t.Fatalf("cycles %d, observed wraps %d", o.Cycles(), wraps)
		}
		if uint64(o.Waves()) != wraps {
			t.Fatalf("pending waves %d, observed wraps %d", o.Waves(), wraps)
		}
	})
}

func TestOscillatorTakeWaves(t *testing.T) {
	o := NewOscillator(5, 19, 0)
	for n := 0; n < 189; n++ {
		o.Step()
	}
	// 189 samples of 5/19 cycle each
	assert.Equal(t, 49, o.TakeWaves())
	assert.Equal(t, 0, o.Waves())
	assert.Equal(t, uint64(49), o.Cycles())
}

func TestOscillatorSteer(t *testing.T) {
	o := NewOscillator(5, 19, 1)
	o.Steer(0.5, -0.25)
	assert.Equal(t, 1.5, o.Phase())
	assert.Equal(t, 18.75, o.Period())

	o.Steer(10, 0)
	assert.Equal(t, 11.5, o.Phase(), "phase is unbounded without wrapping")
}

func TestOscillatorPhaseWrap(t *testing.T) {
	o := NewOscillator(5, 19, 6, WithPhaseWrap())
	o.Steer(1, 0)
	assert.InDelta(t, 7-tau, o.Phase(), 1e-12)

	o = NewOscillator(5, 19, -6, WithPhaseWrap())
	o.Steer(-1, 0)
	assert.InDelta(t, tau-7, o.Phase(), 1e-12)
}

func TestOscillatorPeriodBound(t *testing.T) {
	o := NewOscillator(5, 20, 0, WithPeriodBound(0.1))
	o.Steer(0, 5)
	assert.InDelta(t, 22.0, o.Period(), 1e-12)
	o.Steer(0, -10)
	assert.InDelta(t, 18.0, o.Period(), 1e-12)
}

func TestCarrierFirstSampleAtZero(t *testing.T) {
	c := NewCarrier(5, 19)
	s, wrapped := c.Next()
	assert.InDelta(t, 0.0, s, 1e-12)
	assert.False(t, wrapped)

	var cycles int
	for n := 1; n < 19*4; n++ {
		if _, w := c.Next(); w {
			cycles++
		}
	}
	assert.Equal(t, uint64(cycles), c.Cycles())
	assert.Equal(t, 19, cycles)
}
