package bpsk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	waves []int
	taken int
}

func (f *fakeCounter) TakeWaves() int {
	w := f.waves[f.taken]
	f.taken++
	return w
}

// flips feeds alternating in-phase signs, one transition per wave count.
func flips(d *BitDecoder, n int) []Decision {
	var out []Decision
	sI := 0.5
	for i := 0; i < n; i++ {
		out = append(out, d.Step(true, sI))
		sI = -sI
	}
	return out
}

func bitsOf(decs []Decision) []int {
	var bits []int
	for _, d := range decs {
		if d.HasBit {
			bits = append(bits, d.Bit)
		}
	}
	return bits
}

func TestBitDecoderShortShortIsZero(t *testing.T) {
	d := NewBitDecoder(&fakeCounter{waves: []int{24, 24}}, 0.38, 24, 48)

	decs := flips(d, 2)
	assert.False(t, decs[0].HasBit)
	assert.Equal(t, AwaitingSecondShort, d.State())
	assert.True(t, decs[1].HasBit)
	assert.Equal(t, 0, decs[1].Bit)
	assert.Equal(t, Idle, d.State())
}

func TestBitDecoderLongIsOne(t *testing.T) {
	d := NewBitDecoder(&fakeCounter{waves: []int{48}}, 0.38, 24, 48)

	dec := d.Step(true, -0.6)
	assert.True(t, dec.Transition)
	assert.True(t, dec.Long)
	assert.True(t, dec.HasBit)
	assert.Equal(t, 1, dec.Bit)
	assert.False(t, dec.Anomaly)
}

func TestBitDecoderSingleShortAnomaly(t *testing.T) {
	d := NewBitDecoder(&fakeCounter{waves: []int{24, 48, 24, 24}}, 0.38, 24, 48)

	decs := flips(d, 4)
	assert.True(t, decs[1].Anomaly)
	assert.Equal(t, []int{1, 0}, bitsOf(decs), "pending short is discarded without a spurious bit")
	assert.Equal(t, Idle, d.State())
}

func TestBitDecoderThresholdBoundary(t *testing.T) {
	d := NewBitDecoder(&fakeCounter{waves: []int{36, 37}}, 0.38, 24, 48)
	require.Equal(t, 36, d.HalfBit())

	decs := flips(d, 2)
	assert.False(t, decs[0].Long, "exactly half a bit is short")
	assert.True(t, decs[1].Long)
	assert.True(t, decs[1].Anomaly)
}

func TestBitDecoderDormantWhileUnlocked(t *testing.T) {
	c := &fakeCounter{waves: []int{24, 24}}
	d := NewBitDecoder(c, 0.38, 24, 48)

	d.Step(true, 0.5)
	require.Equal(t, AwaitingSecondShort, d.State())

	for i := 0; i < 10; i++ {
		assert.Equal(t, Decision{}, d.Step(false, -0.9))
	}
	assert.Equal(t, 1, c.taken, "counter untouched while unlocked")
	assert.Equal(t, AwaitingSecondShort, d.State(), "lock loss keeps the pending short")

	dec := d.Step(true, -0.5)
	assert.True(t, dec.HasBit)
	assert.Equal(t, 0, dec.Bit)
}

func TestBitDecoderIgnoresWeakSamples(t *testing.T) {
	c := &fakeCounter{waves: []int{24}}
	d := NewBitDecoder(c, 0.38, 24, 48)

	assert.Equal(t, Decision{}, d.Step(true, 0.38))
	assert.Equal(t, Decision{}, d.Step(true, -0.2))
	assert.Equal(t, 0, c.taken)

	assert.True(t, d.Step(true, 0.39).Transition)
	assert.False(t, d.Step(true, 0.8).Transition, "same sign is not a transition")
	assert.Equal(t, 1, c.taken)
}
