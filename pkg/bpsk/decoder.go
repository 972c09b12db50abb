package bpsk

import "math"

// WaveCounter hands out the number of full carrier cycles seen since the
// previous call.
type WaveCounter interface {
	TakeWaves() int
}

// DecoderState is the bit decoder's position within a bit.
type DecoderState int

const (
	Idle DecoderState = iota
	AwaitingSecondShort
)

func (s DecoderState) String() string {
	if s == AwaitingSecondShort {
		return "awaiting_second_short"
	}
	return "idle"
}

// Decision is what a single decoder step produced.
type Decision struct {
	// Transition is set when the in-phase sign flipped on this step.
	Transition bool
	Waves      int
	Long       bool

	HasBit  bool
	Bit     int
	Anomaly bool
}

// BitDecoder turns the spacing of in-phase sign flips into bits: two short
// intervals are a 0, one long interval is a 1.
type BitDecoder struct {
	counter            WaveCounter
	amplitudeThreshold float64
	halfBit            int

	state    DecoderState
	prevSign int
}

// NewBitDecoder decodes against counter; intervals longer than the midpoint of
// cyclesPerClock and cyclesPerBit are long.
func NewBitDecoder(counter WaveCounter, amplitudeThreshold float64, cyclesPerClock, cyclesPerBit int) *BitDecoder {
	return &BitDecoder{
		counter:            counter,
		amplitudeThreshold: amplitudeThreshold,
		halfBit:            (cyclesPerClock + cyclesPerBit) / 2,
	}
}

// Step advances the decoder by one sample. Nothing happens while unlocked or
// while the in-phase amplitude is below threshold; the decoder keeps its
// state across lock loss.
func (d *BitDecoder) Step(locked bool, sI float64) Decision {
	var dec Decision
	if !locked || math.Abs(sI) <= d.amplitudeThreshold {
		return dec
	}

	sign := -1
	if sI > 0 {
		sign = 1
	}
	if sign == d.prevSign {
		return dec
	}
	d.prevSign = sign

	dec.Transition = true
	dec.Waves = d.counter.TakeWaves()

	if dec.Waves > d.halfBit {
		dec.Long = true
		if d.state == AwaitingSecondShort {
			dec.Anomaly = true
			d.state = Idle
		}
		dec.HasBit, dec.Bit = true, 1
		return dec
	}

	if d.state == AwaitingSecondShort {
		d.state = Idle
		dec.HasBit, dec.Bit = true, 0
		return dec
	}
	d.state = AwaitingSecondShort
	return dec
}

// State is the current decoder state.
func (d *BitDecoder) State() DecoderState {
	return d.state
}

// HalfBit is the wave count above which an interval counts as long.
func (d *BitDecoder) HalfBit() int {
	return d.halfBit
}
