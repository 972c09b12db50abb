package rmsagc

import (
	"math"
)

// RMSAGC scales its input so that the running mean-square level settles at
// the configured RMS. The level is tracked with a single-pole average.
type RMSAGC struct {
	alpha   float64
	rms     float64
	average float64
}

// NewRMSAGC tracks the input level with weight alpha per sample and drives
// the output towards rms. A sinusoid of peak amplitude A has an RMS of A/√2.
func NewRMSAGC(alpha float64, rms float64) *RMSAGC {
	return &RMSAGC{
		alpha:   alpha,
		average: 1.0,
		rms:     rms,
	}
}

func (r *RMSAGC) PredictOutputSize(inputSize int) int {
	return inputSize
}

// WorkBuffer may be called with the same slice as input and output.
func (r *RMSAGC) WorkBuffer(input, output []float32) int {
	for i, x := range input {
		v := float64(x)
		r.track(v * v)
		output[i] = float32(v * r.Gain())
	}
	return len(input)
}

// track folds one squared sample into the running mean square.
func (r *RMSAGC) track(power float64) {
	r.average += r.alpha * (power - r.average)
}

func (r *RMSAGC) Work(data []float32) []float32 {
	ret := make([]float32, len(data))
	r.WorkBuffer(data, ret)
	return ret
}

// Level is the current RMS estimate of the input.
func (r *RMSAGC) Level() float64 {
	return math.Sqrt(r.average)
}

// Gain is the factor currently applied to the input.
func (r *RMSAGC) Gain() float64 {
	if r.average <= 0 {
		return r.rms
	}
	return r.rms / math.Sqrt(r.average)
}

func (r *RMSAGC) Reset() {
	r.average = 1.0
}
