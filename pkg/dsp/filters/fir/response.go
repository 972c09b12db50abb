package fir

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// Gain is the DC gain of the filter, the steady-state output for a unit
// constant input.
func (t Taps) Gain() float64 {
	return floats.Sum(t)
}

// FrequencyResponse returns |H| at n/2+1 evenly spaced frequencies from DC to
// half the sample rate. n is rounded up to the tap count.
func FrequencyResponse(taps Taps, n int) []float64 {
	if n < len(taps) {
		n = len(taps)
	}
	padded := make([]float64, n)
	copy(padded, taps)

	coeffs := fft.FFTReal(padded)

	ret := make([]float64, n/2+1)
	for i := range ret {
		ret[i] = cmplx.Abs(coeffs[i])
	}
	return ret
}

// ResponseAt evaluates |H| at a single frequency.
func ResponseAt(taps Taps, freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	var acc complex128
	for k, t := range taps {
		acc += complex(t, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}
	return cmplx.Abs(acc)
}
