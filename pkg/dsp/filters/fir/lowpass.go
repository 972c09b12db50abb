package fir

import (
	"math"

	"github.com/pkg/errors"
)

// Taps is an immutable FIR coefficient vector. Tap 0 is applied to the
// most recent input.
type Taps []float64

// ErrNyquist is returned when a cutoff lies at or above half the sample rate.
var ErrNyquist = errors.New("cutoff frequency violates nyquist")

// MakeLowPassTaps designs an ntaps windowed-sinc low pass with normalized
// cutoff fc = 2*cutoff/sampleRate. The center tap is fc, every other tap is
// sin(fc*pi*d)/(pi*d) with d the distance from the center. With the
// Rectangular window no weighting is applied.
func MakeLowPassTaps(sampleRate, cutoff float64, ntaps int, winType WindowType) (Taps, error) {
	if sampleRate <= 0 || cutoff <= 0 {
		return nil, errors.Errorf("sample rate %g and cutoff %g must be positive", sampleRate, cutoff)
	}
	if ntaps < 1 {
		return nil, errors.Errorf("need at least one tap, got %d", ntaps)
	}

	fc := 2 * cutoff / sampleRate
	if fc >= 1 {
		return nil, errors.Wrapf(ErrNyquist, "sample rate %g, cutoff %g", sampleRate, cutoff)
	}

	w := Window(winType, ntaps)
	taps := make(Taps, ntaps)
	d1 := float64(ntaps-1) / 2

	for i := 0; i < ntaps; i++ {
		d2 := float64(i) - d1
		if d2 == 0 {
			taps[i] = fc
		} else {
			taps[i] = math.Sin(fc*math.Pi*d2) / (math.Pi * d2)
		}
		taps[i] *= w[i]
	}

	return taps, nil
}

// MakeLowPass designs a unity-normalized low pass whose length follows from
// the transition width and the window's stopband attenuation.
func MakeLowPass(gain, sampleRate, cutFrequency, transitionWidth float64, winType WindowType) Taps {
	nTaps := computeNTaps(sampleRate, transitionWidth, winType)
	var taps = make(Taps, nTaps)
	var w = Window(winType, nTaps)

	var M = (nTaps - 1) / 2
	var fwT0 = 2 * math.Pi * cutFrequency / sampleRate

	for i := -M; i <= M; i++ {
		if i == 0 {
			taps[i+M] = fwT0 / math.Pi * w[i+M]
		} else {
			fi := float64(i)
			taps[i+M] = math.Sin(fi*fwT0) / (fi * math.Pi) * w[i+M]
		}
	}

	var fmax = taps[0+M]
	for i := 1; i <= M; i++ {
		fmax += 2 * taps[i+M]
	}

	gain /= fmax

	for i := 0; i < nTaps; i++ {
		taps[i] *= gain
	}

	return taps
}
