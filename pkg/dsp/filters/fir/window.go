package fir

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

type WindowFunc func(int) []float64

type WindowType int

const (
	Rectangular WindowType = iota
	Hamming
	Hann
	Blackman
	BlackmanHarris
)

var (
	windowMaxAttenuation = map[WindowType]int{
		Rectangular:    21,
		Hamming:        53,
		Hann:           44,
		Blackman:       74,
		BlackmanHarris: 92,
	}
	windowFuncs = map[WindowType]WindowFunc{
		Rectangular:    RectangularWindow,
		Hamming:        HammingWindow,
		Hann:           HannWindow,
		Blackman:       BlackmanWindow,
		BlackmanHarris: BlackmanHarrisWindow,
	}
	windowNames = map[string]WindowType{
		"none":           Rectangular,
		"rectangular":    Rectangular,
		"hamming":        Hamming,
		"hann":           Hann,
		"blackman":       Blackman,
		"blackmanharris": BlackmanHarris,
	}
)

// ParseWindowType maps a config name ("none", "hamming", ...) to a WindowType.
func ParseWindowType(name string) (WindowType, error) {
	if name == "" {
		return Rectangular, nil
	}
	wt, ok := windowNames[strings.ToLower(name)]
	if !ok {
		return Rectangular, errors.Errorf("unknown window type %q", name)
	}
	return wt, nil
}

func (w WindowType) String() string {
	switch w {
	case Rectangular:
		return "none"
	case Hamming:
		return "hamming"
	case Hann:
		return "hann"
	case Blackman:
		return "blackman"
	case BlackmanHarris:
		return "blackmanharris"
	}
	return "unknown"
}

// Window returns ntaps coefficients of the given window.
func Window(winType WindowType, ntaps int) []float64 {
	f, ok := windowFuncs[winType]
	if !ok {
		f = RectangularWindow
	}
	return f(ntaps)
}

func cosWindow1(ntaps int, c0, c1, c2 float64) []float64 {
	ret := make([]float64, ntaps)
	if ntaps == 1 {
		ret[0] = 1
		return ret
	}
	M := float64(ntaps - 1)

	for i := 0; i < ntaps; i++ {
		fi := float64(i)
		ret[i] = c0 - c1*math.Cos((2*math.Pi*fi)/M) +
			c2*math.Cos((4*math.Pi*fi)/M)
	}
	return ret
}

func cosWindow2(ntaps int, c0, c1, c2, c3 float64) []float64 {
	ret := make([]float64, ntaps)
	if ntaps == 1 {
		ret[0] = 1
		return ret
	}
	M := float64(ntaps - 1)

	for i := 0; i < ntaps; i++ {
		fi := float64(i)
		ret[i] = c0 - c1*math.Cos((2*math.Pi*fi)/M) +
			c2*math.Cos((4*math.Pi*fi)/M) -
			c3*math.Cos((6*math.Pi*fi)/M)
	}
	return ret
}

func RectangularWindow(ntaps int) []float64 {
	ret := make([]float64, ntaps)
	for i := range ret {
		ret[i] = 1
	}
	return ret
}

// BlackmanHarrisWindow is the 4-term, 92 dB variant.
func BlackmanHarrisWindow(ntaps int) []float64 {
	return cosWindow2(ntaps, 0.35875, 0.48829, 0.14128, 0.01168)
}

func BlackmanWindow(ntaps int) []float64 {
	return cosWindow1(ntaps, 0.42, 0.5, 0.08)
}

func HammingWindow(ntaps int) []float64 {
	return cosWindow1(ntaps, 0.54, 0.46, 0)
}

func HannWindow(ntaps int) []float64 {
	return cosWindow1(ntaps, 0.5, 0.5, 0)
}
