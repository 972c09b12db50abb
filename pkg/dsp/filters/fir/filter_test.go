package fir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFilterImpulseResponse(t *testing.T) {
	taps, err := MakeLowPassTaps(192000, 55000, 7, Rectangular)
	require.NoError(t, err)

	f := NewFilter(taps)
	out := make([]float64, len(taps)+3)
	out[0] = f.Filter(1)
	for i := 1; i < len(out); i++ {
		out[i] = f.Filter(0)
	}

	assert.InDeltaSlice(t, []float64(taps), out[:len(taps)], 1e-15)
	assert.Equal(t, []float64{0, 0, 0}, out[len(taps):])
}

func TestFilterSteadyStateGain(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ntaps := rapid.IntRange(1, 64).Draw(t, "ntaps")
		input := rapid.Float64Range(-10, 10).Draw(t, "input")
		extra := rapid.IntRange(0, 100).Draw(t, "extra")

		taps, err := MakeLowPassTaps(192000, 55000, ntaps, Rectangular)
		if err != nil {
			t.Fatalf("design: %v", err)
		}
		f := NewFilter(taps)

		var out float64
		for i := 0; i < ntaps+extra; i++ {
			out = f.Filter(input)
		}
		if math.Abs(out-input*taps.Gain()) > 1e-9 {
			t.Fatalf("steady state %v, want %v", out, input*taps.Gain())
		}
	})
}

func TestFilterCursorStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ntaps := rapid.IntRange(1, 32).Draw(t, "ntaps")
		n := rapid.IntRange(0, 500).Draw(t, "n")

		f := NewFilter(make(Taps, ntaps))
		for i := 0; i < n; i++ {
			f.Filter(1)
			if f.Cursor() < 0 || f.Cursor() >= ntaps {
				t.Fatalf("cursor %d out of [0,%d)", f.Cursor(), ntaps)
			}
		}
		if f.Cursor() != n%ntaps {
			t.Fatalf("cursor %d after %d inputs, want %d", f.Cursor(), n, n%ntaps)
		}
	})
}

func TestFilterWorkAndReset(t *testing.T) {
	f := NewFilter(Taps{0.5, 0.5})

	out := f.Work([]float32{2, 4, 6})
	assert.Equal(t, []float32{1, 3, 5}, out)

	f.Reset()
	assert.Equal(t, 0, f.Cursor())
	assert.Equal(t, float64(1), f.Filter(2))
}

func TestTwoFiltersShareTaps(t *testing.T) {
	taps := Taps{1, 2, 3}
	a, b := NewFilter(taps), NewFilter(taps)

	a.Filter(1)
	assert.Equal(t, float64(0), b.Filter(0))
	assert.Equal(t, float64(2), a.Filter(0))
}
