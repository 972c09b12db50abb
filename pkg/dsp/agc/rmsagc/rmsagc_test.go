package rmsagc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func sine(n int, amplitude float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*float64(i)*5/19))
	}
	return out
}

func peak(data []float32) float64 {
	var m float64
	for _, v := range data {
		m = math.Max(m, math.Abs(float64(v)))
	}
	return m
}

func TestRMSAGCNormalizesAmplitude(t *testing.T) {
	tests := []struct {
		name      string
		amplitude float64
	}{
		{"quiet", 0.01},
		{"unit", 1},
		{"loud", 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agc := NewRMSAGC(1e-3, 1/math.Sqrt2)
			out := agc.Work(sine(40000, tt.amplitude))

			assert.InDelta(t, 1.0, peak(out[len(out)-2000:]), 0.05)
			assert.InDelta(t, tt.amplitude/math.Sqrt2, agc.Level(), tt.amplitude*0.05)
		})
	}
}

func TestRMSAGCInPlace(t *testing.T) {
	data := sine(1000, 3)
	want := NewRMSAGC(0.01, 0.5).Work(data)

	agc := NewRMSAGC(0.01, 0.5)
	n := agc.WorkBuffer(data, data)

	assert.Equal(t, 1000, n)
	assert.Equal(t, want, data)
}

func TestRMSAGCReset(t *testing.T) {
	agc := NewRMSAGC(0.1, 1)
	agc.Work(sine(500, 10))
	assert.NotEqual(t, 1.0, agc.Gain())

	agc.Reset()
	assert.Equal(t, 1.0, agc.Gain())
	assert.Equal(t, 1.0, agc.Level())
}

func TestRMSAGCSilence(t *testing.T) {
	agc := NewRMSAGC(0.5, 1)
	out := agc.Work(make([]float32, 200))
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestRMSAGCPreservesSign(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Float32Range(-100, 100), 1, 64).Draw(t, "data")
		out := NewRMSAGC(0.05, 1).Work(data)
		for i := range data {
			if (data[i] > 0) != (out[i] > 0) || (data[i] < 0) != (out[i] < 0) {
				t.Fatalf("sample %d: %v became %v", i, data[i], out[i])
			}
		}
	})
}
