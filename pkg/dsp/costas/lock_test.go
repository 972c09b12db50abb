package costas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	assert.InDelta(t, 0.16-0.01, LockMetric(0.4, 0.1), 1e-15)
	assert.InDelta(t, 0.16+0.01, EnergyMetric(0.4, 0.1), 1e-15)
	assert.InDelta(t, LockMetric(0.4, 0.1), QualityDifference.Compute(0.4, 0.1), 1e-15)
	assert.InDelta(t, EnergyMetric(0.4, 0.1), QualityEnergy.Compute(0.4, 0.1), 1e-15)
}

func TestParseQualityFormula(t *testing.T) {
	q, err := ParseQualityFormula("")
	require.NoError(t, err)
	assert.Equal(t, QualityDifference, q)

	q, err = ParseQualityFormula("energy")
	require.NoError(t, err)
	assert.Equal(t, QualityEnergy, q)
	assert.Equal(t, "energy", q.String())

	_, err = ParseQualityFormula("sum")
	assert.Error(t, err)
}

func TestLockDetectorTransitions(t *testing.T) {
	d := NewLockDetector(DefaultLockThreshold, QualityDifference)

	steps := []struct {
		sI, sQ float64
		want   Transition
		locked bool
	}{
		{0.1, 0, TransitionNone, false},
		{0.44, 0, TransitionAcquired, true},
		{0.44, 0.05, TransitionNone, true},
		{0.43, 0, TransitionNone, true},
		{0.2, 0.1, TransitionLost, false},
		{0.1, 0, TransitionNone, false},
		{0.5, 0, TransitionAcquired, true},
	}
	for i, s := range steps {
		_, _, tr := d.Evaluate(s.sI, s.sQ)
		assert.Equal(t, s.want, tr, "step %d", i)
		assert.Equal(t, s.locked, d.Locked(), "step %d", i)
	}
}

func TestLockDetectorThresholdIsExclusive(t *testing.T) {
	d := NewLockDetector(0.25, QualityEnergy)

	_, _, tr := d.Evaluate(0.5, 0)
	assert.Equal(t, TransitionNone, tr, "lock equal to threshold does not acquire")

	_, _, tr = d.Evaluate(0.6, 0)
	assert.Equal(t, TransitionAcquired, tr)

	lock, quality, tr := d.Evaluate(0.5, 0)
	assert.Equal(t, TransitionLost, tr, "lock equal to threshold drops lock")
	assert.Equal(t, 0.25, lock)
	assert.Equal(t, 0.25, quality)
	assert.Equal(t, lock, d.Lock())
	assert.Equal(t, quality, d.Quality())
}
