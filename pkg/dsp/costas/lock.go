package costas

import (
	"strings"

	"github.com/pkg/errors"
)

// DefaultLockThreshold is the lock metric level separating locked from
// unlocked for unit-amplitude input through the reference filter.
const DefaultLockThreshold = 0.15

// LockMetric is S_I²-S_Q²: large when the energy sits on the in-phase axis.
func LockMetric(sI, sQ float64) float64 {
	return sI*sI - sQ*sQ
}

// EnergyMetric is S_I²+S_Q², the total baseband energy.
func EnergyMetric(sI, sQ float64) float64 {
	return sI*sI + sQ*sQ
}

// QualityFormula selects how the quality metric is computed.
type QualityFormula int

const (
	// QualityDifference reuses the lock metric formula.
	QualityDifference QualityFormula = iota
	// QualityEnergy reports total energy.
	QualityEnergy
)

func ParseQualityFormula(name string) (QualityFormula, error) {
	switch strings.ToLower(name) {
	case "", "difference":
		return QualityDifference, nil
	case "energy":
		return QualityEnergy, nil
	}
	return QualityDifference, errors.Errorf("unknown quality formula %q", name)
}

func (q QualityFormula) String() string {
	if q == QualityEnergy {
		return "energy"
	}
	return "difference"
}

func (q QualityFormula) Compute(sI, sQ float64) float64 {
	if q == QualityEnergy {
		return EnergyMetric(sI, sQ)
	}
	return LockMetric(sI, sQ)
}

// Transition is the lock change reported by a single evaluation.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionAcquired
	TransitionLost
)

func (t Transition) String() string {
	switch t {
	case TransitionAcquired:
		return "acquired"
	case TransitionLost:
		return "lost"
	}
	return "none"
}

// LockDetector compares the lock metric against a threshold and reports edges.
type LockDetector struct {
	threshold float64
	quality   QualityFormula

	locked      bool
	lastLock    float64
	lastQuality float64
}

// NewLockDetector starts unlocked.
func NewLockDetector(threshold float64, quality QualityFormula) *LockDetector {
	return &LockDetector{
		threshold: threshold,
		quality:   quality,
	}
}

// Evaluate computes the metrics for this sample and reports a transition
// only when the locked state changes.
func (d *LockDetector) Evaluate(sI, sQ float64) (lock, quality float64, tr Transition) {
	lock = LockMetric(sI, sQ)
	quality = d.quality.Compute(sI, sQ)
	d.lastLock, d.lastQuality = lock, quality

	switch {
	case !d.locked && lock > d.threshold:
		d.locked = true
		tr = TransitionAcquired
	case d.locked && lock <= d.threshold:
		d.locked = false
		tr = TransitionLost
	}
	return lock, quality, tr
}

func (d *LockDetector) Locked() bool {
	return d.locked
}

func (d *LockDetector) Lock() float64 {
	return d.lastLock
}

func (d *LockDetector) Quality() float64 {
	return d.lastQuality
}

func (d *LockDetector) QualityFormula() QualityFormula {
	return d.quality
}
