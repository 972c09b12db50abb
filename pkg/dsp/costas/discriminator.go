package costas

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Discriminator turns the filtered baseband pair into a phase error estimate.
// Both implementations are insensitive to the 180 degree data flips of BPSK.
type Discriminator interface {
	Name() string
	Error(sI, sQ float64) float64
}

// SignDiscriminator computes sign(S_I)*S_Q. It avoids the arctangent and
// tracks well at high signal to noise ratio.
type SignDiscriminator struct{}

func (SignDiscriminator) Name() string { return "sign" }

func (SignDiscriminator) Error(sI, sQ float64) float64 {
	if sI > 0 {
		return sQ
	}
	return -sQ
}

// AngleDiscriminator is the arctangent of S_Q/S_I folded into the right half
// plane, giving the phase error in radians. A zero pair carries no phase and
// yields zero.
type AngleDiscriminator struct{}

func (AngleDiscriminator) Name() string { return "angle" }

func (AngleDiscriminator) Error(sI, sQ float64) float64 {
	switch {
	case sI == 0 && sQ == 0:
		return 0
	case sI > 0:
		return math.Atan2(sQ, sI)
	default:
		return math.Atan2(-sQ, -sI)
	}
}

// NewDiscriminator returns the discriminator registered under name.
func NewDiscriminator(name string) (Discriminator, error) {
	switch strings.ToLower(name) {
	case "", "sign":
		return SignDiscriminator{}, nil
	case "angle", "atan":
		return AngleDiscriminator{}, nil
	}
	return nil, errors.Errorf("unknown discriminator %q", name)
}
