package device

import (
	"context"

	"github.com/norasector/turbine-common/types"
)

// Device produces ordered sample segments. Start blocks until the source is
// exhausted (returning nil), ctx is done, or reading fails. It never closes
// samples; the caller does once Start returns.
type Device interface {
	Start(ctx context.Context, samples chan<- *types.SegmentFloat32) error
	Stop() error
	// SampleRate is the native rate in samples per second, or zero when the
	// device follows whatever rate it is told.
	SampleRate() float64
}
