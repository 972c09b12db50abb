package bpsk

import "strconv"

// TelemetryHeader names the columns of Telemetry.Record.
var TelemetryHeader = []string{"period", "phase", "sample", "I", "Q", "lock", "quality", "S_I", "S_Q", "err", "err_int"}

// Telemetry is the per-sample state of the demodulator after the loop update.
type Telemetry struct {
	Tick    uint64
	Period  float64
	Phase   float64
	Sample  float64
	I       float64
	Q       float64
	Lock    float64
	Quality float64
	Locked  bool
	SI      float64
	SQ      float64
	Err     float64
	ErrInt  float64
}

// Record formats the row in TelemetryHeader order.
func (t Telemetry) Record() []string {
	values := []float64{t.Period, t.Phase, t.Sample, t.I, t.Q, t.Lock, t.Quality, t.SI, t.SQ, t.Err, t.ErrInt}
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return fields
}

type EventKind int

const (
	EventLockAcquired EventKind = iota
	EventLockLost
	EventBit
	EventSingleShort
)

func (k EventKind) String() string {
	switch k {
	case EventLockAcquired:
		return "lock_acquired"
	case EventLockLost:
		return "lock_lost"
	case EventBit:
		return "bit"
	case EventSingleShort:
		return "single_short"
	}
	return "unknown"
}

// Event is a discrete occurrence. Lock is set for lock transitions, Bit for
// EventBit, Waves for decoder events.
type Event struct {
	Kind  EventKind
	Tick  uint64
	Lock  float64
	Bit   int
	Waves int
}

// Sink receives every telemetry record and every event, in tick order.
// Implementations are called from the demodulator goroutine and must not
// retain the values past the call unless they copy them.
type Sink interface {
	Record(t Telemetry)
	Notify(e Event)
}

type nopSink struct{}

func (nopSink) Record(Telemetry) {}
func (nopSink) Notify(Event)     {}

// Stats are running totals since the demodulator was created.
type Stats struct {
	Ticks        uint64
	Bits         uint64
	Zeros        uint64
	Ones         uint64
	Acquisitions uint64
	Losses       uint64
	Anomalies    uint64
}
