package output

import (
	"github.com/dorchain/bpsk/pkg/bpsk"
	"github.com/rs/zerolog"
)

// LogOutput reports lock changes, bits and anomalies through zerolog.
type LogOutput struct {
	logger zerolog.Logger
}

func NewLogOutput(logger zerolog.Logger) *LogOutput {
	return &LogOutput{logger: logger}
}

func (l *LogOutput) Record(bpsk.Telemetry) {}

func (l *LogOutput) Notify(e bpsk.Event) {
	switch e.Kind {
	case bpsk.EventLockAcquired:
		l.logger.Info().Uint64("tick", e.Tick).Float64("lock", e.Lock).Msg("locked")
	case bpsk.EventLockLost:
		l.logger.Info().Uint64("tick", e.Tick).Float64("lock", e.Lock).Msg("lost lock")
	case bpsk.EventBit:
		l.logger.Info().Uint64("tick", e.Tick).Int("bit", e.Bit).Int("waves", e.Waves).Msg("bit")
	case bpsk.EventSingleShort:
		l.logger.Warn().Uint64("tick", e.Tick).Int("waves", e.Waves).Msg("single short transition")
	}
}
