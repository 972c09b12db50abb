package output

import (
	"context"

	"github.com/dorchain/bpsk/pkg/bpsk"
)

// Runner is implemented by outputs that need their own goroutine.
type Runner interface {
	// Start runs until ctx is done or the output fails.
	Start(ctx context.Context) error
}

// Flusher is implemented by outputs that buffer. Flush is called once the
// stream has ended.
type Flusher interface {
	Flush() error
}

// Multi fans every record and event out to each sink in order.
type Multi []bpsk.Sink

func (m Multi) Record(t bpsk.Telemetry) {
	for _, s := range m {
		s.Record(t)
	}
}

func (m Multi) Notify(e bpsk.Event) {
	for _, s := range m {
		s.Notify(e)
	}
}

// Flush flushes every sink that buffers and returns the first error.
func (m Multi) Flush() error {
	var first error
	for _, s := range m {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Runners returns the sinks that need a goroutine.
func (m Multi) Runners() []Runner {
	var ret []Runner
	for _, s := range m {
		if r, ok := s.(Runner); ok {
			ret = append(ret, r)
		}
	}
	return ret
}
