package bpsk

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports a setting that cannot produce a working
// demodulator. It is returned before any sample is processed.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
func (e *ConfigurationError) Cause() error  { return e.Err }

func configError(field string, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Err: errors.Errorf(format, args...)}
}

// StreamError reports a failed or malformed read from the sample source.
// Offset is the byte position at which the read went wrong.
type StreamError struct {
	Offset int64
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("sample stream error at byte %d: %v", e.Offset, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
func (e *StreamError) Cause() error  { return e.Err }

// ErrShortSample is the cause of a StreamError when the stream ends inside a
// sample.
var ErrShortSample = errors.New("partial sample at end of stream")

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsStreamError reports whether err is or wraps a StreamError.
func IsStreamError(err error) bool {
	var se *StreamError
	return errors.As(err, &se)
}
