package output

import (
	"encoding/csv"
	"io"

	"github.com/dorchain/bpsk/pkg/bpsk"
	"github.com/pkg/errors"
)

// CSVOutput writes one row per sample under a header line.
type CSVOutput struct {
	w   *csv.Writer
	err error
}

func NewCSVOutput(w io.Writer) *CSVOutput {
	c := &CSVOutput{w: csv.NewWriter(w)}
	c.write(bpsk.TelemetryHeader)
	return c
}

func (c *CSVOutput) write(fields []string) {
	if c.err != nil {
		return
	}
	if err := c.w.Write(fields); err != nil {
		c.err = errors.Wrap(err, "error writing telemetry")
	}
}

func (c *CSVOutput) Record(t bpsk.Telemetry) {
	c.write(t.Record())
}

func (c *CSVOutput) Notify(bpsk.Event) {}

// Flush writes out buffered rows and reports the first write error seen.
func (c *CSVOutput) Flush() error {
	c.w.Flush()
	if c.err != nil {
		return c.err
	}
	return errors.Wrap(c.w.Error(), "error flushing telemetry")
}
