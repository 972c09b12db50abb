package output

import (
	"time"

	"github.com/dorchain/bpsk/pkg/bpsk"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
)

// InfluxOutput writes every decimation-th telemetry record and every event
// as points.
type InfluxOutput struct {
	writeAPI   api.WriteAPI
	tags       map[string]string
	decimation uint64
	now        func() time.Time
}

func NewInfluxOutput(writeAPI api.WriteAPI, decimation int, tags map[string]string) *InfluxOutput {
	if decimation < 1 {
		decimation = 1
	}
	return &InfluxOutput{
		writeAPI:   writeAPI,
		tags:       tags,
		decimation: uint64(decimation),
		now:        time.Now,
	}
}

func (o *InfluxOutput) Record(t bpsk.Telemetry) {
	if t.Tick%o.decimation != 0 {
		return
	}
	o.writeAPI.WritePoint(influxdb2.NewPoint("bpsk.telemetry",
		o.tags,
		map[string]interface{}{
			"tick":    int64(t.Tick),
			"period":  t.Period,
			"phase":   t.Phase,
			"lock":    t.Lock,
			"quality": t.Quality,
			"locked":  t.Locked,
			"s_i":     t.SI,
			"s_q":     t.SQ,
			"err":     t.Err,
			"err_int": t.ErrInt,
		}, o.now()))
}

func (o *InfluxOutput) Notify(e bpsk.Event) {
	tags := make(map[string]string, len(o.tags)+1)
	for k, v := range o.tags {
		tags[k] = v
	}
	tags["kind"] = e.Kind.String()

	fields := map[string]interface{}{
		"tick": int64(e.Tick),
	}
	switch e.Kind {
	case bpsk.EventLockAcquired, bpsk.EventLockLost:
		fields["lock"] = e.Lock
	case bpsk.EventBit:
		fields["bit"] = e.Bit
		fields["waves"] = e.Waves
	case bpsk.EventSingleShort:
		fields["waves"] = e.Waves
	}
	o.writeAPI.WritePoint(influxdb2.NewPoint("bpsk.event", tags, fields, o.now()))
}

func (o *InfluxOutput) Flush() error {
	o.writeAPI.Flush()
	return nil
}
