package util

import (
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/stretchr/testify/assert"
)

func TestRealtimeFactor(t *testing.T) {
	assert.InDelta(t, 2.0, RealtimeFactor(192000, 192000, 500000), 1e-12)
	assert.Equal(t, 0.0, RealtimeFactor(100, 192000, 0))
	assert.Equal(t, 0.0, RealtimeFactor(100, 0, 10))
}

func TestTimeOperationMicroseconds(t *testing.T) {
	us := TimeOperationMicroseconds(func() { time.Sleep(2 * time.Millisecond) })
	assert.GreaterOrEqual(t, us, int64(2000))
}

func TestMockWriteAPI(t *testing.T) {
	m := &MockWriteAPI{}
	m.WritePoint(influxdb2.NewPoint("a", nil, map[string]interface{}{"v": 1}, time.Now()))
	m.WritePoint(influxdb2.NewPoint("b", nil, map[string]interface{}{"v": 2}, time.Now()))
	m.WritePoint(influxdb2.NewPoint("a", nil, map[string]interface{}{"v": 3}, time.Now()))
	m.Flush()

	assert.Len(t, m.Points(), 3)
	assert.Len(t, m.PointsNamed("a"), 2)
	assert.Equal(t, 1, m.Flushes())

	d := &MockWriteAPI{Discard: true}
	d.WritePoint(influxdb2.NewPoint("a", nil, map[string]interface{}{"v": 1}, time.Now()))
	assert.Empty(t, d.Points())
}
