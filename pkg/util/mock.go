package util

import (
	"sync"

	"github.com/influxdata/influxdb-client-go/api/write"
)

// MockWriteAPI stands in for an InfluxDB writer when none is configured. It
// keeps the points it is given so tests can inspect them.
type MockWriteAPI struct {
	mu      sync.Mutex
	points  []*write.Point
	records []string
	flushes int
	// Discard drops points instead of keeping them.
	Discard bool
}

func (m *MockWriteAPI) WriteRecord(line string) {
	if m.Discard {
		return
	}
	m.mu.Lock()
	m.records = append(m.records, line)
	m.mu.Unlock()
}

func (m *MockWriteAPI) WritePoint(point *write.Point) {
	if m.Discard {
		return
	}
	m.mu.Lock()
	m.points = append(m.points, point)
	m.mu.Unlock()
}

func (m *MockWriteAPI) Flush() {
	m.mu.Lock()
	m.flushes++
	m.mu.Unlock()
}

func (m *MockWriteAPI) Close() {}

func (m *MockWriteAPI) Errors() <-chan error { return nil }

// Points returns a copy of the points written so far.
func (m *MockWriteAPI) Points() []*write.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*write.Point(nil), m.points...)
}

// PointsNamed returns the written points with the given measurement name.
func (m *MockWriteAPI) PointsNamed(name string) []*write.Point {
	var ret []*write.Point
	for _, p := range m.Points() {
		if p.Name() == name {
			ret = append(ret, p)
		}
	}
	return ret
}

func (m *MockWriteAPI) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}
