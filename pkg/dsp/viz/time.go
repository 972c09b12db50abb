package viz

import (
	"sync"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
)

type PlotType int

const (
	PlotTypeDefault PlotType = iota
	PlotTypeScatter
	PlotTypeLines
)

// TimeDomainPlotter keeps the last size values of one or more named series
// and draws them against sample index.
type TimeDomainPlotter struct {
	mu          sync.Mutex
	name        string
	yLabel      string
	size        int
	series      []string
	bufs        [][]float64
	lines       bool
	plotOptions []PlotOptions
}

func NewTimeDomainPlotter(name, yLabel string, size int, series ...string) *TimeDomainPlotter {
	if len(series) == 0 {
		series = []string{"f(t)"}
	}
	return &TimeDomainPlotter{
		name:   name,
		yLabel: yLabel,
		size:   size,
		series: series,
		bufs:   make([][]float64, len(series)),
		lines:  true,
	}
}

func (t *TimeDomainPlotter) Name() string {
	return t.name
}

func (t *TimeDomainPlotter) SetPlotType(tp PlotType) {
	t.mu.Lock()
	t.lines = tp != PlotTypeScatter
	t.mu.Unlock()
}

// Append adds one block of values per series, in the order the series were
// named.
func (t *TimeDomainPlotter) Append(values ...[]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.bufs {
		if i >= len(values) {
			break
		}
		buf := append(t.bufs[i], values[i]...)
		if len(buf) > t.size {
			buf = buf[len(buf)-t.size:]
		}
		t.bufs[i] = buf
	}
}

// Len is the number of values held for the first series.
func (t *TimeDomainPlotter) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.bufs[0])
}

func (t *TimeDomainPlotter) AddPlotOption(opt PlotOptions) {
	t.mu.Lock()
	t.plotOptions = append(t.plotOptions, opt)
	t.mu.Unlock()
}

// GetImage renders the current window, or returns nil until it is full.
func (t *TimeDomainPlotter) GetImage() *ImageContainer {
	t.mu.Lock()
	if len(t.bufs[0]) < t.size {
		t.mu.Unlock()
		return nil
	}

	p := plotWithDefaults(t.name)
	p.Y.Label.Text = t.yLabel
	p.X.Label.Text = "sample"
	for _, opt := range t.plotOptions {
		opt(p)
	}
	p.Add(plotter.NewGrid())

	var args []interface{}
	for i, name := range t.series {
		xys := make(plotter.XYs, len(t.bufs[i]))
		for j, v := range t.bufs[i] {
			xys[j] = plotter.XY{X: float64(j), Y: v}
		}
		args = append(args, name, xys)
	}
	lines := t.lines
	t.mu.Unlock()

	var err error
	if lines {
		err = plotutil.AddLines(p, args...)
	} else {
		err = plotutil.AddScatters(p, args...)
	}
	if err != nil {
		return nil
	}

	img, err := render(t.name, p)
	if err != nil {
		return nil
	}
	return img
}
