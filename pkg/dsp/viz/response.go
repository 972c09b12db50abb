package viz

import (
	"math"

	"github.com/dorchain/bpsk/pkg/dsp/filters/fir"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
)

// ResponsePlotter draws the magnitude response of a fixed set of taps.
type ResponsePlotter struct {
	name       string
	sampleRate float64
	xys        plotter.XYs
	img        *ImageContainer
}

func NewResponsePlotter(name string, taps fir.Taps, sampleRate float64, points int) *ResponsePlotter {
	mags := fir.FrequencyResponse(taps, points)
	n := 2 * (len(mags) - 1)

	xys := make(plotter.XYs, len(mags))
	for i, m := range mags {
		xys[i] = plotter.XY{
			X: float64(i) * sampleRate / float64(n),
			Y: 20 * math.Log10(math.Max(m, 1e-10)),
		}
	}
	return &ResponsePlotter{name: name, sampleRate: sampleRate, xys: xys}
}

func (r *ResponsePlotter) Name() string {
	return r.name
}

func (r *ResponsePlotter) AddPlotOption(PlotOptions) {}

// Points returns frequency in Hz against gain in dB.
func (r *ResponsePlotter) Points() plotter.XYs {
	return r.xys
}

// GetImage renders once; the taps never change.
func (r *ResponsePlotter) GetImage() *ImageContainer {
	if r.img != nil {
		return r.img
	}

	p := plotWithDefaults(r.name)
	p.Y.Label.Text = "Gain (dB)"
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Min = -60
	p.Y.Max = 5
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLines(p, "|H(f)|", r.xys); err != nil {
		return nil
	}
	img, err := render(r.name, p)
	if err != nil {
		return nil
	}
	r.img = img
	return img
}
