package viz

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/dorchain/bpsk/pkg/dsp/filters/fir"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
)

// Exponential averaging weight applied to each new spectrum.
const spectrumAvg = 0.10

// FFTPlotter draws an averaged, Blackman-windowed power spectrum of the most
// recent len real samples.
type FFTPlotter struct {
	mu           sync.Mutex
	name         string
	len          int
	sampleRate   float64
	buf          []float64
	fft          *fourier.FFT
	window       []float64
	averagePower []float64
	markers      []float64
	plotOptions  []PlotOptions
}

func NewFFTPlotter(name string, len int, sampleRate float64) *FFTPlotter {
	return &FFTPlotter{
		name:         name,
		len:          len,
		sampleRate:   sampleRate,
		buf:          make([]float64, len),
		fft:          fourier.NewFFT(len),
		window:       fir.BlackmanWindow(len),
		averagePower: make([]float64, len/2+1),
	}
}

func (p *FFTPlotter) Name() string {
	return p.name
}

// Mark draws a vertical line at each frequency, in Hz.
func (p *FFTPlotter) Mark(freqs ...float64) {
	p.mu.Lock()
	p.markers = append(p.markers, freqs...)
	p.mu.Unlock()
}

func (p *FFTPlotter) AppendFloat(s []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(s) >= p.len {
		copy(p.buf, s[len(s)-p.len:])
		return
	}
	copy(p.buf, p.buf[len(s):])
	copy(p.buf[p.len-len(s):], s)
}

func (p *FFTPlotter) AddPlotOption(opt PlotOptions) {
	p.mu.Lock()
	p.plotOptions = append(p.plotOptions, opt)
	p.mu.Unlock()
}

// Spectrum updates the running average from the current buffer and returns
// the frequencies and levels in dB.
func (p *FFTPlotter) Spectrum() (freqs, levels []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := make([]float64, p.len)
	// 0.42 is the coherent gain of the Blackman window.
	norm := 2 / (0.42 * float64(p.len))
	for i := range data {
		data[i] = p.buf[i] * p.window[i]
	}
	coeffs := p.fft.Coefficients(nil, data)

	freqs = make([]float64, len(coeffs))
	levels = make([]float64, len(coeffs))
	for i, c := range coeffs {
		mag := cmplx.Abs(c) * norm
		p.averagePower[i] = (1-spectrumAvg)*p.averagePower[i] + spectrumAvg*mag
		freqs[i] = p.fft.Freq(i) * p.sampleRate
		levels[i] = 20 * math.Log10(math.Max(p.averagePower[i], 1e-10))
	}
	return freqs, levels
}

func (p *FFTPlotter) GetImage() *ImageContainer {
	freqs, levels := p.Spectrum()

	plt := plotWithDefaults(p.name)
	plt.Y.Label.Text = "Power (dB)"
	plt.X.Label.Text = "Frequency (Hz)"
	plt.Y.Max = 0
	plt.Y.Min = -100

	p.mu.Lock()
	for _, opt := range p.plotOptions {
		opt(plt)
	}
	markers := append([]float64(nil), p.markers...)
	p.mu.Unlock()

	plt.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(freqs))
	for i := range freqs {
		xys[i] = plotter.XY{X: freqs[i], Y: levels[i]}
	}
	args := []interface{}{"spectrum", xys}
	for _, f := range markers {
		args = append(args, plotter.XYs{{X: f, Y: plt.Y.Min}, {X: f, Y: plt.Y.Max}})
	}
	if err := plotutil.AddLines(plt, args...); err != nil {
		return nil
	}

	img, err := render(p.name, plt)
	if err != nil {
		return nil
	}
	return img
}
