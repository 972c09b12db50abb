package output

import (
	"github.com/dorchain/bpsk/pkg/bpsk"
	"github.com/dorchain/bpsk/pkg/dsp/filters/fir"
	"github.com/dorchain/bpsk/pkg/dsp/viz"
)

const (
	vizBucket     = "demodulator"
	vizFlushEvery = 256
	vizFFTLength  = 1024
)

// VizOutput feeds live plots of the loop state to a viz server.
type VizOutput struct {
	baseband *viz.TimeDomainPlotter
	lock     *viz.TimeDomainPlotter
	period   *viz.TimeDomainPlotter
	spectrum *viz.FFTPlotter
	lockLine float64

	sI, sQ, lockVals, quality, periods, samples []float64
}

func NewVizOutput(server *viz.Server, cfg bpsk.Config, taps fir.Taps, history int) *VizOutput {
	v := &VizOutput{
		baseband: viz.NewTimeDomainPlotter("Baseband", "amplitude", history, "S_I", "S_Q"),
		lock:     viz.NewTimeDomainPlotter("Lock", "metric", history, "lock", "quality", "threshold"),
		period:   viz.NewTimeDomainPlotter("Tracked period", "period (us)", history, "period"),
		spectrum: viz.NewFFTPlotter("Input spectrum", vizFFTLength, cfg.SampleRate),
		lockLine: cfg.LockThreshold,
	}
	v.baseband.AddPlotOption(viz.WithYRange(-1, 1))
	v.lock.AddPlotOption(viz.WithYRange(-0.5, 0.5))
	v.spectrum.Mark(cfg.ReferenceFrequency, cfg.CutoffFrequency)

	server.Register(vizBucket, v.baseband)
	server.Register(vizBucket, v.lock)
	server.Register(vizBucket, v.period)
	server.Register(vizBucket, v.spectrum)
	server.Register(vizBucket, viz.NewResponsePlotter("Low-pass response", taps, cfg.SampleRate, 512))

	return v
}

// reset empties the buffers; the plotters copy what they are given.
func (v *VizOutput) reset() {
	v.sI = v.sI[:0]
	v.sQ = v.sQ[:0]
	v.lockVals = v.lockVals[:0]
	v.quality = v.quality[:0]
	v.periods = v.periods[:0]
	v.samples = v.samples[:0]
}

func (v *VizOutput) Record(t bpsk.Telemetry) {
	v.sI = append(v.sI, t.SI)
	v.sQ = append(v.sQ, t.SQ)
	v.lockVals = append(v.lockVals, t.Lock)
	v.quality = append(v.quality, t.Quality)
	v.periods = append(v.periods, t.Period)
	v.samples = append(v.samples, t.Sample)

	if len(v.sI) >= vizFlushEvery {
		v.Flush()
	}
}

func (v *VizOutput) Notify(bpsk.Event) {}

// Flush hands the buffered values to the plotters.
func (v *VizOutput) Flush() error {
	if len(v.sI) == 0 {
		return nil
	}
	threshold := make([]float64, len(v.lockVals))
	for i := range threshold {
		threshold[i] = v.lockLine
	}

	v.baseband.Append(v.sI, v.sQ)
	v.lock.Append(v.lockVals, v.quality, threshold)
	v.period.Append(v.periods)
	v.spectrum.AppendFloat(v.samples)
	v.reset()
	return nil
}
