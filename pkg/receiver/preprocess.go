package receiver

import (
	"math"

	"github.com/dorchain/bpsk/pkg/dsp/agc/rmsagc"
	"github.com/dorchain/bpsk/pkg/dsp/filters/fir"
	"github.com/dorchain/bpsk/pkg/dsp/processor"
	"github.com/dorchain/bpsk/pkg/dsp/viz"
	"github.com/dorchain/bpsk/pkg/receiver/config"
)

// NewPreprocessor builds the input chain described by cfg, or returns nil when
// no stage is enabled. Block plots go to vizServer when it is not nil.
func NewPreprocessor(cfg config.Preprocess, sampleRate float64, vizServer *viz.Server) (*processor.Processor, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := cfg.Validate(sampleRate); err != nil {
		return nil, err
	}

	p := processor.NewProcessor("input", vizServer)
	if cfg.AGC.Enabled {
		p.AddBlock(processor.NewBlock("agc", "Input AGC",
			rmsagc.NewRMSAGC(cfg.AGC.Alpha, cfg.AGC.Amplitude/math.Sqrt2),
			processor.WithPlotOptions(viz.WithYRange(-1.5*cfg.AGC.Amplitude, 1.5*cfg.AGC.Amplitude))))
	}
	if f := cfg.InputFilter; f.Cutoff > 0 {
		window, err := fir.ParseWindowType(f.Window)
		if err != nil {
			return nil, err
		}
		taps := fir.MakeLowPass(1, sampleRate, f.Cutoff, f.TransitionWidth, window)
		p.AddBlock(processor.NewBlock("input_filter", "Input low-pass", fir.NewFilter(taps)))
	}

	return p, p.Initialize()
}
