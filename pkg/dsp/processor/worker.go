package processor

import "github.com/dorchain/bpsk/pkg/dsp/viz"

// Worker transforms a block of real samples. WorkBuffer returns the number of
// samples written to output, which holds at least PredictOutputSize(len(input)).
type Worker interface {
	WorkBuffer([]float32, []float32) int
	PredictOutputSize(int) int
}

// Block is one named stage of a Processor.
type Block struct {
	Name        string
	DisplayName string

	worker       Worker
	outputBuffer []float32

	timeDomain *viz.TimeDomainPlotter
	vizSize    int
	plotType   viz.PlotType

	plotOptions []viz.PlotOptions
}

type BlockOption func(b *Block)

func WithPlotOptions(opts ...viz.PlotOptions) BlockOption {
	return func(b *Block) {
		b.plotOptions = append(b.plotOptions, opts...)
	}
}

func WithVizLength(length int) BlockOption {
	return func(b *Block) {
		b.vizSize = length
	}
}

func WithPlotType(plotType viz.PlotType) BlockOption {
	return func(b *Block) {
		b.plotType = plotType
	}
}

func NewBlock(name, displayName string, worker Worker, opts ...BlockOption) *Block {
	ret := &Block{
		Name:        name,
		DisplayName: displayName,
		worker:      worker,
	}

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

// Worker returns the stage's transform.
func (b *Block) Worker() Worker {
	return b.worker
}

func (b *Block) work(input []float32) []float32 {
	if size := b.worker.PredictOutputSize(len(input)); len(b.outputBuffer) < size {
		b.outputBuffer = make([]float32, size*2)
	}
	length := b.worker.WorkBuffer(input, b.outputBuffer)
	output := b.outputBuffer[:length]

	if b.timeDomain != nil {
		b.timeDomain.Append(float32sToFloat64s(output))
	}
	return output
}

func float32sToFloat64s(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
