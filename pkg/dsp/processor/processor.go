// Package processor chains sample-domain blocks in front of the demodulator.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/dorchain/bpsk/pkg/dsp/viz"
	"github.com/norasector/turbine-common/types"
	"github.com/pkg/errors"
)

const defaultVizLength = 512

// MetricsHook receives the per-block timings of a processed segment, keyed
// "<block>_duration" in microseconds.
type MetricsHook func(seg *types.SegmentFloat32, metrics map[string]interface{})

type Processor struct {
	Name        string
	blocks      []*Block
	vizServer   *viz.Server
	initialized bool
}

// NewProcessor registers block plots with vizServer when it is not nil.
func NewProcessor(name string, vizServer *viz.Server) *Processor {
	return &Processor{
		Name:      name,
		vizServer: vizServer,
	}
}

func (p *Processor) AddBlock(block *Block) {
	p.blocks = append(p.blocks, block)
}

func (p *Processor) Blocks() []*Block {
	return p.blocks
}

func (p *Processor) Initialize() error {
	if p.initialized {
		return nil
	}
	if len(p.blocks) == 0 {
		return errors.New("must specify at least 1 block")
	}

	names := make(map[string]struct{}, len(p.blocks))
	for i, block := range p.blocks {
		if _, ok := names[block.Name]; ok {
			return errors.Errorf("duplicate block name %q", block.Name)
		}
		names[block.Name] = struct{}{}

		if p.vizServer == nil {
			continue
		}
		vizLength := defaultVizLength
		if block.vizSize > 0 {
			vizLength = block.vizSize
		}
		block.timeDomain = viz.NewTimeDomainPlotter(fmt.Sprintf("%02d. %s", i+1, block.DisplayName), "amplitude", vizLength, block.Name)
		for _, opt := range block.plotOptions {
			block.timeDomain.AddPlotOption(opt)
		}
		if block.plotType != viz.PlotTypeDefault {
			block.timeDomain.SetPlotType(block.plotType)
		}
		p.vizServer.Register(p.Name, block.timeDomain)
	}

	p.initialized = true
	return nil
}

// Process runs input through every block. The returned segment owns its data;
// intermediate buffers are reused between calls.
func (p *Processor) Process(input *types.SegmentFloat32, metrics map[string]interface{}) (*types.SegmentFloat32, error) {
	if !p.initialized {
		if err := p.Initialize(); err != nil {
			return nil, err
		}
	}

	data := input.Data
	for _, block := range p.blocks {
		start := time.Now()
		data = block.work(data)
		if metrics != nil {
			metrics[fmt.Sprintf("%s_duration", block.Name)] = time.Since(start).Microseconds()
		}
	}

	out := make([]float32, len(data))
	copy(out, data)
	return &types.SegmentFloat32{
		SegmentNumber: input.SegmentNumber,
		Data:          out,
	}, nil
}

// Run processes segments from in onto out until in is closed or ctx is done.
// It does not close out.
func (p *Processor) Run(ctx context.Context, in <-chan *types.SegmentFloat32, out chan<- *types.SegmentFloat32, hook MetricsHook) error {
	if err := p.Initialize(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case seg, ok := <-in:
			if !ok {
				return nil
			}

			metrics := make(map[string]interface{}, len(p.blocks))
			processed, err := p.Process(seg, metrics)
			if err != nil {
				return errors.Wrapf(err, "processing segment %d", seg.SegmentNumber)
			}
			if hook != nil {
				hook(processed, metrics)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- processed:
			}
		}
	}
}
