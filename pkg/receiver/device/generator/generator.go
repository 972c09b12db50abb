package generator

import (
	"context"
	"time"

	"github.com/dorchain/bpsk/pkg/siggen"
	"github.com/norasector/turbine-common/types"
)

// GeneratorDevice feeds the demodulator from an in-process signal generator.
type GeneratorDevice struct {
	gen         *siggen.Generator
	total       int
	segmentSize int
	realtime    bool
	sent        int
}

// NewGeneratorDevice emits total samples in segments of segmentSize; a total
// of zero never ends.
func NewGeneratorDevice(cfg siggen.Config, total, segmentSize int, realtime bool) (*GeneratorDevice, error) {
	gen, err := siggen.NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return &GeneratorDevice{
		gen:         gen,
		total:       total,
		segmentSize: segmentSize,
		realtime:    realtime,
	}, nil
}

func (g *GeneratorDevice) Start(ctx context.Context, samples chan<- *types.SegmentFloat32) error {
	var tick <-chan time.Time
	if g.realtime {
		ticker := time.NewTicker(time.Duration(float64(g.segmentSize) / g.gen.Config().SampleRate * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for segNum := 1; g.total == 0 || g.sent < g.total; segNum++ {
		n := g.segmentSize
		if g.total > 0 && g.total-g.sent < n {
			n = g.total - g.sent
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}

		seg := &types.SegmentFloat32{
			SegmentNumber: segNum,
			Data:          make([]float32, n),
		}
		g.gen.Fill(seg.Data)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case samples <- seg:
		}
		g.sent += n
	}
	return nil
}

func (g *GeneratorDevice) Stop() error {
	return nil
}

func (g *GeneratorDevice) SampleRate() float64 {
	return g.gen.Config().SampleRate
}

// Sent is the number of samples handed over so far.
func (g *GeneratorDevice) Sent() int {
	return g.sent
}
