package generator

import (
	"context"
	"testing"

	"github.com/dorchain/bpsk/pkg/siggen"
	"github.com/norasector/turbine-common/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorDeviceBounded(t *testing.T) {
	d, err := NewGeneratorDevice(siggen.DefaultConfig(), 1000, 300, false)
	require.NoError(t, err)

	ch := make(chan *types.SegmentFloat32, 16)
	require.NoError(t, d.Start(context.Background(), ch))
	close(ch)

	var sizes []int
	var all []float32
	for seg := range ch {
		sizes = append(sizes, len(seg.Data))
		all = append(all, seg.Data...)
	}
	assert.Equal(t, []int{300, 300, 300, 100}, sizes)
	assert.Equal(t, 1000, d.Sent())
	assert.Equal(t, 192000.0, d.SampleRate())

	ref, err := siggen.NewGenerator(siggen.DefaultConfig())
	require.NoError(t, err)
	want := make([]float32, 1000)
	ref.Fill(want)
	assert.Equal(t, want, all)
}

func TestGeneratorDeviceUnboundedStopsOnCancel(t *testing.T) {
	d, err := NewGeneratorDevice(siggen.DefaultConfig(), 0, 64, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan *types.SegmentFloat32)
	done := make(chan error)
	go func() { done <- d.Start(ctx, ch) }()

	for i := 0; i < 5; i++ {
		<-ch
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.GreaterOrEqual(t, d.Sent(), 5*64)
}

func TestGeneratorDeviceInvalidConfig(t *testing.T) {
	cfg := siggen.DefaultConfig()
	cfg.Pattern = nil
	_, err := NewGeneratorDevice(cfg, 10, 10, false)
	assert.Error(t, err)
}
