package receiver

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dorchain/bpsk/pkg/bpsk"
	"github.com/dorchain/bpsk/pkg/receiver/config"
	"github.com/dorchain/bpsk/pkg/receiver/device/file"
	"github.com/dorchain/bpsk/pkg/receiver/device/generator"
	"github.com/dorchain/bpsk/pkg/receiver/output"
	"github.com/dorchain/bpsk/pkg/siggen"
	"github.com/dorchain/bpsk/pkg/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bitCollector struct {
	bits    strings.Builder
	started chan struct{}
	once    sync.Once
}

func newBitCollector() *bitCollector {
	return &bitCollector{started: make(chan struct{})}
}

func (b *bitCollector) Record(bpsk.Telemetry) {
	b.once.Do(func() { close(b.started) })
}

func (b *bitCollector) Notify(e bpsk.Event) {
	if e.Kind == bpsk.EventBit {
		b.bits.WriteByte(byte('0' + e.Bit))
	}
}

func generatorDevice(t *testing.T, total int) *generator.GeneratorDevice {
	t.Helper()
	dev, err := generator.NewGeneratorDevice(siggen.DefaultConfig(), total, 4096, false)
	require.NoError(t, err)
	return dev
}

func TestReceiverDecodesGeneratedStream(t *testing.T) {
	bits := newBitCollector()
	var buf bytes.Buffer
	csvOut := output.NewCSVOutput(&buf)
	metrics := &util.MockWriteAPI{}

	r, err := NewReceiver(generatorDevice(t, 30000), bpsk.DefaultConfig(),
		WithLogger(zerolog.Nop()),
		WithInfluxDB(metrics, 1000),
		WithOutputs(bits, csvOut))
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))

	assert.Contains(t, bits.bits.String(), "01010101")
	assert.Greater(t, bits.bits.Len(), 100)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 30001)
	assert.Equal(t, bpsk.TelemetryHeader, rows[0])

	stats := r.Demodulator().Stats()
	assert.Equal(t, uint64(30000), stats.Ticks)
	assert.GreaterOrEqual(t, stats.Acquisitions, uint64(1))

	// 30000 samples in segments of 4096.
	assert.Len(t, metrics.PointsNamed("bpsk.segment"), 8)
	assert.Len(t, metrics.PointsNamed("bpsk.telemetry"), 30)
	assert.NotEmpty(t, metrics.PointsNamed("bpsk.event"))
}

func TestReceiverStreamError(t *testing.T) {
	dev, err := file.NewReaderDevice(bytes.NewReader(make([]byte, 4001)), 16384, 0, false)
	require.NoError(t, err)

	r, err := NewReceiver(dev, bpsk.DefaultConfig(), WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	err = r.Start(context.Background())
	require.Error(t, err)
	assert.True(t, bpsk.IsStreamError(err))
	assert.ErrorIs(t, err, bpsk.ErrShortSample)
}

func TestReceiverSampleRateMismatch(t *testing.T) {
	dev, err := file.NewReaderDevice(bytes.NewReader(nil), 16384, 48000, false)
	require.NoError(t, err)

	_, err = NewReceiver(dev, bpsk.DefaultConfig(), WithLogger(zerolog.Nop()))
	require.Error(t, err)
	assert.True(t, bpsk.IsConfigurationError(err))
}

func TestReceiverInvalidConfig(t *testing.T) {
	cfg := bpsk.DefaultConfig()
	cfg.SampleRate = 60000

	_, err := NewReceiver(generatorDevice(t, 1), cfg, WithLogger(zerolog.Nop()))
	require.Error(t, err)
	assert.True(t, bpsk.IsConfigurationError(err))
}

func TestReceiverStop(t *testing.T) {
	bits := newBitCollector()
	r, err := NewReceiver(generatorDevice(t, 0), bpsk.DefaultConfig(),
		WithLogger(zerolog.Nop()),
		WithOutputs(bits))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- r.Start(context.Background())
	}()

	select {
	case <-bits.started:
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not start")
	}
	require.NoError(t, r.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not stop")
	}
}

func TestReceiverContextCancel(t *testing.T) {
	r, err := NewReceiver(generatorDevice(t, 0), bpsk.DefaultConfig(), WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	assert.NoError(t, r.Start(ctx))
}

func TestWithImageServerHistory(t *testing.T) {
	_, err := NewReceiver(generatorDevice(t, 1), bpsk.DefaultConfig(), WithImageServer(nil, 0))
	assert.Error(t, err)
}

func TestReceiverWithPreprocessor(t *testing.T) {
	var pre config.Preprocess
	pre.AGC.Enabled = true
	pre.AGC.Alpha = 1e-3
	pre.AGC.Amplitude = 1
	pre.InputFilter.Cutoff = 80000
	pre.InputFilter.TransitionWidth = 10000
	pre.InputFilter.Window = "hamming"

	p, err := NewPreprocessor(pre, 192000, nil)
	require.NoError(t, err)
	require.Len(t, p.Blocks(), 2)

	gen := siggen.DefaultConfig()
	gen.Amplitude = 0.05
	dev, err := generator.NewGeneratorDevice(gen, 60000, 4096, false)
	require.NoError(t, err)

	bits := newBitCollector()
	metrics := &util.MockWriteAPI{}
	r, err := NewReceiver(dev, bpsk.DefaultConfig(),
		WithLogger(zerolog.Nop()),
		WithInfluxDB(metrics, 0),
		WithPreprocessor(p),
		WithOutputs(bits))
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))

	assert.Contains(t, bits.bits.String(), "01010101")
	assert.Equal(t, uint64(60000), r.Demodulator().Stats().Ticks)
	assert.Len(t, metrics.PointsNamed("bpsk.preprocess"), 15)
}

func TestNewPreprocessorDisabled(t *testing.T) {
	p, err := NewPreprocessor(config.DefaultConfig().Preprocess, 192000, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}
