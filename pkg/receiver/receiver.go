package receiver

import (
	"context"
	"sync"
	"time"

	"github.com/dorchain/bpsk/pkg/bpsk"
	"github.com/dorchain/bpsk/pkg/dsp/costas"
	"github.com/dorchain/bpsk/pkg/dsp/filters/fir"
	"github.com/dorchain/bpsk/pkg/dsp/processor"
	"github.com/dorchain/bpsk/pkg/dsp/viz"
	"github.com/dorchain/bpsk/pkg/receiver/device"
	"github.com/dorchain/bpsk/pkg/receiver/output"
	"github.com/dorchain/bpsk/pkg/util"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/turbine-common/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const segmentQueueLength = 4

// Receiver runs a device into a demodulator and fans the results out to the
// configured outputs.
type Receiver struct {
	device        device.Device
	cfg           bpsk.Config
	demod         *bpsk.Demodulator
	sinks         output.Multi
	writeAPI      api.WriteAPI
	decimation    int
	vizServer     *viz.Server
	vizHistory    int
	preprocessor  *processor.Processor
	logger        zerolog.Logger
	rawSampleChan chan *types.SegmentFloat32

	mu     sync.Mutex
	cancel context.CancelFunc
}

type ReceiverOption func(r *Receiver) error

// WithInfluxDB writes segment metrics, events and one telemetry point per
// decimation samples.
func WithInfluxDB(writeAPI api.WriteAPI, decimation int) ReceiverOption {
	return func(r *Receiver) error {
		r.writeAPI = writeAPI
		r.decimation = decimation
		return nil
	}
}

// WithImageServer plots the last history samples of the loop state.
func WithImageServer(vizServer *viz.Server, history int) ReceiverOption {
	return func(r *Receiver) error {
		if history < 1 {
			return errors.Errorf("viz history must be positive, got %d", history)
		}
		r.vizServer = vizServer
		r.vizHistory = history
		return nil
	}
}

// WithPreprocessor runs every segment through p before demodulation.
func WithPreprocessor(p *processor.Processor) ReceiverOption {
	return func(r *Receiver) error {
		r.preprocessor = p
		return nil
	}
}

func WithLogger(logger zerolog.Logger) ReceiverOption {
	return func(r *Receiver) error {
		r.logger = logger
		return nil
	}
}

// WithOutputs adds sinks for telemetry and events.
func WithOutputs(sinks ...bpsk.Sink) ReceiverOption {
	return func(r *Receiver) error {
		r.sinks = append(r.sinks, sinks...)
		return nil
	}
}

func NewReceiver(dev device.Device, cfg bpsk.Config, opts ...ReceiverOption) (*Receiver, error) {
	r := &Receiver{
		device:        dev,
		cfg:           cfg,
		writeAPI:      &util.MockWriteAPI{Discard: true}, // overwritten with option
		logger:        log.Logger,
		rawSampleChan: make(chan *types.SegmentFloat32, segmentQueueLength),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if rate := dev.SampleRate(); rate != 0 && rate != cfg.SampleRate {
		return nil, &bpsk.ConfigurationError{
			Field: "sample_rate",
			Err:   errors.Errorf("device delivers %v samples/s, demodulator expects %v", rate, cfg.SampleRate),
		}
	}

	taps, err := cfg.LowPassTaps()
	if err != nil {
		return nil, err
	}
	if r.decimation > 0 {
		r.sinks = append(r.sinks, output.NewInfluxOutput(r.writeAPI, r.decimation, nil))
	}
	if r.vizServer != nil {
		r.sinks = append(r.sinks, output.NewVizOutput(r.vizServer, cfg, taps, r.vizHistory))
	}

	r.demod, err = bpsk.NewDemodulator(cfg,
		bpsk.WithSink(r.sinks),
		bpsk.WithLogger(r.logger),
		bpsk.WithSegmentHook(r.segmentMetrics))
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Receiver) Demodulator() *bpsk.Demodulator {
	return r.demod
}

// Preprocessor is the input chain, nil when none is configured.
func (r *Receiver) Preprocessor() *processor.Processor {
	return r.preprocessor
}

func (r *Receiver) Stop() error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	return r.device.Stop()
}

// Start blocks until the stream ends, ctx is done, or a component fails. A
// clean end of stream and cancellation both return nil.
func (r *Receiver) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	r.logDesign()

	eg.Go(func() error {
		err := r.device.Start(ctx, r.rawSampleChan)
		close(r.rawSampleChan)
		return ignoreCanceled(err)
	})

	segments := r.rawSampleChan
	if r.preprocessor != nil {
		processed := make(chan *types.SegmentFloat32, segmentQueueLength)
		segments = processed
		eg.Go(func() error {
			err := r.preprocessor.Run(ctx, r.rawSampleChan, processed, r.preprocessMetrics)
			close(processed)
			return ignoreCanceled(err)
		})
	}

	if r.vizServer != nil {
		eg.Go(func() error {
			return ignoreCanceled(r.vizServer.Run(ctx))
		})
	}

	for _, runner := range r.sinks.Runners() {
		thisRunner := runner
		eg.Go(func() error {
			return ignoreCanceled(thisRunner.Start(ctx))
		})
	}

	eg.Go(func() error {
		err := r.demod.Run(ctx, segments)
		if err != nil {
			return ignoreCanceled(err)
		}

		// End of stream: flush, report and let the other goroutines go.
		flushErr := r.sinks.Flush()
		r.logStats()
		cancel()
		return flushErr
	})

	return eg.Wait()
}

func (r *Receiver) segmentMetrics(seg *types.SegmentFloat32, elapsed time.Duration) {
	us := elapsed.Microseconds()
	r.writeAPI.WritePoint(influxdb2.NewPoint("bpsk.segment",
		nil,
		map[string]interface{}{
			"segment":         seg.SegmentNumber,
			"samples":         len(seg.Data),
			"processing_us":   us,
			"realtime_factor": util.RealtimeFactor(len(seg.Data), r.cfg.SampleRate, us),
			"locked":          r.demod.Locked(),
			"period":          r.demod.Period(),
		}, time.Now()))
}

func (r *Receiver) preprocessMetrics(seg *types.SegmentFloat32, metrics map[string]interface{}) {
	metrics["segment"] = seg.SegmentNumber
	metrics["samples"] = len(seg.Data)
	r.writeAPI.WritePoint(influxdb2.NewPoint("bpsk.preprocess", nil, metrics, time.Now()))
}

func (r *Receiver) logDesign() {
	taps := r.demod.Taps()
	r.logger.Info().
		Float64("sample_rate", r.cfg.SampleRate).
		Float64("reference_frequency", r.cfg.ReferenceFrequency).
		Float64("cutoff_frequency", r.cfg.CutoffFrequency).
		Floats64("taps", taps).
		Float64("dc_gain", taps.Gain()).
		Float64("carrier_gain", fir.ResponseAt(taps, r.cfg.ReferenceFrequency, r.cfg.SampleRate)).
		Float64("image_gain", fir.ResponseAt(taps, 2*r.cfg.ReferenceFrequency, r.cfg.SampleRate)).
		Msg("low-pass filter designed")

	if quality, err := costas.ParseQualityFormula(r.cfg.QualityFormula); err == nil && quality == costas.QualityDifference {
		r.logger.Warn().
			Str("quality_formula", quality.String()).
			Msg("quality metric uses the lock formula S_I²-S_Q²; set quality_formula: energy for S_I²+S_Q²")
	}
}

func (r *Receiver) logStats() {
	stats := r.demod.Stats()
	r.logger.Info().
		Uint64("samples", stats.Ticks).
		Uint64("bits", stats.Bits).
		Uint64("zeros", stats.Zeros).
		Uint64("ones", stats.Ones).
		Uint64("lock_acquired", stats.Acquisitions).
		Uint64("lock_lost", stats.Losses).
		Uint64("anomalies", stats.Anomalies).
		Float64("period_us", r.demod.Period()).
		Msg("end of stream")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
