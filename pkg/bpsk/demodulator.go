package bpsk

import (
	"context"
	"time"

	"github.com/dorchain/bpsk/pkg/dsp/costas"
	"github.com/dorchain/bpsk/pkg/dsp/filters/fir"
	"github.com/dorchain/bpsk/pkg/dsp/mixer"
	"github.com/norasector/turbine-common/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Demodulator is a Costas loop BPSK receiver. It owns all of its state and
// is not safe for concurrent use; feed it from a single goroutine.
type Demodulator struct {
	cfg    Config
	taps   fir.Taps
	sink   Sink
	logger zerolog.Logger

	osc     *mixer.Oscillator
	filterI *fir.Filter
	filterQ *fir.Filter
	loop    *costas.LoopFilter
	lock    *costas.LockDetector
	decoder *BitDecoder

	segmentHook SegmentHook
	stats       Stats
}

// SegmentHook is called by Run after each segment with the time spent on it.
type SegmentHook func(seg *types.SegmentFloat32, elapsed time.Duration)

// Option configures a Demodulator at construction.
type Option func(d *Demodulator)

func WithSink(sink Sink) Option {
	return func(d *Demodulator) {
		if sink != nil {
			d.sink = sink
		}
	}
}

func WithSegmentHook(hook SegmentHook) Option {
	return func(d *Demodulator) {
		d.segmentHook = hook
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Demodulator) {
		d.logger = logger
	}
}

// NewDemodulator designs the filter and builds the loop. Any invalid setting,
// including a cutoff above Nyquist, yields a *ConfigurationError.
func NewDemodulator(cfg Config, opts ...Option) (*Demodulator, error) {
	des, err := cfg.design()
	if err != nil {
		return nil, err
	}

	d := &Demodulator{
		cfg:    cfg,
		taps:   des.taps,
		sink:   nopSink{},
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(d)
	}

	var oscOpts []mixer.OscillatorOption
	if cfg.WrapPhase {
		oscOpts = append(oscOpts, mixer.WithPhaseWrap())
	}
	if cfg.MaxPeriodDrift > 0 {
		oscOpts = append(oscOpts, mixer.WithPeriodBound(cfg.MaxPeriodDrift))
	}
	d.osc = mixer.NewOscillator(cfg.SamplePeriod(), cfg.ReferencePeriod(), cfg.InitialPhase, oscOpts...)

	d.filterI = fir.NewFilter(des.taps)
	d.filterQ = fir.NewFilter(des.taps)
	d.loop = costas.NewLoopFilter(costas.LoopConfig{
		SamplePeriod:    cfg.SamplePeriod(),
		ReferencePeriod: cfg.ReferencePeriod(),
		PhaseGain:       cfg.PhaseGain,
		Discriminator:   des.discriminator,
	})
	d.lock = costas.NewLockDetector(cfg.LockThreshold, des.quality)
	d.decoder = NewBitDecoder(d.osc, cfg.AmplitudeThreshold, cfg.CyclesPerClock, cfg.CyclesPerBit)

	d.logger.Debug().
		Float64("sample_period_us", cfg.SamplePeriod()).
		Float64("reference_period_us", cfg.ReferencePeriod()).
		Int("taps", len(des.taps)).
		Str("discriminator", des.discriminator.Name()).
		Str("quality", des.quality.String()).
		Msg("demodulator ready")

	return d, nil
}

// Process runs one tick: mix, filter, steer the oscillator, evaluate lock and
// decode. The record and any events go to the sink before Process returns.
func (d *Demodulator) Process(sample float32) Telemetry {
	d.stats.Ticks++
	tick := d.stats.Ticks
	s := float64(sample)

	i, q := d.osc.Step()
	sI := d.filterI.Filter(s * i)
	sQ := d.filterQ.Filter(s * q)

	out := d.loop.Update(d.osc, sI, sQ)

	lock, quality, tr := d.lock.Evaluate(sI, sQ)
	switch tr {
	case costas.TransitionAcquired:
		d.stats.Acquisitions++
		d.logger.Debug().Uint64("tick", tick).Float64("lock", lock).Msg("lock acquired")
		d.sink.Notify(Event{Kind: EventLockAcquired, Tick: tick, Lock: lock})
	case costas.TransitionLost:
		d.stats.Losses++
		d.logger.Debug().Uint64("tick", tick).Float64("lock", lock).Msg("lock lost")
		d.sink.Notify(Event{Kind: EventLockLost, Tick: tick, Lock: lock})
	}

	dec := d.decoder.Step(d.lock.Locked(), sI)
	if dec.Anomaly {
		d.stats.Anomalies++
		d.sink.Notify(Event{Kind: EventSingleShort, Tick: tick, Waves: dec.Waves})
	}
	if dec.HasBit {
		d.stats.Bits++
		if dec.Bit == 0 {
			d.stats.Zeros++
		} else {
			d.stats.Ones++
		}
		d.sink.Notify(Event{Kind: EventBit, Tick: tick, Bit: dec.Bit, Waves: dec.Waves})
	}

	t := Telemetry{
		Tick:    tick,
		Period:  d.osc.Period(),
		Phase:   d.osc.Phase(),
		Sample:  s,
		I:       i,
		Q:       q,
		Lock:    lock,
		Quality: quality,
		Locked:  d.lock.Locked(),
		SI:      sI,
		SQ:      sQ,
		Err:     out.Error,
		ErrInt:  out.Integral,
	}
	d.sink.Record(t)
	return t
}

// ProcessSamples runs Process over every sample in buf.
func (d *Demodulator) ProcessSamples(buf []float32) {
	for _, s := range buf {
		d.Process(s)
	}
}

// Run consumes segments in order until the channel is closed, which is a
// clean end of stream, or until ctx is done.
func (d *Demodulator) Run(ctx context.Context, segments <-chan *types.SegmentFloat32) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case seg, ok := <-segments:
			if !ok {
				d.logger.Debug().Uint64("ticks", d.stats.Ticks).Msg("end of stream")
				return nil
			}
			if seg == nil {
				continue
			}
			start := time.Now()
			d.ProcessSamples(seg.Data)
			if d.segmentHook != nil {
				d.segmentHook(seg, time.Since(start))
			}
		}
	}
}

func (d *Demodulator) Locked() bool {
	return d.lock.Locked()
}

// Period is the tracked carrier period in microseconds.
func (d *Demodulator) Period() float64 {
	return d.osc.Period()
}

func (d *Demodulator) Phase() float64 {
	return d.osc.Phase()
}

func (d *Demodulator) Ticks() uint64 {
	return d.stats.Ticks
}

func (d *Demodulator) Stats() Stats {
	return d.stats
}

func (d *Demodulator) Config() Config {
	return d.cfg
}

// Taps returns the shared low-pass coefficients.
func (d *Demodulator) Taps() fir.Taps {
	return d.taps
}

func (d *Demodulator) DecoderState() DecoderState {
	return d.decoder.State()
}
