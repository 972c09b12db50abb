// Package siggen produces the BPSK test waveform: a repeating sign pattern
// keyed onto the reference carrier, one pattern element per clock of
// CyclesPerClock carrier cycles.
package siggen

import (
	"math"
	"math/rand"

	"github.com/dorchain/bpsk/pkg/dsp/filters/fir"
	"github.com/dorchain/bpsk/pkg/dsp/mixer"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// DefaultPattern repeats endlessly; each element is one clock.
var DefaultPattern = []int{1, -1, 1, 1, -1, 1, -1, -1}

type Config struct {
	SampleRate       float64 `yaml:"sample_rate"`
	CarrierFrequency float64 `yaml:"carrier_frequency"`
	// FrequencyOffset is added to CarrierFrequency, in Hz.
	FrequencyOffset float64 `yaml:"frequency_offset"`
	Pattern         []int   `yaml:"pattern,flow"`
	CyclesPerClock  int     `yaml:"cycles_per_clock"`
	Amplitude       float64 `yaml:"amplitude"`

	NoiseStdDev float64 `yaml:"noise_stddev"`
	// NoiseBandwidth low-passes the noise when non-zero, in Hz.
	NoiseBandwidth float64 `yaml:"noise_bandwidth"`
	Seed           int64   `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		SampleRate:       192000,
		CarrierFrequency: 4e6 / 76,
		Pattern:          DefaultPattern,
		CyclesPerClock:   24,
		Amplitude:        1,
		Seed:             1,
	}
}

func (c Config) Validate() error {
	switch {
	case !(c.SampleRate > 0):
		return errors.Errorf("sample rate must be positive, got %v", c.SampleRate)
	case !(c.CarrierFrequency+c.FrequencyOffset > 0):
		return errors.Errorf("carrier frequency must be positive, got %v", c.CarrierFrequency+c.FrequencyOffset)
	case c.CarrierFrequency+c.FrequencyOffset >= c.SampleRate/2:
		return errors.Errorf("carrier frequency %v violates nyquist for sample rate %v", c.CarrierFrequency+c.FrequencyOffset, c.SampleRate)
	case len(c.Pattern) == 0:
		return errors.New("pattern must not be empty")
	case c.CyclesPerClock < 1:
		return errors.Errorf("cycles per clock must be at least 1, got %d", c.CyclesPerClock)
	case c.NoiseStdDev < 0:
		return errors.Errorf("noise stddev must not be negative, got %v", c.NoiseStdDev)
	case c.NoiseBandwidth < 0 || c.NoiseBandwidth >= c.SampleRate/2:
		return errors.Errorf("noise bandwidth %v outside [0, %v)", c.NoiseBandwidth, c.SampleRate/2)
	}
	for i, p := range c.Pattern {
		if p != 1 && p != -1 {
			return errors.Errorf("pattern element %d is %d, want 1 or -1", i, p)
		}
	}
	return nil
}

// Generator holds all waveform state; two generators with the same config
// produce identical streams.
type Generator struct {
	cfg     Config
	pattern []int
	carrier *mixer.Carrier

	waves int
	index int

	rng         *rand.Rand
	noiseFilter *fir.Filter
	noiseGain   float64
}

func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "signal generator")
	}

	freq := cfg.CarrierFrequency + cfg.FrequencyOffset
	g := &Generator{
		cfg:     cfg,
		pattern: append([]int(nil), cfg.Pattern...),
		carrier: mixer.NewCarrier(1e6/cfg.SampleRate, 1e6/freq),
	}

	if cfg.NoiseStdDev > 0 {
		g.rng = rand.New(rand.NewSource(cfg.Seed))
		g.noiseGain = cfg.NoiseStdDev
		if cfg.NoiseBandwidth > 0 {
			taps := fir.MakeLowPass(1, cfg.SampleRate, cfg.NoiseBandwidth, cfg.NoiseBandwidth/4, fir.Hamming)
			g.noiseFilter = fir.NewFilter(taps)
			// Keep the requested stddev after filtering.
			g.noiseGain = cfg.NoiseStdDev / math.Sqrt(floats.Dot(taps, taps))
		}
	}
	return g, nil
}

// Next returns the next sample.
func (g *Generator) Next() float32 {
	s, wrapped := g.carrier.Next()
	if wrapped {
		g.waves++
		if g.waves == g.cfg.CyclesPerClock {
			g.waves = 0
			g.index = (g.index + 1) % len(g.pattern)
		}
	}

	v := g.cfg.Amplitude * float64(g.pattern[g.index]) * s
	if g.rng != nil {
		n := g.rng.NormFloat64() * g.noiseGain
		if g.noiseFilter != nil {
			n = g.noiseFilter.Filter(n)
		}
		v += n
	}
	return float32(v)
}

// Fill writes len(buf) samples and returns the count.
func (g *Generator) Fill(buf []float32) int {
	for i := range buf {
		buf[i] = g.Next()
	}
	return len(buf)
}

// Symbol is the pattern element currently being transmitted.
func (g *Generator) Symbol() int {
	return g.pattern[g.index]
}

func (g *Generator) Config() Config {
	return g.cfg
}
