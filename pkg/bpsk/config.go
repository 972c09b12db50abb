package bpsk

import (
	"math"

	"github.com/dorchain/bpsk/pkg/dsp/costas"
	"github.com/dorchain/bpsk/pkg/dsp/filters/fir"
	"github.com/pkg/errors"
)

// Config holds the demodulator tuning. Frequencies are in Hz.
type Config struct {
	SampleRate         float64 `yaml:"sample_rate"`
	ReferenceFrequency float64 `yaml:"reference_frequency"`
	CutoffFrequency    float64 `yaml:"cutoff_frequency"`
	Taps               int     `yaml:"taps"`
	Window             string  `yaml:"window"`

	PhaseGain    float64 `yaml:"phase_gain"`
	InitialPhase float64 `yaml:"initial_phase"`
	// Discriminator is "sign" or "angle".
	Discriminator string `yaml:"discriminator"`

	LockThreshold float64 `yaml:"lock_threshold"`
	// QualityFormula is "difference" or "energy".
	QualityFormula string `yaml:"quality_formula"`

	AmplitudeThreshold float64 `yaml:"amplitude_threshold"`
	CyclesPerClock     int     `yaml:"cycles_per_clock"`
	CyclesPerBit       int     `yaml:"cycles_per_bit"`

	WrapPhase      bool    `yaml:"wrap_phase"`
	MaxPeriodDrift float64 `yaml:"max_period_drift"`
}

// DefaultConfig is the reference tuning: a 4 MHz / 76 carrier sampled at
// 192 kHz, seven tap low-pass at 55 kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:         192000,
		ReferenceFrequency: 4e6 / 76,
		CutoffFrequency:    55000,
		Taps:               7,
		Window:             "none",
		PhaseGain:          0.2,
		InitialPhase:       0.55 * 2 * math.Pi,
		Discriminator:      "sign",
		LockThreshold:      costas.DefaultLockThreshold,
		QualityFormula:     "difference",
		AmplitudeThreshold: 0.38,
		CyclesPerClock:     24,
		CyclesPerBit:       48,
		WrapPhase:          true,
		MaxPeriodDrift:     0.1,
	}
}

// SamplePeriod is the sample spacing in microseconds.
func (c Config) SamplePeriod() float64 {
	return 1e6 / c.SampleRate
}

// ReferencePeriod is the nominal carrier period in microseconds.
func (c Config) ReferencePeriod() float64 {
	return 1e6 / c.ReferenceFrequency
}

// Validate checks every field and returns a *ConfigurationError for the
// first problem found.
func (c Config) Validate() error {
	_, err := c.design()
	return err
}

// LowPassTaps designs the I/Q low-pass coefficients this config describes.
func (c Config) LowPassTaps() (fir.Taps, error) {
	d, err := c.design()
	if err != nil {
		return nil, err
	}
	return d.taps, nil
}

type design struct {
	taps          fir.Taps
	window        fir.WindowType
	discriminator costas.Discriminator
	quality       costas.QualityFormula
}

func (c Config) design() (*design, error) {
	switch {
	case !(c.SampleRate > 0):
		return nil, configError("sample_rate", "must be positive, got %v", c.SampleRate)
	case !(c.ReferenceFrequency > 0):
		return nil, configError("reference_frequency", "must be positive, got %v", c.ReferenceFrequency)
	case c.ReferenceFrequency >= c.SampleRate/2:
		return nil, configError("reference_frequency", "%v Hz is above the Nyquist frequency of %v Hz", c.ReferenceFrequency, c.SampleRate/2)
	case !(c.PhaseGain > 0 && c.PhaseGain <= 1):
		return nil, configError("phase_gain", "must be in (0, 1], got %v", c.PhaseGain)
	case c.CyclesPerClock < 1:
		return nil, configError("cycles_per_clock", "must be at least 1, got %d", c.CyclesPerClock)
	case c.CyclesPerBit < c.CyclesPerClock:
		return nil, configError("cycles_per_bit", "must not be below cycles_per_clock (%d), got %d", c.CyclesPerClock, c.CyclesPerBit)
	case c.AmplitudeThreshold < 0:
		return nil, configError("amplitude_threshold", "must not be negative, got %v", c.AmplitudeThreshold)
	case !(c.MaxPeriodDrift >= 0 && c.MaxPeriodDrift < 1):
		return nil, configError("max_period_drift", "must be in [0, 1), got %v", c.MaxPeriodDrift)
	}

	d := &design{}
	var err error

	if d.window, err = fir.ParseWindowType(c.Window); err != nil {
		return nil, &ConfigurationError{Field: "window", Err: err}
	}
	if d.discriminator, err = costas.NewDiscriminator(c.Discriminator); err != nil {
		return nil, &ConfigurationError{Field: "discriminator", Err: err}
	}
	if d.quality, err = costas.ParseQualityFormula(c.QualityFormula); err != nil {
		return nil, &ConfigurationError{Field: "quality_formula", Err: err}
	}

	d.taps, err = fir.MakeLowPassTaps(c.SampleRate, c.CutoffFrequency, c.Taps, d.window)
	if err != nil {
		field := "taps"
		if errors.Is(err, fir.ErrNyquist) || c.CutoffFrequency <= 0 {
			field = "cutoff_frequency"
		}
		return nil, &ConfigurationError{Field: field, Err: err}
	}
	return d, nil
}
