package costas

// Steerable is the oscillator side of the loop.
type Steerable interface {
	Steer(dPhase, dPeriod float64)
}

type LoopConfig struct {
	// SamplePeriod and ReferencePeriod share a unit; microseconds keep the
	// reference gains at the magnitudes they were tuned with.
	SamplePeriod    float64
	ReferencePeriod float64
	// PhaseGain is the proportional phase correction in (0, 1].
	PhaseGain     float64
	Discriminator Discriminator
}

// LoopOutput is what a single Update computed.
type LoopOutput struct {
	Error          float64
	CorrectedError float64
	Integral       float64
}

// LoopFilter is a PI controller steering an oscillator from the
// discriminator output. Gains follow a Ziegler-Nichols style tuning:
// frequency gain a*a/4, integral gain 1.2*a/referencePeriod.
type LoopFilter struct {
	disc         Discriminator
	samplePeriod float64

	phaseGain    float64
	freqGain     float64
	integralGain float64

	errInt float64
}

func NewLoopFilter(cfg LoopConfig) *LoopFilter {
	disc := cfg.Discriminator
	if disc == nil {
		disc = SignDiscriminator{}
	}
	return &LoopFilter{
		disc:         disc,
		samplePeriod: cfg.SamplePeriod,
		phaseGain:    cfg.PhaseGain,
		freqGain:     cfg.PhaseGain * cfg.PhaseGain * 0.25,
		integralGain: 1.2 * cfg.PhaseGain / cfg.ReferencePeriod,
	}
}

// Update runs one loop iteration and steers target for the next sample.
func (l *LoopFilter) Update(target Steerable, sI, sQ float64) LoopOutput {
	err := l.disc.Error(sI, sQ)

	l.errInt += err * l.samplePeriod
	corrected := err + l.errInt*l.integralGain

	target.Steer(l.phaseGain*corrected, -l.freqGain*corrected)

	return LoopOutput{
		Error:          err,
		CorrectedError: corrected,
		Integral:       l.errInt,
	}
}

func (l *LoopFilter) Integral() float64 {
	return l.errInt
}

func (l *LoopFilter) Discriminator() Discriminator {
	return l.disc
}

func (l *LoopFilter) Gains() (phase, freq, integral float64) {
	return l.phaseGain, l.freqGain, l.integralGain
}
