package main

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/dorchain/bpsk/pkg/siggen"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const chunkSize = 4096

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)

	defaults := siggen.DefaultConfig()
	cfg := siggen.Config{}
	pflag.Float64VarP(&cfg.SampleRate, "sample-rate", "r", defaults.SampleRate, "Sample rate in Hz")
	pflag.Float64VarP(&cfg.CarrierFrequency, "carrier", "f", defaults.CarrierFrequency, "Carrier frequency in Hz")
	pflag.Float64VarP(&cfg.FrequencyOffset, "offset", "F", 0, "Carrier frequency offset in Hz")
	pflag.IntSliceVarP(&cfg.Pattern, "pattern", "P", defaults.Pattern, "Polarity per clock, repeated")
	pflag.IntVarP(&cfg.CyclesPerClock, "cycles-per-clock", "C", defaults.CyclesPerClock, "Carrier cycles per pattern entry")
	pflag.Float64VarP(&cfg.Amplitude, "amplitude", "a", defaults.Amplitude, "Peak amplitude")
	pflag.Float64VarP(&cfg.NoiseStdDev, "noise", "N", 0, "Standard deviation of added Gaussian noise")
	pflag.Float64VarP(&cfg.NoiseBandwidth, "noise-bandwidth", "B", 0, "Low-pass the noise to this bandwidth in Hz, 0 for white")
	pflag.Int64VarP(&cfg.Seed, "seed", "s", defaults.Seed, "Noise seed")
	count := pflag.IntP("samples", "n", 1000000, "Number of samples to write")
	pflag.Parse()

	gen, err := siggen.NewGenerator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid generator configuration")
	}

	w := bufio.NewWriter(os.Stdout)
	buf := make([]float32, chunkSize)
	for remaining := *count; remaining > 0; remaining -= len(buf) {
		if remaining < len(buf) {
			buf = buf[:remaining]
		}
		gen.Fill(buf)
		if err := binary.Write(w, binary.NativeEndian, buf); err != nil {
			log.Fatal().Err(err).Msg("error writing samples")
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatal().Err(err).Msg("error writing samples")
	}
}
