package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/dorchain/bpsk/pkg/bpsk"
	"github.com/dorchain/bpsk/pkg/dsp/viz"
	"github.com/dorchain/bpsk/pkg/receiver"
	"github.com/dorchain/bpsk/pkg/receiver/config"
	"github.com/dorchain/bpsk/pkg/receiver/device"
	"github.com/dorchain/bpsk/pkg/receiver/device/audio"
	"github.com/dorchain/bpsk/pkg/receiver/device/file"
	"github.com/dorchain/bpsk/pkg/receiver/device/generator"
	"github.com/dorchain/bpsk/pkg/receiver/output"
	"github.com/dorchain/bpsk/pkg/util"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)

	configFile := pflag.StringP("config", "c", "", "YAML config file")
	deviceName := pflag.StringP("device", "d", "", "Sample source: file, generator or audio")
	input := pflag.StringP("input", "i", "", "Raw float32 sample file, - for stdin")
	csvPath := pflag.StringP("csv", "o", "", "Write per-sample telemetry as CSV, - for stdout")
	logLevel := pflag.StringP("log-level", "l", "", "Log level")
	samples := pflag.IntP("samples", "n", -1, "Samples to generate with the generator device, 0 runs until stopped")
	vizPort := pflag.IntP("viz-port", "p", 0, "Serve loop plots on this port")
	pflag.Parse()

	opts := config.DefaultConfig()
	if *configFile != "" {
		var err error
		if opts, err = config.Load(*configFile); err != nil {
			log.Fatal().Err(err).Str("config", *configFile).Msg("error loading config")
		}
	}

	if *deviceName != "" {
		opts.Device = *deviceName
	}
	if *input != "" {
		opts.Device = "file"
		opts.File.Path = *input
	}
	if *csvPath != "" {
		opts.Telemetry.CSVPath = *csvPath
	}
	if *logLevel != "" {
		opts.LogLevel = *logLevel
	}
	if *samples >= 0 {
		opts.Generator.Samples = *samples
	}
	if *vizPort != 0 {
		opts.VizServer.Port = *vizPort
	}
	if err := opts.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	log.Logger = log.Logger.Level(level)

	dev, err := openDevice(opts)
	if err != nil {
		log.Fatal().Str("device", opts.Device).Err(err).Msg("failed to initialize device")
	}

	var influxWriteAPI api.WriteAPI = &util.MockWriteAPI{Discard: true}
	if opts.InfluxDB.Host != "" {
		client := influxdb2.NewClient(opts.InfluxDB.Host, opts.InfluxDB.Token)
		defer client.Close()
		influxWriteAPI = client.WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)
	}

	var sinks []bpsk.Sink
	if opts.Telemetry.CSVPath != "" {
		w := os.Stdout
		if opts.Telemetry.CSVPath != "-" {
			if w, err = os.Create(opts.Telemetry.CSVPath); err != nil {
				log.Fatal().Err(err).Str("path", opts.Telemetry.CSVPath).Msg("failed to create telemetry file")
			}
			defer w.Close()
		}
		sinks = append(sinks, output.NewCSVOutput(w))
	}
	if opts.Telemetry.LogEvents {
		sinks = append(sinks, output.NewLogOutput(log.Logger))
	}
	if len(opts.OutputDestinations) > 0 {
		bitRate := int(opts.Demodulator.ReferenceFrequency / float64(opts.Demodulator.CyclesPerBit))
		sinks = append(sinks, output.NewBitFrameUDPOutput(opts.OutputDestinations, opts.BitsPerFrame, bitRate, influxWriteAPI, log.Logger))
	}

	receiverOpts, err := receiverOptions(opts, influxWriteAPI, sinks)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build input chain")
	}

	rx, err := receiver.NewReceiver(dev, opts.Demodulator, receiverOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create receiver")
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
			log.Info().Msg("interrupted")
		case <-ctx.Done():
		}

		return rx.Stop()
	})

	eg.Go(func() error {
		defer cancel()
		return rx.Start(ctx)
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("exited program")
	}
}

func openDevice(opts config.Config) (device.Device, error) {
	log.Info().Str("device", opts.Device).Msg("initializing device...")
	switch opts.Device {
	case "generator":
		return generator.NewGeneratorDevice(opts.Generator.Config, opts.Generator.Samples, opts.SegmentSize, opts.Generator.Realtime)
	case "audio":
		return audio.NewAudioDevice(opts.Demodulator.SampleRate, opts.Audio.DeviceName)
	default:
		return file.NewFileDevice(opts.File.Path, opts.File.ReadSize, opts.Demodulator.SampleRate, opts.File.Realtime)
	}
}

// receiverOptions turns the metrics, viz and preprocess sections of opts into
// receiver options.
func receiverOptions(opts config.Config, influxWriteAPI api.WriteAPI, sinks []bpsk.Sink) ([]receiver.ReceiverOption, error) {
	receiverOpts := []receiver.ReceiverOption{
		receiver.WithLogger(log.Logger),
		receiver.WithOutputs(sinks...),
	}
	if opts.InfluxDB.Host != "" {
		receiverOpts = append(receiverOpts, receiver.WithInfluxDB(influxWriteAPI, opts.InfluxDB.Decimation))
	}

	var vizServer *viz.Server
	if opts.VizServer.Port != 0 {
		vizServer = viz.NewServer(opts.VizServer.Port, opts.VizServer.UpdateInterval)
		receiverOpts = append(receiverOpts, receiver.WithImageServer(vizServer, opts.VizServer.HistoryLength))
	}

	pre, err := receiver.NewPreprocessor(opts.Preprocess, opts.Demodulator.SampleRate, vizServer)
	if err != nil {
		return nil, err
	}
	if pre != nil {
		log.Info().Int("blocks", len(pre.Blocks())).Msg("input pre-processing enabled")
		receiverOpts = append(receiverOpts, receiver.WithPreprocessor(pre))
	}
	return receiverOpts, nil
}
