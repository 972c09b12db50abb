package config

import (
	"os"
	"time"

	"github.com/dorchain/bpsk/pkg/bpsk"
	"github.com/dorchain/bpsk/pkg/dsp/filters/fir"
	"github.com/dorchain/bpsk/pkg/siggen"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Demodulator bpsk.Config `yaml:"demodulator"`

	// Device is one of "file", "generator" or "audio".
	Device    string `yaml:"device"`
	LogLevel  string `yaml:"log_level"`
	File      File   `yaml:"file"`
	Generator struct {
		siggen.Config `yaml:",inline"`
		// Samples bounds the generated stream; zero runs until stopped.
		Samples  int  `yaml:"samples"`
		Realtime bool `yaml:"realtime"`
	} `yaml:"generator"`
	Audio struct {
		DeviceName string `yaml:"device_name"`
	} `yaml:"audio"`

	SegmentSize int `yaml:"segment_size"`

	Preprocess Preprocess `yaml:"preprocess"`

	Telemetry struct {
		// CSVPath receives one row per sample; "-" is stdout.
		CSVPath   string `yaml:"csv_path"`
		LogEvents bool   `yaml:"log_events"`
	} `yaml:"telemetry"`

	OutputDestinations []OutputDestination `yaml:"output_destinations"`
	BitsPerFrame       int                 `yaml:"bits_per_frame"`

	VizServer struct {
		Port           int           `yaml:"port"`
		UpdateInterval time.Duration `yaml:"update_interval"`
		HistoryLength  int           `yaml:"history_length"`
	} `yaml:"viz_server"`

	InfluxDB struct {
		Host         string `yaml:"host"`
		Token        string `yaml:"token"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
		// Decimation writes one telemetry point per this many samples.
		Decimation int `yaml:"decimation"`
	} `yaml:"influxdb"`
}

type File struct {
	Path     string `yaml:"path"`
	ReadSize int    `yaml:"read_size"`
	Realtime bool   `yaml:"realtime"`
}

// Preprocess configures the optional stages between the device and the
// demodulator.
type Preprocess struct {
	AGC struct {
		Enabled bool    `yaml:"enabled"`
		Alpha   float64 `yaml:"alpha"`
		// Amplitude is the peak level a steady carrier is scaled to.
		Amplitude float64 `yaml:"amplitude"`
	} `yaml:"agc"`
	InputFilter struct {
		// Cutoff of zero disables the filter.
		Cutoff          float64 `yaml:"cutoff"`
		TransitionWidth float64 `yaml:"transition_width"`
		Window          string  `yaml:"window"`
	} `yaml:"input_filter"`
}

func (p Preprocess) Enabled() bool {
	return p.AGC.Enabled || p.InputFilter.Cutoff > 0
}

func (p Preprocess) Validate(sampleRate float64) error {
	if p.AGC.Enabled {
		if !(p.AGC.Alpha > 0 && p.AGC.Alpha <= 1) {
			return errors.Errorf("preprocess.agc.alpha must be in (0, 1], got %v", p.AGC.Alpha)
		}
		if !(p.AGC.Amplitude > 0) {
			return errors.Errorf("preprocess.agc.amplitude must be positive, got %v", p.AGC.Amplitude)
		}
	}
	if f := p.InputFilter; f.Cutoff != 0 {
		if f.Cutoff < 0 || f.Cutoff >= sampleRate/2 {
			return errors.Errorf("preprocess.input_filter.cutoff %v outside (0, %v)", f.Cutoff, sampleRate/2)
		}
		if !(f.TransitionWidth > 0) {
			return errors.Errorf("preprocess.input_filter.transition_width must be positive, got %v", f.TransitionWidth)
		}
		if _, err := fir.ParseWindowType(f.Window); err != nil {
			return errors.Wrap(err, "preprocess.input_filter.window")
		}
	}
	return nil
}

type OutputDestination struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func DefaultConfig() Config {
	var c Config
	c.Demodulator = bpsk.DefaultConfig()
	c.Device = "file"
	c.LogLevel = "info"
	c.File = File{Path: "-", ReadSize: 16384}
	c.Generator.Config = siggen.DefaultConfig()
	c.Generator.Samples = 1000000
	c.SegmentSize = 4096
	c.Preprocess.AGC.Alpha = 1e-3
	c.Preprocess.AGC.Amplitude = 1
	c.Preprocess.InputFilter.TransitionWidth = 10000
	c.Preprocess.InputFilter.Window = "hamming"
	c.Telemetry.LogEvents = true
	c.BitsPerFrame = 64
	c.VizServer.UpdateInterval = 500 * time.Millisecond
	c.VizServer.HistoryLength = 2048
	c.InfluxDB.Decimation = 1920
	return c
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (Config, error) {
	c := DefaultConfig()
	contents, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "error reading config file")
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, errors.Wrap(err, "error unmarshaling yaml file")
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Device {
	case "file", "generator", "audio":
	default:
		return errors.Errorf("unknown device %q", c.Device)
	}
	if c.SegmentSize < 1 {
		return errors.Errorf("segment_size must be positive, got %d", c.SegmentSize)
	}
	if c.Device == "file" && (c.File.ReadSize < 4 || c.File.ReadSize%4 != 0) {
		return errors.Errorf("file.read_size must be a positive multiple of 4, got %d", c.File.ReadSize)
	}
	if len(c.OutputDestinations) > 0 && c.BitsPerFrame < 1 {
		return errors.Errorf("bits_per_frame must be positive, got %d", c.BitsPerFrame)
	}
	if c.Device == "generator" && c.Generator.SampleRate != c.Demodulator.SampleRate {
		return errors.Errorf("generator sample rate %v does not match demodulator sample rate %v",
			c.Generator.SampleRate, c.Demodulator.SampleRate)
	}
	if err := c.Preprocess.Validate(c.Demodulator.SampleRate); err != nil {
		return err
	}
	return c.Demodulator.Validate()
}
