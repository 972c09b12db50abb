package main

import (
	"testing"

	"github.com/dorchain/bpsk/pkg/receiver"
	"github.com/dorchain/bpsk/pkg/receiver/config"
	"github.com/dorchain/bpsk/pkg/receiver/device/generator"
	"github.com/dorchain/bpsk/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReceiver(t *testing.T, opts config.Config) (*receiver.Receiver, error) {
	t.Helper()
	dev, err := generator.NewGeneratorDevice(opts.Generator.Config, 1, opts.SegmentSize, false)
	require.NoError(t, err)

	receiverOpts, err := receiverOptions(opts, &util.MockWriteAPI{Discard: true}, nil)
	if err != nil {
		return nil, err
	}
	return receiver.NewReceiver(dev, opts.Demodulator, receiverOpts...)
}

func TestReceiverOptionsPreprocess(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *config.Config)
		blocks []string
	}{
		{"disabled", func(c *config.Config) {}, nil},
		{"agc", func(c *config.Config) { c.Preprocess.AGC.Enabled = true }, []string{"agc"}},
		{"input filter", func(c *config.Config) { c.Preprocess.InputFilter.Cutoff = 80000 }, []string{"input_filter"}},
		{"both with viz", func(c *config.Config) {
			c.Preprocess.AGC.Enabled = true
			c.Preprocess.InputFilter.Cutoff = 80000
			c.VizServer.Port = 18093
		}, []string{"agc", "input_filter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := config.DefaultConfig()
			tt.modify(&opts)
			require.NoError(t, opts.Validate())

			rx, err := newReceiver(t, opts)
			require.NoError(t, err)

			pre := rx.Preprocessor()
			if tt.blocks == nil {
				assert.Nil(t, pre)
				return
			}
			require.NotNil(t, pre)
			var names []string
			for _, b := range pre.Blocks() {
				names = append(names, b.Name)
			}
			assert.Equal(t, tt.blocks, names)
		})
	}
}

func TestReceiverOptionsInvalidPreprocess(t *testing.T) {
	opts := config.DefaultConfig()
	opts.Preprocess.AGC.Enabled = true
	opts.Preprocess.AGC.Alpha = 2

	_, err := newReceiver(t, opts)
	assert.Error(t, err)
}
