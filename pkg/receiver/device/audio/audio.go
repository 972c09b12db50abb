package audio

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/norasector/turbine-common/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const captureBuffer = 64

// AudioDevice captures mono float32 from a sound card.
type AudioDevice struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate float64
	logger     zerolog.Logger

	frames  chan []float32
	dropped atomic.Int64

	mu      sync.Mutex
	stopped bool
}

// NewAudioDevice opens the first capture device whose name contains
// deviceName, or the system default when deviceName is empty.
func NewAudioDevice(sampleRate float64, deviceName string) (*AudioDevice, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init audio context")
	}

	a := &AudioDevice{
		ctx:        mctx,
		sampleRate: sampleRate,
		logger:     log.Logger.With().Str("device", "audio").Logger(),
		frames:     make(chan []float32, captureBuffer),
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(sampleRate)
	cfg.Alsa.NoMMap = 1

	if deviceName != "" {
		infos, err := mctx.Devices(malgo.Capture)
		if err != nil {
			a.free()
			return nil, errors.Wrap(err, "failed to list capture devices")
		}
		found := false
		for _, info := range infos {
			if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(deviceName)) {
				cfg.Capture.DeviceID = info.ID.Pointer()
				a.logger.Info().Str("name", info.Name()).Msg("selected capture device")
				found = true
				break
			}
		}
		if !found {
			a.free()
			return nil, errors.Errorf("no capture device matching %q", deviceName)
		}
	}

	onRecv := func(_, input []byte, frameCount uint32) {
		if len(input) == 0 {
			return
		}
		captured := unsafe.Slice((*float32)(unsafe.Pointer(&input[0])), int(frameCount))
		buf := make([]float32, len(captured))
		copy(buf, captured)

		// The callback runs on the audio thread and must not block.
		select {
		case a.frames <- buf:
		default:
			a.dropped.Add(1)
		}
	}

	dev, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{Data: onRecv})
	if err != nil {
		a.free()
		return nil, errors.Wrap(err, "failed to init capture device")
	}
	a.device = dev

	if got := float64(dev.SampleRate()); got != sampleRate {
		a.Stop()
		return nil, errors.Errorf("capture device runs at %v Hz, want %v Hz", got, sampleRate)
	}
	return a, nil
}

func (a *AudioDevice) Start(ctx context.Context, samples chan<- *types.SegmentFloat32) error {
	if err := a.device.Start(); err != nil {
		return errors.Wrap(err, "failed to start capture")
	}
	a.logger.Info().Float64("sample_rate", a.sampleRate).Msg("capture started")

	segNum := 0
	for {
		select {
		case <-ctx.Done():
			if n := a.dropped.Load(); n > 0 {
				a.logger.Warn().Int64("dropped_buffers", n).Msg("capture overran")
			}
			return ctx.Err()
		case buf := <-a.frames:
			segNum++
			select {
			case <-ctx.Done():
				return ctx.Err()
			case samples <- &types.SegmentFloat32{SegmentNumber: segNum, Data: buf}:
			}
		}
	}
}

func (a *AudioDevice) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return nil
	}
	a.stopped = true

	if a.device != nil {
		a.device.Uninit()
		a.device = nil
	}
	a.free()
	return nil
}

func (a *AudioDevice) free() {
	if a.ctx != nil {
		_ = a.ctx.Uninit()
		a.ctx.Free()
		a.ctx = nil
	}
}

func (a *AudioDevice) SampleRate() float64 {
	return a.sampleRate
}
