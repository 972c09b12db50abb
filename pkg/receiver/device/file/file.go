package file

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"time"

	"github.com/dorchain/bpsk/pkg/bpsk"
	"github.com/norasector/turbine-common/types"
	"github.com/pkg/errors"
)

const sampleSize = 4

// FileDevice reads native-endian float32 samples from a file or stdin.
type FileDevice struct {
	reader     io.Reader
	closer     io.Closer
	readSize   int
	sampleRate float64
	realtime   bool
	offset     int64
	segmentNum int
}

// NewFileDevice opens path; "-" reads stdin. readSize must be a multiple of
// four bytes. With realtime set segments are paced at sampleRate.
func NewFileDevice(path string, readSize int, sampleRate float64, realtime bool) (*FileDevice, error) {
	if path == "-" {
		return NewReaderDevice(os.Stdin, readSize, sampleRate, realtime)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	d, err := NewReaderDevice(f, readSize, sampleRate, realtime)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.closer = f
	return d, nil
}

func NewReaderDevice(r io.Reader, readSize int, sampleRate float64, realtime bool) (*FileDevice, error) {
	if readSize < sampleSize || readSize%sampleSize != 0 {
		return nil, errors.Errorf("read size %d is not a positive multiple of %d", readSize, sampleSize)
	}
	return &FileDevice{
		reader:     r,
		readSize:   readSize,
		sampleRate: sampleRate,
		realtime:   realtime,
	}, nil
}

func (f *FileDevice) Start(ctx context.Context, samples chan<- *types.SegmentFloat32) error {
	var tick <-chan time.Time
	if f.realtime && f.sampleRate > 0 {
		between := time.Duration(float64(f.readSize/sampleSize) / f.sampleRate * float64(time.Second))
		ticker := time.NewTicker(between)
		defer ticker.Stop()
		tick = ticker.C
	}

	buf := make([]byte, f.readSize)
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}

		n, err := io.ReadFull(f.reader, buf)
		whole := n - n%sampleSize

		if whole > 0 {
			if err := f.send(ctx, samples, buf[:whole]); err != nil {
				return err
			}
		}
		f.offset += int64(whole)

		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		switch {
		case err == nil:
			continue
		case err == io.EOF:
			return nil
		case err == io.ErrUnexpectedEOF && n == whole:
			return nil
		case err == io.ErrUnexpectedEOF:
			return &bpsk.StreamError{Offset: f.offset, Err: bpsk.ErrShortSample}
		default:
			return &bpsk.StreamError{Offset: f.offset, Err: err}
		}
	}
}

func (f *FileDevice) send(ctx context.Context, samples chan<- *types.SegmentFloat32, raw []byte) error {
	f.segmentNum++
	seg := &types.SegmentFloat32{
		SegmentNumber: f.segmentNum,
		Data:          make([]float32, len(raw)/sampleSize),
	}
	for i := range seg.Data {
		seg.Data[i] = math.Float32frombits(binary.NativeEndian.Uint32(raw[i*sampleSize:]))
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case samples <- seg:
	}
	return nil
}

// Offset is the number of bytes turned into samples so far.
func (f *FileDevice) Offset() int64 {
	return f.offset
}

func (f *FileDevice) Stop() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func (f *FileDevice) SampleRate() float64 {
	return 0
}
