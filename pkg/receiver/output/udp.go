package output

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dorchain/bpsk/pkg/bpsk"
	"github.com/dorchain/bpsk/pkg/receiver/config"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/turbine-common/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const frameQueueLength = 16

// bitFrame is a batch of decoded bits waiting to be sent.
type bitFrame struct {
	segment   *types.SegmentBinaryBytes
	firstTick uint64
	lastTick  uint64
}

// BitFrameUDPOutput batches decoded bits and sends each batch as a length
// prefixed protobuf Struct datagram to every destination.
type BitFrameUDPOutput struct {
	dests        []config.OutputDestination
	bitsPerFrame int
	bitRate      int
	metrics      api.WriteAPI
	logger       zerolog.Logger

	pending   *bitFrame
	segNum    int
	frameChan chan *bitFrame
	dropped   int
}

func NewBitFrameUDPOutput(dests []config.OutputDestination, bitsPerFrame, bitRate int, metrics api.WriteAPI, logger zerolog.Logger) *BitFrameUDPOutput {
	return &BitFrameUDPOutput{
		dests:        dests,
		bitsPerFrame: bitsPerFrame,
		bitRate:      bitRate,
		metrics:      metrics,
		logger:       logger,
		frameChan:    make(chan *bitFrame, frameQueueLength),
	}
}

func (s *BitFrameUDPOutput) Record(bpsk.Telemetry) {}

func (s *BitFrameUDPOutput) Notify(e bpsk.Event) {
	if e.Kind != bpsk.EventBit {
		return
	}
	if s.pending == nil {
		s.segNum++
		s.pending = &bitFrame{
			segment: &types.SegmentBinaryBytes{
				SegmentNumber: s.segNum,
				SymbolRate:    s.bitRate,
				Data:          make([]byte, 0, s.bitsPerFrame),
			},
			firstTick: e.Tick,
		}
	}
	s.pending.segment.Data = append(s.pending.segment.Data, byte(e.Bit))
	s.pending.lastTick = e.Tick

	if len(s.pending.segment.Data) >= s.bitsPerFrame {
		s.queue()
	}
}

func (s *BitFrameUDPOutput) queue() {
	// The demodulator must never wait on the network.
	select {
	case s.frameChan <- s.pending:
	default:
		s.dropped++
	}
	s.pending = nil
}

// Flush queues a partially filled frame.
func (s *BitFrameUDPOutput) Flush() error {
	if s.pending != nil {
		s.queue()
	}
	if s.dropped > 0 {
		s.logger.Warn().Int("dropped_frames", s.dropped).Msg("bit frame queue overflowed")
	}
	return nil
}

func (s *BitFrameUDPOutput) Start(ctx context.Context) error {
	destAddrs := make([]*net.UDPAddr, 0, len(s.dests))
	for _, dest := range s.dests {
		ips, err := net.LookupIP(dest.Host)
		if err != nil {
			return errors.Wrapf(err, "error resolving %s", dest.Host)
		}
		if len(ips) == 0 {
			return errors.Errorf("no IPs returned for %s", dest.Host)
		}

		destAddr := &net.UDPAddr{IP: ips[0], Port: dest.Port}
		destAddrs = append(destAddrs, destAddr)
		s.logger.Info().IPAddr("dest_ip", destAddr.IP).Int("port", dest.Port).Msg("bit frame output starting")
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			// Send whatever the final flush queued.
			for {
				select {
				case frame := <-s.frameChan:
					s.send(conn, destAddrs, frame)
				default:
					return ctx.Err()
				}
			}
		case frame := <-s.frameChan:
			s.send(conn, destAddrs, frame)
		}
	}
}

func (s *BitFrameUDPOutput) send(conn *net.UDPConn, destAddrs []*net.UDPAddr, frame *bitFrame) {
	msg, err := EncodeFrame(frame.segment, frame.firstTick, frame.lastTick)
	if err != nil {
		s.logger.Warn().Err(err).Msg("error encoding bit frame")
		return
	}

	sent := 0
	var bytesWritten int
	for _, destAddr := range destAddrs {
		n, err := conn.WriteToUDP(msg, destAddr)
		if err != nil {
			s.logger.Error().Err(err).Msg("error writing")
			continue
		}
		bytesWritten += n
		sent++
	}

	s.metrics.WritePoint(influxdb2.NewPoint("bpsk.sent_frame",
		map[string]string{
			"segment": strconv.Itoa(frame.segment.SegmentNumber),
		},
		map[string]interface{}{
			"bits":          len(frame.segment.Data),
			"bytes_written": bytesWritten,
			"sent":          sent,
			"dropped":       len(destAddrs) - sent,
		}, time.Now()))
}

// EncodeFrame builds the datagram for one frame: a little-endian uint16
// length followed by the marshaled Struct.
func EncodeFrame(seg *types.SegmentBinaryBytes, firstTick, lastTick uint64) ([]byte, error) {
	var bits strings.Builder
	for _, b := range seg.Data {
		bits.WriteByte('0' + b)
	}

	st, err := structpb.NewStruct(map[string]interface{}{
		"segment_number": seg.SegmentNumber,
		"bit_rate":       seg.SymbolRate,
		"bits":           bits.String(),
		"first_tick":     float64(firstTick),
		"last_tick":      float64(lastTick),
	})
	if err != nil {
		return nil, errors.Wrap(err, "error building frame")
	}

	encoded, err := proto.Marshal(st)
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling protobuf")
	}
	if len(encoded) > 0xffff {
		return nil, errors.Errorf("frame of %d bytes does not fit the length header", len(encoded))
	}

	var msgBuf bytes.Buffer
	if err := binary.Write(&msgBuf, binary.LittleEndian, uint16(len(encoded))); err != nil {
		return nil, errors.Wrap(err, "error encoding header size")
	}
	msgBuf.Write(encoded)
	return msgBuf.Bytes(), nil
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(msg []byte) (*structpb.Struct, error) {
	if len(msg) < 2 {
		return nil, errors.New("frame too short")
	}
	size := int(binary.LittleEndian.Uint16(msg))
	if len(msg)-2 != size {
		return nil, errors.Errorf("frame header says %d bytes, have %d", size, len(msg)-2)
	}
	var st structpb.Struct
	if err := proto.Unmarshal(msg[2:], &st); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling protobuf")
	}
	return &st, nil
}
