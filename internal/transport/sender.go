package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/aircast/internal/logging"
	"github.com/muurk/aircast/internal/wire"
)

// StreamOptions control the pacing and shape of a streamed source.
type StreamOptions struct {
	// ChunkSize is the payload size per data packet in bytes
	ChunkSize int

	// SamplesPerPacket advances the timestamp per data packet
	SamplesPerPacket uint32

	// Interval is the send period; one data packet per tick
	Interval time.Duration

	// SyncEvery inserts a sync control packet after every N data
	// packets; 0 disables sync packets
	SyncEvery int
}

func (o StreamOptions) withDefaults() StreamOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1408 // 352 stereo 16-bit frames
	}
	if o.SamplesPerPacket == 0 {
		o.SamplesPerPacket = 352
	}
	if o.Interval <= 0 {
		o.Interval = 8 * time.Millisecond
	}
	return o
}

// Sender writes encoded packets to one receiver endpoint. It owns its
// sequencer: all packets a Sender emits belong to one logical stream.
// Send and Stream must not be called concurrently.
type Sender struct {
	conn  *net.UDPConn
	seq   *wire.Sequencer
	stats Counters
}

// Dial connects a sender to a receiver's data endpoint ("host:port").
func Dial(addr string, seq *wire.Sequencer) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve receiver address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial receiver: %w", err)
	}

	logging.LogStream("started", seq.StreamID(), udpAddr.String())
	return &Sender{conn: conn, seq: seq}, nil
}

// Sequencer returns the sender's packet sequencer, e.g. to adjust
// volume mid-stream. Callers must serialize access with Send/Stream.
func (s *Sender) Sequencer() *wire.Sequencer { return s.seq }

// Stats returns transfer totals so far.
func (s *Sender) Stats() Snapshot { return s.stats.Snapshot() }

// Send encodes and writes one packet as a single datagram.
func (s *Sender) Send(p *wire.AudioPacket) error {
	buf := wire.EncodePacket(p)
	if _, err := s.conn.Write(buf); err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}
	s.stats.addPacket(len(buf))
	logging.LogPacket("sent", p)
	return nil
}

// Stream reads src in fixed-size chunks and sends one data packet per
// tick until the source is drained, then sends the end-of-stream
// control packet. A short final chunk is sent as-is. Stream is the
// single producer driving the sequencer; it returns ctx.Err() when
// cancelled, without the end-of-stream marker.
func (s *Sender) Stream(ctx context.Context, src io.Reader, opts StreamOptions) error {
	opts = opts.withDefaults()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	buf := make([]byte, opts.ChunkSize)
	sent := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if serr := s.Send(s.seq.BuildDataPacket(buf[:n], opts.SamplesPerPacket)); serr != nil {
				return serr
			}
			sent++
			if opts.SyncEvery > 0 && sent%opts.SyncEvery == 0 {
				if serr := s.Send(s.seq.BuildSyncPacket()); serr != nil {
					return serr
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				logging.Info("Source drained, ending stream",
					zap.Int("data_packets", sent),
					zap.String("ssrc", fmt.Sprintf("0x%08x", s.seq.StreamID())),
				)
				return s.Send(s.seq.BuildEndOfStreamPacket())
			}
			return fmt.Errorf("failed to read audio source: %w", err)
		}
	}
}

// Close releases the socket. The sequencer stays usable; a later Dial
// with the same sequencer continues the same logical stream.
func (s *Sender) Close() error {
	logging.LogStream("ended", s.seq.StreamID(), s.conn.RemoteAddr().String())
	return s.conn.Close()
}
