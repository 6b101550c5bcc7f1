package wire

import (
	"math/rand/v2"
)

// Sequencer builds an ordered stream of packets sharing one stream
// identifier. The stream identifier is chosen uniformly at random at
// construction and never changes; sequence and timestamp advance with
// each data packet and wrap modulo their bit width.
//
// A Sequencer is not safe for concurrent use. Drive it from exactly one
// producer, typically a fixed-interval ticker goroutine.
type Sequencer struct {
	streamID  uint32
	sequence  uint16
	timestamp uint32

	codec      uint8
	channels   uint8
	sampleRate uint16
	volume     uint8
}

// NewSequencer creates a sequencer for a new logical stream with a
// fresh random stream identifier, sequence 0, timestamp 0 and the
// default volume.
func NewSequencer(codec, channels uint8, sampleRate uint16) *Sequencer {
	return &Sequencer{
		streamID:   rand.Uint32(),
		codec:      codec,
		channels:   channels,
		sampleRate: sampleRate,
		volume:     DefaultVolume,
	}
}

// StreamID returns the stream identifier shared by all packets this
// sequencer builds.
func (s *Sequencer) StreamID() uint32 { return s.streamID }

// Sequence returns the sequence number the next data packet will carry.
func (s *Sequencer) Sequence() uint16 { return s.sequence }

// Timestamp returns the timestamp the next data packet will carry.
func (s *Sequencer) Timestamp() uint32 { return s.timestamp }

// Volume returns the current volume setting.
func (s *Sequencer) Volume() uint8 { return s.volume }

// BuildDataPacket builds an audio data packet carrying payload at the
// current sequence/timestamp, then advances the sequence by one and the
// timestamp by sampleCount, wrapping at 2^16 and 2^32 respectively.
func (s *Sequencer) BuildDataPacket(payload []byte, sampleCount uint32) *AudioPacket {
	p := s.build(payload, false, 0)
	s.sequence = uint16((uint32(s.sequence) + 1) & 0xFFFF)
	s.timestamp = uint32((uint64(s.timestamp) + uint64(sampleCount)) & 0xFFFFFFFF)
	return p
}

// BuildSyncPacket builds a zero-payload control packet with the marker
// bit and sync flag set. It consumes one sequence number but does not
// advance the timestamp; receivers special-case it on the sync flag
// rather than treat it as audio.
func (s *Sequencer) BuildSyncPacket() *AudioPacket {
	p := s.build(nil, true, FlagSync)
	s.sequence = uint16((uint32(s.sequence) + 1) & 0xFFFF)
	return p
}

// BuildEndOfStreamPacket builds a zero-payload control packet with the
// marker bit and end-of-stream flag set. It advances nothing: the
// terminal marker is safe to resend.
func (s *Sequencer) BuildEndOfStreamPacket() *AudioPacket {
	return s.build(nil, true, FlagEndOfStream)
}

// SetVolume sets the volume carried by subsequently built packets,
// clamped to [0,100]. Already-built packets are unaffected.
func (s *Sequencer) SetVolume(v int) {
	switch {
	case v < 0:
		s.volume = 0
	case v > 100:
		s.volume = 100
	default:
		s.volume = uint8(v)
	}
}

// Reset zeroes the sequence and timestamp. The stream identifier is
// untouched: the same logical stream continues from a fresh base.
func (s *Sequencer) Reset() {
	s.sequence = 0
	s.timestamp = 0
}

func (s *Sequencer) build(payload []byte, marker bool, flags uint8) *AudioPacket {
	return &AudioPacket{
		Header: TransportHeader{
			Version:     ProtocolVersion,
			Extension:   true,
			Marker:      marker,
			PayloadType: s.codec & 0x7F,
			Sequence:    s.sequence,
			Timestamp:   s.timestamp,
			StreamID:    s.streamID,
		},
		Extension: ExtensionHeader{
			Codec:      s.codec,
			Channels:   s.channels,
			SampleRate: s.sampleRate,
			Volume:     s.volume,
			Flags:      flags,
		},
		Payload: payload,
	}
}
