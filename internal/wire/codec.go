package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Protocol constants
const (
	// ProtocolVersion is the transport header version; always 2 on encode
	ProtocolVersion = 2

	// TransportHeaderSize is the fixed size of the transport header
	TransportHeaderSize = 12

	// ExtensionHeaderSize is the fixed size of the extension header
	ExtensionHeaderSize = 8

	// MinPacketSize is the smallest valid packet (zero payload)
	MinPacketSize = TransportHeaderSize + ExtensionHeaderSize

	// DefaultVolume is the volume carried when the sender never set one
	DefaultVolume = 83
)

// Codec identifiers carried in extension header byte 0
const (
	CodecPCM  = 96
	CodecAAC  = 97
	CodecALAC = 98
)

// Extension header flag bits (byte 5)
const (
	FlagSync        = 1 << 0 // out-of-band sync marker
	FlagKeyFrame    = 1 << 1
	FlagEndOfStream = 1 << 2
)

// Decode failures. Both are local and non-fatal: the caller drops the
// buffer and moves on. Decode is all-or-nothing per structure; no
// partially-populated value is ever returned alongside an error.
var (
	// ErrTooShort indicates the buffer is smaller than the structure being decoded
	ErrTooShort = errors.New("buffer too short")

	// ErrUnknownCodec indicates an extension header codec id outside {96,97,98}
	ErrUnknownCodec = errors.New("unknown codec id")
)

// TransportHeader is the 12-byte framing header carried by every packet.
// The layout mirrors RTP (RFC 3550) so the extension stays self-describing
// and independently decodable.
type TransportHeader struct {
	Version       uint8  // 2 bits, always ProtocolVersion on encode
	Padding       bool
	Extension     bool
	ReservedCount uint8  // 4 bits (CSRC count field in RTP terms, unused here)
	Marker        bool
	PayloadType   uint8  // 7 bits
	Sequence      uint16
	Timestamp     uint32
	StreamID      uint32 // SSRC
}

// ExtensionHeader is the 8-byte capability header following the
// transport header in every packet.
type ExtensionHeader struct {
	Codec      uint8  // CodecPCM, CodecAAC or CodecALAC
	Channels   uint8
	SampleRate uint16 // Hz
	Volume     uint8  // 0-100
	Flags      uint8  // FlagSync | FlagKeyFrame | FlagEndOfStream
	Reserved   uint16 // pass-through, round-trips unchanged
}

// AudioPacket is a complete framed packet: transport header, extension
// header and opaque payload. Immutable once constructed.
type AudioPacket struct {
	Header    TransportHeader
	Extension ExtensionHeader
	Payload   []byte
}

// EndOfStream reports whether the end-of-stream flag bit is set.
func (p *AudioPacket) EndOfStream() bool {
	return p.Extension.Flags&FlagEndOfStream != 0
}

// Sync reports whether the sync flag bit is set.
func (p *AudioPacket) Sync() bool {
	return p.Extension.Flags&FlagSync != 0
}

// Size returns the encoded size of the packet in bytes.
func (p *AudioPacket) Size() int {
	return MinPacketSize + len(p.Payload)
}

func (p *AudioPacket) String() string {
	return fmt.Sprintf("AudioPacket{seq=%d, ts=%d, ssrc=0x%08x, codec=%d, flags=0x%02x, payload=%d}",
		p.Header.Sequence, p.Header.Timestamp, p.Header.StreamID,
		p.Extension.Codec, p.Extension.Flags, len(p.Payload))
}

// EncodeTransportHeader packs a transport header into its 12-byte wire
// form. The version bits are always written as ProtocolVersion; the
// sub-byte fields are masked to their declared widths.
func EncodeTransportHeader(h TransportHeader) []byte {
	buf := make([]byte, TransportHeaderSize)

	buf[0] = ProtocolVersion << 6
	if h.Padding {
		buf[0] |= 1 << 5
	}
	if h.Extension {
		buf[0] |= 1 << 4
	}
	buf[0] |= h.ReservedCount & 0x0F

	buf[1] = h.PayloadType & 0x7F
	if h.Marker {
		buf[1] |= 1 << 7
	}

	binary.BigEndian.PutUint16(buf[2:4], h.Sequence)
	binary.BigEndian.PutUint32(buf[4:8], h.Timestamp)
	binary.BigEndian.PutUint32(buf[8:12], h.StreamID)

	return buf
}

// DecodeTransportHeader parses the first 12 bytes of buf as a transport
// header. Decoding is permissive: out-of-range version or payload-type
// values are preserved as-is, never rejected. The only failure is
// ErrTooShort.
func DecodeTransportHeader(buf []byte) (TransportHeader, error) {
	if len(buf) < TransportHeaderSize {
		return TransportHeader{}, fmt.Errorf("transport header: %w: %d bytes (need %d)",
			ErrTooShort, len(buf), TransportHeaderSize)
	}

	return TransportHeader{
		Version:       buf[0] >> 6,
		Padding:       buf[0]&(1<<5) != 0,
		Extension:     buf[0]&(1<<4) != 0,
		ReservedCount: buf[0] & 0x0F,
		Marker:        buf[1]&(1<<7) != 0,
		PayloadType:   buf[1] & 0x7F,
		Sequence:      binary.BigEndian.Uint16(buf[2:4]),
		Timestamp:     binary.BigEndian.Uint32(buf[4:8]),
		StreamID:      binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

// EncodeExtensionHeader packs an extension header into its 8-byte wire form.
func EncodeExtensionHeader(e ExtensionHeader) []byte {
	buf := make([]byte, ExtensionHeaderSize)

	buf[0] = e.Codec
	buf[1] = e.Channels
	binary.BigEndian.PutUint16(buf[2:4], e.SampleRate)
	buf[4] = e.Volume
	buf[5] = e.Flags
	binary.BigEndian.PutUint16(buf[6:8], e.Reserved)

	return buf
}

// DecodeExtensionHeader parses the first 8 bytes of buf as an extension
// header. Fails with ErrTooShort when buf is shorter than 8 bytes and
// with ErrUnknownCodec when byte 0 is not one of the known codec ids.
func DecodeExtensionHeader(buf []byte) (ExtensionHeader, error) {
	if len(buf) < ExtensionHeaderSize {
		return ExtensionHeader{}, fmt.Errorf("extension header: %w: %d bytes (need %d)",
			ErrTooShort, len(buf), ExtensionHeaderSize)
	}

	switch buf[0] {
	case CodecPCM, CodecAAC, CodecALAC:
	default:
		return ExtensionHeader{}, fmt.Errorf("extension header: %w: 0x%02x", ErrUnknownCodec, buf[0])
	}

	return ExtensionHeader{
		Codec:      buf[0],
		Channels:   buf[1],
		SampleRate: binary.BigEndian.Uint16(buf[2:4]),
		Volume:     buf[4],
		Flags:      buf[5],
		Reserved:   binary.BigEndian.Uint16(buf[6:8]),
	}, nil
}

// EncodePacket serializes a complete packet: transport header, extension
// header, payload. No length prefix is written; the datagram transport
// supplies framing boundaries.
func EncodePacket(p *AudioPacket) []byte {
	buf := make([]byte, 0, p.Size())
	buf = append(buf, EncodeTransportHeader(p.Header)...)
	buf = append(buf, EncodeExtensionHeader(p.Extension)...)
	buf = append(buf, p.Payload...)
	return buf
}

// DecodePacket parses a complete packet from buf. Everything after the
// two headers is payload, verbatim; a zero-length payload is legal and
// used by control packets.
func DecodePacket(buf []byte) (*AudioPacket, error) {
	if len(buf) < MinPacketSize {
		return nil, fmt.Errorf("packet: %w: %d bytes (need %d)", ErrTooShort, len(buf), MinPacketSize)
	}

	header, err := DecodeTransportHeader(buf[:TransportHeaderSize])
	if err != nil {
		return nil, err
	}

	ext, err := DecodeExtensionHeader(buf[TransportHeaderSize:MinPacketSize])
	if err != nil {
		return nil, err
	}

	var payload []byte
	if len(buf) > MinPacketSize {
		payload = make([]byte, len(buf)-MinPacketSize)
		copy(payload, buf[MinPacketSize:])
	}

	return &AudioPacket{Header: header, Extension: ext, Payload: payload}, nil
}

// CodecName returns the display name for a codec id.
func CodecName(codec uint8) string {
	switch codec {
	case CodecPCM:
		return "PCM"
	case CodecAAC:
		return "AAC"
	case CodecALAC:
		return "ALAC"
	default:
		return fmt.Sprintf("unknown(%d)", codec)
	}
}
