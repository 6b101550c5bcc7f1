// Package wire implements the AirCast audio packet framing format.
//
// Every packet on the wire is a 12-byte transport header (RTP-shaped,
// per RFC 3550) followed by an 8-byte extension header describing the
// audio capabilities of the stream, followed by an opaque payload:
//
//	Transport header (12 bytes):
//	  byte0: version[2] pad[1] ext[1] rsvcount[4]
//	  byte1: marker[1] payloadType[7]
//	  bytes2-3:  sequence (u16, big-endian)
//	  bytes4-7:  timestamp (u32, big-endian)
//	  bytes8-11: streamId (u32, big-endian)
//	Extension header (8 bytes):
//	  byte0: codecId (96=PCM, 97=AAC, 98=ALAC)
//	  byte1: channels
//	  bytes2-3: sampleRate (u16, big-endian)
//	  byte4: volume (0-100)
//	  byte5: flags (bit0=sync, bit1=keyFrame, bit2=endOfStream)
//	  bytes6-7: reserved (u16, pass-through)
//	payload: remaining bytes
//
// The minimum valid packet is 20 bytes: sync and end-of-stream control
// packets carry no payload. There is no length prefix; framing
// boundaries come from the datagram transport.
//
// The Sequencer builds a monotonically ordered packet stream under a
// single random stream identifier. It is not safe for concurrent use;
// drive it from exactly one producer goroutine.
package wire
