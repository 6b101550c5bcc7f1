package transport

import "sync/atomic"

// Counters tracks transfer totals. All fields are updated atomically
// and may be read from any goroutine via Snapshot.
type Counters struct {
	packets      atomic.Uint64
	bytes        atomic.Uint64
	decodeErrors atomic.Uint64
}

// Snapshot is a point-in-time copy of transfer counters.
type Snapshot struct {
	Packets      uint64 `json:"packets"`
	Bytes        uint64 `json:"bytes"`
	DecodeErrors uint64 `json:"decode_errors,omitempty"`
}

func (c *Counters) addPacket(n int) {
	c.packets.Add(1)
	c.bytes.Add(uint64(n))
}

func (c *Counters) addDecodeError() {
	c.decodeErrors.Add(1)
}

// Snapshot returns a consistent-enough copy for display purposes.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Packets:      c.packets.Load(),
		Bytes:        c.bytes.Load(),
		DecodeErrors: c.decodeErrors.Load(),
	}
}
