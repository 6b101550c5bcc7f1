package transport

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/muurk/aircast/internal/wire"
)

// collector gathers delivered packets behind a mutex so the test
// goroutine can poll them.
type collector struct {
	mu      sync.Mutex
	packets []*wire.AudioPacket
}

func (c *collector) add(p *wire.AudioPacket, _ net.Addr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packets = append(c.packets, p)
}

func (c *collector) snapshot() []*wire.AudioPacket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*wire.AudioPacket(nil), c.packets...)
}

func (c *collector) waitFor(t *testing.T, n int) []*wire.AudioPacket {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d packets, have %d", n, len(c.snapshot()))
	return nil
}

func newLoopback(t *testing.T) (*Sender, *Receiver, *collector) {
	t.Helper()

	recv, err := Listen(0)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { recv.Close() })

	col := &collector{}
	recv.OnPacket(col.add)
	recv.Start()

	seq := wire.NewSequencer(wire.CodecPCM, 2, 44100)
	sender, err := Dial(net.JoinHostPort("127.0.0.1", strconv.Itoa(recv.LocalPort())), seq)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { sender.Close() })

	return sender, recv, col
}

func TestLoopbackSendReceive(t *testing.T) {
	sender, recv, col := newLoopback(t)

	payload := []byte{0x10, 0x20, 0x30, 0x40}
	if err := sender.Send(sender.Sequencer().BuildDataPacket(payload, 352)); err != nil {
		t.Fatalf("send: %v", err)
	}

	got := col.waitFor(t, 1)
	p := got[0]
	if !bytes.Equal(p.Payload, payload) {
		t.Errorf("payload = %x, want %x", p.Payload, payload)
	}
	if p.Header.StreamID != sender.Sequencer().StreamID() {
		t.Errorf("ssrc = 0x%08x, want sender's 0x%08x", p.Header.StreamID, sender.Sequencer().StreamID())
	}

	if s := recv.Stats(); s.Packets != 1 {
		t.Errorf("receiver packets = %d, want 1", s.Packets)
	}
	if s := sender.Stats(); s.Packets != 1 || s.Bytes != uint64(wire.MinPacketSize+len(payload)) {
		t.Errorf("sender stats = %+v", s)
	}
}

func TestLoopbackDecodeErrorCounted(t *testing.T) {
	_, recv, col := newLoopback(t)

	// A raw datagram shorter than a packet must be dropped, not delivered.
	conn, err := net.Dial("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(recv.LocalPort())))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if recv.Stats().DecodeErrors >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if n := recv.Stats().DecodeErrors; n != 1 {
		t.Fatalf("decode errors = %d, want 1", n)
	}
	if got := col.snapshot(); len(got) != 0 {
		t.Errorf("undecodable datagram delivered: %v", got)
	}
}

func TestStreamSendsEndOfStream(t *testing.T) {
	sender, _, col := newLoopback(t)

	src := bytes.NewReader(make([]byte, 40)) // 4 chunks of 10
	err := sender.Stream(context.Background(), src, StreamOptions{
		ChunkSize:        10,
		SamplesPerPacket: 100,
		Interval:         time.Millisecond,
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	got := col.waitFor(t, 5)
	last := got[len(got)-1]
	if !last.EndOfStream() {
		t.Errorf("last packet flags = 0x%02x, want end-of-stream", last.Extension.Flags)
	}

	var data int
	for _, p := range got {
		if len(p.Payload) > 0 {
			data++
		}
	}
	if data != 4 {
		t.Errorf("data packets = %d, want 4", data)
	}
	// UDP on loopback does not reorder in practice; timestamps advance
	// by the per-packet sample count.
	if got[1].Header.Timestamp != 100 {
		t.Errorf("second packet ts = %d, want 100", got[1].Header.Timestamp)
	}
}

func TestStreamCancelled(t *testing.T) {
	sender, _, _ := newLoopback(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An endless source; only cancellation ends this stream.
	err := sender.Stream(ctx, endlessReader{}, StreamOptions{Interval: time.Millisecond})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type endlessReader struct{}

func (endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestReceiverCloseIdempotent(t *testing.T) {
	recv, err := Listen(0)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	recv.Start()

	if err := recv.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := recv.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
