package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/aircast/internal/logging"
	"github.com/muurk/aircast/internal/wire"
)

// maxDatagramSize bounds a single read; comfortably above any packet
// that survives a LAN MTU.
const maxDatagramSize = 65535

// Receiver reads datagrams from a local port, decodes each one as an
// audio packet and hands it to the packet callback. Decode failures are
// counted and dropped; the stream carries on. Callbacks run on the
// receiver's read goroutine.
type Receiver struct {
	conn  *net.UDPConn
	stats Counters

	onPacket func(p *wire.AudioPacket, from net.Addr)
	onError  func(err error)

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Listen opens the local data port. Callbacks must be registered
// before Start.
func Listen(port int) (*Receiver, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on data port: %w", err)
	}
	return &Receiver{conn: conn}, nil
}

// OnPacket registers the decoded-packet callback.
func (r *Receiver) OnPacket(fn func(p *wire.AudioPacket, from net.Addr)) {
	r.onPacket = fn
}

// OnError registers the read-error callback. Decode errors are not
// reported here; they are counted in Stats.
func (r *Receiver) OnError(fn func(err error)) {
	r.onError = fn
}

// LocalPort returns the bound port, useful when listening on port 0.
func (r *Receiver) LocalPort() int {
	return r.conn.LocalAddr().(*net.UDPAddr).Port
}

// Stats returns transfer totals so far.
func (r *Receiver) Stats() Snapshot { return r.stats.Snapshot() }

// Start launches the read loop.
func (r *Receiver) Start() {
	r.wg.Add(1)
	go r.readLoop()
}

func (r *Receiver) readLoop() {
	defer r.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if r.onError != nil {
				r.onError(err)
			}
			continue
		}

		pkt, err := wire.DecodePacket(buf[:n])
		if err != nil {
			r.stats.addDecodeError()
			logging.Warn("Dropping undecodable datagram",
				zap.String("from", from.String()),
				zap.Int("length", n),
				zap.Error(err),
			)
			continue
		}

		r.stats.addPacket(n)
		logging.LogPacket("received", pkt)

		if pkt.EndOfStream() {
			logging.LogStream("ended", pkt.Header.StreamID, from.String())
		}

		if r.onPacket != nil {
			r.onPacket(pkt, from)
		}
	}
}

// Close releases the socket and waits for the read loop to exit; no
// callback is invoked after Close returns. Safe to call repeatedly.
func (r *Receiver) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.conn.Close()
		r.wg.Wait()
	})
	return err
}
