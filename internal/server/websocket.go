package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/aircast/internal/logging"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Per-client outbound queue; a client further behind is dropped
	clientQueueSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// LAN diagnostic surface; any origin on the segment may watch
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans event frames out to connected WebSocket clients.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) add(conn *websocket.Conn) chan []byte {
	send := make(chan []byte, clientQueueSize)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	return send
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
}

// broadcast queues data for every client. A client whose queue is full
// is disconnected; the event stream never blocks on a slow reader.
func (h *hub) broadcast(data []byte) {
	h.mu.Lock()
	var stalled []*websocket.Conn
	for conn, send := range h.clients {
		select {
		case send <- data:
		default:
			stalled = append(stalled, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range stalled {
		logging.Warn("Dropping stalled event client",
			zap.String("remote_addr", conn.RemoteAddr().String()),
		)
		h.remove(conn)
		_ = conn.Close()
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.remove(conn)
		_ = conn.Close()
	}
}

// handleEvents upgrades the connection and streams discovery events to
// it until the client goes away or the monitor shuts down.
func (m *Monitor) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	remoteAddr := conn.RemoteAddr().String()
	logging.Info("Event client connected", zap.String("remote_addr", remoteAddr))

	send := m.hub.add(conn)

	// Reader: we expect nothing from clients, but reading detects close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				m.hub.remove(conn)
				_ = conn.Close()
				return
			}
		}
	}()

	// Writer loop.
	go func() {
		defer func() {
			logging.Info("Event client disconnected", zap.String("remote_addr", remoteAddr))
		}()
		for data := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				m.hub.remove(conn)
				_ = conn.Close()
				return
			}
		}
		// Queue closed by remove/closeAll; say goodbye politely.
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}()
}
