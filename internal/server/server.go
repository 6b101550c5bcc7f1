package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/aircast/internal/discovery"
	"github.com/muurk/aircast/internal/logging"
	"github.com/muurk/aircast/internal/transport"
	"github.com/muurk/aircast/internal/version"
)

// Config holds the monitor configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. "127.0.0.1:8090"
	Addr string
}

// Monitor serves discovery and stream state over HTTP and WebSocket.
type Monitor struct {
	config   Config
	browser  *discovery.Browser
	receiver *transport.Receiver
	hub      *hub
	httpSrv  *http.Server
	listener net.Listener
	started  time.Time
}

// New creates a monitor. Either browser or receiver may be nil; the
// corresponding sections are omitted from /status.
func New(config Config, browser *discovery.Browser, receiver *transport.Receiver) *Monitor {
	m := &Monitor{
		config:   config,
		browser:  browser,
		receiver: receiver,
		hub:      newHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", m.handleStatus)
	mux.HandleFunc("/events", m.handleEvents)
	m.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return m
}

// Start binds the listen address and serves in the background.
func (m *Monitor) Start() error {
	listener, err := net.Listen("tcp", m.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind monitor address: %w", err)
	}
	m.listener = listener
	m.started = time.Now()

	go func() {
		if err := m.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Error("Monitor server stopped", zap.Error(err))
		}
	}()

	logging.Info("Monitor listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, useful when Config.Addr used port 0.
func (m *Monitor) Addr() string {
	if m.listener == nil {
		return m.config.Addr
	}
	return m.listener.Addr().String()
}

// HandleEvent relays a discovery event to connected WebSocket clients.
// Wire it to the browser with browser.OnEvent(m.HandleEvent).
func (m *Monitor) HandleEvent(ev discovery.Event) {
	payload := eventPayload{
		Event: ev.Kind.String(),
		Name:  ev.Name,
	}
	if ev.Device != nil {
		d := deviceJSON(*ev.Device)
		payload.Device = &d
	}
	if ev.Err != nil {
		payload.Error = ev.Err.Error()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	m.hub.broadcast(data)
}

// Shutdown stops serving and disconnects all WebSocket clients.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.hub.closeAll()
	return m.httpSrv.Shutdown(ctx)
}

type statusPayload struct {
	Version  string              `json:"version"`
	Uptime   string              `json:"uptime"`
	Scanning *bool               `json:"scanning,omitempty"`
	Devices  []devicePayload     `json:"devices,omitempty"`
	Stream   *transport.Snapshot `json:"stream,omitempty"`
}

type devicePayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Hostname    string   `json:"hostname"`
	Address     string   `json:"address"`
	Port        int      `json:"port"`
	Codecs      []string `json:"codecs,omitempty"`
	Channels    int      `json:"channels"`
	SampleRates []int    `json:"sample_rates,omitempty"`
	Features    []string `json:"features,omitempty"`
	LastSeen    string   `json:"last_seen"`
}

type eventPayload struct {
	Event  string         `json:"event"`
	Name   string         `json:"name,omitempty"`
	Device *devicePayload `json:"device,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func deviceJSON(d discovery.DeviceDescriptor) devicePayload {
	return devicePayload{
		ID:          d.ID,
		Name:        d.Name,
		Hostname:    d.Hostname,
		Address:     d.Address,
		Port:        d.Port,
		Codecs:      d.Codecs,
		Channels:    d.Channels,
		SampleRates: d.SampleRates,
		Features:    d.Features,
		LastSeen:    d.LastSeen.Format(time.RFC3339),
	}
}

func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload := statusPayload{
		Version: version.Full(),
		Uptime:  time.Since(m.started).Round(time.Second).String(),
	}

	if m.browser != nil {
		scanning := m.browser.Scanning()
		payload.Scanning = &scanning
		for _, d := range m.browser.Snapshot() {
			payload.Devices = append(payload.Devices, deviceJSON(d))
		}
	}
	if m.receiver != nil {
		stats := m.receiver.Stats()
		payload.Stream = &stats
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warn("Failed to write status response", zap.Error(err))
	}
}
