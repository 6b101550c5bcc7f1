package config

import "time"

// Registry represents the entire user configuration file.
// This stores metadata for known receivers and application preferences.
type Registry struct {
	Version     int                  `yaml:"version"`
	Receivers   map[string]*Receiver `yaml:"receivers,omitempty"` // Keyed by announcement name
	Preferences *Preferences         `yaml:"preferences,omitempty"`
}

// Receiver represents cached metadata for a single AirCast receiver.
// This is keyed by the receiver's announcement name in the Registry.
type Receiver struct {
	Nickname    string    `yaml:"nickname,omitempty"`     // User-friendly name
	LastAddress string    `yaml:"last_address,omitempty"` // Last resolved address
	LastPort    int       `yaml:"last_port,omitempty"`    // Last announced data port
	LastSeen    time.Time `yaml:"last_seen,omitempty"`    // Last discovery time
	Codecs      []string  `yaml:"codecs,omitempty"`       // Last announced codec list
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover   bool   `yaml:"auto_discover"`             // Scan automatically when no target given
	ScanTimeout    int    `yaml:"scan_timeout"`              // Discovery scan window in seconds
	DefaultPort    int    `yaml:"default_port"`              // Data port used when an announcement omits one
	PreferredCodec string `yaml:"preferred_codec,omitempty"` // Codec picked when a receiver offers several
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:   1,
		Receivers: make(map[string]*Receiver),
		Preferences: &Preferences{
			AutoDiscover:   true,
			ScanTimeout:    10,
			DefaultPort:    7000,
			PreferredCodec: "AAC",
		},
	}
}

// GetReceiver retrieves receiver metadata by announcement name.
// Returns nil if the receiver doesn't exist in the registry.
func (r *Registry) GetReceiver(name string) *Receiver {
	return r.Receivers[name]
}

// EnsureReceiver ensures a receiver entry exists in the registry.
// If it doesn't exist, creates a new entry with default values.
// Returns the entry (existing or newly created).
func (r *Registry) EnsureReceiver(name string) *Receiver {
	if r.Receivers == nil {
		r.Receivers = make(map[string]*Receiver)
	}
	if rcv, ok := r.Receivers[name]; ok {
		return rcv
	}
	rcv := &Receiver{}
	r.Receivers[name] = rcv
	return rcv
}

// UpdateReceiverLastSeen records where and when a receiver was last
// discovered.
func (r *Registry) UpdateReceiverLastSeen(name, address string, port int) {
	rcv := r.EnsureReceiver(name)
	rcv.LastAddress = address
	rcv.LastPort = port
	rcv.LastSeen = time.Now()
}

// RemoveReceiver deletes a receiver entry by announcement name.
// Returns true if an entry was removed.
func (r *Registry) RemoveReceiver(name string) bool {
	if _, ok := r.Receivers[name]; !ok {
		return false
	}
	delete(r.Receivers, name)
	return true
}
