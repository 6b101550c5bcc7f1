package discovery

import (
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/aircast/internal/logging"
)

// Advertiser publishes a receiver's presence and capability record
// under the AirCast service type on all local interfaces. Safe for
// concurrent use.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
	name   string
	record CapabilityRecord
}

// NewAdvertiser creates an advertiser that is not yet announcing.
func NewAdvertiser() *Advertiser {
	return &Advertiser{}
}

// Start publishes an announcement for name on port, attaching record as
// TXT metadata. A "txtvers=1" entry is injected when the record lacks
// one. Calling Start while already advertising tears down the previous
// announcement first. Publish failure is returned to the caller and is
// not retried.
func (a *Advertiser) Start(name string, port int, record CapabilityRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	txt := injectTxtVers(record)

	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, txt.Strings(), nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS announcement: %w", err)
	}

	a.server = server
	a.name = name
	a.record = txt

	logging.Info("Announcement published",
		zap.String("name", name),
		zap.Int("port", port),
		zap.Strings("txt", txt.Strings()),
	)
	return nil
}

// injectTxtVers copies record and adds a txtvers entry when absent.
func injectTxtVers(record CapabilityRecord) CapabilityRecord {
	txt := make(CapabilityRecord, len(record)+1)
	for k, v := range record {
		txt[k] = v
	}
	if _, ok := txt[KeyTxtVers]; !ok {
		txt[KeyTxtVers] = []string{TxtVersion}
	}
	return txt
}

// Stop withdraws the announcement. Calling Stop when not advertising is
// a no-op; the withdrawal is complete when Stop returns.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil

	logging.Info("Announcement withdrawn", zap.String("name", a.name))
}

// Advertising reports whether an announcement is currently published.
func (a *Advertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// Record returns the last-published capability record, including the
// injected txtvers entry, or nil when Start has never succeeded.
func (a *Advertiser) Record() CapabilityRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record
}
