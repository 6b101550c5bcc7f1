package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service constants for AirCast announcements.
const (
	// ServiceType is the mDNS service type receivers advertise under
	ServiceType = "_aircast._tcp"

	// ServiceDomain is the mDNS domain (always "local.")
	ServiceDomain = "local."

	// DefaultPort is the conventional AirCast data port
	DefaultPort = 7000
)

// DeviceDescriptor is a discovered AirCast receiver. It is created when
// resolution of an announcement completes and is only ever replaced
// whole, never mutated in place; consumers receive copies via
// Browser.Snapshot.
type DeviceDescriptor struct {
	// ID is the fully-qualified service instance name, opaque and
	// unique within the service type (e.g. "Living Room._aircast._tcp.local.")
	ID string

	// Name is the announcement instance name (e.g. "Living Room")
	Name string

	// Hostname is the resolved mDNS hostname (e.g. "living-room.local.")
	Hostname string

	// Address is the resolved network address in textual form,
	// IPv4 preferred, IPv6 fallback
	Address string

	// Port is the announced data port
	Port int

	// Codecs lists supported codec names from the capability record
	Codecs []string

	// Channels is the announced channel count (default 2)
	Channels int

	// SampleRates lists supported sample rates in Hz
	SampleRates []int

	// Features lists free-form feature tags (e.g. "sync", "eq")
	Features []string

	// Available reports whether the announcement was present at last contact
	Available bool

	// LastSeen is when resolution completed
	LastSeen time.Time
}

// String returns a human-readable one-line summary of the device.
func (d *DeviceDescriptor) String() string {
	return fmt.Sprintf("AirCast receiver %q at %s (%s)", d.Name, d.Addr(), d.Hostname)
}

// Addr returns the device's data endpoint as "host:port".
func (d *DeviceDescriptor) Addr() string {
	return net.JoinHostPort(d.Address, strconv.Itoa(d.Port))
}

// SupportsCodec reports whether the device announced the named codec.
func (d *DeviceDescriptor) SupportsCodec(name string) bool {
	for _, c := range d.Codecs {
		if c == name {
			return true
		}
	}
	return false
}

// SupportsSampleRate reports whether the device announced the given rate.
func (d *DeviceDescriptor) SupportsSampleRate(hz int) bool {
	for _, r := range d.SampleRates {
		if r == hz {
			return true
		}
	}
	return false
}
