// Package discovery implements mDNS announcement and browsing for
// AirCast receivers.
//
// Receivers advertise themselves under the "_aircast._tcp" service type
// in the "local." domain, attaching a capability record (TXT key/value
// metadata) describing supported codecs, channel count, sample rates
// and feature tags. Senders browse for those announcements, resolve
// each one to a hostname, routable address and port, and parse the
// capability record into a DeviceDescriptor.
//
// # Advertiser
//
//	adv := discovery.NewAdvertiser()
//	err := adv.Start("Living Room", 7000, discovery.CapabilityRecord{
//	    "codecs":     {"AAC", "PCM"},
//	    "samplerate": {"44100", "48000"},
//	})
//	defer adv.Stop()
//
// # Browser
//
// The browser is event-driven: a single goroutine owns all discovery
// state and consumes found/removed/resolved events, so consumers only
// ever observe it through thread-safe snapshots:
//
//	b := discovery.NewBrowser()
//	if err := b.Start(); err != nil { ... }
//	time.Sleep(5 * time.Second)
//	for _, d := range b.Snapshot() {
//	    fmt.Println(d)
//	}
//	b.Stop()
//
// Discovered devices are deduplicated by announcement name, first seen
// wins: a later announcement under an already-known name is dropped,
// not merged. A device that changes address while keeping its name is
// therefore not refreshed until its announcement is removed and
// rediscovered. Resolution and removal are likewise keyed by name, so
// two physical devices announcing the same instance name are conflated.
//
// # Network requirements
//
// Multicast support on the interface, devices on the same network
// segment, UDP port 5353 open for mDNS.
package discovery
