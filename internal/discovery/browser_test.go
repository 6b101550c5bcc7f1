package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

// testEntry builds a browse answer that already carries address records,
// so resolution completes without touching the network.
func testEntry(name, ip string, txt ...string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(name, ServiceType, ServiceDomain)
	entry.HostName = name + ".local."
	entry.Port = DefaultPort
	entry.TTL = 120
	entry.Text = txt
	entry.AddrIPv4 = []net.IP{net.ParseIP(ip)}
	return entry
}

// drive feeds a found message through the browser's event handler and
// then handles the resolution outcome the resolver goroutine reports.
func drive(t *testing.T, b *Browser, msgs chan browseMsg, entry *zeroconf.ServiceEntry) {
	t.Helper()
	ctx := context.Background()

	b.handle(ctx, browseMsg{kind: EventFound, name: entry.Instance, entry: entry}, msgs)

	select {
	case msg := <-msgs:
		b.handle(ctx, msg, msgs)
	case <-time.After(2 * time.Second):
		t.Fatalf("no resolution outcome for %q", entry.Instance)
	}
}

func TestBrowserResolvesAnnouncement(t *testing.T) {
	b := NewBrowser()
	msgs := make(chan browseMsg, 4)

	drive(t, b, msgs, testEntry("Living Room", "192.168.1.20",
		"txtvers=1", "codecs=AAC,PCM", "channels=2", "samplerate=44100,48000", "features=sync,eq"))

	devices := b.Snapshot()
	if len(devices) != 1 {
		t.Fatalf("discovered %d devices, want 1", len(devices))
	}

	d := devices[0]
	if d.Name != "Living Room" {
		t.Errorf("name = %q, want %q", d.Name, "Living Room")
	}
	if d.Address != "192.168.1.20" {
		t.Errorf("address = %q, want 192.168.1.20", d.Address)
	}
	if d.Port != DefaultPort {
		t.Errorf("port = %d, want %d", d.Port, DefaultPort)
	}
	if !d.SupportsCodec("AAC") || !d.SupportsCodec("PCM") {
		t.Errorf("codecs = %v, want AAC and PCM", d.Codecs)
	}
	if d.Channels != 2 {
		t.Errorf("channels = %d, want 2", d.Channels)
	}
	if !d.SupportsSampleRate(44100) || !d.SupportsSampleRate(48000) {
		t.Errorf("sample rates = %v, want 44100 and 48000", d.SampleRates)
	}
	if !d.Available {
		t.Error("resolved device not marked available")
	}
	if len(b.resolving) != 0 {
		t.Errorf("in-flight tracking not cleared: %v", b.resolving)
	}
}

func TestBrowserDedupByName(t *testing.T) {
	b := NewBrowser()
	msgs := make(chan browseMsg, 4)

	drive(t, b, msgs, testEntry("Kitchen", "192.168.1.20"))
	drive(t, b, msgs, testEntry("Kitchen", "192.168.1.99"))

	devices := b.Snapshot()
	if len(devices) != 1 {
		t.Fatalf("discovered %d devices, want 1 (dedup by name)", len(devices))
	}
	// First seen wins; the later announcement is dropped, not merged.
	if devices[0].Address != "192.168.1.20" {
		t.Errorf("address = %q, want first-seen 192.168.1.20", devices[0].Address)
	}
}

func TestBrowserDiscoveryOrder(t *testing.T) {
	b := NewBrowser()
	msgs := make(chan browseMsg, 4)

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		drive(t, b, msgs, testEntry(name, "192.168.1.20"))
	}

	devices := b.Snapshot()
	if len(devices) != 3 {
		t.Fatalf("discovered %d devices, want 3", len(devices))
	}
	for i, want := range []string{"Alpha", "Bravo", "Charlie"} {
		if devices[i].Name != want {
			t.Errorf("devices[%d] = %q, want %q (insertion order)", i, devices[i].Name, want)
		}
	}
}

func TestBrowserRemoval(t *testing.T) {
	b := NewBrowser()
	msgs := make(chan browseMsg, 4)
	ctx := context.Background()

	drive(t, b, msgs, testEntry("Bedroom", "192.168.1.30"))
	drive(t, b, msgs, testEntry("Office", "192.168.1.31"))

	b.handle(ctx, browseMsg{kind: EventRemoved, name: "Bedroom"}, msgs)

	devices := b.Snapshot()
	if len(devices) != 1 || devices[0].Name != "Office" {
		t.Fatalf("after removal devices = %v, want just Office", devices)
	}
	if _, inflight := b.resolving["Bedroom"]; inflight {
		t.Error("removal left in-flight resolution tracking behind")
	}
}

func TestBrowserExpiryRemovesSilentDevice(t *testing.T) {
	b := NewBrowser()
	var removed []string
	b.OnEvent(func(ev Event) {
		if ev.Kind == EventRemoved {
			removed = append(removed, ev.Name)
		}
	})

	msgs := make(chan browseMsg, 4)
	drive(t, b, msgs, testEntry("Attic", "192.168.1.90"))

	deadline, tracked := b.expires["Attic"]
	if !tracked {
		t.Fatal("resolved device has no age-out deadline")
	}

	// Device answers nothing after this; a sweep past its deadline drops it.
	b.expire(deadline.Add(time.Second))

	if n := len(b.Snapshot()); n != 0 {
		t.Errorf("discovered %d devices, want 0 after expiry", n)
	}
	if len(removed) != 1 || removed[0] != "Attic" {
		t.Errorf("removed events = %v, want [Attic]", removed)
	}
	if _, tracked := b.expires["Attic"]; tracked {
		t.Error("expiry left the lifetime entry behind")
	}
}

func TestBrowserReannouncementRenewsLifetime(t *testing.T) {
	b := NewBrowser()
	msgs := make(chan browseMsg, 4)

	drive(t, b, msgs, testEntry("Porch", "192.168.1.91"))

	// Simulate the deadline lapsing, then a query pass seeing the
	// announcement again just before the sweep runs.
	b.expires["Porch"] = time.Now().Add(-time.Minute)
	drive(t, b, msgs, testEntry("Porch", "192.168.1.91"))

	b.expire(time.Now())

	devices := b.Snapshot()
	if len(devices) != 1 || devices[0].Name != "Porch" {
		t.Fatalf("after renewal devices = %v, want just Porch", devices)
	}
}

func TestBrowserDeadlineHonorsAnnouncedTTL(t *testing.T) {
	b := NewBrowser()

	if d := time.Until(b.deadlineFor(1)); d > 2*time.Second {
		t.Errorf("deadline for TTL 1 is %v away, want about 1s", d)
	}
	if d := time.Until(b.deadlineFor(3600)); d > b.entryLifetime {
		t.Errorf("deadline for TTL 3600 is %v away, want capped at %v", d, b.entryLifetime)
	}
	if d := time.Until(b.deadlineFor(0)); d < b.entryLifetime-time.Second {
		t.Errorf("deadline for TTL 0 is %v away, want the default lifetime %v", d, b.entryLifetime)
	}
}

func TestBrowserRemovedWhileResolving(t *testing.T) {
	b := NewBrowser()
	msgs := make(chan browseMsg, 4)
	ctx := context.Background()

	// Announcement goes away mid-resolution: the late outcome must be dropped.
	b.resolving["Ghost"] = struct{}{}
	b.handle(ctx, browseMsg{kind: EventRemoved, name: "Ghost"}, msgs)

	dev := descriptorFromEntry(testEntry("Ghost", "192.168.1.40"))
	b.handle(ctx, browseMsg{kind: EventResolved, name: "Ghost", device: dev}, msgs)

	if n := len(b.Snapshot()); n != 0 {
		t.Errorf("discovered %d devices, want 0 after removed-while-resolving", n)
	}
}

func TestBrowserResolveFailureClearsTracking(t *testing.T) {
	b := NewBrowser()
	msgs := make(chan browseMsg, 4)
	ctx := context.Background()

	b.resolving["Flaky"] = struct{}{}
	b.handle(ctx, browseMsg{kind: EventResolveFailed, name: "Flaky", err: context.DeadlineExceeded}, msgs)

	if _, inflight := b.resolving["Flaky"]; inflight {
		t.Error("failed resolution left in-flight tracking behind")
	}
	if n := len(b.Snapshot()); n != 0 {
		t.Errorf("discovered %d devices, want 0 after failure", n)
	}
}

func TestBrowserResolveTimeoutClassified(t *testing.T) {
	b := NewBrowser()
	b.resolveTimeout = time.Nanosecond

	// No address records, so resolution has to go out to the network
	// and the already-expired budget cuts it off.
	entry := zeroconf.NewServiceEntry("Slow", ServiceType, ServiceDomain)
	msgs := make(chan browseMsg, 4)

	b.resolve(context.Background(), entry, msgs)

	select {
	case msg := <-msgs:
		if msg.kind != EventResolveTimedOut {
			t.Errorf("outcome kind = %v, want %v", msg.kind, EventResolveTimedOut)
		}
		if !errors.Is(msg.err, context.DeadlineExceeded) {
			t.Errorf("outcome err = %v, want DeadlineExceeded", msg.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no resolution outcome reported")
	}
}

func TestBrowserEvents(t *testing.T) {
	b := NewBrowser()
	var kinds []EventKind
	b.OnEvent(func(ev Event) { kinds = append(kinds, ev.Kind) })

	msgs := make(chan browseMsg, 4)
	ctx := context.Background()

	drive(t, b, msgs, testEntry("Den", "192.168.1.50"))
	b.handle(ctx, browseMsg{kind: EventRemoved, name: "Den"}, msgs)

	want := []EventKind{EventFound, EventResolved, EventRemoved}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("events[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestBrowserDuplicateResolutionSilent(t *testing.T) {
	b := NewBrowser()
	var resolved int
	b.OnEvent(func(ev Event) {
		if ev.Kind == EventResolved {
			resolved++
		}
	})

	msgs := make(chan browseMsg, 4)
	drive(t, b, msgs, testEntry("Hall", "192.168.1.60"))
	drive(t, b, msgs, testEntry("Hall", "192.168.1.61"))

	if resolved != 1 {
		t.Errorf("resolved events = %d, want 1 (duplicate dropped silently)", resolved)
	}
}

func TestBrowserStopIdempotent(t *testing.T) {
	b := NewBrowser()

	// Safe before Start and redundantly after.
	b.Stop()
	b.Stop()

	if b.Scanning() {
		t.Error("Scanning() = true on an idle browser")
	}
}

func TestDescriptorFromEntryAddressPreference(t *testing.T) {
	entry := zeroconf.NewServiceEntry("Dual", ServiceType, ServiceDomain)
	entry.Port = 7000
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.70")}
	entry.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}

	if d := descriptorFromEntry(entry); d.Address != "192.168.1.70" {
		t.Errorf("address = %q, want IPv4 preferred", d.Address)
	}

	entry.AddrIPv4 = nil
	if d := descriptorFromEntry(entry); d.Address != "fe80::1" {
		t.Errorf("address = %q, want IPv6 fallback", d.Address)
	}

	entry.AddrIPv6 = nil
	if d := descriptorFromEntry(entry); d != nil {
		t.Errorf("descriptor = %v, want nil with no addresses", d)
	}
}

func TestDescriptorFromEntryDefaultPort(t *testing.T) {
	entry := zeroconf.NewServiceEntry("NoPort", ServiceType, ServiceDomain)
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.80")}

	if d := descriptorFromEntry(entry); d.Port != DefaultPort {
		t.Errorf("port = %d, want default %d", d.Port, DefaultPort)
	}
}
