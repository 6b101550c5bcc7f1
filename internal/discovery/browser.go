package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/aircast/internal/logging"
)

const (
	// defaultResolveTimeout bounds resolution of a single announcement.
	defaultResolveTimeout = 5 * time.Second

	// defaultRebrowseInterval is how often the browser issues a fresh
	// query pass. The mDNS client delivers each announcement to a given
	// browse call at most once and swallows goodbye records entirely, so
	// liveness has to come from re-querying: every pass redelivers the
	// announcements still on the network.
	defaultRebrowseInterval = 30 * time.Second

	// defaultEntryLifetime is how long a discovered entry survives
	// without being seen by a query pass before it is aged out. Three
	// passes of grace tolerates lost responses.
	defaultEntryLifetime = 3 * defaultRebrowseInterval

	// defaultSweepInterval is how often expired entries are collected.
	defaultSweepInterval = 10 * time.Second
)

// EventKind identifies a browser event.
type EventKind int

const (
	// EventFound: an announcement appeared and resolution began
	EventFound EventKind = iota
	// EventRemoved: an announcement disappeared
	EventRemoved
	// EventResolved: resolution completed and a descriptor was built
	EventResolved
	// EventResolveFailed: resolution failed; the announcement is dropped
	EventResolveFailed
	// EventResolveTimedOut: resolution exceeded the timeout
	EventResolveTimedOut
	// EventSearchFailed: the underlying listen operation itself failed
	EventSearchFailed
)

func (k EventKind) String() string {
	switch k {
	case EventFound:
		return "found"
	case EventRemoved:
		return "removed"
	case EventResolved:
		return "resolved"
	case EventResolveFailed:
		return "resolve_failed"
	case EventResolveTimedOut:
		return "resolve_timeout"
	case EventSearchFailed:
		return "search_failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Event is a discovery state change delivered to the browser's observer.
// Device is set on EventResolved, Err on the failure kinds.
type Event struct {
	Kind   EventKind
	Name   string
	Device *DeviceDescriptor
	Err    error
}

// browseMsg is the actor mailbox message; it carries the raw service
// entry on found so resolution can start from it.
type browseMsg struct {
	kind   EventKind
	name   string
	entry  *zeroconf.ServiceEntry
	device *DeviceDescriptor
	err    error
}

// Browser finds AirCast announcements, resolves each to an endpoint and
// capability set, and maintains a deduplicated, order-preserving list
// of discovered devices.
//
// All discovery state is owned by a single event-handling goroutine;
// other goroutines observe it only through Snapshot and Scanning, which
// are safe for concurrent use. Devices are deduplicated by announcement
// name, first seen wins.
//
// Removal is age-based: goodbye records never reach this layer, so the
// browser re-queries the network on an interval and drops any device
// that stops answering for longer than its lifetime.
type Browser struct {
	mu       sync.Mutex
	scanning bool
	devices  []*DeviceDescriptor
	byName   map[string]*DeviceDescriptor

	// per-scan lifecycle, guarded by mu
	cancel context.CancelFunc
	exited chan struct{}

	// resolving tracks in-flight resolutions by announcement name;
	// expires holds each announcement's age-out deadline, refreshed
	// whenever a query pass sees it again. Both are touched only by the
	// event goroutine (and by Start/Stop while it is not running).
	resolving map[string]struct{}
	expires   map[string]time.Time

	onEvent          func(Event)
	resolveTimeout   time.Duration
	rebrowseInterval time.Duration
	sweepInterval    time.Duration
	entryLifetime    time.Duration
}

// NewBrowser creates a browser in the idle state.
func NewBrowser() *Browser {
	return &Browser{
		byName:           make(map[string]*DeviceDescriptor),
		resolving:        make(map[string]struct{}),
		expires:          make(map[string]time.Time),
		resolveTimeout:   defaultResolveTimeout,
		rebrowseInterval: defaultRebrowseInterval,
		sweepInterval:    defaultSweepInterval,
		entryLifetime:    defaultEntryLifetime,
	}
}

// OnEvent registers an observer for discovery events. The callback runs
// on the browser's event goroutine: keep it short and do not call
// Stop or Refresh from it. Must be set before Start.
func (b *Browser) OnEvent(fn func(Event)) {
	b.onEvent = fn
}

// Start begins listening for AirCast announcements. If a scan is
// already running it is stopped first; Start is a full restart, not
// incremental. A failure to listen leaves the browser idle and is both
// surfaced as an EventSearchFailed event and returned.
func (b *Browser) Start() error {
	b.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	msgs := make(chan browseMsg, 16)

	cancelPass, err := b.startQueryPass(ctx, msgs)
	if err != nil {
		cancel()
		b.emit(Event{Kind: EventSearchFailed, Err: err})
		return err
	}

	exited := make(chan struct{})

	b.mu.Lock()
	b.scanning = true
	b.cancel = cancel
	b.exited = exited
	// Devices carried over from a previous scan get a fresh lifetime;
	// if they no longer answer, the sweep ages them out.
	b.expires = make(map[string]time.Time, len(b.byName))
	for name := range b.byName {
		b.expires[name] = time.Now().Add(b.entryLifetime)
	}
	b.mu.Unlock()

	go b.run(ctx, msgs, exited)
	go b.rebrowse(ctx, cancelPass, msgs)

	logging.Debug("Browser scanning", zap.String("service", ServiceType))
	return nil
}

// startQueryPass launches one browse pass with its own resolver and
// entries channel, feeding the shared mailbox. The returned cancel
// tears down just this pass. Each pass needs a fresh resolver: the
// client deduplicates per call and would never redeliver an
// announcement it has already reported.
func (b *Browser) startQueryPass(ctx context.Context, msgs chan<- browseMsg) (context.CancelFunc, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	passCtx, cancel := context.WithCancel(ctx)
	entries := make(chan *zeroconf.ServiceEntry, 16)
	if err := resolver.Browse(passCtx, ServiceType, ServiceDomain, entries); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to browse for announcements: %w", err)
	}

	go b.watch(passCtx, entries, msgs)
	return cancel, nil
}

// rebrowse replaces the active query pass on every tick so announcements
// still on the network are redelivered and their lifetimes refreshed.
func (b *Browser) rebrowse(ctx context.Context, cancelPass context.CancelFunc, msgs chan<- browseMsg) {
	ticker := time.NewTicker(b.rebrowseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cancelPass()
			return
		case <-ticker.C:
		}

		cancelPass()
		next, err := b.startQueryPass(ctx, msgs)
		if err != nil {
			// Transient; known devices age out until a later pass succeeds.
			logging.Warn("Query pass failed", zap.Error(err))
			cancelPass = func() {}
			continue
		}
		cancelPass = next
	}
}

// Stop stops listening. Already-discovered devices are kept. Stop is
// idempotent and safe before Start; when it returns the event goroutine
// has exited and no further events are delivered.
func (b *Browser) Stop() {
	b.mu.Lock()
	cancel, exited := b.cancel, b.exited
	b.cancel, b.exited = nil, nil
	b.scanning = false
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-exited
	b.resolving = make(map[string]struct{})
	b.expires = make(map[string]time.Time)
}

// Refresh clears the discovered-device list and restarts scanning, a
// full rediscovery cycle.
func (b *Browser) Refresh() error {
	b.Stop()

	b.mu.Lock()
	b.devices = nil
	b.byName = make(map[string]*DeviceDescriptor)
	b.mu.Unlock()

	return b.Start()
}

// Scanning reports whether the browser is currently listening.
func (b *Browser) Scanning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scanning
}

// Snapshot returns a copy of the discovered devices in discovery order.
// The slices inside each descriptor are shared and must be treated as
// read-only.
func (b *Browser) Snapshot() []DeviceDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]DeviceDescriptor, 0, len(b.devices))
	for _, d := range b.devices {
		out = append(out, *d)
	}
	return out
}

// watch translates one query pass's entries into mailbox messages. The
// client never forwards goodbye records (it drops TTL-0 entries from
// its cache without delivering them), so there is no removal signal to
// translate here; disappearance is detected by the expiry sweep.
func (b *Browser) watch(ctx context.Context, entries <-chan *zeroconf.ServiceEntry, msgs chan<- browseMsg) {
	for entry := range entries {
		if entry == nil {
			continue
		}
		select {
		case msgs <- browseMsg{kind: EventFound, name: entry.Instance, entry: entry}:
		case <-ctx.Done():
			return
		}
	}
}

// run is the event goroutine; it is the only writer of discovery state.
func (b *Browser) run(ctx context.Context, msgs chan browseMsg, exited chan<- struct{}) {
	defer close(exited)

	sweep := time.NewTicker(b.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case msg := <-msgs:
			b.handle(ctx, msg, msgs)
		case now := <-sweep.C:
			b.expire(now)
		case <-ctx.Done():
			return
		}
	}
}

// expire removes every announcement whose lifetime lapsed without a
// query pass seeing it again.
func (b *Browser) expire(now time.Time) {
	var lapsed []string
	for name, deadline := range b.expires {
		if !now.Before(deadline) {
			lapsed = append(lapsed, name)
		}
	}
	for _, name := range lapsed {
		logging.Debug("Announcement aged out", zap.String("name", name))
		b.remove(name)
	}
}

// remove drops an announcement from the discovered list, the in-flight
// tracking and the lifetime table, and emits the removal event.
func (b *Browser) remove(name string) {
	delete(b.resolving, name)
	delete(b.expires, name)

	b.mu.Lock()
	if _, known := b.byName[name]; known {
		delete(b.byName, name)
		for i, d := range b.devices {
			if d.Name == name {
				b.devices = append(b.devices[:i], b.devices[i+1:]...)
				break
			}
		}
	}
	b.mu.Unlock()

	b.emit(Event{Kind: EventRemoved, Name: name})
}

func (b *Browser) handle(ctx context.Context, msg browseMsg, msgs chan<- browseMsg) {
	switch msg.kind {
	case EventFound:
		// Seeing the announcement again, new or known, renews its lifetime.
		b.expires[msg.name] = b.deadlineFor(msg.entry.TTL)
		if _, inflight := b.resolving[msg.name]; inflight {
			return
		}
		b.resolving[msg.name] = struct{}{}
		b.emit(Event{Kind: EventFound, Name: msg.name})
		go b.resolve(ctx, msg.entry, msgs)

	case EventRemoved:
		b.remove(msg.name)

	case EventResolved:
		if _, inflight := b.resolving[msg.name]; !inflight {
			// announcement was removed while resolving
			return
		}
		delete(b.resolving, msg.name)

		b.mu.Lock()
		_, dup := b.byName[msg.name]
		if !dup {
			b.byName[msg.name] = msg.device
			b.devices = append(b.devices, msg.device)
		}
		b.mu.Unlock()

		if dup {
			// first seen wins; later announcements under a known name
			// are dropped, not merged
			return
		}
		b.emit(Event{Kind: EventResolved, Name: msg.name, Device: msg.device})

	case EventResolveFailed, EventResolveTimedOut:
		delete(b.resolving, msg.name)
		b.emit(Event{Kind: msg.kind, Name: msg.name, Err: msg.err})
	}
}

// deadlineFor computes an announcement's age-out deadline, honoring the
// announced record TTL when it is tighter than the default lifetime.
func (b *Browser) deadlineFor(ttl uint32) time.Time {
	lifetime := b.entryLifetime
	if ttl > 0 {
		if d := time.Duration(ttl) * time.Second; d < lifetime {
			lifetime = d
		}
	}
	return time.Now().Add(lifetime)
}

// resolve turns an announcement into a DeviceDescriptor, bounded by the
// resolve timeout, and reports the outcome to the mailbox.
func (b *Browser) resolve(ctx context.Context, entry *zeroconf.ServiceEntry, msgs chan<- browseMsg) {
	rctx, cancel := context.WithTimeout(ctx, b.resolveTimeout)
	defer cancel()

	dev, err := resolveEntry(rctx, entry)

	msg := browseMsg{name: entry.Instance}
	switch {
	case err == nil:
		msg.kind, msg.device = EventResolved, dev
	case errors.Is(err, context.DeadlineExceeded):
		msg.kind, msg.err = EventResolveTimedOut, err
	default:
		msg.kind, msg.err = EventResolveFailed, err
	}

	select {
	case msgs <- msg:
	case <-ctx.Done():
	}
}

func resolveEntry(ctx context.Context, entry *zeroconf.ServiceEntry) (*DeviceDescriptor, error) {
	if dev := descriptorFromEntry(entry); dev != nil {
		return dev, nil
	}

	// The browse answer carried no address records; look the instance up.
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	found := make(chan *zeroconf.ServiceEntry, 4)
	if err := resolver.Lookup(ctx, entry.Instance, ServiceType, ServiceDomain, found); err != nil {
		return nil, fmt.Errorf("failed to look up announcement: %w", err)
	}

	for {
		select {
		case e, ok := <-found:
			if !ok {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, errors.New("announcement yielded no address records")
			}
			if e == nil {
				continue
			}
			if dev := descriptorFromEntry(e); dev != nil {
				return dev, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// descriptorFromEntry builds a descriptor from an entry that already
// carries address records, preferring IPv4. Returns nil when the entry
// has no routable address.
func descriptorFromEntry(entry *zeroconf.ServiceEntry) *DeviceDescriptor {
	var addr string
	if len(entry.AddrIPv4) > 0 {
		addr = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		addr = entry.AddrIPv6[0].String()
	}
	if addr == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	record := CapabilityRecordFromStrings(entry.Text)

	return &DeviceDescriptor{
		ID:          entry.ServiceInstanceName(),
		Name:        entry.Instance,
		Hostname:    entry.HostName,
		Address:     addr,
		Port:        port,
		Codecs:      record.Codecs(),
		Channels:    record.Channels(),
		SampleRates: record.SampleRates(),
		Features:    record.Features(),
		Available:   true,
		LastSeen:    time.Now(),
	}
}

func (b *Browser) emit(ev Event) {
	switch ev.Kind {
	case EventResolved:
		logging.Info("Receiver discovered",
			zap.String("name", ev.Name),
			zap.String("addr", ev.Device.Addr()),
			zap.Strings("codecs", ev.Device.Codecs),
		)
	case EventSearchFailed:
		logging.Error("Discovery search failed", zap.Error(ev.Err))
	case EventResolveFailed, EventResolveTimedOut:
		logging.Debug("Resolution dropped",
			zap.String("name", ev.Name),
			zap.String("event", ev.Kind.String()),
			zap.Error(ev.Err),
		)
	default:
		logging.Debug("Discovery event",
			zap.String("name", ev.Name),
			zap.String("event", ev.Kind.String()),
		)
	}

	if b.onEvent != nil {
		b.onEvent(ev)
	}
}
