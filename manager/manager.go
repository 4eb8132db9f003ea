// Package manager runs the per-device lifecycle goroutine and keeps the
// registry of live device handles the gateway and bridge serve from
// (§4.8).
package manager

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ardnew/dspctl/client"
	"github.com/ardnew/dspctl/descriptor"
	"github.com/ardnew/dspctl/discovery"
	"github.com/ardnew/dspctl/hub"
	"github.com/ardnew/dspctl/multiplexer"
	"github.com/ardnew/dspctl/pkg"
	"github.com/ardnew/dspctl/transport"
)

// State is a device's position in the connect/probe/serve/reconnect
// lifecycle.
type State int

const (
	Discovered State = iota
	Connecting
	Probing
	Ready
	Reconnecting
	Removed
)

func (s State) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case Connecting:
		return "connecting"
	case Probing:
		return "probing"
	case Ready:
		return "ready"
	case Reconnecting:
		return "reconnecting"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// reconnectDelay is how long a device's goroutine waits after a
// transport loss before attempting to reopen it (§4.8).
const reconnectDelay = 5 * time.Second

// Handle is a snapshot of one managed device's live state.
type Handle struct {
	URL      string
	State    State
	IsLocal  bool
	LastSeen time.Time

	Client *client.Client
	Hub    *hub.Hub
}

// device is the manager's internal record for one URL; its lifecycle
// goroutine owns the state field, published under the device's own mu
// so readers never observe a half-updated handle.
type device struct {
	url     string
	isLocal bool

	mu     sync.RWMutex
	state  State
	client *client.Client
	hub    *hub.Hub

	cancel context.CancelFunc
}

func (d *device) snapshot(lastSeen time.Time) Handle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Handle{
		URL:      d.url,
		State:    d.state,
		IsLocal:  d.isLocal,
		LastSeen: lastSeen,
		Client:   d.client,
		Hub:      d.hub,
	}
}

func (d *device) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *device) publish(c *client.Client, h *hub.Hub) {
	d.mu.Lock()
	d.client = c
	d.hub = h
	d.state = Ready
	d.mu.Unlock()
}

func (d *device) clear() {
	d.mu.Lock()
	d.client = nil
	d.hub = nil
	d.mu.Unlock()
}

// Manager owns the set of devices currently known to the registry and
// runs a connect/probe/serve/reconnect goroutine for each URL (§4.8).
type Manager struct {
	registry *discovery.Registry

	mu      sync.RWMutex
	devices map[string]*device

	wg sync.WaitGroup
}

// New builds a Manager bound to registry. Run must be called to start
// consuming discovery events.
func New(registry *discovery.Registry) *Manager {
	return &Manager{
		registry: registry,
		devices:  make(map[string]*device),
	}
}

// Run consumes registry.Added()/Timeout() until ctx is done, spawning a
// lifecycle goroutine for every newly discovered URL and tearing down
// the goroutine for any URL the registry evicts.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.wg.Wait()
			return
		case ev := <-m.registry.Added():
			m.spawn(ctx, ev.URL)
		case ev := <-m.registry.Timeout():
			m.remove(ev.URL)
		}
	}
}

func (m *Manager) spawn(ctx context.Context, url string) {
	m.mu.Lock()
	if _, exists := m.devices[url]; exists {
		m.mu.Unlock()
		return
	}
	devCtx, cancel := context.WithCancel(ctx)
	d := &device{url: url, isLocal: isLocalURL(url), state: Discovered, cancel: cancel}
	m.devices[url] = d
	m.mu.Unlock()

	m.wg.Add(1)
	go m.serve(devCtx, d)
}

func (m *Manager) remove(url string) {
	m.mu.Lock()
	d, exists := m.devices[url]
	if exists {
		delete(m.devices, url)
	}
	m.mu.Unlock()
	if exists {
		d.setState(Removed)
		d.cancel()
	}
}

// serve runs one device's connect -> probe -> serve -> reconnect loop
// until ctx is done, per the sequence in §4.8.
func (m *Manager) serve(ctx context.Context, d *device) {
	defer m.wg.Done()
	log := pkg.ForDevice(pkg.ComponentManager, d.url)
	for {
		if ctx.Err() != nil {
			return
		}

		d.setState(Connecting)
		t, err := transport.Open(ctx, d.url)
		if err != nil {
			log.Warn("open failed", "error", err)
			if !sleep(ctx, reconnectDelay) {
				return
			}
			d.setState(Reconnecting)
			continue
		}

		h := hub.New(ctx, t)
		handle, ok := h.Clone()
		if !ok {
			if !sleep(ctx, reconnectDelay) {
				return
			}
			continue
		}
		mux := multiplexer.New(handle.Recv, handle.Send)

		d.setState(Probing)
		c := client.New(descriptor.Device{}, mux)
		info, err := c.GetDeviceInfo(ctx)
		if err != nil {
			log.Warn("probe failed", "error", err)
			_ = t.Close()
			<-h.Done()
			if !sleep(ctx, reconnectDelay) {
				return
			}
			d.setState(Reconnecting)
			continue
		}
		spec := descriptor.Lookup(info.HardwareID)
		c = client.New(spec, mux)

		d.publish(c, h)
		log.Info("device ready", "hardware_id", info.HardwareID)

		select {
		case <-h.Done():
		case <-ctx.Done():
			d.clear()
			return
		}

		d.clear()
		d.setState(Reconnecting)
		log.Warn("device lost, reconnecting")
		if !sleep(ctx, reconnectDelay) {
			return
		}
	}
}

// sleep waits for d or ctx cancellation, reporting whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func isLocalURL(url string) bool {
	return len(url) >= 4 && url[:4] == "usb:"
}

// Handles returns a snapshot of every known device, ordered by URL.
func (m *Manager) Handles() []Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Handle, 0, len(m.devices))
	for _, d := range m.devices {
		var lastSeen time.Time
		for _, e := range m.registry.Entries() {
			if e.URL == d.url {
				lastSeen = e.LastSeen
				break
			}
		}
		out = append(out, d.snapshot(lastSeen))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Handle returns the handle at registry index i, matching the order
// Handles() produces, and false if i is out of range.
func (m *Manager) Handle(i int) (Handle, bool) {
	handles := m.Handles()
	if i < 0 || i >= len(handles) {
		return Handle{}, false
	}
	return handles[i], true
}
