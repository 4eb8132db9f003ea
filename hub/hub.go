// Package hub fans a single transport out to many clients: a background
// reader broadcasts inbound frames to every clone, and a background writer
// serializes outbound frames from a channel shared by every clone (§4.3).
package hub

import (
	"context"
	"sync"

	"github.com/ardnew/dspctl/pkg"
	"github.com/ardnew/dspctl/transport"
)

// subscriberBuffer is the per-clone broadcast buffer and the shared send
// buffer's capacity (§4.3).
const subscriberBuffer = 100

// Handle is one clone's view of the hub: an independent receive channel
// of raw, already-framed inbound frames, and the hub's single shared
// send channel for outbound ones.
type Handle struct {
	Recv <-chan []byte
	Send chan<- []byte
}

// Hub owns exactly one transport and fans it out to any number of
// clones.
type Hub struct {
	transport transport.Transport

	mu          sync.Mutex
	subscribers map[int]chan []byte
	nextID      int
	closed      bool
	done        chan struct{}

	send chan []byte
}

// New spawns the reader and writer goroutines over t and returns the hub.
// ctx governs both goroutines' lifetime in addition to transport errors.
func New(ctx context.Context, t transport.Transport) *Hub {
	h := &Hub{
		transport:   t,
		subscribers: make(map[int]chan []byte),
		done:        make(chan struct{}),
		send:        make(chan []byte, subscriberBuffer),
	}
	go h.readLoop(ctx)
	go h.writeLoop(ctx)
	return h
}

// Clone registers a new subscriber and returns its handle. ok is false if
// the hub has already torn down.
func (h *Hub) Clone() (Handle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return Handle{}, false
	}
	ch := make(chan []byte, subscriberBuffer)
	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch
	return Handle{Recv: ch, Send: h.send}, true
}

// Done returns a channel closed once the hub has torn down, letting
// callers detect transport loss without blocking on Clone.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) readLoop(ctx context.Context) {
	defer h.teardown()
	for {
		raw, err := h.transport.ReadFrame(ctx)
		if err != nil {
			pkg.LogDebug(pkg.ComponentHub, "reader exiting", "error", err)
			return
		}
		h.broadcast(raw)
	}
}

func (h *Hub) broadcast(f []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- f:
		default:
			pkg.LogWarn(pkg.ComponentHub, "subscriber lagging, dropping frame", "subscriber", id)
		}
	}
}

func (h *Hub) writeLoop(ctx context.Context) {
	defer h.teardown()
	for {
		select {
		case f := <-h.send:
			if err := h.transport.WriteFrame(ctx, f); err != nil {
				pkg.LogDebug(pkg.ComponentHub, "writer exiting", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// teardown closes every subscriber channel and marks the hub closed; it
// is idempotent since either goroutine may call it first.
func (h *Hub) teardown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
	close(h.done)
	_ = h.transport.Close()
}
