// Package multiplexer pairs outgoing commands with the next matching
// response on a single shared transport and routes everything else to
// an event broadcast (§4.6).
package multiplexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ardnew/dspctl/pkg"
	"github.com/ardnew/dspctl/protocol"
)

// roundtripTimeout bounds a single Roundtrip call (§4.6).
const roundtripTimeout = 10 * time.Second

// eventBuffer is the capacity of the unsolicited-response broadcast.
const eventBuffer = 100

type result struct {
	response protocol.Response
	err      error
}

type pendingEntry struct {
	command protocol.Command
	reply   chan result
}

// Multiplexer serializes writes to send and matches reads from recv
// against a FIFO queue of pending roundtrips.
type Multiplexer struct {
	recv <-chan []byte
	send chan<- []byte

	writeMu sync.Mutex

	mu      sync.Mutex
	pending []pendingEntry

	events chan protocol.Response
	done   chan struct{}
}

// New spawns the receive loop over recv/send, both produced by chaining
// the frame codec over a hub clone.
func New(recv <-chan []byte, send chan<- []byte) *Multiplexer {
	m := &Multiplexer{
		recv:   recv,
		send:   send,
		events: make(chan protocol.Response, eventBuffer),
		done:   make(chan struct{}),
	}
	go m.receiveLoop()
	return m
}

// Events returns the broadcast of responses that did not match any
// pending roundtrip. Slow readers lose messages; no backpressure
// propagates back to the device.
func (m *Multiplexer) Events() <-chan protocol.Response { return m.events }

// Done is closed once the underlying transport has terminated.
func (m *Multiplexer) Done() <-chan struct{} { return m.done }

// Roundtrip sends c and blocks for the matching response, or until ctx
// is done or 10 seconds elapse, whichever comes first. A timeout does
// not remove the pending entry: the eventual (or a later, unrelated)
// reply will still match against it first. This mirrors the reference
// multiplexer's behavior exactly rather than silently hardening it
// (§9, §12).
func (m *Multiplexer) Roundtrip(ctx context.Context, c protocol.Command) (protocol.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, roundtripTimeout)
	defer cancel()

	reply := make(chan result, 1)
	m.mu.Lock()
	m.pending = append(m.pending, pendingEntry{command: c, reply: reply})
	m.mu.Unlock()

	frame := protocol.Encode(c.Encode())

	m.writeMu.Lock()
	sendErr := func() error {
		select {
		case m.send <- frame:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}()
	m.writeMu.Unlock()
	if sendErr != nil {
		return nil, sendErr
	}

	select {
	case r := <-reply:
		return r.response, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w", pkg.ErrRoundtripTimeout)
	}
}

func (m *Multiplexer) receiveLoop() {
	defer m.teardown()
	for raw := range m.recv {
		payload, err := protocol.Frame(raw).Unframe()
		if err != nil {
			pkg.LogWarn(pkg.ComponentMultiplexer, "dropping malformed frame", "error", err)
			continue
		}
		resp, err := protocol.DecodeResponse(payload)
		if err != nil {
			pkg.LogWarn(pkg.ComponentMultiplexer, "dropping undecodable response", "error", err)
			continue
		}
		m.dispatch(resp)
	}
}

func (m *Multiplexer) dispatch(resp protocol.Response) {
	m.mu.Lock()
	if len(m.pending) > 0 && m.pending[0].command.Matches(resp) {
		entry := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()
		entry.reply <- result{response: resp}
		return
	}
	m.mu.Unlock()

	select {
	case m.events <- resp:
	default:
		pkg.LogWarn(pkg.ComponentMultiplexer, "event subscriber lagging, dropping response")
	}
}

// teardown completes every still-pending roundtrip with
// pkg.ErrTransportClosed and closes the event broadcast, run once the
// receive channel is closed by the hub beneath it.
func (m *Multiplexer) teardown() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, e := range pending {
		select {
		case e.reply <- result{err: pkg.ErrTransportClosed}:
		default:
		}
	}
	close(m.events)
	close(m.done)
}
