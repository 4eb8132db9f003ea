// Package bridge forwards a vendor-app TCP connection onto a selected
// device's hub, and optionally advertises this node's own discovery
// beacon (§4.9).
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ardnew/dspctl/manager"
	"github.com/ardnew/dspctl/pkg"
)

// errEmptyFrame mirrors pkg.ErrEmptyFrame's role but is scoped to a
// forwarded frame whose declared length truncates to nothing.
var errEmptyFrame = errors.New("bridge: empty frame")

// Bridge accepts vendor-app TCP connections on one address and forwards
// each to the first device the manager knows of, preferring a
// USB-attached one to avoid bridging into another network bridge.
type Bridge struct {
	addr    string
	manager *manager.Manager
}

// New binds a Bridge to addr, selecting devices from m.
func New(addr string, m *manager.Manager) *Bridge {
	return &Bridge{addr: addr, manager: m}
}

// Serve accepts connections until ctx is done or the listener errors.
func (b *Bridge) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", b.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrIO, err)
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	pkg.LogInfo(pkg.ComponentBridge, "listening", "addr", b.addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: %v", pkg.ErrIO, err)
		}
		go b.handle(ctx, conn)
	}
}

// selectDevice picks the device to bridge to: the first USB-attached
// (local) one if any is ready, else the first ready device of any kind
// (§4.9).
func (b *Bridge) selectDevice() (manager.Handle, bool) {
	handles := b.manager.Handles()
	var fallback manager.Handle
	haveFallback := false
	for _, h := range handles {
		if h.State != manager.Ready {
			continue
		}
		if h.IsLocal {
			return h, true
		}
		if !haveFallback {
			fallback = h
			haveFallback = true
		}
	}
	return fallback, haveFallback
}

func (b *Bridge) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	target, ok := b.selectDevice()
	if !ok {
		pkg.LogWarn(pkg.ComponentBridge, "no ready device to bridge to")
		return
	}

	clone, ok := target.Hub.Clone()
	if !ok {
		pkg.ForDevice(pkg.ComponentBridge, target.URL).Warn("device hub already closed")
		return
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go forwardAppToHub(connCtx, conn, clone.Send)
	forwardHubToApp(connCtx, clone.Recv, conn)
}

// forwardHubToApp truncates each hub frame to its declared length byte
// before writing it to the app connection verbatim (§4.9); an empty
// frame ends the forward.
func forwardHubToApp(ctx context.Context, recv <-chan []byte, conn net.Conn) {
	for {
		select {
		case frame, ok := <-recv:
			if !ok {
				return
			}
			truncated, err := truncateFrame(frame)
			if err != nil {
				pkg.LogWarn(pkg.ComponentBridge, "malformed hub frame, ending forward", "error", err)
				return
			}
			if _, err := conn.Write(truncated); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// forwardAppToHub passes bytes read from the app connection verbatim to
// the hub's send channel (§4.9); connection close or hub teardown ends
// the forward.
func forwardAppToHub(ctx context.Context, conn net.Conn, send chan<- []byte) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			frame := append([]byte(nil), buf[:n]...)
			select {
			case send <- frame:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// truncateFrame trims raw to its declared length byte (raw[0]); an
// all-zero or zero-length declaration is an error (§4.9).
func truncateFrame(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errEmptyFrame
	}
	length := int(raw[0])
	if length == 0 || length > len(raw) {
		return nil, errEmptyFrame
	}
	return raw[:length], nil
}
