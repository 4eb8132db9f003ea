// Package transport implements the four duplex byte-frame channels a hub
// can own: USB-HID, TCP, WebSocket, and an in-process mock device (§4.4).
package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/ardnew/dspctl/pkg"
)

// Transport is a duplex channel carrying raw, already-delimited protocol
// frames. Implementations do not interpret frame contents; framing and
// decoding are the protocol package's job.
type Transport interface {
	// ReadFrame blocks for the next inbound frame, or returns ctx.Err()
	// if ctx is done first.
	ReadFrame(ctx context.Context) ([]byte, error)
	// WriteFrame sends a frame, blocking until accepted by the
	// underlying channel.
	WriteFrame(ctx context.Context, frame []byte) error
	// Close releases the underlying resource. Afterward the mock, TCP and
	// WebSocket transports fail WriteFrame with pkg.ErrTransportClosed,
	// and the HID transport fails ReadFrame with it; not every
	// implementation wakes a ReadFrame already blocked when Close is
	// called.
	Close() error
}

// Open constructs the Transport named by rawURL's scheme (§4.4): usb,
// tcp, ws/wss, or mock.
func Open(ctx context.Context, rawURL string) (Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrInvalidURL, err)
	}

	switch u.Scheme {
	case "usb":
		return OpenHID(ctx, u)
	case "tcp":
		host := u.Host
		if u.Port() == "" {
			host = net.JoinHostPort(u.Hostname(), "5333")
		}
		return DialTCP(ctx, host)
	case "ws", "wss":
		return DialWebSocket(ctx, u.String())
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", pkg.ErrInvalidURL, u.Scheme)
	}
}
