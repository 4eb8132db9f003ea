package transport

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ardnew/dspctl/pkg"
)

// wsTransport wraps a *websocket.Conn: each binary message is exactly one
// frame (§4.4), so no stream-level decoder is needed here.
type wsTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	closed  bool

	frames  chan []byte
	readErr chan error
}

// DialWebSocket connects to a ws:// or wss:// endpoint and begins
// streaming binary messages as frames.
func DialWebSocket(ctx context.Context, rawURL string) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return NewWebSocketTransport(conn), nil
}

// NewWebSocketTransport wraps an already-established connection, used by
// the client dialer above. The gateway's inbound upgrade handler relays
// frames itself and does not use it.
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	t := &wsTransport{
		conn:    conn,
		frames:  make(chan []byte, 16),
		readErr: make(chan error, 1),
	}
	go t.readLoop()
	return t
}

func (t *wsTransport) readLoop() {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case t.readErr <- err:
			default:
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			pkg.LogDebug(pkg.ComponentTransport, "discarding non-binary websocket message", "type", msgType)
			continue
		}
		select {
		case t.frames <- data:
		default:
			pkg.LogWarn(pkg.ComponentTransport, "websocket frame channel full, dropping frame")
		}
	}
}

func (t *wsTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case f := <-t.frames:
		return f, nil
	case err := <-t.readErr:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *wsTransport) WriteFrame(ctx context.Context, frame []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return pkg.ErrTransportClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	}
	return t.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
