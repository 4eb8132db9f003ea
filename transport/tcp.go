package transport

import (
	"context"
	"net"
	"sync"

	"github.com/ardnew/dspctl/pkg"
	"github.com/ardnew/dspctl/protocol"
)

// tcpTransport wraps a raw net.Conn stream, running the frame codec's
// decoder over the byte stream to carve out discrete frames (§4.1, §4.4).
type tcpTransport struct {
	conn net.Conn
	dec  *protocol.Decoder

	mu     sync.Mutex
	closed bool

	frames  chan []byte
	readErr chan error
}

// DialTCP opens a client-role TCP connection to addr and begins decoding
// its byte stream into frames.
func DialTCP(ctx context.Context, addr string) (Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return newTCPTransport(conn, protocol.RoleClient), nil
}

// ServeTCP wraps an already-accepted server-role connection. The
// compatibility bridge (§4.9) does not use it; it forwards over the raw
// net.Conn.
func ServeTCP(conn net.Conn) Transport {
	return newTCPTransport(conn, protocol.RoleServer)
}

func newTCPTransport(conn net.Conn, role protocol.Role) *tcpTransport {
	t := &tcpTransport{
		conn:    conn,
		dec:     protocol.NewDecoder(role),
		frames:  make(chan []byte, 16),
		readErr: make(chan error, 1),
	}
	go t.readLoop()
	return t
}

func (t *tcpTransport) readLoop() {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := t.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			frames, consumed := t.dec.Decode(buf)
			buf = append(buf[:0], buf[consumed:]...)
			for _, f := range frames {
				select {
				case t.frames <- f:
				default:
					pkg.LogWarn(pkg.ComponentTransport, "tcp frame channel full, dropping frame")
				}
			}
		}
		if err != nil {
			select {
			case t.readErr <- err:
			default:
			}
			return
		}
	}
}

func (t *tcpTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case f := <-t.frames:
		return f, nil
	case err := <-t.readErr:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *tcpTransport) WriteFrame(ctx context.Context, frame []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return pkg.ErrTransportClosed
	}

	done := make(chan error, 1)
	go func() {
		_, err := t.conn.Write(frame)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *tcpTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
