package bridge

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ardnew/dspctl/discovery"
	"github.com/ardnew/dspctl/manager"
)

func TestTruncateFrame(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want []byte
		ok   bool
	}{
		{"exact length", []byte{3, 0xaa, 0xbb}, []byte{3, 0xaa, 0xbb}, true},
		{"padded beyond declared length", []byte{3, 0xaa, 0xbb, 0, 0, 0}, []byte{3, 0xaa, 0xbb}, true},
		{"empty", nil, nil, false},
		{"zero length", []byte{0, 1, 2}, nil, false},
		{"length exceeds buffer", []byte{10, 1, 2}, nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := truncateFrame(c.in)
			if c.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !c.ok && err == nil {
				t.Fatal("expected an error")
			}
			if c.ok && string(got) != string(c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestBridgeForwardsBetweenAppAndDevice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := discovery.NewRegistry()
	m := manager.New(registry)
	go m.Run(ctx)
	registry.Register("mock://bridge-target", false)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h, ok := m.Handle(0); ok && h.State == manager.Ready {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	b := New("127.0.0.1:0", m)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	b.addr = addr

	go b.Serve(ctx)
	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// ReadHardwareId has opcode 0x31 and no payload: length=2, opcode,
	// checksum (sum of the first two bytes mod 256, advisory only).
	req := []byte{2, 0x31, 0x33}
	if _, err := conn.Write(req); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("read: %v", err)
	}
	if n == 0 {
		t.Fatal("expected a response frame forwarded back through the bridge")
	}
}
