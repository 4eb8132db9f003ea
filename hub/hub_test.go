package hub

import (
	"context"
	"testing"
	"time"

	"github.com/ardnew/dspctl/protocol"
	"github.com/ardnew/dspctl/transport"
)

func TestHubBroadcastsToAllClones(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := transport.NewMock()
	h := New(ctx, tr)

	h1, ok := h.Clone()
	if !ok {
		t.Fatal("Clone 1 failed")
	}
	h2, ok := h.Clone()
	if !ok {
		t.Fatal("Clone 2 failed")
	}

	cmd := protocol.ReadHardwareId{}
	select {
	case h1.Send <- protocol.Encode(cmd.Encode()):
	case <-time.After(time.Second):
		t.Fatal("timed out sending")
	}

	for i, hnd := range []Handle{h1, h2} {
		select {
		case frame := <-hnd.Recv:
			if len(frame) == 0 {
				t.Fatalf("clone %d: empty frame", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("clone %d: timed out waiting for broadcast", i)
		}
	}
}

func TestHubTeardownClosesSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := transport.NewMock()
	h := New(ctx, tr)

	hnd, ok := h.Clone()
	if !ok {
		t.Fatal("Clone failed")
	}

	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not tear down after context cancellation")
	}

	if _, ok := h.Clone(); ok {
		t.Fatal("Clone should fail after teardown")
	}

	select {
	case _, open := <-hnd.Recv:
		if open {
			t.Fatal("subscriber channel should be closed after teardown")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber channel to close")
	}
}
