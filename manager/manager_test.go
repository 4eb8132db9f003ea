package manager

import (
	"context"
	"testing"
	"time"

	"github.com/ardnew/dspctl/discovery"
)

func waitForState(t *testing.T, m *Manager, url string, want State, timeout time.Duration) Handle {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, h := range m.Handles() {
			if h.URL == url && h.State == want {
				return h
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("device %q never reached state %v", url, want)
	return Handle{}
}

func TestManagerBringsMockDeviceToReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := discovery.NewRegistry()
	m := New(registry)
	go m.Run(ctx)

	registry.Register("mock://device1", false)

	h := waitForState(t, m, "mock://device1", Ready, 2*time.Second)
	if h.Client == nil || h.Hub == nil {
		t.Fatal("ready handle missing client/hub")
	}
	if h.Client.Device().ProductName == "" {
		t.Fatal("expected a resolved descriptor after probing")
	}
}

func TestManagerRemovesDeviceOnRegistryTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := discovery.NewRegistry()
	m := New(registry)
	go m.Run(ctx)

	registry.Register("mock://device2", false)
	waitForState(t, m, "mock://device2", Ready, 2*time.Second)

	// remove() is what Run dispatches to on a registry Timeout event;
	// exercised directly here since forcing the registry's real 5-minute
	// sweep would make this test slow.
	m.remove("mock://device2")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		found := false
		for _, h := range m.Handles() {
			if h.URL == "mock://device2" {
				found = true
			}
		}
		if !found {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("device was not removed")
}
