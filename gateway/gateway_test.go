package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ardnew/dspctl/discovery"
	"github.com/ardnew/dspctl/manager"
)

func newReadyGateway(t *testing.T) (*Gateway, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	registry := discovery.NewRegistry()
	m := manager.New(registry)
	go m.Run(ctx)
	registry.Register("mock://gateway-target", false)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h, ok := m.Handle(0); ok && h.State == manager.Ready {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	return New(m), cancel
}

func TestListDevices(t *testing.T) {
	g, cancel := newReadyGateway(t)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/devices", nil)
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var listing []deviceListing
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing) != 1 || listing[0].URL != "mock://gateway-target" {
		t.Fatalf("listing = %+v", listing)
	}
	if listing[0].State != "ready" {
		t.Fatalf("state = %q, want ready", listing[0].State)
	}
}

func TestGetDeviceStatus(t *testing.T) {
	g, cancel := newReadyGateway(t)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/devices/0", nil)
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestPostCommandMute(t *testing.T) {
	g, cancel := newReadyGateway(t)
	defer cancel()

	body, _ := json.Marshal(map[string]any{"mute": true})
	req := httptest.NewRequest(http.MethodPost, "/devices/0", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestPostCommandUnknownDevice(t *testing.T) {
	g, cancel := newReadyGateway(t)
	defer cancel()

	body, _ := json.Marshal(map[string]any{"mute": true})
	req := httptest.NewRequest(http.MethodPost, "/devices/9", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPostConfig(t *testing.T) {
	g, cancel := newReadyGateway(t)
	defer cancel()

	muted := true
	body, _ := json.Marshal(map[string]any{"mute": &muted})
	req := httptest.NewRequest(http.MethodPost, "/devices/0/config", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
