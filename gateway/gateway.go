// Package gateway exposes the device manager's registry and the client
// façade over HTTP and WebSocket (§4.10).
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ardnew/dspctl/client"
	"github.com/ardnew/dspctl/manager"
	"github.com/ardnew/dspctl/pkg"
	"github.com/ardnew/dspctl/pkg/prof"
	"github.com/ardnew/dspctl/protocol"
)

// Gateway wires the device manager's registry onto a net/http
// ServeMux; it owns no device-lifecycle logic of its own (§4.10).
type Gateway struct {
	manager  *manager.Manager
	upgrader websocket.Upgrader
}

// New binds a Gateway to m.
func New(m *manager.Manager) *Gateway {
	return &Gateway{
		manager: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The gateway is meant to be reached by the vendor app and
			// dashboards from arbitrary origins; this is not a
			// browser-facing multi-tenant service.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler builds the routed http.Handler (§4.10): a bare
// http.ServeMux, since no router dependency is warranted for five
// fixed routes.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /devices", g.listDevices)
	mux.HandleFunc("GET /devices/{i}", g.getDevice)
	mux.HandleFunc("POST /devices/{i}", g.postCommand)
	mux.HandleFunc("POST /devices/{i}/config", g.postConfig)
	mux.HandleFunc("GET /devices/{i}/ws", g.wsTunnel)
	return mux
}

// ListenAndServe runs the gateway on addr until ctx is done. Under the
// "profile" build tag, goroutine/heap/block/mutex profiles can be
// captured via pkg/prof while the server is up (e.g. on SIGQUIT in an
// operator's own signal handler); this call only ensures the rates are
// enabled.
func (g *Gateway) ListenAndServe(ctx context.Context, addr string) error {
	prof.SetBlockProfileRate(1)
	prof.SetMutexProfileFraction(1)

	srv := &http.Server{Addr: addr, Handler: g.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	pkg.LogInfo(pkg.ComponentGateway, "listening", "addr", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// deviceListing is one row of GET /devices.
type deviceListing struct {
	URL      string    `json:"url"`
	LastSeen time.Time `json:"last_seen"`
	IsLocal  bool      `json:"is_local"`
	State    string    `json:"state"`
}

func (g *Gateway) listDevices(w http.ResponseWriter, r *http.Request) {
	handles := g.manager.Handles()
	out := make([]deviceListing, 0, len(handles))
	for _, h := range handles {
		out = append(out, deviceListing{
			URL:      h.URL,
			LastSeen: h.LastSeen,
			IsLocal:  h.IsLocal,
			State:    h.State.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) deviceIndex(r *http.Request) (int, error) {
	var i int
	if _, err := fmt.Sscanf(r.PathValue("i"), "%d", &i); err != nil {
		return 0, err
	}
	return i, nil
}

func (g *Gateway) readyClient(w http.ResponseWriter, r *http.Request) (*client.Client, bool) {
	i, err := g.deviceIndex(r)
	if err != nil {
		http.Error(w, "invalid device index", http.StatusBadRequest)
		return nil, false
	}
	h, ok := g.manager.Handle(i)
	if !ok {
		http.Error(w, "no such device", http.StatusNotFound)
		return nil, false
	}
	if h.State != manager.Ready || h.Client == nil {
		http.Error(w, "device not ready", http.StatusServiceUnavailable)
		return nil, false
	}
	return h.Client, true
}

func (g *Gateway) getDevice(w http.ResponseWriter, r *http.Request) {
	c, ok := g.readyClient(w, r)
	if !ok {
		return
	}
	summary, err := c.StatusSummary(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// commandEnvelope is the small JSON shape POST /devices/{i} accepts:
// exactly one field set per request (§4.10).
type commandEnvelope struct {
	Mute   *bool    `json:"mute"`
	Source *string  `json:"source"`
	Volume *float32 `json:"volume"`
}

func (g *Gateway) postCommand(w http.ResponseWriter, r *http.Request) {
	c, ok := g.readyClient(w, r)
	if !ok {
		return
	}
	var env commandEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "malformed command body", http.StatusBadRequest)
		return
	}

	set := 0
	for _, present := range []bool{env.Mute != nil, env.Source != nil, env.Volume != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		http.Error(w, "command must set exactly one of mute, source, volume", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var err error
	switch {
	case env.Mute != nil:
		err = c.SetMute(ctx, *env.Mute)
	case env.Volume != nil:
		err = c.SetVolume(ctx, protocol.Gain(*env.Volume))
	case env.Source != nil:
		idx, ferr := sourceIndex(c, *env.Source)
		if ferr != nil {
			http.Error(w, ferr.Error(), http.StatusBadRequest)
			return
		}
		err = c.SetSource(ctx, idx)
	default:
		http.Error(w, "empty command", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sourceIndex(c *client.Client, name string) (uint8, error) {
	for i, s := range c.Device().Sources {
		if s == name {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown source %q", pkg.ErrIndexOutOfRange, name)
}

func (g *Gateway) postConfig(w http.ResponseWriter, r *http.Request) {
	c, ok := g.readyClient(w, r)
	if !ok {
		return
	}
	var cfg client.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "malformed config body", http.StatusBadRequest)
		return
	}
	if err := c.ApplyConfig(r.Context(), cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// wsTunnel upgrades the connection and relays raw frames to/from the
// device's hub, one frame per WebSocket message (§4.10).
func (g *Gateway) wsTunnel(w http.ResponseWriter, r *http.Request) {
	i, err := g.deviceIndex(r)
	if err != nil {
		http.Error(w, "invalid device index", http.StatusBadRequest)
		return
	}
	h, ok := g.manager.Handle(i)
	if !ok || h.State != manager.Ready || h.Hub == nil {
		http.Error(w, "device not ready", http.StatusServiceUnavailable)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.LogWarn(pkg.ComponentGateway, "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	clone, ok := h.Hub.Clone()
	if !ok {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "device closed"))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go relayHubToWS(ctx, clone.Recv, conn)
	relayWSToHub(ctx, conn, clone.Send)
}

func relayHubToWS(ctx context.Context, recv <-chan []byte, conn *websocket.Conn) {
	for {
		select {
		case frame, ok := <-recv:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func relayWSToHub(ctx context.Context, conn *websocket.Conn, send chan<- []byte) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		select {
		case send <- data:
		case <-ctx.Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
