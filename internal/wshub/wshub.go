// Package wshub serves the reload-notification WebSocket endpoints and
// bridges reloadbus signals to connected browsers. Each connection runs a
// sender and a receiver goroutine; either exiting cancels the other.
package wshub

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/thaw-dev/thaw-cli/internal/reloadbus"
)

// Protocol selects the wire format a connection speaks.
type Protocol int

const (
	// Native speaks thaw-cli's own JSON message shapes.
	Native Protocol = iota
	// CargoLeptos speaks the cargo-leptos-compatible wire format used by
	// `/live_reload` so existing cargo-leptos browser tooling keeps working.
	CargoLeptos
)

// PingSubprotocol is the subprotocol a health-check client can request to
// get an immediate upgrade-then-close, without ever entering the normal
// message loop.
const PingSubprotocol = "thaw-cli-ping"

// nativeMessage is the JSON shape of nativeConnectedMsg / nativeRefreshMsg,
// the payloads Native clients receive on connect and on reload respectively.
type nativeMessage struct {
	Type string `json:"type"`
}

var (
	nativeConnectedMsg, _ = json.Marshal(nativeMessage{Type: "Connected"})
	nativeRefreshMsg, _   = json.Marshal(nativeMessage{Type: "RefreshPage"})
	leptosReloadMsg, _    = json.Marshal(map[string]string{"all": "reload"})
)

// Hub upgrades incoming requests and relays reloadbus events to each
// resulting connection until it closes.
type Hub struct {
	bus *reloadbus.Bus
}

// New creates a Hub backed by bus.
func New(bus *reloadbus.Bus) *Hub {
	return &Hub{bus: bus}
}

// ServeNative handles the `/__thaw_cli__` endpoint (native protocol).
func (h *Hub) ServeNative(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, Native)
}

// ServeCargoLeptos handles the `/live_reload` endpoint (cargo-leptos
// compatible protocol).
func (h *Hub) ServeCargoLeptos(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, CargoLeptos)
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request, proto Protocol) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		Subprotocols:    []string{PingSubprotocol},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return
	}

	if conn.Subprotocol() == PingSubprotocol {
		// A ping client only wants to confirm the upgrade succeeds; the
		// server closes immediately without entering the message loop.
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	done := make(chan struct{}, 2)
	go h.sender(ctx, conn, proto, events, done)
	go h.receiver(ctx, conn, done)

	<-done
	cancel()
	conn.Close(websocket.StatusNormalClosure, "")
}

// sender writes the connect greeting (a Connected message for Native, an
// empty Ping for CargoLeptos) and then one reload message per bus event,
// until ctx is cancelled.
func (h *Hub) sender(ctx context.Context, conn *websocket.Conn, proto Protocol, events <-chan struct{}, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	switch proto {
	case Native:
		if err := conn.Write(ctx, websocket.MessageText, nativeConnectedMsg); err != nil {
			return
		}
	case CargoLeptos:
		if err := conn.Ping(ctx); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			payload := nativeRefreshMsg
			if proto == CargoLeptos {
				payload = leptosReloadMsg
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return
			}
		}
	}
}

// receiver discards inbound frames (the browser client never sends
// anything meaningful) but its Read call is what observes the connection
// closing from the client side, cancelling the sibling sender.
func (h *Hub) receiver(ctx context.Context, conn *websocket.Conn, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}
