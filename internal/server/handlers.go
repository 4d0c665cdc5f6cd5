// Package server exposes HTTP handlers: the WebSocket gateway into the relay
// and a plain-text health check.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades requests from allowed origins and hands the
// connection to the hub, where it is admitted exactly like a TCP client.
// Every WebSocket message carries one protocol line.
func WebSocketHandler(hub *Hub, log *slog.Logger) http.HandlerFunc {
	policy := newOriginPolicy(hub.cfg.AllowedOrigins, log)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if policy.allows(r) {
				return true
			}
			log.Warn("ws.reject.origin", "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Info("ws.upgrade.fail", "err", err, "remote", r.RemoteAddr)
			return
		}

		t := NewWebSocketTransport(conn, hub.cfg.MaxLineBytes, hub.cfg.WriteTimeout)
		if !hub.Admit(t) {
			_ = conn.Close()
		}
	}
}

// HealthHandler reports that the relay is up along with its current load.
func HealthHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintf(w, "relay is running! clients=%d channels=%d\n", hub.ClientCount(), hub.ChannelCount())
	}
}
