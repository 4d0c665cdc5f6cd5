// Package server wires HTTP handlers into a ServeMux for the relay's side
// HTTP listener.
package server

import (
	"log/slog"
	"net/http"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
// It sets up handlers for the health check, the WebSocket endpoint, and metrics.
func SetupRoutes(hub *Hub, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler(hub))
	mux.HandleFunc("/ws", WebSocketHandler(hub, log))
	mux.Handle("/metrics", hub.metrics.Handler())
	return mux
}
