// Package server builds the side HTTP listener that carries the health
// check, metrics, and the WebSocket gateway.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	httpReadHeaderTimeout = 5 * time.Second
	httpIdleTimeout       = 60 * time.Second
	// Upgraded /ws connections have their deadlines cleared by the upgrader,
	// so these only bound plain requests.
	httpReadTimeout  = 15 * time.Second
	httpWriteTimeout = 15 * time.Second
)

// CreateServer returns an http.Server for handler on addr.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: httpReadHeaderTimeout,
		ReadTimeout:       httpReadTimeout,
		WriteTimeout:      httpWriteTimeout,
		IdleTimeout:       httpIdleTimeout,
	}
}

// ShutdownServer stops accepting HTTP requests and waits up to timeout for
// in-flight ones. Hijacked WebSocket connections are not tracked by the
// server; the hub closes them.
func ShutdownServer(server *http.Server, timeout time.Duration, log *slog.Logger) error {
	log.Info("http.shutdown", "addr", server.Addr)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("http.shutdown.fail", "err", err)
		return err
	}
	return nil
}
