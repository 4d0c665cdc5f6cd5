// Package server accepts TCP connections and hands them to the hub.
package server

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ListenTCP binds the relay's TCP endpoint. A failure here is fatal to
// startup.
func ListenTCP(cfg Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Address(), err)
	}
	return ln, nil
}

// Serve accepts connections on ln until the hub shuts down or ln is closed.
// Other accept errors are logged and retried with backoff. Serve closes ln
// when it returns.
func (h *Hub) Serve(ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-h.ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
	}()

	h.log.Info("relay.listen", "addr", ln.Addr().String())

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if h.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			// Only a failed bind is fatal; EMFILE and friends are retried.
			backoff = nextBackoff(backoff)
			h.log.Warn("relay.accept.retry", "err", err, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-h.ctx.Done():
				return nil
			}
			continue
		}
		backoff = 0

		t := NewTCPTransport(conn, h.cfg.MaxLineBytes, h.cfg.WriteTimeout)
		if !h.Admit(t) {
			_ = conn.Close()
			return nil
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
