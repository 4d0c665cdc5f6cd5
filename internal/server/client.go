// Package server manages individual relay clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"crypto/rand"
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// Client is one admitted connection. Its fields other than the channels are
// owned by the hub goroutine; the pumps only touch transport, send, and done.
type Client struct {
	id        ulid.ULID
	transport Transport
	hub       *Hub
	ip        string
	port      string
	send      chan []byte
	done      chan struct{}
	closing   bool
	limiter   *lineBucket
}

// newClientID returns a ULID so connection ids sort by admission time in logs.
func newClientID(now time.Time) (ulid.ULID, error) {
	return ulid.New(ulid.Timestamp(now), rand.Reader)
}

// NewClient wraps t for the given hub. The client is not admitted until the
// hub registers it.
func NewClient(t Transport, hub *Hub) (*Client, error) {
	id, err := newClientID(time.Now())
	if err != nil {
		return nil, err
	}

	cfg := hub.cfg
	ip, port := splitAddr(t.RemoteAddr())
	return &Client{
		id:        id,
		transport: t,
		hub:       hub,
		ip:        ip,
		port:      port,
		send:      make(chan []byte, cfg.SendQueueSize),
		done:      make(chan struct{}),
		limiter:   newLineBucket(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval, nil),
	}, nil
}

// readPump hands one line at a time to the hub. It blocks until the hub has
// taken the previous line, so a client never has more than one line in flight.
func (c *Client) readPump() {
	for {
		line, err := c.transport.ReadLine()
		if err != nil {
			c.hub.reportFailure(c, classifyReadError(err), err)
			return
		}

		select {
		case c.hub.inbound <- inboundLine{client: c, line: line}:
		case <-c.done:
			return
		case <-c.hub.ctx.Done():
			return
		}
	}
}

// writePump drains the send queue until the hub closes it.
func (c *Client) writePump() {
	for line := range c.send {
		if err := c.transport.Write(line); err != nil {
			c.hub.reportFailure(c, reasonWriteError, err)
			return
		}
	}
}

func classifyReadError(err error) string {
	switch {
	case errors.Is(err, ErrLineTooLong), errors.Is(err, websocket.ErrReadLimit):
		return reasonLineTooLong
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), isExpectedCloseError(err):
		return reasonPeerClosed
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		return reasonPeerClosed
	default:
		return reasonReadError
	}
}
