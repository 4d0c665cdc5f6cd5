// Package server coordinates client admission, protocol dispatch, channel
// fan-out, and connection cleanup for the relay via the Hub type.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Hub is the relay's event loop. A single goroutine running Run owns the
// connection and channel registries; every other goroutine talks to it over
// the accept, inbound, and failed channels, so the registries need no locks.
type Hub struct {
	cfg     Config
	log     *slog.Logger
	metrics *Metrics

	clients  *ConnectionRegistry
	channels *ChannelRegistry
	timer    *Timer

	accept  chan Transport
	inbound chan inboundLine
	failed  chan transportFailure

	// Mirrors of registry sizes for readers outside the hub goroutine.
	clientCount  atomic.Int64
	channelCount atomic.Int64

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub with registries sized from cfg. A nil logger discards
// output and nil metrics get a private registry.
func NewHub(cfg Config, log *slog.Logger, metrics *Metrics) *Hub {
	cfg = cfg.sanitize()
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		clients:  NewConnectionRegistry(cfg.MaxClients, RoleClient),
		channels: NewChannelRegistry(cfg.MaxChannels, cfg.MaxMembersPerChannel),
		timer:    NewTimer(cfg.HeartbeatInterval),
		accept:   make(chan Transport),
		inbound:  make(chan inboundLine),
		failed:   make(chan transportFailure),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Admit hands a freshly accepted transport to the hub. It returns false if
// the hub has stopped, in which case the caller still owns t.
func (h *Hub) Admit(t Transport) bool {
	select {
	case h.accept <- t:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// ClientCount returns the number of admitted clients. Safe from any goroutine.
func (h *Hub) ClientCount() int { return int(h.clientCount.Load()) }

// ChannelCount returns the number of live channels. Safe from any goroutine.
func (h *Hub) ChannelCount() int { return int(h.channelCount.Load()) }

// Run starts the hub's main event loop. It returns after Shutdown once every
// client has been closed.
func (h *Hub) Run() {
	defer close(h.done)

	h.timer.Start()
	wait := time.NewTimer(h.timer.Remaining())
	defer wait.Stop()

	for {
		if h.timer.HasExpired() {
			h.sweep()
			h.timer.Start()
		}
		wait.Reset(h.timer.Remaining())

		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case t := <-h.accept:
			h.admit(t)

		case in := <-h.inbound:
			h.handleLine(in.client, in.line)

		case f := <-h.failed:
			if h.clients.Contains(f.client) && !f.client.closing {
				h.log.Info("client.transport.fail", "id", f.client.id, "reason", f.reason, "err", f.err)
			}
			h.closeClient(f.client, f.reason)

		case <-wait.C:
		}
	}
}

// admit registers t or, when the registry is full, closes it without
// writing anything.
func (h *Hub) admit(t Transport) {
	client, err := NewClient(t, h)
	if err != nil {
		h.log.Error("client.id.fail", "err", err)
		closeTransport(h.log, t)
		return
	}

	if _, err := h.clients.Add(client); err != nil {
		h.metrics.admissionsRejected.Inc()
		h.log.Warn("client.rejected", "ip", client.ip, "port", client.port, "err", err, "max_clients", h.clients.Cap())
		closeTransport(h.log, t)
		return
	}
	h.syncCounts()

	h.log.Info("client.connected", "id", client.id, "ip", client.ip, "port", client.port, "clients", h.clients.Len())
	h.broadcast(connectedNotice(client.ip, client.port), h.clients.Clients(), client)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// handleLine dispatches one line from c. Lines that fail to parse are
// dropped and the connection stays open.
func (h *Hub) handleLine(c *Client, line []byte) {
	if c.closing || !h.clients.Contains(c) {
		return
	}

	cmd, err := ParseLine(line)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, ErrDecode) {
			reason = "decode"
		}
		h.metrics.linesDiscarded.WithLabelValues(reason).Inc()
		h.log.Debug("client.line.discard", "id", c.id, "reason", reason, "err", err)
		return
	}

	if cmd.Verb != VerbBleed && !c.limiter.take() {
		h.metrics.linesDiscarded.WithLabelValues("rate_limited").Inc()
		h.log.Debug("client.line.rate_limited", "id", c.id, "verb", cmd.Verb)
		return
	}

	switch cmd.Verb {
	case VerbBleed:
		h.clients.SetHeartbeatReceived(c)

	case VerbJoin:
		if err := h.channels.Join(c, cmd.Channel); err != nil {
			reason := "channel_full"
			if errors.Is(err, ErrChannelLimit) {
				reason = "channel_limit"
			}
			h.metrics.joinsRejected.WithLabelValues(reason).Inc()
			h.log.Info("channel.join.rejected", "id", c.id, "channel", cmd.Channel, "err", err)
		}

	case VerbPart:
		h.channels.Part(c, cmd.Channel)

	case VerbMsg:
		if !h.channels.IsMember(c, cmd.Channel) {
			h.metrics.linesDiscarded.WithLabelValues("not_member").Inc()
			return
		}
		delivered := h.broadcast(cmd.Line(), h.channels.Members(cmd.Channel), c)
		h.metrics.linesRelayed.Add(float64(delivered))
	}
	h.syncCounts()
}

// broadcast queues line to every target except skip and evicts targets whose
// queue cannot take it. It returns how many targets accepted the line.
func (h *Hub) broadcast(line []byte, targets []*Client, skip *Client) int {
	var (
		failed    []*Client
		delivered int
	)
	for _, c := range targets {
		if c == skip {
			continue
		}
		if !h.enqueue(c, line) {
			if !c.closing {
				failed = append(failed, c)
			}
			continue
		}
		delivered++
	}

	for _, c := range failed {
		h.closeClient(c, reasonSendFailed)
	}
	return delivered
}

// enqueue never blocks: a full queue counts as a failed send.
func (h *Hub) enqueue(c *Client, line []byte) bool {
	if c.closing || !h.clients.Contains(c) {
		return false
	}
	select {
	case c.send <- line:
		return true
	default:
		return false
	}
}

// closeClient announces c's departure, parts it from every channel, closes
// its transport, and drops it from the registry. Later calls for the same
// client do nothing.
func (h *Hub) closeClient(c *Client, reason string) {
	if c.closing || !h.clients.Contains(c) {
		return
	}
	c.closing = true

	h.log.Info("client.offline", "id", c.id, "ip", c.ip, "port", c.port, "reason", reason, "channels", h.channels.ChannelsOf(c))
	h.broadcast(offlineNotice(c.ip, c.port), h.clients.Clients(), c)

	h.channels.PartAll(c)

	close(c.done)
	closeTransport(h.log, c.transport)
	close(c.send)

	h.clients.Remove(c)
	h.metrics.evictions.WithLabelValues(reason).Inc()
	h.syncCounts()
}

// reportFailure is called by a client's pumps when its transport breaks.
func (h *Hub) reportFailure(c *Client, reason string, err error) {
	select {
	case h.failed <- transportFailure{client: c, reason: reason, err: err}:
	case <-c.done:
	case <-h.ctx.Done():
	}
}

func (h *Hub) syncCounts() {
	h.clientCount.Store(int64(h.clients.Len()))
	h.channelCount.Store(int64(h.channels.Len()))
	h.metrics.clients.Set(float64(h.clients.Len()))
	h.metrics.channels.Set(float64(h.channels.Len()))
}

// shutdownClients closes every client without departure announcements.
func (h *Hub) shutdownClients() {
	clients := h.clients.Clients()
	h.log.Info("hub.shutdown.clients", "count", len(clients))

	for _, c := range clients {
		c.closing = true
		h.channels.PartAll(c)
		close(c.done)
		closeTransport(h.log, c.transport)
		close(c.send)
		h.clients.Remove(c)
		h.metrics.evictions.WithLabelValues(reasonShutdown).Inc()
	}
	h.syncCounts()
}

// Shutdown stops the event loop and waits for every client goroutine to
// finish, or until timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("hub.shutdown")
	h.cancel()

	select {
	case <-h.done:
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.log.Info("hub.shutdown.complete")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub.shutdown.timeout")
		return context.DeadlineExceeded
	}
}

func closeTransport(log *slog.Logger, t Transport) {
	if err := t.Close(); err != nil && !isExpectedCloseError(err) {
		log.Debug("transport.close.fail", "err", err)
	}
}
