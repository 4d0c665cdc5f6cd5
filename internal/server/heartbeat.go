package server

// sweep runs once per expired heartbeat interval. Responses are evaluated
// before new probes go out, so a client gets MissedHeartbeats full intervals
// to answer before it is evicted.
func (h *Hub) sweep() {
	evicted := 0
	for _, c := range h.clients.Clients() {
		if c.closing {
			continue
		}
		if h.clients.Evaluate(c, h.cfg.MissedHeartbeats) {
			if st, ok := h.clients.Status(c); ok {
				h.log.Debug("heartbeat.timeout", "id", c.id, "last_seen", st.LastSeen)
			}
			h.closeClient(c, reasonHeartbeatTimeout)
			evicted++
		}
	}

	probed := 0
	for _, c := range h.clients.Clients() {
		if c.closing {
			continue
		}
		if !h.enqueue(c, heartbeatProbe) {
			h.closeClient(c, reasonProbeFailed)
			evicted++
			continue
		}
		probed++
	}
	h.metrics.heartbeatProbes.Add(float64(probed))

	if evicted > 0 {
		h.log.Info("heartbeat.sweep", "probed", probed, "evicted", evicted)
	} else {
		h.log.Debug("heartbeat.sweep", "probed", probed)
	}
}
