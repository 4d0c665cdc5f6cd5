// Package server keeps the bounded set of live connections and their
// heartbeat bookkeeping.
package server

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultMaxClients caps the client connection registry.
const DefaultMaxClients = 10000

// heartbeatReceived is stored as the miss count when a BLEED arrived since
// the last sweep; the next sweep clamps it to zero instead of counting a miss.
const heartbeatReceived = -1

type heartbeatStatus struct {
	misses   int
	lastSeen time.Time
}

// HeartbeatStatus is a read-only copy of a connection's liveness record.
type HeartbeatStatus struct {
	Misses   int
	LastSeen time.Time
}

// ConnectionRegistry is a capacity-bounded set of connections of one role.
// Each connection's heartbeat status lives in the same map entry as its
// membership, so the two cannot drift apart.
//
// It is not safe for concurrent use; the hub goroutine owns it.
type ConnectionRegistry struct {
	role  Role
	max   int
	now   func() time.Time
	order []*Client
	byID  map[ulid.ULID]*heartbeatStatus
}

// NewConnectionRegistry creates an empty registry holding at most max
// connections of the given role.
func NewConnectionRegistry(max int, role Role) *ConnectionRegistry {
	if max <= 0 {
		max = DefaultMaxClients
	}
	return &ConnectionRegistry{
		role: role,
		max:  max,
		now:  time.Now,
		byID: make(map[ulid.ULID]*heartbeatStatus),
	}
}

// Role returns the kind of peer this registry holds.
func (r *ConnectionRegistry) Role() Role { return r.role }

// Cap returns the configured capacity.
func (r *ConnectionRegistry) Cap() int { return r.max }

// Len returns the number of live connections.
func (r *ConnectionRegistry) Len() int { return len(r.order) }

// Add admits c with a zero miss count. It returns ErrAdmissionFull when the
// registry is at capacity. Adding a connection twice is a no-op.
func (r *ConnectionRegistry) Add(c *Client) (ulid.ULID, error) {
	if _, ok := r.byID[c.id]; ok {
		return c.id, nil
	}
	if len(r.order) >= r.max {
		return ulid.ULID{}, ErrAdmissionFull
	}
	r.order = append(r.order, c)
	r.byID[c.id] = &heartbeatStatus{lastSeen: r.now()}
	return c.id, nil
}

// Remove deletes c and its heartbeat status. Removing an unknown connection
// is a no-op.
func (r *ConnectionRegistry) Remove(c *Client) {
	if _, ok := r.byID[c.id]; !ok {
		return
	}
	delete(r.byID, c.id)
	for i, existing := range r.order {
		if existing == c {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether c is registered.
func (r *ConnectionRegistry) Contains(c *Client) bool {
	_, ok := r.byID[c.id]
	return ok
}

// SetHeartbeatReceived records a heartbeat response from c.
func (r *ConnectionRegistry) SetHeartbeatReceived(c *Client) {
	st, ok := r.byID[c.id]
	if !ok {
		return
	}
	st.misses = heartbeatReceived
	st.lastSeen = r.now()
}

// Evaluate applies one elapsed heartbeat interval to c. A pending response
// resets the miss count; otherwise the count grows until it reaches
// threshold, after which Evaluate reports true and c should be evicted.
func (r *ConnectionRegistry) Evaluate(c *Client, threshold int) bool {
	st, ok := r.byID[c.id]
	if !ok {
		return false
	}
	switch {
	case st.misses < 0:
		st.misses = 0
	case st.misses < threshold:
		st.misses++
	default:
		return true
	}
	return false
}

// Status returns c's heartbeat record.
func (r *ConnectionRegistry) Status(c *Client) (HeartbeatStatus, bool) {
	st, ok := r.byID[c.id]
	if !ok {
		return HeartbeatStatus{}, false
	}
	return HeartbeatStatus{Misses: st.misses, LastSeen: st.lastSeen}, true
}

// Clients returns the live connections in admission order. The slice is a
// copy, so callers may evict while iterating it.
func (r *ConnectionRegistry) Clients() []*Client {
	out := make([]*Client, len(r.order))
	copy(out, r.order)
	return out
}
