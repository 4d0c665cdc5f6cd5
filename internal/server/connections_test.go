package server

import (
	"errors"
	"testing"
	"time"
)

// registryClient builds a bare client for registry tests; no hub or pumps.
func registryClient(t *testing.T) *Client {
	t.Helper()
	id, err := newClientID(time.Now())
	if err != nil {
		t.Fatalf("newClientID() err=%v", err)
	}
	return &Client{id: id}
}

func TestConnectionRegistryAdmission(t *testing.T) {
	t.Parallel()

	const max = 3
	reg := NewConnectionRegistry(max, RoleClient)

	var admitted []*Client
	for i := 0; i < max; i++ {
		c := registryClient(t)
		id, err := reg.Add(c)
		if err != nil {
			t.Fatalf("Add #%d err=%v", i, err)
		}
		if id != c.id {
			t.Fatalf("Add #%d returned id %s want %s", i, id, c.id)
		}
		admitted = append(admitted, c)
	}

	extra := registryClient(t)
	if _, err := reg.Add(extra); !errors.Is(err, ErrAdmissionFull) {
		t.Fatalf("Add at capacity err=%v want=%v", err, ErrAdmissionFull)
	}
	if reg.Contains(extra) || reg.Len() != max {
		t.Fatalf("rejected client leaked into registry: len=%d", reg.Len())
	}

	got := reg.Clients()
	for i := range admitted {
		if got[i] != admitted[i] {
			t.Fatalf("Clients()[%d] is not in admission order", i)
		}
	}

	reg.Remove(admitted[1])
	if _, err := reg.Add(extra); err != nil {
		t.Fatalf("Add after Remove err=%v", err)
	}
}

func TestConnectionRegistryRemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	reg := NewConnectionRegistry(10, RoleClient)
	a, b, c := registryClient(t), registryClient(t), registryClient(t)
	for _, cl := range []*Client{a, b, c} {
		if _, err := reg.Add(cl); err != nil {
			t.Fatalf("Add err=%v", err)
		}
	}

	reg.Remove(b)
	reg.Remove(b)
	reg.Remove(registryClient(t))

	got := reg.Clients()
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Fatalf("Clients() after Remove = %v", got)
	}
	if _, ok := reg.Status(b); ok {
		t.Fatal("removed client still has a heartbeat status")
	}
	reg.SetHeartbeatReceived(b)
	if reg.Evaluate(b, 2) {
		t.Fatal("Evaluate on a removed client must not request eviction")
	}
}

func TestConnectionRegistryHeartbeatEvaluation(t *testing.T) {
	t.Parallel()

	reg := NewConnectionRegistry(10, RoleClient)
	c := registryClient(t)
	if _, err := reg.Add(c); err != nil {
		t.Fatalf("Add err=%v", err)
	}

	const threshold = 2
	// Silent client: 0 -> 1 -> 2 -> evict.
	for i, wantEvict := range []bool{false, false, true} {
		if got := reg.Evaluate(c, threshold); got != wantEvict {
			t.Fatalf("sweep %d: Evaluate()=%v want=%v", i+1, got, wantEvict)
		}
	}

	// A response clamps the count back to zero on the next sweep.
	reg.SetHeartbeatReceived(c)
	if st, _ := reg.Status(c); st.Misses != heartbeatReceived {
		t.Fatalf("Misses after BLEED=%d want=%d", st.Misses, heartbeatReceived)
	}
	if reg.Evaluate(c, threshold) {
		t.Fatal("client with a pending response must not be evicted")
	}
	if st, _ := reg.Status(c); st.Misses != 0 {
		t.Fatalf("Misses after clamp=%d want=0", st.Misses)
	}
}

func TestConnectionRegistryDuplicateAdd(t *testing.T) {
	t.Parallel()

	reg := NewConnectionRegistry(1, RoleServer)
	c := registryClient(t)
	for i := 0; i < 2; i++ {
		if _, err := reg.Add(c); err != nil {
			t.Fatalf("Add #%d err=%v", i, err)
		}
	}
	if reg.Len() != 1 {
		t.Fatalf("Len()=%d want=1", reg.Len())
	}
	if reg.Role() != RoleServer || reg.Role().String() != "server" {
		t.Fatalf("Role()=%v", reg.Role())
	}
}
