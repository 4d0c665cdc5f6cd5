// Package server provides the liveness timer that paces heartbeat sweeps.
package server

import "time"

// TimerState is the lifecycle state of a Timer.
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerExpired
)

func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerExpired:
		return "expired"
	default:
		return "idle"
	}
}

// Timer is a re-armable interval timer. It performs no I/O and owns no
// goroutine; callers poll HasExpired and re-arm with Start.
type Timer struct {
	interval time.Duration
	now      func() time.Time
	deadline time.Time
	armed    bool
}

// NewTimer creates an idle Timer for the given interval.
func NewTimer(interval time.Duration) *Timer {
	return newTimerWithClock(interval, time.Now)
}

func newTimerWithClock(interval time.Duration, now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{interval: interval, now: now}
}

// Start arms the timer one interval from now. Calling Start on a running or
// expired timer re-arms it.
func (t *Timer) Start() {
	t.deadline = t.now().Add(t.interval)
	t.armed = true
}

// HasExpired reports whether the armed interval has elapsed. It does not
// change state: an expired timer stays expired until Start is called again.
func (t *Timer) HasExpired() bool {
	return t.armed && !t.now().Before(t.deadline)
}

// state returns the current lifecycle state.
func (t *Timer) state() TimerState {
	switch {
	case !t.armed:
		return TimerIdle
	case t.HasExpired():
		return TimerExpired
	default:
		return TimerRunning
	}
}

// Remaining returns how long until the timer expires. An idle timer reports
// a full interval and an expired one reports zero.
func (t *Timer) Remaining() time.Duration {
	if !t.armed {
		return t.interval
	}
	d := t.deadline.Sub(t.now())
	if d < 0 {
		return 0
	}
	return d
}
