// Package server throttles the commands a single connection may issue.
package server

import "time"

// lineBucket is a token bucket refilled continuously at burst tokens per
// interval. It belongs to one client and is only used by the hub goroutine.
type lineBucket struct {
	burst    float64
	perSec   float64
	tokens   float64
	refilled time.Time
	clock    func() time.Time
}

// newLineBucket returns nil when burst is not positive; a nil bucket admits
// every line.
func newLineBucket(burst int, interval time.Duration, clock func() time.Time) *lineBucket {
	if burst <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Second
	}
	if clock == nil {
		clock = time.Now
	}
	return &lineBucket{
		burst:    float64(burst),
		perSec:   float64(burst) / interval.Seconds(),
		tokens:   float64(burst),
		refilled: clock(),
		clock:    clock,
	}
}

// take spends one token, reporting false when the bucket is empty.
func (b *lineBucket) take() bool {
	if b == nil {
		return true
	}

	now := b.clock()
	if d := now.Sub(b.refilled); d > 0 {
		b.tokens = min(b.burst, b.tokens+d.Seconds()*b.perSec)
	}
	b.refilled = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
