package transfer

import (
	"context"
	"sync/atomic"
	"time"
)

// Outcome is the single resolution of a collector: either the first
// qualifying decision, or expiry of the decision window.
type Outcome struct {
	Decision Decision
	Expired  bool
}

// Collector accepts candidate decision events for exactly one request and
// resolves to exactly one outcome. The first qualifying decision wins the
// race against the deadline; everything after resolution is inert.
type Collector struct {
	surfaceID string
	window    time.Duration

	resolved atomic.Bool
	decided  chan Decision
}

// NewCollector arms a collector scoped to the given approver surface.
func NewCollector(surfaceID string, window time.Duration) *Collector {
	return &Collector{
		surfaceID: surfaceID,
		window:    window,
		decided:   make(chan Decision, 1),
	}
}

// Offer submits a candidate decision. It returns true only for the one
// decision that resolves the collector: events for other surfaces, events
// from actors without role-management authority, and any event after
// resolution are all rejected.
func (c *Collector) Offer(decision Decision) bool {
	if decision.SurfaceID != c.surfaceID || !decision.CanManageRoles {
		return false
	}
	if !c.resolved.CompareAndSwap(false, true) {
		return false
	}
	c.decided <- decision
	return true
}

// Await blocks until the collector resolves. A deadline firing after a
// decision already won the swap is a no-op: the decision is returned.
// Context cancellation resolves as expiry so shutdown never leaks waiters.
func (c *Collector) Await(ctx context.Context) Outcome {
	timer := time.NewTimer(c.window)
	defer timer.Stop()

	select {
	case decision := <-c.decided:
		return Outcome{Decision: decision}
	case <-timer.C:
		if c.resolved.CompareAndSwap(false, true) {
			return Outcome{Expired: true}
		}
		return Outcome{Decision: <-c.decided}
	case <-ctx.Done():
		if c.resolved.CompareAndSwap(false, true) {
			return Outcome{Expired: true}
		}
		return Outcome{Decision: <-c.decided}
	}
}
