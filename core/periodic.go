package core

import (
	"context"
	"sync"
	"time"
)

// Periodic resolves once per period on a fixed schedule. Deadlines are
// derived from the previous deadline, not from the time of the call, so a
// slow caller does not shift the schedule: missed slots resolve at once.
type Periodic struct {
	period time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewPeriodic creates a waiter whose first deadline is one period after
// the first Wait.
func NewPeriodic(period time.Duration) *Periodic {
	return &Periodic{period: period}
}

// Period returns the configured period.
func (p *Periodic) Period() time.Duration {
	return p.period
}

// Wait blocks until the next deadline. It returns false if ctx is done
// first; the deadline is then kept for the next call.
func (p *Periodic) Wait(ctx context.Context) bool {
	p.mu.Lock()
	if p.next.IsZero() {
		p.next = time.Now().Add(p.period)
	}
	deadline := p.next
	p.mu.Unlock()

	if d := time.Until(deadline); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return false
		}
	} else if ctx.Err() != nil {
		return false
	}

	p.mu.Lock()
	p.next = deadline.Add(p.period)
	p.mu.Unlock()
	return true
}

// Await implements Condition.
func (p *Periodic) Await(ctx context.Context) bool {
	return p.Wait(ctx)
}
