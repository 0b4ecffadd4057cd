package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ShutdownSignal is the shared, one-way stop request of a Graph.
// Every actor can observe it; raising it is idempotent.
type ShutdownSignal struct {
	ctx    context.Context
	cancel context.CancelFunc

	requested atomic.Bool

	mu sync.Mutex
	by string
	at time.Time
}

// NewShutdownSignal creates a signal that is also raised when parent is done.
func NewShutdownSignal(parent context.Context) *ShutdownSignal {
	ctx, cancel := context.WithCancel(parent)
	s := &ShutdownSignal{ctx: ctx, cancel: cancel}
	context.AfterFunc(ctx, func() { s.Request("context") })
	return s
}

// Request raises the signal. It returns true only for the call that
// actually raised it.
func (s *ShutdownSignal) Request(by string) bool {
	if !s.requested.CompareAndSwap(false, true) {
		return false
	}
	s.mu.Lock()
	s.by = by
	s.at = time.Now()
	s.mu.Unlock()
	s.cancel()
	return true
}

// Requested reports whether the signal has been raised.
func (s *ShutdownSignal) Requested() bool {
	return s.requested.Load()
}

// Done is closed once the signal is raised.
func (s *ShutdownSignal) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Context is cancelled once the signal is raised.
func (s *ShutdownSignal) Context() context.Context {
	return s.ctx
}

// RequestedBy returns who raised the signal and when.
func (s *ShutdownSignal) RequestedBy() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.by, s.at
}
