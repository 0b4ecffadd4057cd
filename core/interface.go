package core

import (
	"context"
)

// Condition is a readiness predicate an Actor can suspend on.
type Condition interface {
	// Await blocks until the condition holds (true), ctx is done, or the
	// condition can never hold any more (false). It must not consume data.
	Await(ctx context.Context) bool
}

// ConditionFunc adapts a function to the Condition interface.
type ConditionFunc func(ctx context.Context) bool

// Await calls f(ctx).
func (f ConditionFunc) Await(ctx context.Context) bool {
	return f(ctx)
}

// AvailWaiter is implemented by channel consumer halves.
type AvailWaiter interface {
	WaitAvail(ctx context.Context, n int) bool
}

// VacantWaiter is implemented by channel producer halves.
type VacantWaiter interface {
	WaitVacant(ctx context.Context, n int) bool
}

// Closable is implemented by channel producer halves.
type Closable interface {
	MarkClosed()
}

// Observer receives Actor lifecycle events, typically to export metrics.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	// ActorIteration is called on every IsRunning call.
	ActorIteration(name string)

	// ActorRestarted is called after a panic was recovered.
	ActorRestarted(name string)

	// ActorStateChanged is called on every state transition.
	ActorStateChanged(name string, state ActorState)
}

type nopObserver struct{}

func (nopObserver) ActorIteration(string)                {}
func (nopObserver) ActorRestarted(string)                {}
func (nopObserver) ActorStateChanged(string, ActorState) {}
