package channel

import (
	"context"
	"sync"
)

// Tx is the producer half of a channel.
type Tx[T any] struct {
	b     *buffer[T]
	owner sync.Mutex
}

// Lock claims the half for one actor. It is held for the actor's whole run.
func (t *Tx[T]) Lock() { t.owner.Lock() }

// Unlock releases the half.
func (t *Tx[T]) Unlock() { t.owner.Unlock() }

// Name returns the channel name.
func (t *Tx[T]) Name() string { return t.b.name }

// Capacity returns the channel capacity.
func (t *Tx[T]) Capacity() int { return len(t.b.items) }

// TrySend enqueues v without blocking. It returns false when the channel
// is full or closed; v is then still owned by the caller.
func (t *Tx[T]) TrySend(v T) bool {
	return t.b.push(v)
}

// Send blocks until v is enqueued, the channel is closed or ctx is done.
func (t *Tx[T]) Send(ctx context.Context, v T) error {
	for {
		if t.b.push(v) {
			return nil
		}
		if !t.WaitVacant(ctx, 1) {
			if t.IsClosed() {
				return ErrClosed
			}
			return ctx.Err()
		}
	}
}

// VacantUnits returns the number of free slots.
func (t *Tx[T]) VacantUnits() int {
	return len(t.b.items) - t.b.filled()
}

// WaitVacant blocks until at least n slots are free. It returns false if
// ctx is done first, the channel is closed, or n exceeds the capacity.
func (t *Tx[T]) WaitVacant(ctx context.Context, n int) bool {
	b := t.b
	return b.await(ctx,
		func() bool { return !b.closed && len(b.items)-b.count >= n },
		func() bool { return b.closed || n > len(b.items) },
	)
}

// MarkClosed closes the channel. Calling it more than once is a no-op.
// Items already buffered remain available to the consumer.
func (t *Tx[T]) MarkClosed() {
	t.b.markClosed()
}

// IsClosed reports whether MarkClosed has been called.
func (t *Tx[T]) IsClosed() bool {
	return t.b.isClosed()
}

// Snapshot returns the current channel statistics.
func (t *Tx[T]) Snapshot() Snapshot {
	return t.b.snapshot()
}
