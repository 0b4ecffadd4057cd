package channel

import (
	"context"
	"sync"
)

// Rx is the consumer half of a channel.
type Rx[T any] struct {
	b     *buffer[T]
	owner sync.Mutex
}

// Lock claims the half for one actor. It is held for the actor's whole run.
func (r *Rx[T]) Lock() { r.owner.Lock() }

// Unlock releases the half.
func (r *Rx[T]) Unlock() { r.owner.Unlock() }

// Name returns the channel name.
func (r *Rx[T]) Name() string { return r.b.name }

// Capacity returns the channel capacity.
func (r *Rx[T]) Capacity() int { return len(r.b.items) }

// TryTake dequeues the oldest item without blocking.
func (r *Rx[T]) TryTake() (T, bool) {
	return r.b.pop()
}

// TakeN dequeues up to n items in FIFO order.
func (r *Rx[T]) TakeN(n int) []T {
	out := make([]T, 0, min(n, r.AvailUnits()))
	for len(out) < n {
		v, ok := r.b.pop()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// Take blocks until an item is available. It returns ErrClosed once the
// channel is closed and drained.
func (r *Rx[T]) Take(ctx context.Context) (T, error) {
	for {
		if v, ok := r.b.pop(); ok {
			return v, nil
		}
		if !r.WaitAvail(ctx, 1) {
			if r.IsClosedAndEmpty() {
				var zero T
				return zero, ErrClosed
			}
			if err := ctx.Err(); err != nil {
				var zero T
				return zero, err
			}
		}
	}
}

// Peek returns the oldest item without removing it.
func (r *Rx[T]) Peek() (T, bool) {
	b := r.b
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.items[b.head], true
}

// AvailUnits returns the number of buffered items.
func (r *Rx[T]) AvailUnits() int {
	return r.b.filled()
}

// WaitAvail blocks until at least n items are buffered. It returns false
// if ctx is done first, the channel is closed with fewer than n items, or
// n exceeds the capacity.
func (r *Rx[T]) WaitAvail(ctx context.Context, n int) bool {
	b := r.b
	return b.await(ctx,
		func() bool { return b.count >= n },
		func() bool { return b.closed || n > len(b.items) },
	)
}

// IsClosed reports whether the producer closed the channel.
func (r *Rx[T]) IsClosed() bool {
	return r.b.isClosed()
}

// IsClosedAndEmpty reports whether the channel is closed and drained.
func (r *Rx[T]) IsClosedAndEmpty() bool {
	b := r.b
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed && b.count == 0
}

// Snapshot returns the current channel statistics.
func (r *Rx[T]) Snapshot() Snapshot {
	return r.b.snapshot()
}
