package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrClosed is returned by blocking operations on a closed channel.
	ErrClosed = errors.New("channel: closed")

	// ErrInvalidCapacity is returned by New for a capacity below 1.
	ErrInvalidCapacity = errors.New("channel: capacity must be at least 1")
)

// Observer receives channel events. Implementations must not block and
// must not call back into the channel.
type Observer interface {
	ChannelSent(name string, filled int)
	ChannelTaken(name string, filled int)
	ChannelClosed(name string)
}

// Option configures a channel created by New.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver attaches an Observer to the channel.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// Snapshot is a point-in-time view of a channel used for monitoring.
type Snapshot struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Filled   int    `json:"filled"`
	Closed   bool   `json:"closed"`
	Sent     uint64 `json:"sent"`
	Taken    uint64 `json:"taken"`
}

// Monitored is implemented by both halves of a channel.
type Monitored interface {
	Snapshot() Snapshot
}

// buffer is the shared state behind a Tx/Rx pair.
type buffer[T any] struct {
	name     string
	observer Observer

	mu     sync.Mutex
	items  []T
	head   int
	count  int
	closed bool

	// changed is closed and replaced on every mutation to wake waiters
	changed chan struct{}

	sent  uint64
	taken uint64
}

// New creates a bounded channel and returns its producer and consumer halves.
func New[T any](name string, capacity int, opts ...Option) (*Tx[T], *Rx[T], error) {
	if capacity < 1 {
		return nil, nil, fmt.Errorf("%w: %s has capacity %d", ErrInvalidCapacity, name, capacity)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	b := &buffer[T]{
		name:     name,
		observer: o.observer,
		items:    make([]T, capacity),
		changed:  make(chan struct{}),
	}
	return &Tx[T]{b: b}, &Rx[T]{b: b}, nil
}

// notify wakes every waiter. Must be called with mu held.
func (b *buffer[T]) notify() {
	close(b.changed)
	b.changed = make(chan struct{})
}

func (b *buffer[T]) push(v T) bool {
	b.mu.Lock()
	if b.closed || b.count == len(b.items) {
		b.mu.Unlock()
		return false
	}
	b.items[(b.head+b.count)%len(b.items)] = v
	b.count++
	b.sent++
	filled := b.count
	b.notify()
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.ChannelSent(b.name, filled)
	}
	return true
}

func (b *buffer[T]) pop() (T, bool) {
	var zero T

	b.mu.Lock()
	if b.count == 0 {
		b.mu.Unlock()
		return zero, false
	}
	v := b.items[b.head]
	b.items[b.head] = zero
	b.head = (b.head + 1) % len(b.items)
	b.count--
	b.taken++
	filled := b.count
	b.notify()
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.ChannelTaken(b.name, filled)
	}
	return v, true
}

func (b *buffer[T]) markClosed() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.notify()
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.ChannelClosed(b.name)
	}
}

func (b *buffer[T]) filled() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *buffer[T]) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *buffer[T]) snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Name:     b.name,
		Capacity: len(b.items),
		Filled:   b.count,
		Closed:   b.closed,
		Sent:     b.sent,
		Taken:    b.taken,
	}
}

// await blocks until ready reports true, hopeless reports true, or ctx is
// done. Both predicates run with mu held.
func (b *buffer[T]) await(ctx context.Context, ready, hopeless func() bool) bool {
	for {
		b.mu.Lock()
		if ready() {
			b.mu.Unlock()
			return true
		}
		if hopeless() {
			b.mu.Unlock()
			return false
		}
		changed := b.changed
		b.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return false
		}
	}
}
