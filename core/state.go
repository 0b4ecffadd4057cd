package core

import (
	"fmt"
	"sort"
	"sync"
)

// StateArena holds the persistent state of every actor in a Graph, keyed
// by actor name. A slot outlives the runs of its actor, so a restarted
// actor continues from the state its previous run left behind.
type StateArena struct {
	mu    sync.Mutex
	slots map[string]*stateSlot
}

type stateSlot struct {
	mu    sync.Mutex
	value any
}

// NewStateArena creates an empty arena.
func NewStateArena() *StateArena {
	return &StateArena{slots: make(map[string]*stateSlot)}
}

func (a *StateArena) slot(key string) *stateSlot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.slots[key]
	if !ok {
		s = &stateSlot{}
		a.slots[key] = s
	}
	return s
}

// Keys returns the keys of all slots in sorted order.
func (a *StateArena) Keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]string, 0, len(a.slots))
	for k := range a.slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// State is a typed handle to one arena slot.
type State[T any] struct {
	key  string
	slot *stateSlot
}

// NewState returns the handle for key. Handles for the same key share
// the slot.
func NewState[T any](arena *StateArena, key string) *State[T] {
	return &State[T]{key: key, slot: arena.slot(key)}
}

// Key returns the slot key.
func (s *State[T]) Key() string {
	return s.key
}

// Lock acquires the slot, initialising it with init on first use, and
// returns a pointer valid until unlock is called.
func (s *State[T]) Lock(init func() T) (*T, func(), error) {
	s.slot.mu.Lock()

	if s.slot.value == nil {
		v := init()
		s.slot.value = &v
	}
	v, ok := s.slot.value.(*T)
	if !ok {
		s.slot.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s holds %T", ErrStateType, s.key, s.slot.value)
	}

	var once sync.Once
	return v, func() { once.Do(s.slot.mu.Unlock) }, nil
}

// Peek returns a copy of the state if the slot is initialised and not
// currently held by its owner.
func (s *State[T]) Peek() (T, bool) {
	var zero T
	if !s.slot.mu.TryLock() {
		return zero, false
	}
	defer s.slot.mu.Unlock()

	v, ok := s.slot.value.(*T)
	if !ok {
		return zero, false
	}
	return *v, true
}
