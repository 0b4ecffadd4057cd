package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	Count int
}

func TestStateLazyInitAndPersistence(t *testing.T) {
	arena := NewStateArena()
	state := NewState[counterState](arena, "counter")

	inits := 0
	init := func() counterState {
		inits++
		return counterState{Count: 10}
	}

	v, unlock, err := state.Lock(init)
	require.NoError(t, err)
	assert.Equal(t, 10, v.Count)
	v.Count++

	_, ok := state.Peek()
	assert.False(t, ok, "peek must not see a held slot")
	unlock()
	unlock()

	again := NewState[counterState](arena, "counter")
	v, unlock, err = again.Lock(init)
	require.NoError(t, err)
	assert.Equal(t, 11, v.Count)
	unlock()

	assert.Equal(t, 1, inits)

	snap, ok := state.Peek()
	require.True(t, ok)
	assert.Equal(t, counterState{Count: 11}, snap)
	assert.Equal(t, []string{"counter"}, arena.Keys())
}

func TestStateTypeMismatch(t *testing.T) {
	arena := NewStateArena()

	_, unlock, err := NewState[counterState](arena, "slot").Lock(func() counterState { return counterState{} })
	require.NoError(t, err)
	unlock()

	_, _, err = NewState[string](arena, "slot").Lock(func() string { return "" })
	assert.ErrorIs(t, err, ErrStateType)
}

func TestStatePeekUninitialised(t *testing.T) {
	_, ok := NewState[counterState](NewStateArena(), "empty").Peek()
	assert.False(t, ok)
}
