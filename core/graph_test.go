package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najoast/steady/channel"
)

type countingObserver struct {
	mu         sync.Mutex
	iterations map[string]int
	restarts   map[string]int
	states     map[string][]ActorState
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		iterations: make(map[string]int),
		restarts:   make(map[string]int),
		states:     make(map[string][]ActorState),
	}
}

func (o *countingObserver) ActorIteration(name string) {
	o.mu.Lock()
	o.iterations[name]++
	o.mu.Unlock()
}

func (o *countingObserver) ActorRestarted(name string) {
	o.mu.Lock()
	o.restarts[name]++
	o.mu.Unlock()
}

func (o *countingObserver) ActorStateChanged(name string, state ActorState) {
	o.mu.Lock()
	o.states[name] = append(o.states[name], state)
	o.mu.Unlock()
}

func TestGraphDrainsOnShutdown(t *testing.T) {
	tx, rx, err := channel.New[int]("numbers", 4)
	require.NoError(t, err)

	g := NewGraph()
	sent := 0
	_, err = g.AddActor("producer", func(actx *Context) error {
		tx.Lock()
		defer tx.Unlock()
		actx.OnShutdown(tx.MarkClosed)
		for actx.IsRunning(tx.IsClosed) {
			if !actx.WaitVacant(tx, 1) {
				continue
			}
			if tx.TrySend(sent) {
				sent++
			}
		}
		return nil
	}, DefaultActorOptions())
	require.NoError(t, err)

	var got []int
	_, err = g.AddActor("consumer", func(actx *Context) error {
		rx.Lock()
		defer rx.Unlock()
		for actx.IsRunning(rx.IsClosedAndEmpty) {
			actx.WaitAvail(rx, 1)
			got = append(got, rx.TakeN(rx.AvailUnits())...)
		}
		return nil
	}, DefaultActorOptions())
	require.NoError(t, err)

	require.NoError(t, g.Start())
	require.NoError(t, g.WaitStarted(time.Second))
	assert.Equal(t, GraphStateRunning, g.State())

	time.Sleep(20 * time.Millisecond)
	g.RequestStop()
	require.NoError(t, g.BlockUntilStopped(time.Second))
	assert.Equal(t, GraphStateStopped, g.State())

	require.Len(t, got, sent)
	for i, v := range got {
		require.Equal(t, i, v)
	}
	by, _ := g.Shutdown().RequestedBy()
	assert.Equal(t, "graph", by)
}

func TestGraphTeardownTimeout(t *testing.T) {
	g := NewGraph()
	_, err := g.AddActor("stubborn", func(actx *Context) error {
		tick := NewPeriodic(5 * time.Millisecond)
		for actx.IsRunning(func() bool { return false }) {
			actx.WaitForAll(tick)
		}
		return nil
	}, DefaultActorOptions())
	require.NoError(t, err)

	require.NoError(t, g.Start())
	g.RequestStop()

	err = g.BlockUntilStopped(30 * time.Millisecond)
	require.ErrorIs(t, err, ErrTeardownTimeout)
	assert.Contains(t, err.Error(), "stubborn")

	select {
	case <-g.Stopped():
	case <-time.After(time.Second):
		t.Fatal("aborted actor did not return")
	}
}

func TestGraphRestartKeepsState(t *testing.T) {
	obs := newCountingObserver()
	g := NewGraph(WithObserver(obs))
	state := NewState[counterState](g.Arena(), "flaky")

	_, err := g.AddActor("flaky", func(actx *Context) error {
		st, unlock, err := state.Lock(func() counterState { return counterState{} })
		if err != nil {
			return err
		}
		defer unlock()

		st.Count++
		if st.Count < 3 {
			panic("not yet")
		}
		for actx.IsRunning(nil) {
			actx.WaitForAll(NewPeriodic(time.Millisecond))
		}
		return nil
	}, ActorOptions{MaxRestarts: 5, RestartBackoff: time.Millisecond})
	require.NoError(t, err)

	require.NoError(t, g.Start())
	require.NoError(t, g.WaitStarted(time.Second))

	g.RequestStop()
	require.NoError(t, g.BlockUntilStopped(time.Second))

	snap, ok := state.Peek()
	require.True(t, ok)
	assert.Equal(t, 3, snap.Count)

	stats, ok := g.ActorStats("flaky")
	require.True(t, ok)
	assert.Equal(t, 2, stats.Restarts)
	assert.Equal(t, ActorStateStopped, stats.State)
	assert.Equal(t, 2, obs.restarts["flaky"])
}

func TestGraphRestartsExhausted(t *testing.T) {
	g := NewGraph()
	_, err := g.AddActor("doomed", func(actx *Context) error {
		panic("always")
	}, ActorOptions{MaxRestarts: 2, RestartBackoff: time.Millisecond})
	require.NoError(t, err)

	require.NoError(t, g.Start())
	err = g.BlockUntilStopped(time.Second)
	require.ErrorIs(t, err, ErrRestartsExhausted)

	var actorErr *ActorError
	require.True(t, errors.As(err, &actorErr))
	assert.Equal(t, "doomed", actorErr.Actor)
	assert.True(t, g.Shutdown().Requested(), "a failed actor stops the graph")
}

func TestGraphFailedActorClosesOutputs(t *testing.T) {
	tx, rx, err := channel.New[int]("data", 4)
	require.NoError(t, err)
	boom := errors.New("boom")

	g := NewGraph()
	_, err = g.AddActor("producer", func(actx *Context) error {
		tx.Lock()
		defer tx.Unlock()
		tx.TrySend(0)
		tx.TrySend(1)
		return boom
	}, ActorOptions{Outputs: []Closable{tx}})
	require.NoError(t, err)

	var got []int
	_, err = g.AddActor("consumer", func(actx *Context) error {
		rx.Lock()
		defer rx.Unlock()
		for actx.IsRunning(rx.IsClosedAndEmpty) {
			actx.WaitAvail(rx, 1)
			got = append(got, rx.TakeN(rx.AvailUnits())...)
		}
		return nil
	}, DefaultActorOptions())
	require.NoError(t, err)

	require.NoError(t, g.Start())
	err = g.BlockUntilStopped(time.Second)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTeardownTimeout)

	assert.True(t, tx.IsClosed())
	assert.Equal(t, []int{0, 1}, got)
	stats, ok := g.ActorStats("consumer")
	require.True(t, ok)
	assert.Empty(t, stats.LastError)
}

func TestWaitForAllInterruptedByShutdown(t *testing.T) {
	ticks, tickRx, err := channel.New[int]("ticks", 1)
	require.NoError(t, err)
	data, dataRx, err := channel.New[int]("data", 1)
	require.NoError(t, err)

	g := NewGraph()
	results := make(chan bool, 1)
	_, err = g.AddActor("waiter", func(actx *Context) error {
		for actx.IsRunning(nil) {
			results <- actx.WaitForAll(actx.Avail(tickRx, 1), actx.Avail(dataRx, 1))
		}
		return nil
	}, DefaultActorOptions())
	require.NoError(t, err)

	require.NoError(t, g.Start())
	require.NoError(t, g.WaitStarted(time.Second))
	g.RequestStop()
	// a wait entered after the request runs in drain mode and resolves on close
	ticks.MarkClosed()
	data.MarkClosed()

	select {
	case clean := <-results:
		assert.False(t, clean)
	case <-time.After(time.Second):
		t.Fatal("wait was not interrupted")
	}
	require.NoError(t, g.BlockUntilStopped(time.Second))
}

func TestWaitForAny(t *testing.T) {
	never := ConditionFunc(func(ctx context.Context) bool {
		<-ctx.Done()
		return false
	})
	soon := ConditionFunc(func(ctx context.Context) bool {
		time.Sleep(5 * time.Millisecond)
		return true
	})

	idx, ok := waitForAny(context.Background(), never, soon)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok = waitForAny(ctx, never)
	assert.False(t, ok)
}

func TestGraphRegistration(t *testing.T) {
	g := NewGraph(WithRunID("run-1"))
	assert.Equal(t, "run-1", g.RunID())
	assert.Equal(t, GraphStateBuilding, g.State())

	noop := func(actx *Context) error { return nil }
	id, err := g.AddActor("a", noop, DefaultActorOptions())
	require.NoError(t, err)
	assert.Equal(t, ActorID(1), id)

	_, err = g.AddActor("a", noop, DefaultActorOptions())
	assert.ErrorIs(t, err, ErrDuplicateActor)

	_, err = g.AddActor("", noop, DefaultActorOptions())
	assert.Error(t, err)

	assert.ErrorIs(t, g.BlockUntilStopped(time.Millisecond), ErrGraphNotStarted)

	require.NoError(t, g.Start())
	assert.ErrorIs(t, g.Start(), ErrGraphStarted)
	_, err = g.AddActor("b", noop, DefaultActorOptions())
	assert.ErrorIs(t, err, ErrGraphStarted)

	<-g.Stopped()
	assert.NoError(t, g.BlockUntilStopped(time.Millisecond))
	require.Len(t, g.Stats(), 1)
	assert.Equal(t, "stopped", g.Stats()[0].StateName)
}
