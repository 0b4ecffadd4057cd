package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrGraphNotStarted is returned when waiting on a graph that never started.
var ErrGraphNotStarted = errors.New("graph not started")

// GraphState describes the phase of a Graph.
type GraphState uint8

const (
	// GraphStateBuilding means actors can still be added
	GraphStateBuilding GraphState = iota

	// GraphStateRunning means actors are running
	GraphStateRunning

	// GraphStateStopRequested means shutdown is being negotiated
	GraphStateStopRequested

	// GraphStateStopped means every actor has returned
	GraphStateStopped
)

// String returns the string representation of GraphState.
func (s GraphState) String() string {
	switch s {
	case GraphStateBuilding:
		return "building"
	case GraphStateRunning:
		return "running"
	case GraphStateStopRequested:
		return "stop_requested"
	case GraphStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger sets the logger actors derive their loggers from.
func WithLogger(logger *zap.Logger) GraphOption {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithObserver sets the observer notified about actor events.
func WithObserver(o Observer) GraphOption {
	return func(g *Graph) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithContext ties the shutdown request to ctx.
func WithContext(ctx context.Context) GraphOption {
	return func(g *Graph) {
		if ctx != nil {
			g.parent = ctx
		}
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) GraphOption {
	return func(g *Graph) {
		if id != "" {
			g.runID = id
		}
	}
}

// Graph owns a set of actors, their shared shutdown signal and their
// persistent state, and supervises their goroutines.
type Graph struct {
	runID    string
	logger   *zap.Logger
	observer Observer
	parent   context.Context

	shutdown *ShutdownSignal
	abortCtx context.Context
	abort    context.CancelFunc

	arena    *StateArena
	registry *registry

	started atomic.Bool
	group   errgroup.Group
	done    chan struct{}

	errMu sync.Mutex
	err   error
}

// NewGraph creates an empty graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		runID:    uuid.NewString(),
		logger:   zap.NewNop(),
		observer: nopObserver{},
		parent:   context.Background(),
		arena:    NewStateArena(),
		registry: newRegistry(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.logger = g.logger.With(zap.String("run_id", g.runID))
	g.shutdown = NewShutdownSignal(g.parent)
	g.abortCtx, g.abort = context.WithCancel(context.Background())
	return g
}

// RunID returns the id of this graph run.
func (g *Graph) RunID() string { return g.runID }

// Logger returns the graph logger.
func (g *Graph) Logger() *zap.Logger { return g.logger }

// Shutdown returns the graph-wide shutdown signal.
func (g *Graph) Shutdown() *ShutdownSignal { return g.shutdown }

// Arena returns the persistent state arena.
func (g *Graph) Arena() *StateArena { return g.arena }

// Stopped is closed once every actor has returned.
func (g *Graph) Stopped() <-chan struct{} { return g.done }

// State returns the current phase of the graph.
func (g *Graph) State() GraphState {
	select {
	case <-g.done:
		if g.started.Load() {
			return GraphStateStopped
		}
	default:
	}
	switch {
	case !g.started.Load():
		return GraphStateBuilding
	case g.shutdown.Requested():
		return GraphStateStopRequested
	default:
		return GraphStateRunning
	}
}

// AddActor registers an actor. It must be called before Start.
func (g *Graph) AddActor(name string, behavior Behavior, opts ActorOptions) (ActorID, error) {
	if g.started.Load() {
		return 0, ErrGraphStarted
	}
	cell, err := g.registry.register(name, behavior, opts)
	if err != nil {
		return 0, err
	}
	return cell.id, nil
}

// Start launches one goroutine per actor.
func (g *Graph) Start() error {
	if !g.started.CompareAndSwap(false, true) {
		return ErrGraphStarted
	}

	cells := g.registry.list()
	for _, cell := range cells {
		g.group.Go(func() error {
			return g.supervise(cell)
		})
	}
	go func() {
		_ = g.group.Wait()
		g.logger.Info("graph stopped")
		close(g.done)
	}()

	g.logger.Info("graph started", zap.Strings("actors", cellNames(cells)))
	return nil
}

// WaitStarted blocks until every actor entered its loop or returned.
func (g *Graph) WaitStarted(timeout time.Duration) error {
	if !g.started.Load() {
		return ErrGraphNotStarted
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for _, cell := range g.registry.list() {
		select {
		case <-cell.started:
		case <-g.done:
			return nil
		case <-timer.C:
			var pending []string
			for _, c := range g.registry.list() {
				select {
				case <-c.started:
				default:
					pending = append(pending, c.name)
				}
			}
			return fmt.Errorf("%w: %s not started after %s", ErrStartupTimeout, strings.Join(pending, ", "), timeout)
		}
	}
	return nil
}

// RequestStop raises the shutdown signal on behalf of the caller.
func (g *Graph) RequestStop() {
	if g.shutdown.Request("graph") {
		g.logger.Info("stop requested")
	}
}

// BlockUntilStopped waits for a shutdown request and then up to timeout
// for every actor to agree and return. Actors still running after the
// timeout are aborted and reported with ErrTeardownTimeout.
func (g *Graph) BlockUntilStopped(timeout time.Duration) error {
	if !g.started.Load() {
		return ErrGraphNotStarted
	}

	select {
	case <-g.shutdown.Done():
	case <-g.done:
		return g.Err()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-g.done:
		return g.Err()
	case <-timer.C:
	}

	var stuck []string
	for _, cell := range g.registry.list() {
		if cell.loadState() != ActorStateStopped {
			stuck = append(stuck, cell.name)
		}
	}
	g.logger.Error("teardown timeout", zap.Strings("actors", stuck), zap.Duration("timeout", timeout))
	g.abort()

	return multierr.Append(g.Err(),
		fmt.Errorf("%w: %s still running after %s", ErrTeardownTimeout, strings.Join(stuck, ", "), timeout))
}

// Err returns the combined errors of all failed actors.
func (g *Graph) Err() error {
	g.errMu.Lock()
	defer g.errMu.Unlock()
	return g.err
}

// Stats returns runtime statistics of every actor.
func (g *Graph) Stats() []ActorStats {
	cells := g.registry.list()
	stats := make([]ActorStats, 0, len(cells))
	for _, cell := range cells {
		stats = append(stats, cell.stats())
	}
	return stats
}

// ActorStats returns the statistics of one actor.
func (g *Graph) ActorStats(name string) (ActorStats, bool) {
	cell, ok := g.registry.lookup(name)
	if !ok {
		return ActorStats{}, false
	}
	return cell.stats(), true
}

func (g *Graph) setState(cell *actorCell, state ActorState) {
	if ActorState(cell.state.Swap(uint32(state))) != state {
		g.observer.ActorStateChanged(cell.name, state)
	}
}

// supervise runs an actor, restarting it after a panic until its restart
// budget is spent.
func (g *Graph) supervise(cell *actorCell) error {
	cell.mu.Lock()
	cell.startedAt = time.Now()
	cell.mu.Unlock()
	g.setState(cell, ActorStateRunning)

	logger := g.logger.With(cellFields(cell)...)
	for {
		actx, panicked, err := g.invoke(cell)
		if !panicked {
			return g.finish(cell, actx, err)
		}

		if int(cell.restarts.Load()) >= cell.opts.MaxRestarts {
			return g.finish(cell, actx, fmt.Errorf("%w after %d restarts: %v", ErrRestartsExhausted, cell.restarts.Load(), err))
		}
		cell.restarts.Add(1)
		g.observer.ActorRestarted(cell.name)
		g.setState(cell, ActorStateRestarting)
		logger.Warn("restarting actor", zap.Error(err), zap.Int32("restarts", cell.restarts.Load()))

		select {
		case <-time.After(cell.opts.RestartBackoff):
		case <-g.abortCtx.Done():
			return g.finish(cell, actx, err)
		}

		if g.shutdown.Requested() {
			g.setState(cell, ActorStateStopping)
		} else {
			g.setState(cell, ActorStateRunning)
		}
	}
}

// invoke runs one behavior call and converts a panic into an error.
func (g *Graph) invoke(cell *actorCell) (actx *Context, panicked bool, err error) {
	actx = newContext(g, cell)
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = fmt.Errorf("panic: %v", r)
			actx.logger.Error("actor panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
	}()
	return actx, false, cell.behavior(actx)
}

// finish records the final outcome of an actor. A failed actor raises the
// shutdown signal, runs its close actions and closes its declared outputs
// so downstream actors can drain what it already produced.
func (g *Graph) finish(cell *actorCell, actx *Context, err error) error {
	cell.mu.Lock()
	cell.stoppedAt = time.Now()
	cell.lastErr = err
	cell.mu.Unlock()
	cell.markStarted()

	if err != nil {
		err = &ActorError{Actor: cell.name, Err: err}
		g.errMu.Lock()
		g.err = multierr.Append(g.err, err)
		g.errMu.Unlock()

		actx.logger.Error("actor failed", zap.Error(err))
		actx.RequestShutdown()
		actx.runShutdownActions()
		for _, out := range cell.opts.Outputs {
			out.MarkClosed()
		}
	} else {
		actx.logger.Debug("actor stopped")
	}

	g.setState(cell, ActorStateStopped)
	return err
}
