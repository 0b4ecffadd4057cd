package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// actorCell is the supervisor-side record of one registered Actor.
type actorCell struct {
	id       ActorID
	name     string
	behavior Behavior
	opts     ActorOptions

	state      atomic.Uint32 // ActorState
	iterations atomic.Uint64
	restarts   atomic.Int32

	started     chan struct{}
	startedOnce sync.Once

	mu        sync.Mutex
	startedAt time.Time
	stoppedAt time.Time
	lastErr   error
}

func (c *actorCell) loadState() ActorState {
	return ActorState(c.state.Load())
}

func (c *actorCell) markStarted() {
	c.startedOnce.Do(func() { close(c.started) })
}

func (c *actorCell) stats() ActorStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := ActorStats{
		ID:         c.id,
		Name:       c.name,
		State:      c.loadState(),
		Iterations: c.iterations.Load(),
		Restarts:   int(c.restarts.Load()),
		StartedAt:  c.startedAt,
		StoppedAt:  c.stoppedAt,
	}
	s.StateName = s.State.String()
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// registry keeps the actors of a Graph by name in registration order.
type registry struct {
	// Map of actor name to cell
	cells sync.Map // map[string]*actorCell

	mu    sync.Mutex
	order []*actorCell

	// Counter for generating unique Actor IDs
	idCounter uint32
}

func newRegistry() *registry {
	return &registry{}
}

// register adds a new cell for name.
func (r *registry) register(name string, behavior Behavior, opts ActorOptions) (*actorCell, error) {
	if name == "" {
		return nil, fmt.Errorf("cannot register actor without a name")
	}
	if behavior == nil {
		return nil, fmt.Errorf("cannot register actor %s with nil behavior", name)
	}

	cell := &actorCell{
		id:       r.nextID(),
		name:     name,
		behavior: behavior,
		opts:     opts,
		started:  make(chan struct{}),
	}
	if _, exists := r.cells.LoadOrStore(name, cell); exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateActor, name)
	}

	r.mu.Lock()
	r.order = append(r.order, cell)
	r.mu.Unlock()

	return cell, nil
}

// lookup finds a cell by actor name.
func (r *registry) lookup(name string) (*actorCell, bool) {
	if cell, exists := r.cells.Load(name); exists {
		return cell.(*actorCell), true
	}
	return nil, false
}

// list returns all cells in registration order.
func (r *registry) list() []*actorCell {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*actorCell, len(r.order))
	copy(out, r.order)
	return out
}

// nextID generates the next available Actor ID.
func (r *registry) nextID() ActorID {
	return ActorID(atomic.AddUint32(&r.idCounter, 1))
}

func cellNames(cells []*actorCell) []string {
	names := make([]string, 0, len(cells))
	for _, c := range cells {
		names = append(names, c.name)
	}
	return names
}

func cellFields(c *actorCell) []zap.Field {
	return []zap.Field{zap.String("actor", c.name), zap.Uint32("actor_id", uint32(c.id))}
}
