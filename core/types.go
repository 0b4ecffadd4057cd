package core

import (
	"time"
)

// ActorID represents a unique identifier for an Actor within a Graph.
type ActorID uint32

// ActorState represents the current state of an Actor.
type ActorState uint8

const (
	// ActorStateIdle means the Actor is registered but not started
	ActorStateIdle ActorState = iota

	// ActorStateRunning means the Actor loop is active
	ActorStateRunning

	// ActorStateStopping means shutdown was requested and the Actor is draining
	ActorStateStopping

	// ActorStateRestarting means the Actor panicked and is waiting to be restarted
	ActorStateRestarting

	// ActorStateStopped means the Actor behavior has returned
	ActorStateStopped
)

// String returns the string representation of ActorState.
func (s ActorState) String() string {
	switch s {
	case ActorStateIdle:
		return "idle"
	case ActorStateRunning:
		return "running"
	case ActorStateStopping:
		return "stopping"
	case ActorStateRestarting:
		return "restarting"
	case ActorStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Behavior is the body of an Actor. It runs until IsRunning reports false
// and returns nil on a clean stop. A panic is recovered and the behavior
// is invoked again with the same persistent state.
type Behavior func(actx *Context) error

// ActorOptions contains configuration options for adding an Actor.
type ActorOptions struct {
	// MaxRestarts is the number of panics tolerated before the Actor fails
	MaxRestarts int

	// RestartBackoff is the pause before a panicked Actor is restarted
	RestartBackoff time.Duration

	// Outputs are closed when the Actor fails, whether or not its
	// behavior got as far as registering its own close actions
	Outputs []Closable
}

// DefaultActorOptions returns sensible default options.
func DefaultActorOptions() ActorOptions {
	return ActorOptions{
		MaxRestarts:    3,
		RestartBackoff: 100 * time.Millisecond,
	}
}

// ActorStats contains runtime statistics for an Actor.
type ActorStats struct {
	// ID of the Actor
	ID ActorID `json:"id"`

	// Name of the Actor
	Name string `json:"name"`

	// Current state
	State ActorState `json:"-"`

	// StateName is State rendered for JSON output
	StateName string `json:"state"`

	// Iterations counts IsRunning calls across all runs
	Iterations uint64 `json:"iterations"`

	// Restarts counts recovered panics
	Restarts int `json:"restarts"`

	// StartedAt is the time the first run began
	StartedAt time.Time `json:"started_at"`

	// StoppedAt is the time the behavior returned for good
	StoppedAt time.Time `json:"stopped_at,omitempty"`

	// LastError is the final error, if any
	LastError string `json:"last_error,omitempty"`
}
