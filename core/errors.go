package core

import (
	"errors"
	"fmt"
)

var (
	// ErrTeardownTimeout is returned when actors did not stop in time.
	ErrTeardownTimeout = errors.New("teardown timeout")

	// ErrStartupTimeout is returned when actors did not start in time.
	ErrStartupTimeout = errors.New("startup timeout")

	// ErrRestartsExhausted is returned when an actor panicked too often.
	ErrRestartsExhausted = errors.New("restarts exhausted")

	// ErrStateType is returned when a state slot holds another type.
	ErrStateType = errors.New("state slot holds a different type")

	// ErrGraphStarted is returned when a started graph is modified.
	ErrGraphStarted = errors.New("graph already started")

	// ErrDuplicateActor is returned when an actor name is reused.
	ErrDuplicateActor = errors.New("actor already registered")
)

// ActorError reports the failure of a named actor.
type ActorError struct {
	Actor string
	Err   error
}

func (e *ActorError) Error() string {
	return fmt.Sprintf("actor %s: %v", e.Actor, e.Err)
}

func (e *ActorError) Unwrap() error {
	return e.Err
}
