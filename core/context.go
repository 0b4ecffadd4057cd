package core

import (
	"context"

	"go.uber.org/zap"
)

// Context is handed to one run of an Actor behavior. It carries the
// actor's identity, its logger and its view of the graph-wide shutdown.
type Context struct {
	graph  *Graph
	cell   *actorCell
	logger *zap.Logger

	onShutdown []func()
}

func newContext(g *Graph, cell *actorCell) *Context {
	return &Context{
		graph:  g,
		cell:   cell,
		logger: g.logger.Named(cell.name).With(cellFields(cell)...),
	}
}

// Name returns the actor name.
func (c *Context) Name() string { return c.cell.name }

// ID returns the actor id.
func (c *Context) ID() ActorID { return c.cell.id }

// Logger returns the actor logger.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Context returns the context blocking calls should use. Before shutdown
// it is cancelled by the shutdown request; afterwards only by a hard abort.
func (c *Context) Context() context.Context {
	if c.graph.shutdown.Requested() {
		return c.graph.abortCtx
	}
	return c.graph.shutdown.Context()
}

// OnShutdown registers an action that runs on every IsRunning call once
// shutdown is in progress. Actions must be idempotent.
func (c *Context) OnShutdown(action func()) {
	c.onShutdown = append(c.onShutdown, action)
}

// RequestShutdown raises the graph-wide stop request.
func (c *Context) RequestShutdown() {
	if c.graph.shutdown.Request(c.cell.name) {
		c.logger.Info("shutdown requested")
	}
}

// IsShutdownRequested reports whether the graph is shutting down.
func (c *Context) IsShutdownRequested() bool {
	return c.graph.shutdown.Requested()
}

// IsRunning reports whether the actor loop should continue. Once shutdown
// is requested it runs the OnShutdown actions and then asks accept whether
// the actor agrees to stop; a nil accept agrees at once. After a hard
// abort it always returns false.
func (c *Context) IsRunning(accept func() bool) bool {
	c.cell.markStarted()
	c.cell.iterations.Add(1)
	c.graph.observer.ActorIteration(c.cell.name)

	if c.graph.abortCtx.Err() != nil {
		return false
	}
	if !c.graph.shutdown.Requested() {
		return true
	}

	c.graph.setState(c.cell, ActorStateStopping)
	c.runShutdownActions()
	return accept != nil && !accept()
}

// WaitPeriodic returns p as a Condition.
func (c *Context) WaitPeriodic(p *Periodic) Condition { return p }

// Avail is satisfied once rx buffers at least n items.
func (c *Context) Avail(rx AvailWaiter, n int) Condition { return Avail(rx, n) }

// Vacant is satisfied once tx has at least n free slots.
func (c *Context) Vacant(tx VacantWaiter, n int) Condition { return Vacant(tx, n) }

// WaitForAll suspends until every condition holds and returns true. It
// returns false if shutdown interrupted the wait. During shutdown it
// returns once every condition has resolved, satisfied or not, so a
// draining actor does not spin on closed channels.
func (c *Context) WaitForAll(conds ...Condition) bool {
	return waitForAll(c.Context(), conds...)
}

// WaitForAny suspends until one condition holds and returns its index.
func (c *Context) WaitForAny(conds ...Condition) (int, bool) {
	return waitForAny(c.Context(), conds...)
}

// WaitAvail suspends until rx buffers at least n items.
func (c *Context) WaitAvail(rx AvailWaiter, n int) bool {
	return rx.WaitAvail(c.Context(), n)
}

// WaitVacant suspends until tx has at least n free slots.
func (c *Context) WaitVacant(tx VacantWaiter, n int) bool {
	return tx.WaitVacant(c.Context(), n)
}

func (c *Context) runShutdownActions() {
	for _, action := range c.onShutdown {
		action()
	}
}
