package actor

import (
	"golang.org/x/time/rate"

	"github.com/najoast/steady/channel"
	"github.com/najoast/steady/core"
)

// GeneratorState survives restarts of the generator actor.
type GeneratorState struct {
	// Next is the next value to send; it only advances after a send
	Next uint64
}

// Generator produces consecutive values as fast as the channel accepts
// them.
type Generator struct {
	tx      *channel.Tx[uint64]
	state   *core.State[GeneratorState]
	limiter *rate.Limiter
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRateLimit caps the generator at perSecond values per second.
// Zero or less means unlimited.
func WithRateLimit(perSecond float64) GeneratorOption {
	return func(g *Generator) {
		if perSecond > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewGenerator creates the generator actor.
func NewGenerator(tx *channel.Tx[uint64], state *core.State[GeneratorState], opts ...GeneratorOption) *Generator {
	g := &Generator{
		tx:      tx,
		state:   state,
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run is the actor behavior.
func (g *Generator) Run(actx *core.Context) error {
	st, unlock, err := g.state.Lock(func() GeneratorState { return GeneratorState{} })
	if err != nil {
		return err
	}
	defer unlock()

	g.tx.Lock()
	defer g.tx.Unlock()

	actx.OnShutdown(g.tx.MarkClosed)

	for actx.IsRunning(g.tx.IsClosed) {
		if !actx.WaitVacant(g.tx, 1) {
			continue
		}

		for n := g.tx.VacantUnits(); n > 0; n-- {
			// no throttled sends once the stop is requested
			if actx.IsShutdownRequested() {
				break
			}
			if err := g.limiter.Wait(actx.Context()); err != nil {
				break
			}
			if !g.tx.TrySend(st.Next) {
				break
			}
			st.Next++
		}
	}
	return nil
}
