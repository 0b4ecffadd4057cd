package actor

import (
	"time"

	"go.uber.org/zap"

	"github.com/najoast/steady/channel"
	"github.com/najoast/steady/core"
)

// Args are the command line arguments every actor is constructed with.
type Args struct {
	// RateMs is the heartbeat period in milliseconds
	RateMs uint64

	// Beats is the number of heartbeats before the pipeline stops
	Beats uint64
}

// Rate returns the heartbeat period.
func (a Args) Rate() time.Duration {
	return time.Duration(a.RateMs) * time.Millisecond
}

// HeartbeatState survives restarts of the heartbeat actor.
type HeartbeatState struct {
	Count uint64
}

// Heartbeat emits one tick per period and requests shutdown after the
// configured number of beats.
type Heartbeat struct {
	args  Args
	tx    *channel.Tx[uint64]
	state *core.State[HeartbeatState]
}

// NewHeartbeat creates the heartbeat actor.
func NewHeartbeat(args Args, tx *channel.Tx[uint64], state *core.State[HeartbeatState]) *Heartbeat {
	return &Heartbeat{args: args, tx: tx, state: state}
}

// Run is the actor behavior.
func (h *Heartbeat) Run(actx *core.Context) error {
	st, unlock, err := h.state.Lock(func() HeartbeatState { return HeartbeatState{} })
	if err != nil {
		return err
	}
	defer unlock()

	h.tx.Lock()
	defer h.tx.Unlock()

	logger := actx.Logger()
	actx.OnShutdown(h.tx.MarkClosed)

	// a restart after the last beat must not emit another tick
	if st.Count >= h.args.Beats {
		actx.RequestShutdown()
	}

	periodic := core.NewPeriodic(h.args.Rate())
	for actx.IsRunning(h.tx.IsClosed) {
		if !actx.WaitForAll(actx.WaitPeriodic(periodic), actx.Vacant(h.tx, 1)) {
			continue
		}

		// at-most-once: a rejected tick is dropped and the count moves on
		if !h.tx.TrySend(st.Count) {
			logger.Warn("heartbeat dropped", zap.Uint64("count", st.Count))
		} else {
			logger.Debug("heartbeat", zap.Uint64("count", st.Count), zap.Duration("rate", h.args.Rate()))
		}
		st.Count++

		if st.Count >= h.args.Beats {
			actx.RequestShutdown()
		}
	}
	return nil
}
