package actor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/najoast/steady/channel"
	"github.com/najoast/steady/core"
)

// WorkerState survives restarts of the worker actor.
type WorkerState struct {
	// Batches counts heartbeat-triggered or draining batches that moved data
	Batches uint64

	// Forwarded counts classified messages sent downstream
	Forwarded uint64
}

// Worker classifies generated values, one batch per heartbeat tick.
type Worker struct {
	heartbeat *channel.Rx[uint64]
	generator *channel.Rx[uint64]
	out       *channel.Tx[FizzBuzzMessage]
	state     *core.State[WorkerState]
}

// NewWorker creates the worker actor.
func NewWorker(heartbeat, generator *channel.Rx[uint64], out *channel.Tx[FizzBuzzMessage], state *core.State[WorkerState]) *Worker {
	return &Worker{heartbeat: heartbeat, generator: generator, out: out, state: state}
}

func (w *Worker) inputsDrained() bool {
	return w.heartbeat.IsClosedAndEmpty() && w.generator.IsClosedAndEmpty()
}

// Run is the actor behavior.
func (w *Worker) Run(actx *core.Context) error {
	st, unlock, err := w.state.Lock(func() WorkerState { return WorkerState{} })
	if err != nil {
		return err
	}
	defer unlock()

	w.heartbeat.Lock()
	defer w.heartbeat.Unlock()
	w.generator.Lock()
	defer w.generator.Unlock()
	w.out.Lock()
	defer w.out.Unlock()

	logger := actx.Logger()
	actx.OnShutdown(func() {
		if w.inputsDrained() {
			w.out.MarkClosed()
		}
	})

	for actx.IsRunning(func() bool { return w.inputsDrained() && w.out.IsClosed() }) {
		// proceed even when interrupted so shutdown can drain
		actx.WaitForAll(
			actx.Avail(w.heartbeat, 1),
			actx.Avail(w.generator, 1),
			actx.Vacant(w.out, 1),
		)

		_, tick := w.heartbeat.TryTake()
		if !tick && !actx.IsShutdownRequested() {
			continue
		}

		n := min(w.generator.AvailUnits(), w.out.VacantUnits())
		for i := 0; i < n; i++ {
			v, ok := w.generator.TryTake()
			if !ok {
				break
			}
			msg := Classify(v)
			// only this actor sends on out and the room was counted above
			if !w.out.TrySend(msg) {
				return fmt.Errorf("worker: %s rejected %s", w.out.Name(), msg)
			}
			st.Forwarded++
		}
		if n > 0 {
			st.Batches++
			logger.Debug("batch forwarded", zap.Int("size", n), zap.Bool("tick", tick))
		}
	}
	return nil
}
