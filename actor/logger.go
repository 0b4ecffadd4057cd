package actor

import (
	"github.com/najoast/steady/channel"
	"github.com/najoast/steady/core"
)

// LoggerState survives restarts of the logger actor.
type LoggerState struct {
	Observed uint64
}

// Logger drains classified messages into a Sink.
type Logger struct {
	rx    *channel.Rx[FizzBuzzMessage]
	sink  Sink
	state *core.State[LoggerState]
}

// NewLogger creates the logger actor.
func NewLogger(rx *channel.Rx[FizzBuzzMessage], sink Sink, state *core.State[LoggerState]) *Logger {
	return &Logger{rx: rx, sink: sink, state: state}
}

// Run is the actor behavior.
func (l *Logger) Run(actx *core.Context) error {
	st, unlock, err := l.state.Lock(func() LoggerState { return LoggerState{} })
	if err != nil {
		return err
	}
	defer unlock()

	l.rx.Lock()
	defer l.rx.Unlock()

	for actx.IsRunning(l.rx.IsClosedAndEmpty) {
		actx.WaitAvail(l.rx, 1)

		for {
			msg, ok := l.rx.TryTake()
			if !ok {
				break
			}
			l.sink.Record(msg)
			st.Observed++
		}
	}
	return nil
}
