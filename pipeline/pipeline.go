// Package pipeline assembles the FizzBuzz actor graph:
//
//	heartbeat --(ticks)--> worker --(FizzBuzzMessage)--> logger
//	generator --(values)--^
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/najoast/steady/actor"
	"github.com/najoast/steady/channel"
	"github.com/najoast/steady/config"
	"github.com/najoast/steady/core"
)

// Actor and channel names.
const (
	NameHeartbeat = "heartbeat"
	NameGenerator = "generator"
	NameWorker    = "worker"
	NameLogger    = "logger"
)

// Args are the typed arguments passed to every actor constructor.
type Args = actor.Args

// Options wires optional collaborators into the pipeline.
type Options struct {
	// Logger is the base logger; actors log under their own names
	Logger *zap.Logger

	// ChannelObserver is notified about every channel event
	ChannelObserver channel.Observer

	// Sink receives every classified message; defaults to a zap sink
	Sink actor.Sink
}

// States gives access to the persistent actor state handles.
type States struct {
	Heartbeat *core.State[actor.HeartbeatState]
	Generator *core.State[actor.GeneratorState]
	Worker    *core.State[actor.WorkerState]
	Logger    *core.State[actor.LoggerState]
}

// Pipeline is an assembled, not yet started, actor graph.
type Pipeline struct {
	Graph    *core.Graph
	States   States
	Channels []channel.Monitored
}

// Build creates the three channels on g and registers the four actors.
func Build(g *core.Graph, cfg config.PipelineConfig, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = g.Logger()
	}
	sink := opts.Sink
	if sink == nil {
		sink = actor.NewLogSink(logger.Named(NameLogger))
	}

	var chOpts []channel.Option
	if opts.ChannelObserver != nil {
		chOpts = append(chOpts, channel.WithObserver(opts.ChannelObserver))
	}

	hbTx, hbRx, err := channel.New[uint64](NameHeartbeat, cfg.CapacityOf(NameHeartbeat), chOpts...)
	if err != nil {
		return nil, err
	}
	genTx, genRx, err := channel.New[uint64](NameGenerator, cfg.CapacityOf(NameGenerator), chOpts...)
	if err != nil {
		return nil, err
	}
	workTx, workRx, err := channel.New[actor.FizzBuzzMessage](NameWorker, cfg.CapacityOf(NameWorker), chOpts...)
	if err != nil {
		return nil, err
	}

	args := Args{RateMs: cfg.RateMs, Beats: cfg.Beats}
	arena := g.Arena()
	p := &Pipeline{
		Graph: g,
		States: States{
			Heartbeat: core.NewState[actor.HeartbeatState](arena, NameHeartbeat),
			Generator: core.NewState[actor.GeneratorState](arena, NameGenerator),
			Worker:    core.NewState[actor.WorkerState](arena, NameWorker),
			Logger:    core.NewState[actor.LoggerState](arena, NameLogger),
		},
		Channels: []channel.Monitored{hbTx, genTx, workTx},
	}

	behaviors := []struct {
		name     string
		behavior core.Behavior
		outputs  []core.Closable
	}{
		{NameHeartbeat, actor.NewHeartbeat(args, hbTx, p.States.Heartbeat).Run, []core.Closable{hbTx}},
		{NameGenerator, actor.NewGenerator(genTx, p.States.Generator, actor.WithRateLimit(cfg.GeneratorRate)).Run, []core.Closable{genTx}},
		{NameWorker, actor.NewWorker(hbRx, genRx, workTx, p.States.Worker).Run, []core.Closable{workTx}},
		{NameLogger, actor.NewLogger(workRx, sink, p.States.Logger).Run, nil},
	}
	for _, b := range behaviors {
		// a failed actor closes its output so the next stage still drains
		actorOpts := core.ActorOptions{
			MaxRestarts:    cfg.MaxRestarts,
			RestartBackoff: cfg.RestartBackoff,
			Outputs:        b.outputs,
		}
		if _, err := g.AddActor(b.name, b.behavior, actorOpts); err != nil {
			return nil, fmt.Errorf("failed to add actor %s: %w", b.name, err)
		}
	}

	logger.Debug("pipeline built",
		zap.Uint64("rate_ms", args.RateMs),
		zap.Uint64("beats", args.Beats),
		zap.Int("heartbeat_capacity", cfg.CapacityOf(NameHeartbeat)),
		zap.Int("generator_capacity", cfg.CapacityOf(NameGenerator)),
		zap.Int("worker_capacity", cfg.CapacityOf(NameWorker)))
	return p, nil
}

// Start starts the graph and waits until every actor entered its loop.
func (p *Pipeline) Start(cfg config.PipelineConfig) error {
	if err := p.Graph.Start(); err != nil {
		return err
	}
	if err := p.Graph.WaitStarted(cfg.StartupTimeout); err != nil {
		p.Graph.RequestStop()
		return err
	}
	return nil
}

// Run builds a graph bound to ctx, runs it until the heartbeat stops it
// or ctx is cancelled, and returns the teardown result. Cancelling ctx
// starts a graceful shutdown.
func Run(ctx context.Context, cfg config.PipelineConfig, logger *zap.Logger, observer Observer, sink actor.Sink) (*Pipeline, error) {
	graphOpts := []core.GraphOption{core.WithContext(ctx), core.WithLogger(logger)}
	opts := Options{Logger: logger, Sink: sink}
	if observer != nil {
		graphOpts = append(graphOpts, core.WithObserver(observer))
		opts.ChannelObserver = observer
	}

	p, err := Build(core.NewGraph(graphOpts...), cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := p.Start(cfg); err != nil {
		return p, err
	}
	return p, p.Graph.BlockUntilStopped(cfg.TeardownTimeout)
}

// Observer is the combined channel and actor observer, as implemented by
// monitor.Metrics.
type Observer interface {
	channel.Observer
	core.Observer
}
