package bootstrap

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/najoast/steady/actor"
	"github.com/najoast/steady/config"
	"github.com/najoast/steady/core"
	"github.com/najoast/steady/monitor"
	"github.com/najoast/steady/pipeline"
)

// Service names
const (
	ServiceMonitor  = "monitor"
	ServicePipeline = "pipeline"
)

// MonitorService runs the channel sampler and, when enabled, the metrics
// HTTP server.
type MonitorService struct {
	cfg     config.MonitorConfig
	logger  *zap.Logger
	metrics *monitor.Metrics
	sampler *monitor.Sampler
	server  *monitor.Server

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitorService creates the monitor service. health backs the health
// endpoint and may be nil.
func NewMonitorService(cfg config.MonitorConfig, development bool, metrics *monitor.Metrics, health monitor.HealthFunc, logger *zap.Logger) (*MonitorService, error) {
	triggers, err := monitor.TriggersFromConfig(cfg.Triggers)
	if err != nil {
		return nil, err
	}

	logger = logger.Named(ServiceMonitor)
	s := &MonitorService{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		sampler: monitor.NewSampler(metrics, monitor.SamplerOptions{
			Window:     cfg.Window,
			Percentile: cfg.Percentile,
			Triggers:   triggers,
			Logger:     logger,
		}),
	}
	if cfg.Enabled {
		s.server = monitor.NewServer(monitor.ServerConfig{
			Address:     cfg.Address,
			MetricsPath: cfg.MetricsPath,
			HealthPath:  cfg.HealthPath,
			Development: development,
		}, metrics, s.sampler, health, logger)
	}
	return s, nil
}

// Name returns the service name
func (s *MonitorService) Name() string { return ServiceMonitor }

// Sampler returns the channel sampler
func (s *MonitorService) Sampler() *monitor.Sampler { return s.sampler }

// Server returns the HTTP server, nil when disabled
func (s *MonitorService) Server() *monitor.Server { return s.server }

// Start starts sampling and serving
func (s *MonitorService) Start(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Start(); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.sampler.Run(runCtx, s.cfg.SampleInterval)
	}()
	return nil
}

// Stop takes a final sample and stops serving
func (s *MonitorService) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
	}
	for _, r := range s.sampler.Sample() {
		s.logger.Info("channel summary",
			zap.String("channel", r.Channel),
			zap.Uint64("sent", r.Sent),
			zap.Uint64("taken", r.Taken),
			zap.Float64("fill_avg", r.Avg),
			zap.String("alert", r.AlertName))
	}
	if s.server != nil {
		return s.server.Stop(ctx)
	}
	return nil
}

// Health reports the sampler and server status
func (s *MonitorService) Health(ctx context.Context) (HealthStatus, error) {
	data := map[string]any{"channels": s.sampler.Reports()}
	if s.server != nil {
		data["address"] = s.server.Addr()
	}
	return HealthStatus{State: HealthHealthy, Data: data}, nil
}

// PipelineService owns the actor graph for one run.
type PipelineService struct {
	cfg     config.PipelineConfig
	logger  *zap.Logger
	runID   string
	metrics *monitor.Metrics
	sampler *monitor.Sampler
	sink    actor.Sink

	mu       sync.Mutex
	pipeline *pipeline.Pipeline
	done     chan struct{}
	err      error
}

// NewPipelineService creates the pipeline service. sampler may be nil.
func NewPipelineService(cfg config.PipelineConfig, runID string, metrics *monitor.Metrics, sampler *monitor.Sampler, sink actor.Sink, logger *zap.Logger) *PipelineService {
	return &PipelineService{
		cfg:     cfg,
		logger:  logger,
		runID:   runID,
		metrics: metrics,
		sampler: sampler,
		sink:    sink,
		done:    make(chan struct{}),
	}
}

// Name returns the service name
func (s *PipelineService) Name() string { return ServicePipeline }

// Done is closed once the graph has stopped and teardown finished.
func (s *PipelineService) Done() <-chan struct{} { return s.done }

// Err returns the teardown result once Done is closed.
func (s *PipelineService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Pipeline returns the running pipeline, nil before Start.
func (s *PipelineService) Pipeline() *pipeline.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline
}

// Start builds and starts the graph. The graph runs until the heartbeat
// stops it or Stop is called.
func (s *PipelineService) Start(ctx context.Context) error {
	graphOpts := []core.GraphOption{core.WithLogger(s.logger), core.WithRunID(s.runID)}
	opts := pipeline.Options{Logger: s.logger, Sink: s.sink}
	if s.metrics != nil {
		graphOpts = append(graphOpts, core.WithObserver(s.metrics))
		opts.ChannelObserver = s.metrics
	}

	p, err := pipeline.Build(core.NewGraph(graphOpts...), s.cfg, opts)
	if err != nil {
		return err
	}
	if s.sampler != nil {
		s.sampler.Track(p.Channels...)
	}
	if err := p.Start(s.cfg); err != nil {
		return err
	}

	s.mu.Lock()
	s.pipeline = p
	s.mu.Unlock()

	go func() {
		err := p.Graph.BlockUntilStopped(s.cfg.TeardownTimeout)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	}()
	return nil
}

// Stop requests shutdown and waits for teardown or ctx.
func (s *PipelineService) Stop(ctx context.Context) error {
	p := s.Pipeline()
	if p == nil {
		return nil
	}
	p.Graph.RequestStop()

	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return multierr.Append(ctx.Err(), s.Err())
	}
}

// Health reports the graph state and per actor statistics
func (s *PipelineService) Health(ctx context.Context) (HealthStatus, error) {
	p := s.Pipeline()
	if p == nil {
		return HealthStatus{State: HealthStarting}, nil
	}

	status := HealthStatus{
		Data: map[string]any{
			"run_id": p.Graph.RunID(),
			"graph":  p.Graph.State().String(),
			"actors": p.Graph.Stats(),
		},
	}
	switch p.Graph.State() {
	case core.GraphStateRunning:
		status.State = HealthHealthy
	case core.GraphStateStopRequested:
		status.State = HealthStopping
	default:
		status.State = HealthStopped
	}
	if err := p.Graph.Err(); err != nil {
		status.State = HealthUnhealthy
		status.Message = err.Error()
	}
	return status, nil
}
