package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/najoast/steady/actor"
	"github.com/najoast/steady/config"
	"github.com/najoast/steady/logging"
	"github.com/najoast/steady/monitor"
)

// DefaultApplication implements the Application interface
type DefaultApplication struct {
	config *config.Config
	runID  string

	logger  *logging.Logger
	metrics *monitor.Metrics

	lifecycle *DefaultLifecycleManager
	monitor   *MonitorService
	pipeline  *PipelineService

	// watcher hot-reloads the log level, nil without a config file
	watcher *config.Watcher

	stopTimeout time.Duration

	mutex   sync.Mutex
	running bool
}

// Option configures a DefaultApplication
type Option func(*options)

type options struct {
	logger      *logging.Logger
	sink        actor.Sink
	runID       string
	watcher     *config.Watcher
	stopTimeout time.Duration
}

// WithLogger sets the application logger
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSink sends classified messages to sink in addition to the metrics
func WithSink(sink actor.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// WithRunID overrides the generated run id
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// WithWatcher enables log level hot reload from a watched config file
func WithWatcher(w *config.Watcher) Option {
	return func(o *options) { o.watcher = w }
}

// WithStopTimeout bounds how long stopping all services may take
func WithStopTimeout(d time.Duration) Option {
	return func(o *options) { o.stopTimeout = d }
}

// NewApplication wires the monitor and pipeline services for cfg
func NewApplication(cfg *config.Config, opts ...Option) (*DefaultApplication, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ApplicationError{Operation: "configure", Err: err}
	}

	o := options{runID: uuid.NewString()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		logger, err := logging.New(logging.Config{
			Level:       string(cfg.Log.Level),
			Development: cfg.Log.Development,
			OutputPaths: cfg.Log.OutputPaths,
		})
		if err != nil {
			return nil, &ApplicationError{Operation: "configure", Err: err}
		}
		o.logger = logger
	}
	if o.stopTimeout <= 0 {
		o.stopTimeout = cfg.Pipeline.TeardownTimeout + 5*time.Second
	}

	logger := o.logger.With(
		zap.String("app", cfg.App.Name),
		zap.String("run_id", o.runID))

	app := &DefaultApplication{
		config:      cfg,
		runID:       o.runID,
		logger:      o.logger,
		metrics:     monitor.NewMetrics(),
		lifecycle:   NewLifecycleManager(logger.Named("lifecycle")),
		watcher:     o.watcher,
		stopTimeout: o.stopTimeout,
	}

	mon, err := NewMonitorService(cfg.Monitor, cfg.IsDevelopment(), app.metrics, app.health, logger)
	if err != nil {
		return nil, &ApplicationError{Operation: "configure", Service: ServiceMonitor, Err: err}
	}
	app.monitor = mon

	var sink actor.Sink = actor.MultiSink{actor.NewLogSink(logger.Named("fizzbuzz")), app.metrics}
	if o.sink != nil {
		sink = actor.MultiSink{o.sink, app.metrics}
	}
	app.pipeline = NewPipelineService(cfg.Pipeline, o.runID, app.metrics, mon.Sampler(), sink, logger)

	if err := app.lifecycle.Register(app.monitor); err != nil {
		return nil, err
	}
	if err := app.lifecycle.Register(app.pipeline, ServiceMonitor); err != nil {
		return nil, err
	}
	return app, nil
}

// Run starts every service, waits until the pipeline stops on its own or
// ctx is done, then stops every service. It returns the pipeline teardown
// error combined with any stop error.
func (app *DefaultApplication) Run(ctx context.Context) error {
	app.mutex.Lock()
	if app.running {
		app.mutex.Unlock()
		return fmt.Errorf("application is already running")
	}
	app.running = true
	app.mutex.Unlock()

	defer func() {
		app.mutex.Lock()
		app.running = false
		app.mutex.Unlock()
	}()

	log := app.logger.With(zap.String("run_id", app.runID))
	log.Info("starting application",
		zap.String("version", app.config.App.Version),
		zap.String("environment", string(app.config.App.Environment)),
		zap.Uint64("rate_ms", app.config.Pipeline.RateMs),
		zap.Uint64("beats", app.config.Pipeline.Beats))

	if err := app.lifecycle.Start(ctx); err != nil {
		return err
	}

	if app.watcher != nil {
		app.watcher.OnConfigChange(app.applyConfig)
		if err := app.watcher.Start(); err != nil {
			log.Warn("config watcher not started", zap.Error(err))
		} else {
			defer app.watcher.Stop()
		}
	}

	select {
	case <-app.pipeline.Done():
		log.Info("pipeline finished")
	case <-ctx.Done():
		log.Info("context cancelled, starting graceful shutdown")
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.stopTimeout)
	defer cancel()
	err := app.lifecycle.Stop(stopCtx)
	if err != nil {
		log.Error("application stopped with errors", zap.Error(err))
	} else {
		log.Info("application stopped")
	}
	_ = app.logger.Sync()
	return err
}

// RunID returns the id of this run
func (app *DefaultApplication) RunID() string {
	return app.runID
}

// LifecycleManager returns the lifecycle manager
func (app *DefaultApplication) LifecycleManager() LifecycleManager {
	return app.lifecycle
}

// Metrics returns the metrics collectors
func (app *DefaultApplication) Metrics() *monitor.Metrics {
	return app.metrics
}

// Monitor returns the monitor service
func (app *DefaultApplication) Monitor() *MonitorService {
	return app.monitor
}

// Pipeline returns the pipeline service
func (app *DefaultApplication) Pipeline() *PipelineService {
	return app.pipeline
}

// applyConfig applies the reloadable part of a new configuration
func (app *DefaultApplication) applyConfig(oldConfig, newConfig *config.Config) {
	if oldConfig.Log.Level == newConfig.Log.Level {
		return
	}
	if err := app.logger.SetLevel(string(newConfig.Log.Level)); err != nil {
		app.logger.Warn("invalid log level in reloaded config", zap.Error(err))
		return
	}
	app.logger.Info("log level changed",
		zap.String("from", string(oldConfig.Log.Level)),
		zap.String("to", string(newConfig.Log.Level)))
}

// health backs the monitor health endpoint
func (app *DefaultApplication) health(ctx context.Context) (any, bool) {
	statuses := app.lifecycle.Health(ctx)
	healthy := true
	for _, s := range statuses {
		if !s.State.Serving() {
			healthy = false
		}
	}
	return map[string]any{
		"run_id":   app.runID,
		"healthy":  healthy,
		"services": statuses,
	}, healthy
}
