// Package config provides configuration management for steady
package config

import (
	"time"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// String returns the string representation of Environment
func (e Environment) String() string {
	return string(e)
}

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvTesting, EnvStaging, EnvProduction:
		return true
	default:
		return false
	}
}

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	return string(l)
}

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal:
		return true
	default:
		return false
	}
}

// Config represents the complete steady configuration
type Config struct {
	// Application configuration
	App AppConfig `yaml:"app" json:"app"`

	// Logging configuration
	Log LogConfig `yaml:"log" json:"log"`

	// Pipeline configuration
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`

	// Monitoring configuration
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	// Application name
	Name string `yaml:"name" json:"name"`

	// Application version
	Version string `yaml:"version" json:"version"`

	// Deployment environment
	Environment Environment `yaml:"environment" json:"environment"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	// Log level
	Level LogLevel `yaml:"level" json:"level"`

	// Development enables the console encoder and caller/stack output
	Development bool `yaml:"development" json:"development"`

	// Output destinations (stdout, stderr, file paths)
	OutputPaths []string `yaml:"output_paths" json:"output_paths" split_words:"true"`
}

// ChannelCapacities overrides the capacity of individual channels.
// Zero means use PipelineConfig.ChannelCapacity.
type ChannelCapacities struct {
	Heartbeat int `yaml:"heartbeat" json:"heartbeat"`
	Generator int `yaml:"generator" json:"generator"`
	Worker    int `yaml:"worker" json:"worker"`
}

// PipelineConfig contains the actor pipeline configuration
type PipelineConfig struct {
	// Heartbeat period in milliseconds
	RateMs uint64 `yaml:"rate_ms" json:"rate_ms" split_words:"true"`

	// Number of heartbeats before the pipeline stops
	Beats uint64 `yaml:"beats" json:"beats"`

	// Default channel capacity
	ChannelCapacity int `yaml:"channel_capacity" json:"channel_capacity" split_words:"true"`

	// Per channel capacity overrides
	Capacities ChannelCapacities `yaml:"capacities" json:"capacities"`

	// Generator throttle in values per second, 0 is unlimited
	GeneratorRate float64 `yaml:"generator_rate" json:"generator_rate" split_words:"true"`

	// Maximum time actors get to agree on shutdown
	TeardownTimeout time.Duration `yaml:"teardown_timeout" json:"teardown_timeout" split_words:"true"`

	// Maximum time actors get to enter their loops
	StartupTimeout time.Duration `yaml:"startup_timeout" json:"startup_timeout" split_words:"true"`

	// Panics tolerated per actor
	MaxRestarts int `yaml:"max_restarts" json:"max_restarts" split_words:"true"`

	// Pause before a panicked actor restarts
	RestartBackoff time.Duration `yaml:"restart_backoff" json:"restart_backoff" split_words:"true"`
}

// CapacityOf returns the effective capacity of a channel by name.
func (p PipelineConfig) CapacityOf(name string) int {
	var override int
	switch name {
	case "heartbeat":
		override = p.Capacities.Heartbeat
	case "generator":
		override = p.Capacities.Generator
	case "worker":
		override = p.Capacities.Worker
	}
	if override > 0 {
		return override
	}
	return p.ChannelCapacity
}

// TriggerConfig maps a rolling fill ratio to an alert color
type TriggerConfig struct {
	// Fill ratio in (0, 1] above which the trigger fires
	Above float64 `yaml:"above" json:"above"`

	// Alert color, "orange" or "red"
	Color string `yaml:"color" json:"color"`
}

// MonitorConfig contains monitoring configuration
type MonitorConfig struct {
	// Enable the metrics HTTP server
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Listen address, e.g. ":9100"
	Address string `yaml:"address" json:"address"`

	// Metrics endpoint path
	MetricsPath string `yaml:"metrics_path" json:"metrics_path" split_words:"true"`

	// Health check endpoint path
	HealthPath string `yaml:"health_path" json:"health_path" split_words:"true"`

	// Interval between channel fill samples
	SampleInterval time.Duration `yaml:"sample_interval" json:"sample_interval" split_words:"true"`

	// Number of samples in the rolling window
	Window int `yaml:"window" json:"window"`

	// Percentile reported for channel fill, in (0, 1]
	Percentile float64 `yaml:"percentile" json:"percentile"`

	// Alert triggers, checked from the highest threshold down
	Triggers []TriggerConfig `yaml:"triggers" json:"triggers" ignored:"true"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "steady",
			Version:     "1.0.0",
			Environment: EnvDevelopment,
		},
		Log: LogConfig{
			Level:       LogLevelInfo,
			Development: true,
			OutputPaths: []string{"stdout"},
		},
		Pipeline: PipelineConfig{
			RateMs:          1000,
			Beats:           60,
			ChannelCapacity: 64,
			GeneratorRate:   0,
			TeardownTimeout: 1 * time.Second,
			StartupTimeout:  5 * time.Second,
			MaxRestarts:     3,
			RestartBackoff:  100 * time.Millisecond,
		},
		Monitor: MonitorConfig{
			Enabled:        false,
			Address:        ":9100",
			MetricsPath:    "/metrics",
			HealthPath:     "/health",
			SampleInterval: 100 * time.Millisecond,
			Window:         50,
			Percentile:     0.8,
			Triggers: []TriggerConfig{
				{Above: 0.9, Color: "red"},
				{Above: 0.6, Color: "orange"},
			},
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate app config
	if c.App.Name == "" {
		return ErrInvalidAppName
	}
	if !c.App.Environment.IsValid() {
		return ErrInvalidEnvironment
	}

	// Validate log config
	if !c.Log.Level.IsValid() {
		return ErrInvalidLogLevel
	}

	// Validate pipeline config
	p := c.Pipeline
	if p.RateMs == 0 {
		return ErrInvalidRate
	}
	if p.Beats == 0 {
		return ErrInvalidBeats
	}
	if p.ChannelCapacity < 1 || p.Capacities.Heartbeat < 0 || p.Capacities.Generator < 0 || p.Capacities.Worker < 0 {
		return ErrInvalidCapacity
	}
	if p.GeneratorRate < 0 {
		return ErrInvalidGeneratorRate
	}
	if p.TeardownTimeout <= 0 || p.StartupTimeout <= 0 || p.RestartBackoff < 0 {
		return ErrInvalidTimeout
	}
	if p.MaxRestarts < 0 {
		return ErrInvalidMaxRestarts
	}

	// Validate monitor config
	m := c.Monitor
	if m.SampleInterval <= 0 || m.Window < 1 {
		return ErrInvalidSampling
	}
	if m.Percentile <= 0 || m.Percentile > 1 {
		return ErrInvalidPercentile
	}
	for _, t := range m.Triggers {
		if t.Above <= 0 || t.Above > 1 || (t.Color != "red" && t.Color != "orange") {
			return ErrInvalidTrigger
		}
	}
	if m.Enabled && m.Address == "" {
		return ErrInvalidAddress
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}
