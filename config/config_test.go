package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint64(1000), cfg.Pipeline.RateMs)
	assert.Equal(t, uint64(60), cfg.Pipeline.Beats)
	assert.Equal(t, time.Second, cfg.Pipeline.TeardownTimeout)
	assert.Equal(t, 0.8, cfg.Monitor.Percentile)
	assert.Len(t, cfg.Monitor.Triggers, 2)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty name", func(c *Config) { c.App.Name = "" }, ErrInvalidAppName},
		{"bad environment", func(c *Config) { c.App.Environment = "moon" }, ErrInvalidEnvironment},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidLogLevel},
		{"zero rate", func(c *Config) { c.Pipeline.RateMs = 0 }, ErrInvalidRate},
		{"zero beats", func(c *Config) { c.Pipeline.Beats = 0 }, ErrInvalidBeats},
		{"zero capacity", func(c *Config) { c.Pipeline.ChannelCapacity = 0 }, ErrInvalidCapacity},
		{"negative override", func(c *Config) { c.Pipeline.Capacities.Worker = -1 }, ErrInvalidCapacity},
		{"negative generator rate", func(c *Config) { c.Pipeline.GeneratorRate = -1 }, ErrInvalidGeneratorRate},
		{"zero teardown", func(c *Config) { c.Pipeline.TeardownTimeout = 0 }, ErrInvalidTimeout},
		{"negative restarts", func(c *Config) { c.Pipeline.MaxRestarts = -1 }, ErrInvalidMaxRestarts},
		{"zero window", func(c *Config) { c.Monitor.Window = 0 }, ErrInvalidSampling},
		{"percentile above one", func(c *Config) { c.Monitor.Percentile = 1.5 }, ErrInvalidPercentile},
		{"bad trigger color", func(c *Config) { c.Monitor.Triggers[0].Color = "blue" }, ErrInvalidTrigger},
		{"enabled without address", func(c *Config) {
			c.Monitor.Enabled = true
			c.Monitor.Address = ""
		}, ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestCapacityOf(t *testing.T) {
	p := DefaultConfig().Pipeline
	p.Capacities.Worker = 8

	assert.Equal(t, 64, p.CapacityOf("heartbeat"))
	assert.Equal(t, 8, p.CapacityOf("worker"))
	assert.Equal(t, 64, p.CapacityOf("unknown"))
}

func TestLoadFromFileMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "steady.yaml", `
pipeline:
  rate_ms: 10
  beats: 3
  teardown_timeout: 2s
  capacities:
    worker: 4
monitor:
  triggers:
    - above: 0.5
      color: red
`)

	cfg, err := NewLoader().SetEnvPrefix("STEADY_TEST_FILE").LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(10), cfg.Pipeline.RateMs)
	assert.Equal(t, uint64(3), cfg.Pipeline.Beats)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.TeardownTimeout)
	assert.Equal(t, 4, cfg.Pipeline.CapacityOf("worker"))
	assert.Equal(t, 64, cfg.Pipeline.ChannelCapacity, "missing keys keep defaults")
	assert.Equal(t, "steady", cfg.App.Name)
	assert.Equal(t, []TriggerConfig{{Above: 0.5, Color: "red"}}, cfg.Monitor.Triggers)
}

func TestLoadFromJSON(t *testing.T) {
	cfg, err := NewLoader().SetEnvPrefix("STEADY_TEST_JSON").
		LoadFromReader(strings.NewReader(`{"pipeline": {"beats": 7}, "log": {"level": "debug"}}`), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.Pipeline.Beats)
	assert.Equal(t, LogLevelDebug, cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader().SetEnvPrefix("STEADY_TEST_ERR")

	_, err := loader.LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)

	_, err = loader.LoadFromFile(writeFile(t, dir, "steady.toml", ""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = loader.LoadFromFile(writeFile(t, dir, "broken.yaml", "pipeline: [1, 2"))
	assert.ErrorIs(t, err, ErrConfigParseError)

	_, err = loader.LoadFromFile(writeFile(t, dir, "invalid.yaml", "pipeline:\n  beats: 0\n"))
	assert.ErrorIs(t, err, ErrConfigValidateError)
	assert.ErrorIs(t, err, ErrInvalidBeats)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("STEADY_PIPELINE_BEATS", "5")
	t.Setenv("STEADY_PIPELINE_TEARDOWN_TIMEOUT", "3s")
	t.Setenv("STEADY_PIPELINE_CAPACITIES_GENERATOR", "16")
	t.Setenv("STEADY_LOG_LEVEL", "warn")
	t.Setenv("STEADY_MONITOR_ENABLED", "true")

	cfg, err := NewLoader().SetSearchPaths([]string{t.TempDir()}).AutoLoad()
	require.NoError(t, err)

	assert.Equal(t, uint64(5), cfg.Pipeline.Beats)
	assert.Equal(t, 3*time.Second, cfg.Pipeline.TeardownTimeout)
	assert.Equal(t, 16, cfg.Pipeline.CapacityOf("generator"))
	assert.Equal(t, LogLevelWarn, cfg.Log.Level)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, uint64(1000), cfg.Pipeline.RateMs, "unset variables keep defaults")
}

func TestEnvironmentOverrideInvalid(t *testing.T) {
	t.Setenv("STEADY_PIPELINE_BEATS", "many")

	_, err := NewLoader().SetSearchPaths([]string{t.TempDir()}).AutoLoad()
	assert.ErrorIs(t, err, ErrEnvironmentVarError)
}

func TestAutoLoadFindsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "steady.yml", "app:\n  name: found\n")

	cfg, err := NewLoader().SetSearchPaths([]string{dir}).SetEnvPrefix("STEADY_TEST_AUTO").Load("")
	require.NoError(t, err)
	assert.Equal(t, "found", cfg.App.Name)
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "steady.yaml", "log:\n  level: info\n")

	loader := NewLoader().SetEnvPrefix("STEADY_TEST_WATCH")
	w, err := NewWatcher(path, loader, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, w.GetConfig().Log.Level)

	var lastLevel atomic.Value
	w.OnConfigChange(func(oldConfig, newConfig *Config) {
		lastLevel.Store(newConfig.Log.Level)
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	writeFile(t, dir, "steady.yaml", "log:\n  level: debug\n")

	require.Eventually(t, func() bool {
		lvl, _ := lastLevel.Load().(LogLevel)
		return lvl == LogLevelDebug
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, LogLevelDebug, w.GetConfig().Log.Level)
}

func TestWatcherKeepsConfigOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "steady.yaml", "pipeline:\n  beats: 9\n")

	w, err := NewWatcher(path, NewLoader().SetEnvPrefix("STEADY_TEST_WATCH_BAD"))
	require.NoError(t, err)

	writeFile(t, dir, "steady.yaml", "pipeline:\n  beats: 0\n")
	assert.Error(t, w.Reload())
	assert.Equal(t, uint64(9), w.GetConfig().Pipeline.Beats)
}
