package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najoast/steady/config"
)

func TestApplyFlagsOnlyChanged(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-b", "7", "--metrics-addr", "127.0.0.1:0"}))

	var f flags
	f.beats, _ = cmd.Flags().GetUint64("beats")
	f.rateMs, _ = cmd.Flags().GetUint64("rate")
	f.metricsAddr, _ = cmd.Flags().GetString("metrics-addr")

	cfg := config.DefaultConfig()
	cfg.Pipeline.RateMs = 250
	applyFlags(cmd, f, cfg)

	assert.Equal(t, uint64(7), cfg.Pipeline.Beats)
	assert.Equal(t, uint64(250), cfg.Pipeline.RateMs, "unset flags keep the configured value")
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, "127.0.0.1:0", cfg.Monitor.Address)
}

func TestRunShortPipeline(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetContext(context.Background())
	cmd.SetArgs([]string{"-r", "5", "-b", "2", "--capacity", "4", "--log-level", "error"})
	assert.NoError(t, cmd.Execute())
}

func TestRunWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steady.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: error
pipeline:
  rate_ms: 5
  beats: 2
  channel_capacity: 4
`), 0o644))

	cmd := newRootCmd()
	cmd.SetContext(context.Background())
	cmd.SetArgs([]string{"--config", path})
	assert.NoError(t, cmd.Execute())
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetContext(context.Background())
	cmd.SetArgs([]string{"-b", "0", "--log-level", "error"})
	cmd.SetErr(io.Discard)
	assert.ErrorIs(t, cmd.Execute(), config.ErrInvalidBeats)

	cmd = newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	cmd.SetErr(io.Discard)
	assert.ErrorIs(t, cmd.Execute(), config.ErrConfigFileNotFound)
}
