package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/najoast/steady/bootstrap"
	"github.com/najoast/steady/config"
	"github.com/najoast/steady/logging"
)

type flags struct {
	configFile  string
	rateMs      uint64
	beats       uint64
	capacity    int
	logLevel    string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "steady",
		Short: "Run the heartbeat driven FizzBuzz actor pipeline",
		Long: `steady wires four actors over bounded channels:

  heartbeat --(ticks)--> worker --(FizzBuzz)--> logger
  generator --(values)--^

The worker classifies one batch of generated values per heartbeat tick.
After the configured number of beats the heartbeat requests shutdown and
every actor drains its inputs before the process exits.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "config file (YAML or JSON); searched in default locations when empty")
	fs.Uint64VarP(&f.rateMs, "rate", "r", 1000, "heartbeat period in milliseconds")
	fs.Uint64VarP(&f.beats, "beats", "b", 60, "number of heartbeats before shutdown")
	fs.IntVar(&f.capacity, "capacity", 64, "default channel capacity")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error, fatal)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve metrics and health on this address, e.g. :9100")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, f flags) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(f.configFile)
	if err != nil {
		return err
	}

	applyFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:       string(cfg.Log.Level),
		Development: cfg.Log.Development,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := []bootstrap.Option{bootstrap.WithLogger(logger)}
	if f.configFile != "" {
		watcher, err := config.NewWatcher(f.configFile, loader, config.WithWatchLogger(logger.Named("config")))
		if err != nil {
			return err
		}
		opts = append(opts, bootstrap.WithWatcher(watcher))
	}

	app, err := bootstrap.NewApplication(cfg, opts...)
	if err != nil {
		return err
	}
	if err := app.Run(ctx); err != nil {
		logger.Error("steady failed", zap.Error(err))
		return err
	}
	return nil
}

// applyFlags overrides cfg with the flags set on the command line.
// Flag defaults never override values from a file or the environment.
func applyFlags(cmd *cobra.Command, f flags, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("rate") {
		cfg.Pipeline.RateMs = f.rateMs
	}
	if fs.Changed("beats") {
		cfg.Pipeline.Beats = f.beats
	}
	if fs.Changed("capacity") {
		cfg.Pipeline.ChannelCapacity = f.capacity
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = config.LogLevel(f.logLevel)
	}
	if fs.Changed("metrics-addr") {
		cfg.Monitor.Enabled = f.metricsAddr != ""
		cfg.Monitor.Address = f.metricsAddr
	}
}
