package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/xacro/pkg/cache"
	"mercator-hq/xacro/pkg/cli"
	"mercator-hq/xacro/pkg/config"
	"mercator-hq/xacro/pkg/source"
	"mercator-hq/xacro/pkg/telemetry/logging"
	"mercator-hq/xacro/pkg/telemetry/metrics"
	"mercator-hq/xacro/pkg/telemetry/tracing"
	"mercator-hq/xacro/pkg/xacro"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "xacro",
	Short: "Xacro - macro-expanding XML preprocessor",
	Long: `Xacro expands macro-annotated XML documents, such as robot descriptions,
into plain XML.

Documents declare properties, arguments, macros, conditionals and includes
in the xacro namespace; expansion replaces every directive with the XML it
produces.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a status derived from the
// error kind.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (json, text, console)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
}

// loadConfig reads the configuration file with environment overrides and
// publishes it as the process configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Telemetry.Logging.Format = logFormat
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// app holds the components shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	reader  source.Reader
	store   cache.Store
	cache   *cache.Cache
}

// newApp loads configuration, applies flags and builds telemetry, the
// document reader and (when enabled) the result cache.
func newApp(cmd *cobra.Command, flags *expansionFlags) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if flags != nil {
		if err := flags.apply(cfg); err != nil {
			return nil, err
		}
		if err := config.Validate(cfg); err != nil {
			return nil, cli.NewConfigError("flags", err.Error())
		}
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	tracing.Version = Version
	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry()),
		tracer:  tracer,
		reader:  source.NewOS(),
	}

	if flags != nil && flags.gitRev != "" {
		git, err := source.NewGit(flags.gitRepo, flags.gitRev)
		if err != nil {
			a.close()
			return nil, cli.NewConfigError("git-rev", err.Error())
		}
		logger.Debug("reading documents from git", "revision", flags.gitRev, "commit", git.Commit())
		a.reader = git
	}

	if cfg.Cache.Enabled {
		store, err := cache.Open(&cfg.Cache)
		if err != nil {
			logger.Warn("result cache unavailable, continuing without it", "error", err)
		} else {
			a.store = store
			a.cache = cache.New(store, a.reader, logger.Slog(), a.metrics)
		}
	}

	return a, nil
}

func (a *app) processor() *xacro.Processor {
	opts := []xacro.Option{
		xacro.WithConfig(a.cfg),
		xacro.WithLogger(a.logger),
		xacro.WithMetrics(a.metrics),
		xacro.WithTracer(a.tracer),
		xacro.WithReader(a.reader),
	}
	if a.cache != nil {
		opts = append(opts, xacro.WithCache(a.cache))
	}
	return xacro.NewProcessor(opts...)
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to flush traces", "error", err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close cache", "error", err)
		}
	}
}
