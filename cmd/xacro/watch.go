package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/xacro/pkg/cache"
	"mercator-hq/xacro/pkg/cli"
	"mercator-hq/xacro/pkg/telemetry/health"
	"mercator-hq/xacro/pkg/watch"
)

var watchFlags struct {
	expansionFlags
	output         string
	debounce       time.Duration
	metricsAddress string
}

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Re-expand a document whenever it or an included file changes",
	Long: `Expand a document, then expand it again every time the document or any
file it included changes. Failed expansions are reported and the previous
output is left in place.

With --metrics-address an HTTP server exposes Prometheus metrics, /health,
/ready (fails while the latest expansion failed) and /version.

Examples:
  xacro watch robot.urdf.xacro -o robot.urdf
  xacro watch robot.urdf.xacro -o robot.urdf --metrics-address 127.0.0.1:9464`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addExpansionFlags(watchCmd, &watchFlags.expansionFlags)
	watchCmd.Flags().StringVarP(&watchFlags.output, "output", "o", "", "file rewritten after every successful expansion (required)")
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 0, "quiet period before re-expanding (default from config)")
	watchCmd.Flags().StringVar(&watchFlags.metricsAddress, "metrics-address", "", "serve metrics and health endpoints on this address")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchFlags.output == "" {
		return cli.NewCommandError("watch", cli.NewConfigError("output", "--output is required"))
	}
	if watchFlags.gitRev != "" {
		return cli.NewCommandError("watch", cli.NewConfigError("git-rev", "a Git revision does not change; use expand"))
	}

	a, err := newApp(cmd, &watchFlags.expansionFlags)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer a.close()

	if watchFlags.debounce > 0 {
		a.cfg.Watch.Debounce = watchFlags.debounce
	}
	if watchFlags.metricsAddress != "" {
		a.cfg.Watch.MetricsAddress = watchFlags.metricsAddress
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	proc := a.processor()
	path := args[0]
	out := cmd.ErrOrStderr()

	run := func(ctx context.Context) ([]string, error) {
		result, err := proc.ExpandFile(ctx, path)
		if err != nil {
			fmt.Fprintf(out, "✗ %s\n", strings.TrimRight(err.Error(), "\n"))
			return nil, err
		}
		if err := writeFileAtomic(watchFlags.output, []byte(result.Output+"\n")); err != nil {
			fmt.Fprintf(out, "✗ %v\n", err)
			return result.Dependencies, err
		}
		fmt.Fprintf(out, "✓ %s → %s (%d files)\n", path, watchFlags.output, len(result.Dependencies))
		return result.Dependencies, nil
	}

	w, err := watch.New(watch.Config{Path: path, Debounce: a.cfg.Watch.Debounce}, run, a.logger.Slog())
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	if a.store != nil {
		scheduler := cache.NewScheduler(cache.NewPruner(a.store, a.cfg.Cache.Retention, a.metrics))
		if err := scheduler.Start(ctx); err != nil {
			a.logger.Warn("cache retention disabled", "error", err)
		}
		defer scheduler.Stop()
	}

	if addr := a.cfg.Watch.MetricsAddress; addr != "" {
		srv := newStatusServer(a, addr, w)
		go func() {
			a.logger.Info("serving metrics and health", "address", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("status server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := w.Watch(ctx); err != nil {
		return cli.NewCommandError("watch", err)
	}
	return nil
}

// newStatusServer serves Prometheus metrics and health probes for a
// running watcher.
func newStatusServer(a *app, addr string, w *watch.Watcher) *http.Server {
	checker := health.New(2 * time.Second)
	checker.RegisterCheck("last_expansion", w.Check)
	if a.store != nil {
		store := a.store
		checker.RegisterCheck("cache", func(ctx context.Context) error {
			_, err := store.Count(ctx)
			return err
		})
	}

	mux := http.NewServeMux()
	mux.Handle(a.cfg.Telemetry.Metrics.Path, a.metrics.Handler())
	health.Register(mux, checker, Version)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
