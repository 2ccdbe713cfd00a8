package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/xacro/pkg/cli"
	"mercator-hq/xacro/pkg/config"
	"mercator-hq/xacro/pkg/telemetry/metrics"
	"mercator-hq/xacro/pkg/watch"
)

func TestWatchCommand_UsageErrors(t *testing.T) {
	dir := workspace(t, robotFiles())
	doc := filepath.Join(dir, "robot.xacro")

	tests := []struct {
		name string
		args []string
	}{
		{"missing output", []string{"watch", doc}},
		{"git revision", []string{"watch", doc, "-o", filepath.Join(dir, "out.urdf"), "--git-rev", "HEAD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("watch succeeded")
			}
			if got := cli.ExitCode(err); got != cli.ExitUsage {
				t.Errorf("ExitCode() = %d, want %d", got, cli.ExitUsage)
			}
		})
	}
}

func TestStatusServer(t *testing.T) {
	cfg, err := config.LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	a := &app{
		cfg:     cfg,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry()),
	}
	a.metrics.RecordExpansion(metrics.StatusSuccess, 0, 1, 0, 1)

	w, err := watch.New(watch.Config{Path: "robot.xacro"}, func(ctx context.Context) ([]string, error) {
		return nil, nil
	}, nil)
	if err != nil {
		t.Fatalf("watch.New() error = %v", err)
	}

	srv := httptest.NewServer(newStatusServer(a, "", w).Handler)
	defer srv.Close()

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusServiceUnavailable},
		{"/version", http.StatusOK},
		{cfg.Telemetry.Metrics.Path, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s error = %v", tt.path, err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.want)
			}
		})
	}
}
