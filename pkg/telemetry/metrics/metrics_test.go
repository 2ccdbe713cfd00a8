package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/xacro/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "xacro",
		DurationBuckets: []float64{0.01, 0.1, 1},
	}
}

func TestNewCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	c := NewCollector(cfg, nil)

	if c.Registry() == nil {
		t.Fatal("Registry() = nil")
	}
	if cfg.Namespace != "xacro" || cfg.Subsystem != "processor" {
		t.Errorf("namespace/subsystem = %q/%q, want xacro/processor", cfg.Namespace, cfg.Subsystem)
	}
	if len(cfg.DurationBuckets) == 0 {
		t.Error("DurationBuckets not defaulted")
	}
}

func TestCollector_RecordExpansion(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.RecordExpansion(StatusSuccess, 5*time.Millisecond, 10, 2, 3)
	c.RecordExpansion(StatusSuccess, 7*time.Millisecond, 5, 0, 1)
	c.RecordExpansion(StatusCached, 0, 10, 2, 3)
	c.RecordExpansion(StatusError, time.Millisecond, 0, 0, 0)

	em := c.expansionMetrics
	if got := testutil.ToFloat64(em.expansionsTotal.WithLabelValues(StatusSuccess)); got != 2 {
		t.Errorf("expansions_total{success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(em.expansionsTotal.WithLabelValues(StatusCached)); got != 1 {
		t.Errorf("expansions_total{cached} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(em.macroInvocations); got != 15 {
		t.Errorf("macro_invocations_total = %v, want 15", got)
	}
	if got := testutil.ToFloat64(em.includesTotal); got != 2 {
		t.Errorf("includes_total = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(em.duration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestCollector_RecordError(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.RecordError("unknown_macro")
	c.RecordError("unknown_macro")
	c.RecordError("")

	if got := testutil.ToFloat64(c.expansionMetrics.errorsTotal.WithLabelValues("unknown_macro")); got != 2 {
		t.Errorf("errors_total{unknown_macro} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.expansionMetrics.errorsTotal.WithLabelValues("unknown")); got != 1 {
		t.Errorf("errors_total{unknown} = %v, want 1", got)
	}
}

func TestCollector_Cache(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.RecordCacheLookup("hit")
	c.RecordCacheLookup("miss")
	c.RecordCacheLookup("hit")
	c.UpdateCacheEntries(7)
	c.RecordCacheEvictions(3)
	c.RecordCacheEvictions(0)

	cm := c.cacheMetrics
	if got := testutil.ToFloat64(cm.lookupsTotal.WithLabelValues("hit")); got != 2 {
		t.Errorf("cache_lookups_total{hit} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(cm.entries); got != 7 {
		t.Errorf("cache_entries = %v, want 7", got)
	}
	if got := testutil.ToFloat64(cm.evictionsTotal); got != 3 {
		t.Errorf("cache_evictions_total = %v, want 3", got)
	}
}

func TestCollector_DisabledAndNil(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())
	c.RecordExpansion(StatusSuccess, time.Millisecond, 1, 1, 1)
	c.RecordCacheLookup("hit")

	if got := testutil.ToFloat64(c.expansionMetrics.expansionsTotal.WithLabelValues(StatusSuccess)); got != 0 {
		t.Errorf("disabled collector recorded %v expansions", got)
	}

	var nilCollector *Collector
	nilCollector.RecordExpansion(StatusSuccess, 0, 0, 0, 0)
	nilCollector.RecordError("io")
	nilCollector.UpdateCacheEntries(1)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	c.RecordExpansion(StatusSuccess, time.Millisecond, 1, 0, 1)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), `test_xacro_expansions_total{status="success"} 1`) {
		t.Errorf("exposition missing expansions_total:\n%s", body)
	}
}
