package metrics

import (
	"time"

	"mercator-hq/xacro/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Expansion outcomes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusCached  = "cached"
)

// Collector owns the metric registry and records processor metrics.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	expansionMetrics *ExpansionMetrics
	cacheMetrics     *CacheMetrics
}

// NewCollector creates a collector registering into registry, or a fresh
// registry when nil.
//
//	cfg := &config.MetricsConfig{Enabled: true}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:           cfg,
		registry:         registry,
		expansionMetrics: NewExpansionMetrics(cfg, registry),
		cacheMetrics:     NewCacheMetrics(cfg, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordExpansion records one finished expansion.
//
//	collector.RecordExpansion(metrics.StatusSuccess, 12*time.Millisecond, 40, 3, 5)
func (c *Collector) RecordExpansion(status string, duration time.Duration, macroInvocations, includes, maxDepth int) {
	if !c.enabled() {
		return
	}
	c.expansionMetrics.RecordExpansion(status, duration, macroInvocations, includes, maxDepth)
}

// RecordError records a failed expansion by error kind.
func (c *Collector) RecordError(kind string) {
	if !c.enabled() {
		return
	}
	c.expansionMetrics.RecordError(kind)
}

// RecordCacheLookup records a cache lookup result ("hit", "miss", "stale").
func (c *Collector) RecordCacheLookup(result string) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.RecordLookup(result)
}

// UpdateCacheEntries sets the current number of cached entries.
func (c *Collector) UpdateCacheEntries(n int) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.UpdateEntries(n)
}

// RecordCacheEvictions records entries removed by retention.
func (c *Collector) RecordCacheEvictions(n int) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.RecordEvictions(n)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
