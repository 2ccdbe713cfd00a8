package metrics

import (
	"mercator-hq/xacro/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks the expansion result cache.
type CacheMetrics struct {
	lookupsTotal   *prometheus.CounterVec
	entries        prometheus.Gauge
	evictionsTotal prometheus.Counter
}

// NewCacheMetrics creates and registers cache metrics.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		lookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_lookups_total",
				Help:      "Total number of cache lookups by result",
			},
			[]string{"result"},
		),

		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of entries in the result cache",
			},
		),

		evictionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache entries removed by retention",
			},
		),
	}

	registry.MustRegister(
		cm.lookupsTotal,
		cm.entries,
		cm.evictionsTotal,
	)

	return cm
}

// RecordLookup records a cache lookup result.
func (cm *CacheMetrics) RecordLookup(result string) {
	cm.lookupsTotal.WithLabelValues(result).Inc()
}

// UpdateEntries sets the number of cached entries.
func (cm *CacheMetrics) UpdateEntries(n int) {
	cm.entries.Set(float64(n))
}

// RecordEvictions records removed entries.
func (cm *CacheMetrics) RecordEvictions(n int) {
	if n > 0 {
		cm.evictionsTotal.Add(float64(n))
	}
}
