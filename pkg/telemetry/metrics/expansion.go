package metrics

import (
	"time"

	"mercator-hq/xacro/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ExpansionMetrics tracks document expansions.
type ExpansionMetrics struct {
	expansionsTotal  *prometheus.CounterVec
	duration         prometheus.Histogram
	errorsTotal      *prometheus.CounterVec
	macroInvocations prometheus.Counter
	includesTotal    prometheus.Counter
	macroDepth       prometheus.Histogram
}

// NewExpansionMetrics creates and registers expansion metrics.
func NewExpansionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExpansionMetrics {
	em := &ExpansionMetrics{
		expansionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "expansions_total",
				Help:      "Total number of document expansions",
			},
			[]string{"status"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "expansion_duration_seconds",
				Help:      "Duration of document expansions in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "errors_total",
				Help:      "Total number of failed expansions by error kind",
			},
			[]string{"kind"},
		),

		macroInvocations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "macro_invocations_total",
				Help:      "Total number of macro invocations expanded",
			},
		),

		includesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "includes_total",
				Help:      "Total number of include directives spliced",
			},
		),

		macroDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "macro_depth",
				Help:      "Deepest macro frame stack reached per expansion",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 9), // 1 to 256
			},
		),
	}

	registry.MustRegister(
		em.expansionsTotal,
		em.duration,
		em.errorsTotal,
		em.macroInvocations,
		em.includesTotal,
		em.macroDepth,
	)

	return em
}

// RecordExpansion records one finished expansion. Cached results only
// count toward expansions_total.
func (em *ExpansionMetrics) RecordExpansion(status string, duration time.Duration, macroInvocations, includes, maxDepth int) {
	em.expansionsTotal.WithLabelValues(status).Inc()
	if status == StatusCached {
		return
	}

	em.duration.Observe(duration.Seconds())
	if status != StatusSuccess {
		return
	}
	if macroInvocations > 0 {
		em.macroInvocations.Add(float64(macroInvocations))
	}
	if includes > 0 {
		em.includesTotal.Add(float64(includes))
	}
	em.macroDepth.Observe(float64(maxDepth))
}

// RecordError records a failure by error kind.
func (em *ExpansionMetrics) RecordError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	em.errorsTotal.WithLabelValues(kind).Inc()
}
