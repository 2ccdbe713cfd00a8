// Package metrics exposes Prometheus metrics for the xacro processor.
//
// Metrics (namespace and subsystem from MetricsConfig, default
// "xacro_processor_"):
//   - expansions_total{status}: expansions by outcome ("success", "error", "cached")
//   - expansion_duration_seconds: wall time of one expansion
//   - errors_total{kind}: failed expansions by error kind
//   - macro_invocations_total: macro invocations expanded
//   - includes_total: include directives spliced
//   - macro_depth: deepest macro frame stack per expansion
//   - cache_lookups_total{result}: cache lookups ("hit", "miss", "stale")
//   - cache_entries: entries held by the result cache
//   - cache_evictions_total: entries removed by retention
//
// A nil *Collector is valid and records nothing.
package metrics
