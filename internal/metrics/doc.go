// Package metrics provides Prometheus instrumentation for the
// timer-stickers service.
//
// All metrics are prefixed with "timer_stickers_" to avoid naming
// collisions with other applications. Categories:
//
//   - HTTP: request counts, durations, in-flight gauge
//   - Generation: requests by source and status, durations, blob sizes,
//     cache hit rates
//   - Cache: frame counts per tier, approximate bytes
//   - Encoding: per-strategy attempt counters
//   - Memory: usage ratio, pause state, forced GC counter
//
// Metrics with label dimensions are pre-populated at startup by
// InitializeMetrics so every series is present from the first scrape.
package metrics
