package metrics

// Generation sources and encode strategies known at startup. Kept in
// one place so InitializeMetrics and dashboards agree on label values.
var (
	GenerationSources = []string{"cache", "extract", "trim", "render-direct", "render-chunked"}
	EncodeStrategies  = []string{"vp9", "vp8", "qtrle"}
	statuses          = []string{"success", "error"}
)

// InitializeMetrics pre-populates all expected label combinations so
// that every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, source := range GenerationSources {
		for _, status := range statuses {
			GenerationsTotal.WithLabelValues(source, status)
		}
		GenerationDuration.WithLabelValues(source)
	}

	for _, strategy := range EncodeStrategies {
		for _, status := range append(statuses, "unsupported") {
			EncodeAttemptsTotal.WithLabelValues(strategy, status)
		}
		EncodeDuration.WithLabelValues(strategy)
	}

	for _, tier := range []string{"seconds", "clips"} {
		CacheFrames.WithLabelValues(tier)
	}
}
