package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timer_stickers_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timer_stickers_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timer_stickers_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Generation metrics
var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timer_stickers_generations_total",
			Help: "Total number of sticker generations by source and status",
		},
		[]string{"source", "status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timer_stickers_generation_duration_seconds",
			Help:    "End-to-end sticker generation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"source"},
	)

	GenerationBlobBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timer_stickers_generation_blob_bytes",
			Help:    "Size of produced sticker blobs in bytes",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 10),
		},
	)

	GenerationCacheHitRate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timer_stickers_generation_cache_hit_rate",
			Help:    "Frame cache hit rate observed per generation request",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99, 1},
		},
	)

	RenderedFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timer_stickers_rendered_frames_total",
			Help: "Total number of frames produced by the renderer",
		},
	)

	TrimFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timer_stickers_trim_fallbacks_total",
			Help: "Total number of trim-path failures that fell back to rendering",
		},
	)
)

// Cache metrics
var (
	CacheFrames = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timer_stickers_cache_frames",
			Help: "Number of cached frames per tier",
		},
		[]string{"tier"}, // "seconds", "clips"
	)

	CacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timer_stickers_cache_bytes",
			Help: "Approximate total bitmap bytes held by the frame cache",
		},
	)
)

// Encoding metrics
var (
	EncodeAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timer_stickers_encode_attempts_total",
			Help: "Encoding attempts by strategy and status",
		},
		[]string{"strategy", "status"},
	)

	EncodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timer_stickers_encode_duration_seconds",
			Help:    "Encoding duration in seconds by strategy",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timer_stickers_memory_usage_ratio",
			Help: "Current heap usage as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timer_stickers_memory_paused",
			Help: "Whether rendering is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timer_stickers_memory_gc_pauses_total",
			Help: "Total number of forced garbage collections under memory pressure",
		},
	)
)
