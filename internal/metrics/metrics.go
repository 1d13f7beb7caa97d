package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pair_viewer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pair_viewer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Pairing metrics
var (
	PairingScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_pairing_scans_total",
			Help: "Total number of folder pairing scans by result",
		},
		[]string{"result"}, // "success", "no_pairs", "not_found", "unreadable", "invalid"
	)

	PairingScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pair_viewer_pairing_scan_duration_seconds",
			Help:    "Duration of folder pairing scans in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	PairingPairsFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pair_viewer_pairing_pairs_found",
			Help:    "Number of image pairs produced by successful scans",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		},
	)

	PairingCollisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_pairing_collisions_total",
			Help: "Files ignored because their stem collided with another file under case folding",
		},
		[]string{"side"},
	)
)

// Thumbnail metrics
var (
	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pair_viewer_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pair_viewer_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailCacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pair_viewer_thumbnail_cache_write_errors_total",
			Help: "Rendered thumbnails that could not be written to the cache",
		},
	)

	ThumbnailCacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pair_viewer_thumbnail_cache_size_bytes",
			Help: "Total size of the thumbnail cache in bytes",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pair_viewer_thumbnail_cache_count",
			Help: "Number of entries in the thumbnail cache",
		},
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_thumbnail_generations_total",
			Help: "Total number of thumbnail renders by status",
		},
		[]string{"status"}, // "success", "error_decode", "error_dimensions", "error_encode", "error_not_found"
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pair_viewer_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail render duration in seconds by phase",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"phase"}, // "decode", "resize", "compose", "encode", "total"
	)

	PreviewRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_preview_renders_total",
			Help: "Total number of preview renders by backend and status",
		},
		[]string{"backend", "status"},
	)
)

// Metadata and launcher metrics
var (
	MetadataExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_metadata_extractions_total",
			Help: "Total number of EXIF extractions by result",
		},
		[]string{"result"}, // "found", "empty", "error"
	)

	LauncherInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_launcher_invocations_total",
			Help: "External application launches by method and status",
		},
		[]string{"method", "status"},
	)
)

// History store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pair_viewer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_filesystem_retry_attempts_total",
			Help: "Retries performed after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_filesystem_retry_failures_total",
			Help: "Operations that still failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pair_viewer_filesystem_stale_errors_total",
			Help: "Stale file handle errors encountered",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pair_viewer_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// AppInfo exposes build information as labels on a constant gauge.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pair_viewer_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
