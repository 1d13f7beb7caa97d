// Package metrics provides Prometheus instrumentation for pair-viewer.
//
// All metrics are prefixed with "pair_viewer_" and registered with the
// default registry through promauto, so the server only needs to mount
// promhttp.Handler().
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Pairing Metrics
//   - PairingScansTotal: folder scans by result (success, no_pairs, not_found, unreadable, invalid)
//   - PairingScanDuration, PairingPairsFound
//   - PairingCollisionsTotal: files dropped by the case-folding tie-break, by side
//
// ## Thumbnail Metrics
//   - ThumbnailCacheHits, ThumbnailCacheMisses, ThumbnailCacheWriteErrors
//   - ThumbnailCacheSizeBytes, ThumbnailCacheCount (refreshed by Collector)
//   - ThumbnailGenerationsTotal by status, ThumbnailGenerationDuration by phase
//   - PreviewRendersTotal by backend (imaging, vips) and status
//
// ## Metadata, Launcher and History Metrics
//   - MetadataExtractionsTotal, LauncherInvocationsTotal
//   - DBQueryTotal, DBQueryDuration
//
// ## Filesystem Metrics
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures,
//     FilesystemStaleErrors, FilesystemRetryDuration, recorded through the
//     filesystem.Observer returned by NewFilesystemObserver.
//
// Call InitializeMetrics once at startup so that every label combination is
// present from the first scrape.
package metrics
