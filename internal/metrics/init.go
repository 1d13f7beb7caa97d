package metrics

// InitializeMetrics pre-populates the expected label combinations so every
// series is exported from the first scrape.
func InitializeMetrics() {
	for _, result := range []string{"success", "no_pairs", "not_found", "unreadable", "invalid"} {
		PairingScansTotal.WithLabelValues(result)
	}
	for _, side := range []string{"primary", "original"} {
		PairingCollisionsTotal.WithLabelValues(side)
	}

	for _, status := range []string{"success", "error_decode", "error_dimensions", "error_encode", "error_not_found"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}
	for _, phase := range []string{"decode", "resize", "compose", "encode", "total"} {
		ThumbnailGenerationDuration.WithLabelValues(phase)
	}

	for _, backend := range []string{"imaging", "vips"} {
		PreviewRendersTotal.WithLabelValues(backend, "success")
		PreviewRendersTotal.WithLabelValues(backend, "error")
	}

	for _, result := range []string{"found", "empty", "error"} {
		MetadataExtractionsTotal.WithLabelValues(result)
	}

	for _, method := range []string{"editor", "default"} {
		LauncherInvocationsTotal.WithLabelValues(method, "success")
		LauncherInvocationsTotal.WithLabelValues(method, "error")
	}

	for _, op := range []string{"get_history", "save_history", "get_settings", "save_settings", "initialize_schema"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	volumes := []string{"primary", "original", "cache", "database", "unknown"}
	for _, op := range []string{"stat", "open", "readdir", "write"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
