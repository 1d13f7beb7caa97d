// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read from environment variables via [LoadConfig]. A .env
// file in the working directory (or the file named by ENV_FILE) is merged
// first; variables already set in the process environment win.
//
//   - HOST, PORT: application listen address (default: 127.0.0.1:5000)
//   - METRICS_PORT, METRICS_ENABLED: Prometheus server (default: 9090, true)
//   - CACHE_DIR: thumbnail cache directory (default: ./app_cache)
//   - DATABASE_DIR: history and settings database directory (default: ./data)
//   - STATIC_DIR: web UI assets (default: ./static)
//   - THUMBNAIL_WIDTH, THUMBNAIL_HEIGHT, THUMBNAIL_QUALITY: thumbnail canvas
//     and JPEG quality (default: 150, 150, 85)
//   - PREVIEW_MAX_DIMENSION: longest side of previews (default: 4096)
//   - VIPS_ENABLED: use libvips for previews when available (default: false)
//   - EDITOR_PATH: application used to open original files
//   - DEFAULT_PRIMARY_FOLDER, DEFAULT_ORIGINAL_FOLDER: folders offered on
//     first start
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES, LOG_HEALTH_CHECKS: access log filters
//
// The database directory is required and must be writable. The cache
// directory is optional; when it cannot be created thumbnails are rendered
// on every request.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
//
// # Lifecycle Logging
//
// [LogDatabaseInit], [LogImagingInit], [LogMemoryConfig], [LogHTTPRoutes],
// [LogServerStarted] and the shutdown helpers print the sectioned startup
// log.
package startup
