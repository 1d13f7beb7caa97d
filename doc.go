// Package main provides the entry point for the Pair Viewer application.
//
// Pair Viewer is a small local web application for culling photo shoots
// that were captured as JPEG+RAW pairs. It matches a folder of primary
// images (JPEG) against a folder of originals (RAW) by base name, serves
// cached thumbnails and large previews of the primaries, and opens the
// matching original in an external editor.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Configuration Loading: Merges an optional .env file into the
//     environment, reads the settings and validates directories
//  2. Memory Configuration: Sets the Go soft memory limit from MEMORY_LIMIT
//  3. Metrics: Registers collectors and the filesystem retry observer
//  4. Database Initialization: Opens the SQLite history and settings store
//  5. Imaging: Initializes libvips when VIPS_ENABLED is set and opens the
//     thumbnail cache
//  6. HTTP Server Setup: Configures routes, middleware, and starts server
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// Rendering happens only on request. The number of concurrent renders is
// bounded by a limiter sized from the CPU count (override with
// RENDER_WORKERS).
//
// # HTTP Endpoints
//
//	GET  /api/status                     Session status
//	POST /api/load_folders               Match folders and start a session
//	POST /api/select_image/{index}       Select a pair
//	POST /api/next_image                 Move to the next pair
//	POST /api/previous_image             Move to the previous pair
//	GET  /api/image/thumbnail/{index}    Cached thumbnail (JPEG)
//	GET  /api/image/preview/{index}      Large preview (JPEG)
//	GET  /api/image/metadata/{index}     EXIF display fields
//	POST /api/open_original              Open the original in the editor
//	GET  /api/history                    Saved position for a folder
//	POST /api/history                    Save a position
//	GET  /api/settings/folders           Default folders
//	POST /api/settings/folders           Save default folders
//	GET  /health, /healthz, /livez       Health probes
//	GET  /version                        Build information
//
// Prometheus metrics are served on a separate port (METRICS_PORT, default
// 9090) at /metrics unless METRICS_ENABLED=false.
//
// # Configuration
//
// See package startup for the full list of environment variables.
//
// # Build Information
//
// Version information is injected at build time using ldflags:
//
//	go build -ldflags "-X pair-viewer/internal/startup.Version=1.0.0 \
//	  -X pair-viewer/internal/startup.Commit=abc123"
package main
