// Package handlers provides the HTTP/JSON API of the pair viewer.
//
// It includes handlers for:
//   - Loading a primary/original folder pair and navigating the pair list
//   - Cached thumbnails, uncached previews and EXIF display metadata
//   - Opening the current original in an external editor
//   - Per-folder history and saved default folders
//   - Health checks and build information
//
// Every error response has the form
//
//	{"success": false, "code": "no_pairs", "message": "..."}
//
// where code is a stable token derived from the error's kind.
package handlers
