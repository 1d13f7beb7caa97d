// Package database provides SQLite storage for pair-viewer.
//
// It handles storage and retrieval of:
//   - Per-folder browsing history (last selected index and sort order)
//   - Application settings such as the default folder pair
//
// The database uses WAL mode and creates its schema on open.
package database
