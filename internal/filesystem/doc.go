/*
Package filesystem wraps the few filesystem operations pair-viewer performs
with retry logic for NFS stale file handle errors and provides atomic file
replacement for the thumbnail cache.

Photo folders are often on network shares. StatWithRetry, OpenWithRetry,
ReadDirWithRetry and ReadFileWithRetry retry only ESTALE, with exponential
backoff (50ms, 100ms, 200ms by default, capped at 500ms). Every other error is
returned immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

WriteFileAtomic writes to a temporary file beside the target and renames it
into place, which is what lets concurrent thumbnail requests for the same
cache key share one cache directory without readers ever observing a
half-written entry.

Retry metrics are reported through an Observer set with SetObserver; the
metrics package supplies the implementation. Paths are labeled by volume
using a VolumeResolver.
*/
package filesystem
