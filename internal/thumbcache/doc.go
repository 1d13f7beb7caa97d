// Package thumbcache is a persistent, content-addressed store of rendered
// thumbnails.
//
// Each entry is a single file in one flat directory, named after a SHA-256
// key derived from the source path, the source modification time, and the
// render parameters. An entry is served only while it is non-empty and at
// least as new as its source; anything else is re-rendered through the
// caller-supplied RenderFunc and written back with an atomic rename.
//
// Writes are best-effort. A cache whose directory cannot be created is
// disabled: it still renders on every call but never touches the disk.
package thumbcache
