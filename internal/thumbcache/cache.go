package thumbcache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pair-viewer/internal/filesystem"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/metrics"
)

const entrySuffix = "_thumb.jpg"

var (
	// ErrSourceNotFound is returned when the image to thumbnail does not exist.
	ErrSourceNotFound = errors.New("source image not found")

	// ErrRenderFailed wraps any error reported by the RenderFunc.
	ErrRenderFailed = errors.New("thumbnail render failed")
)

// RenderFunc produces encoded thumbnail bytes for a source image.
type RenderFunc func(sourcePath string, params RenderParams) ([]byte, error)

// Cache is a flat directory of rendered thumbnails.
type Cache struct {
	dir     string
	enabled bool
	retry   filesystem.RetryConfig

	mu       sync.Mutex
	inflight map[string]*entryLock
}

// entryLock serializes renders of one entry. refs counts holders and
// waiters so the last one out can drop it from the map.
type entryLock struct {
	mu   sync.Mutex
	refs int
}

// New opens the cache rooted at dir, creating it if needed. When the
// directory cannot be created the returned cache is disabled.
func New(dir string) *Cache {
	c := &Cache{
		dir:      dir,
		retry:    filesystem.DefaultRetryConfig(),
		inflight: make(map[string]*entryLock),
	}
	if dir == "" {
		logging.Warn("Thumbnail cache: no directory configured, caching disabled")
		return c
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Warn("Thumbnail cache: failed to create %s, caching disabled: %v", dir, err)
		return c
	}
	c.enabled = true
	logging.Debug("Thumbnail cache: enabled, dir: %s", dir)
	return c
}

// Enabled reports whether entries are read from and written to disk.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// GetOrRender returns the cached thumbnail for sourcePath under params,
// rendering and storing it on a miss.
func (c *Cache) GetOrRender(sourcePath string, params RenderParams, render RenderFunc) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	srcInfo, err := filesystem.StatWithRetry(sourcePath, c.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
		}
		return nil, &KeyError{Path: sourcePath, Err: err}
	}
	if srcInfo.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, sourcePath)
	}

	if !c.enabled {
		return c.render(sourcePath, params, render)
	}

	key, err := DeriveKey(sourcePath, params)
	if err != nil {
		return nil, err
	}
	entryPath := filepath.Join(c.dir, entryName(key, sourcePath))

	if data, ok := c.lookup(entryPath, srcInfo.ModTime()); ok {
		logging.Debug("Thumbnail cache hit: %s", sourcePath)
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}

	unlock := c.lockEntry(entryPath)
	defer unlock()

	// Another request may have rendered it while we waited.
	if data, ok := c.lookup(entryPath, srcInfo.ModTime()); ok {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}

	metrics.ThumbnailCacheMisses.Inc()
	logging.Debug("Thumbnail cache miss: %s", sourcePath)

	data, err := c.render(sourcePath, params, render)
	if err != nil {
		return nil, err
	}

	if err := filesystem.WriteFileAtomic(entryPath, data, 0o644); err != nil {
		metrics.ThumbnailCacheWriteErrors.Inc()
		logging.Warn("Failed to cache thumbnail %s: %v", entryPath, err)
	} else {
		logging.Debug("Thumbnail cached: %s", entryPath)
	}
	return data, nil
}

// lockEntry blocks until the caller owns entryPath. Renders of different
// entries proceed in parallel.
func (c *Cache) lockEntry(entryPath string) func() {
	c.mu.Lock()
	l, ok := c.inflight[entryPath]
	if !ok {
		l = &entryLock{}
		c.inflight[entryPath] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.inflight, entryPath)
		}
		c.mu.Unlock()
	}
}

func (c *Cache) render(sourcePath string, params RenderParams, render RenderFunc) ([]byte, error) {
	data, err := render(sourcePath, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty output for %s", ErrRenderFailed, sourcePath)
	}
	return data, nil
}

// lookup returns the entry bytes when the entry is non-empty and not older
// than the source.
func (c *Cache) lookup(entryPath string, sourceModTime time.Time) ([]byte, bool) {
	info, err := os.Stat(entryPath)
	if err != nil || info.Size() == 0 || info.ModTime().Before(sourceModTime) {
		return nil, false
	}
	data, err := filesystem.ReadFileWithRetry(entryPath, c.retry)
	if err != nil || len(data) == 0 {
		logging.Warn("Thumbnail cache: unreadable entry %s: %v", entryPath, err)
		return nil, false
	}
	return data, true
}
