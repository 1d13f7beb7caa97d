package thumbcache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pair-viewer/internal/filesystem"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/metrics"
)

// Stats summarises the entries currently on disk.
type Stats struct {
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
	Temp    int   `json:"temp_files"`
}

// isEntry reports whether name looks like a file this cache wrote.
func isEntry(name string) bool {
	if !strings.HasSuffix(name, entrySuffix) {
		return false
	}
	if len(name) < 64+1+len(entrySuffix) || name[64] != '_' {
		return false
	}
	for _, r := range name[:64] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, filesystem.TempPrefix)
}

// walk calls fn for every regular cache entry or leftover temp file.
func (c *Cache) walk(fn func(path string, info os.FileInfo, temp bool) error) error {
	if !c.enabled {
		return nil
	}
	entries, err := filesystem.ReadDirWithRetry(c.dir, c.retry)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		temp := isTemp(name)
		if !temp && !isEntry(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := fn(filepath.Join(c.dir, name), info, temp); err != nil {
			return err
		}
	}
	return nil
}

// Stats counts the cache entries and their total size.
func (c *Cache) Stats() (Stats, error) {
	var s Stats
	err := c.walk(func(_ string, info os.FileInfo, temp bool) error {
		if temp {
			s.Temp++
			return nil
		}
		s.Entries++
		s.Bytes += info.Size()
		return nil
	})
	return s, err
}

// CacheStats adapts Stats for the metrics collector.
func (c *Cache) CacheStats() (metrics.CacheStats, error) {
	s, err := c.Stats()
	if err != nil {
		return metrics.CacheStats{}, err
	}
	return metrics.CacheStats{Entries: s.Entries, Bytes: s.Bytes}, nil
}

// Clear removes every cache entry and leftover temp file. It returns the
// number of files removed.
func (c *Cache) Clear() (int, error) {
	return c.remove(func(os.FileInfo, bool) bool { return true })
}

// Prune removes entries and temp files last modified more than olderThan ago.
func (c *Cache) Prune(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	return c.remove(func(info os.FileInfo, _ bool) bool {
		return info.ModTime().Before(cutoff)
	})
}

// remove deletes matching files. A render racing with it at worst loses its
// entry write and is served uncached.
func (c *Cache) remove(match func(info os.FileInfo, temp bool) bool) (int, error) {
	removed := 0
	err := c.walk(func(path string, info os.FileInfo, temp bool) error {
		if !match(info, temp) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	if removed > 0 {
		logging.Info("Thumbnail cache: removed %d files from %s", removed, c.dir)
	}
	return removed, err
}
