package metrics

import (
	"sync"
	"time"

	"pair-viewer/internal/logging"
)

// CacheStats is the snapshot a CacheStatsProvider reports.
type CacheStats struct {
	Entries int
	Bytes   int64
}

// CacheStatsProvider reports the current thumbnail cache footprint.
type CacheStatsProvider interface {
	CacheStats() (CacheStats, error)
}

// Collector periodically refreshes the cache size gauges.
type Collector struct {
	provider CacheStatsProvider
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider CacheStatsProvider, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop ends the collection loop. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	stats, err := c.provider.CacheStats()
	if err != nil {
		logging.Debug("Metrics: cache stats unavailable: %v", err)
		return
	}

	ThumbnailCacheCount.Set(float64(stats.Entries))
	ThumbnailCacheSizeBytes.Set(float64(stats.Bytes))

	logging.Debug("Metrics collected: cache entries=%d, bytes=%d", stats.Entries, stats.Bytes)
}
