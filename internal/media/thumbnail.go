package media

import (
	"errors"

	"pair-viewer/internal/logging"
	"pair-viewer/internal/metrics"
	"pair-viewer/internal/thumbcache"
)

// ThumbnailGenerator serves thumbnails from a cache, rendering on a miss.
type ThumbnailGenerator struct {
	cache    *thumbcache.Cache
	renderer *Renderer
	params   thumbcache.RenderParams
}

// NewThumbnailGenerator binds cache and renderer with the given default
// parameters.
func NewThumbnailGenerator(cache *thumbcache.Cache, renderer *Renderer, params thumbcache.RenderParams) *ThumbnailGenerator {
	if renderer == nil {
		renderer = NewRenderer()
	}
	if cache.Enabled() {
		logging.Debug("ThumbnailGenerator: cache dir: %s, params: %s", cache.Dir(), params.Summary())
	} else {
		logging.Debug("ThumbnailGenerator: cache disabled, rendering on every request")
	}
	return &ThumbnailGenerator{
		cache:    cache,
		renderer: renderer,
		params:   params,
	}
}

// Params returns the default render parameters.
func (g *ThumbnailGenerator) Params() thumbcache.RenderParams {
	return g.params
}

// GetThumbnail returns the thumbnail for path using the default parameters.
func (g *ThumbnailGenerator) GetThumbnail(path string) ([]byte, error) {
	return g.GetThumbnailWithParams(path, g.params)
}

// GetThumbnailWithParams returns the thumbnail for path rendered with params.
func (g *ThumbnailGenerator) GetThumbnailWithParams(path string, params thumbcache.RenderParams) ([]byte, error) {
	data, err := g.cache.GetOrRender(path, params, g.renderer.Render)
	if err != nil {
		if errors.Is(err, thumbcache.ErrSourceNotFound) {
			metrics.ThumbnailGenerationsTotal.WithLabelValues("error_not_found").Inc()
		}
		logging.Debug("Thumbnail for %s failed: %v", path, err)
		return nil, err
	}
	return data, nil
}

// CacheEnabled reports whether rendered thumbnails are persisted.
func (g *ThumbnailGenerator) CacheEnabled() bool {
	return g.cache.Enabled()
}
