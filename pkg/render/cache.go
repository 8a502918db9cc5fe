package render

import (
	"fmt"
	"sync"

	"github.com/pyhub-apps/pdfannotator-golang/pkg/logger"
	"github.com/pyhub-apps/pdfannotator-golang/pkg/pdf"
)

type cacheKey struct {
	doc      string
	page     int
	zoom     float64
	revision uint64
}

// Stats counts cache lookups
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Cache holds the last rendered page. An entry is valid while the document
// instance, page, zoom and page revision are unchanged, so any mutation of
// the page is picked up without explicit invalidation.
//
// Rendering runs under the cache lock, and the revision used as key is the
// one of the snapshot that was rendered.
type Cache struct {
	mu       sync.Mutex
	renderer Renderer
	key      cacheKey
	entry    *Raster
	stats    Stats
}

// NewCache returns an empty cache rendering with r
func NewCache(r Renderer) *Cache {
	return &Cache{renderer: r}
}

// GetOrRender returns the raster of page index at zoom, rendering it if the
// cached entry does not match
func (c *Cache) GetOrRender(src pdf.PageSource, index int, zoom float64) (*Raster, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := src.GetPage(index)
	if err != nil {
		return nil, err
	}

	key := cacheKey{doc: src.ID(), page: index, zoom: zoom, revision: page.Revision}
	if c.entry != nil && c.key == key {
		c.stats.Hits++
		return c.entry, nil
	}

	c.stats.Misses++
	raster, err := c.renderer.Render(page, zoom)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index, err)
	}

	c.key = key
	c.entry = raster
	logger.Logger().Debug("render cache miss",
		"page", index, "zoom", zoom, "revision", page.Revision)
	return raster, nil
}

// Peek returns the cached raster without rendering, or nil
func (c *Cache) Peek() *Raster {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry
}

// Invalidate drops the cached raster
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
	c.key = cacheKey{}
}

// Stats returns the hit and miss counts
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
