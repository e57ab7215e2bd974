package keyword

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/npnhat/vanthu/internal/textnorm"
)

// Lister is the slice of Store the cache depends on.
type Lister interface {
	List(ctx context.Context) ([]Keyword, error)
}

// Cache holds the anchor keyword set in memory for lock-free reads on the
// chat hot path.
//
// Load replaces the entire set with a single pointer swap, so a concurrent
// reader always observes exactly one complete load, never a mix of two.
// Readers never block, and no lock is held across the database fetch.
//
// Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	source Lister
	logger *slog.Logger
	set    atomic.Pointer[map[string]struct{}]
}

// NewCache creates a Cache with an empty keyword set. Call Load before
// serving traffic.
func NewCache(source Lister, logger *slog.Logger) (*Cache, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{source: source, logger: logger}
	empty := make(map[string]struct{})
	c.set.Store(&empty)
	return c, nil
}

// Load fetches all keywords and atomically replaces the in-memory set.
//
// Keywords are re-normalized on the way in; they are already normalized at
// write time, but re-normalizing is cheap and protects against drift in
// rows written before a normalization change.
//
// On failure the previous set stays in place and the error is logged and
// returned — fail-open, so a transient database error degrades keyword
// freshness rather than taking down routing.
func (c *Cache) Load(ctx context.Context) error {
	keywords, err := c.source.List(ctx)
	if err != nil {
		c.logger.Error("keyword cache reload failed, keeping previous set",
			"error", err, "previous_size", c.Size())
		return fmt.Errorf("reloading keyword cache: %w", err)
	}

	next := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		normalized := textnorm.Normalize(kw.Keyword)
		if normalized == "" {
			continue
		}
		next[normalized] = struct{}{}
	}

	c.set.Store(&next)
	c.logger.Debug("keyword cache reloaded", "size", len(next))
	return nil
}

// ContainsAny reports whether normalizedText contains at least one cached
// keyword as a substring. The input must already be normalized with
// textnorm.Normalize; ContainsAny does not normalize again.
func (c *Cache) ContainsAny(normalizedText string) bool {
	if normalizedText == "" {
		return false
	}
	for kw := range *c.set.Load() {
		if strings.Contains(normalizedText, kw) {
			return true
		}
	}
	return false
}

// Size returns the number of cached keywords.
func (c *Cache) Size() int {
	return len(*c.set.Load())
}
