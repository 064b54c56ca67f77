// Package listing keeps list views consistent with the clinic API by
// invalidating and refetching whole collections after every mutation.
package listing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

// Loader fetches a whole collection.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Collection caches one collection until it is invalidated or older than
// maxAge. A zero maxAge keeps it until the next invalidation.
type Collection[T any] struct {
	name   string
	load   Loader[T]
	maxAge time.Duration
	now    func() time.Time
	logger *logging.Logger

	mu       sync.Mutex
	items    []T
	loadedAt time.Time
	valid    bool
}

func NewCollection[T any](name string, load Loader[T], maxAge time.Duration, logger *logging.Logger) *Collection[T] {
	if logger == nil {
		logger = logging.Default()
	}
	return &Collection[T]{
		name:   name,
		load:   load,
		maxAge: maxAge,
		now:    time.Now,
		logger: logger,
	}
}

// Items returns the cached collection, fetching it when stale.
func (c *Collection[T]) Items(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	if c.valid && (c.maxAge <= 0 || c.now().Sub(c.loadedAt) < c.maxAge) {
		out := c.items
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh refetches unconditionally.
func (c *Collection[T]) Refresh(ctx context.Context) ([]T, error) {
	items, err := c.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing: load %s: %w", c.name, err)
	}
	c.mu.Lock()
	c.items = items
	c.loadedAt = c.now()
	c.valid = true
	c.mu.Unlock()
	c.logger.Debug("listing: refreshed", "collection", c.name, "count", len(items))
	return items, nil
}

// Invalidate forces the next Items call to refetch.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Mutate runs fn and, when it succeeds, reloads the collection. A failed
// reload after a successful mutation only invalidates; the mutation's
// outcome is what the caller sees.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	c.Invalidate()
	if _, err := c.Refresh(ctx); err != nil {
		c.logger.Warn("listing: refresh after mutation failed", "collection", c.name, "error", err)
	}
	return nil
}
