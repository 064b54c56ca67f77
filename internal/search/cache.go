package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

// CachedSearcher memoizes search results in Redis for a short TTL. Redis
// failures fall through to the wrapped searcher.
type CachedSearcher struct {
	next    Searcher
	redis   *redis.Client
	ttl     time.Duration
	metrics *metrics.SearchMetrics
	logger  *logging.Logger
}

func NewCachedSearcher(next Searcher, client *redis.Client, ttl time.Duration, m *metrics.SearchMetrics, logger *logging.Logger) *CachedSearcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedSearcher{next: next, redis: client, ttl: ttl, metrics: m, logger: logger}
}

func (c *CachedSearcher) key(kind Kind, query string) string {
	return fmt.Sprintf("clinic:search:%s:%s", kind, strings.ToLower(strings.TrimSpace(query)))
}

func (c *CachedSearcher) Search(ctx context.Context, kind Kind, query string) ([]Hit, error) {
	if c.redis == nil || c.ttl <= 0 {
		return c.next.Search(ctx, kind, query)
	}
	key := c.key(kind, query)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var hits []Hit
		if jsonErr := json.Unmarshal(data, &hits); jsonErr == nil {
			c.metrics.ObserveLookup(string(kind), metrics.LookupCached)
			return hits, nil
		}
		c.logger.Warn("search: corrupt cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("search: cache read failed", "key", key, "error", err)
	}

	hits, err := c.next.Search(ctx, kind, query)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(hits)
	if err != nil {
		return hits, nil
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("search: cache write failed", "key", key, "error", err)
	}
	return hits, nil
}

// Invalidate drops every cached result for kind.
func (c *CachedSearcher) Invalidate(ctx context.Context, kind Kind) error {
	if c.redis == nil {
		return nil
	}
	iter := c.redis.Scan(ctx, 0, fmt.Sprintf("clinic:search:%s:*", kind), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("search: scan cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("search: invalidate cache: %w", err)
	}
	return nil
}
