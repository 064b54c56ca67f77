package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-nexus/internal/appointments"
	"github.com/wolfman30/clinic-nexus/internal/clinicapi"
	appconfig "github.com/wolfman30/clinic-nexus/internal/config"
	"github.com/wolfman30/clinic-nexus/internal/listing"
	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
	"github.com/wolfman30/clinic-nexus/internal/records"
	"github.com/wolfman30/clinic-nexus/internal/search"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildCompletionGuard shares completion state through Redis when available
// so that several gateway replicas bill an appointment once. Without Redis
// the guard is process-local.
func BuildCompletionGuard(redisClient *redis.Client, cfg *appconfig.Config) appointments.CompletionGuard {
	if redisClient == nil {
		return appointments.NewMemoryGuard(cfg.CompletionGuardTTL)
	}
	return appointments.NewRedisGuard(redisClient, cfg.CompletionGuardTTL)
}

// BuildSearcher returns the directory searcher, fronted by the Redis cache
// when a client is available and the cache TTL is positive.
func BuildSearcher(client *clinicapi.Client, rows *listing.Collection[records.AppointmentRow], redisClient *redis.Client, cfg *appconfig.Config, m *metrics.SearchMetrics, logger *logging.Logger) search.Searcher {
	directory := search.NewDirectory(client, rows, logger)
	if redisClient == nil || cfg.SearchCacheTTL <= 0 {
		return directory
	}
	return search.NewCachedSearcher(directory, redisClient, cfg.SearchCacheTTL, m, logger)
}
