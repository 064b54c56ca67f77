package appointments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CompletionGuard makes billing derivation happen once per appointment even
// when completion is submitted twice.
type CompletionGuard interface {
	// Acquire reports whether this caller is the first to complete appointmentID.
	Acquire(ctx context.Context, appointmentID int) (bool, error)
	// Release forgets appointmentID so a failed completion can be retried.
	Release(ctx context.Context, appointmentID int) error
}

// MemoryGuard is a process-local CompletionGuard.
type MemoryGuard struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	held map[int]time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{ttl: ttl, now: time.Now, held: make(map[int]time.Time)}
}

func (g *MemoryGuard) Acquire(_ context.Context, appointmentID int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if exp, ok := g.held[appointmentID]; ok && (g.ttl <= 0 || now.Before(exp)) {
		return false, nil
	}
	g.held[appointmentID] = now.Add(g.ttl)
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, appointmentID int) error {
	g.mu.Lock()
	delete(g.held, appointmentID)
	g.mu.Unlock()
	return nil
}

// RedisGuard shares completion state between gateway replicas.
type RedisGuard struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{redis: client, ttl: ttl}
}

func (g *RedisGuard) key(appointmentID int) string {
	return fmt.Sprintf("clinic:completion:%d", appointmentID)
}

func (g *RedisGuard) Acquire(ctx context.Context, appointmentID int) (bool, error) {
	ok, err := g.redis.SetNX(ctx, g.key(appointmentID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("appointments: acquire completion guard: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, appointmentID int) error {
	if err := g.redis.Del(ctx, g.key(appointmentID)).Err(); err != nil {
		return fmt.Errorf("appointments: release completion guard: %w", err)
	}
	return nil
}
