package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"jobmate/matching-service/internal/model"
)

// PoolCache stores sampled job pools per filter shape. Entries expire after
// the cache TTL and are always replaced whole.
type PoolCache interface {
	Get(ctx context.Context, key string) ([]model.Job, bool)
	Set(ctx context.Context, key string, jobs []model.Job)
}

// ─── In-process cache ────────────────────────────────────────────────────────

type poolEntry struct {
	jobs     []model.Job
	storedAt time.Time
}

// MemoryPoolCache is a process-scoped PoolCache. Concurrent refreshes of the
// same key are last-writer-wins.
type MemoryPoolCache struct {
	mu      sync.Mutex
	entries map[string]poolEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryPoolCache returns an empty cache with the given TTL.
func NewMemoryPoolCache(ttl time.Duration) *MemoryPoolCache {
	return &MemoryPoolCache{
		entries: make(map[string]poolEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the pool for key if it is still fresh.
func (c *MemoryPoolCache) Get(_ context.Context, key string) ([]model.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.jobs, true
}

// Set replaces the pool for key.
func (c *MemoryPoolCache) Set(_ context.Context, key string, jobs []model.Job) {
	snapshot := make([]model.Job, len(jobs))
	copy(snapshot, jobs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = poolEntry{jobs: snapshot, storedAt: c.now()}
}

// ─── Redis cache ─────────────────────────────────────────────────────────────

const redisKeyPrefix = "matching:catalog:pool:"

// RedisPoolCache shares pools across instances. Expiry is delegated to Redis.
type RedisPoolCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisPoolCache returns a cache backed by rdb.
func NewRedisPoolCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisPoolCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPoolCache{rdb: rdb, ttl: ttl, logger: logger.With("component", "pool_cache")}
}

// cachedJob keeps the fields model.Job hides from its public JSON form.
type cachedJob struct {
	model.Job
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// Get implements PoolCache. Redis errors are logged and reported as misses.
func (c *RedisPoolCache) Get(ctx context.Context, key string) ([]model.Job, bool) {
	payload, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("pool cache get failed", "key", key, "err", err)
		return nil, false
	}

	var cached []cachedJob
	if err := json.Unmarshal(payload, &cached); err != nil {
		c.logger.Warn("pool cache entry unreadable", "key", key, "err", err)
		return nil, false
	}
	jobs := make([]model.Job, len(cached))
	for i, cj := range cached {
		jobs[i] = cj.Job
		if cj.Lat != nil && cj.Lon != nil {
			jobs[i].Coordinates = model.KnownCoordinates(*cj.Lat, *cj.Lon)
		}
	}
	return jobs, true
}

// Set implements PoolCache.
func (c *RedisPoolCache) Set(ctx context.Context, key string, jobs []model.Job) {
	cached := make([]cachedJob, len(jobs))
	for i, j := range jobs {
		cached[i] = cachedJob{Job: j}
		if j.Coordinates.Known {
			lat, lon := j.Coordinates.Lat, j.Coordinates.Lon
			cached[i].Lat, cached[i].Lon = &lat, &lon
		}
	}
	payload, err := json.Marshal(cached)
	if err != nil {
		c.logger.Warn("pool cache encode failed", "key", key, "err", err)
		return
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("pool cache set failed", "key", key, "err", err)
	}
}
