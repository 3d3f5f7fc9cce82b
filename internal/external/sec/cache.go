package sec

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wonny/finrag-metrics/pkg/redis"
)

// Cache stores raw EDGAR responses
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
}

// MemoryCache keeps responses in process memory
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates an in-process cache
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns a cached response
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	if v, ok := m.cache.Get(key); ok {
		return v.([]byte), true
	}
	return nil, false
}

// Set stores a response; ttl 0 uses the default expiration
func (m *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.cache.Set(key, data, ttl)
}

// RedisCache shares responses through Redis
type RedisCache struct {
	cache *redis.Cache
}

// NewRedisCache stores raw payloads under the finrag prefix
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{cache: redis.NewCache(client, "finrag")}
}

// Get returns a cached response; redis errors count as a miss
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := r.cache.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	return data, true
}

// Set stores a response; failures are ignored
func (r *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	_ = r.cache.SetBytes(ctx, key, data, ttl)
}

// NewCache picks Redis when it is enabled, else an in-process cache
func NewCache(client *redis.Client, ttl time.Duration) Cache {
	if client != nil && client.Enabled() {
		return NewRedisCache(client)
	}
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	return NewMemoryCache(ttl, 2*ttl)
}

type noCache struct{}

func (noCache) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (noCache) Set(context.Context, string, []byte, time.Duration) {}
