package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pbaille/trip/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Geocoder is anything that resolves a place to a location
type Geocoder interface {
	Geocode(ctx context.Context, name, address string) (domain.Location, error)
}

// Cache stores resolved locations by key
type Cache interface {
	Get(ctx context.Context, key string) (domain.Location, bool, error)
	Set(ctx context.Context, key string, loc domain.Location) error
}

// CachedGeocoder answers repeated lookups from a cache
type CachedGeocoder struct {
	next  Geocoder
	cache Cache
}

// NewCachedGeocoder wraps next with cache
func NewCachedGeocoder(next Geocoder, cache Cache) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache}
}

// Geocode returns a cached location when present, otherwise asks the
// wrapped geocoder and remembers successful answers. Cache errors never
// fail a lookup.
func (g *CachedGeocoder) Geocode(ctx context.Context, name, address string) (domain.Location, error) {
	key := cacheKey(name, address)

	if loc, ok, err := g.cache.Get(ctx, key); err == nil && ok {
		return loc, nil
	}

	loc, err := g.next.Geocode(ctx, name, address)
	if err != nil {
		return domain.Location{}, err
	}
	_ = g.cache.Set(ctx, key, loc)
	return loc, nil
}

func cacheKey(name, address string) string {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	return "trip:geocode:" + norm(name) + "|" + norm(address)
}

// MemoryCache keeps locations for the life of the process
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]domain.Location
}

// NewMemoryCache creates an empty MemoryCache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]domain.Location)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (domain.Location, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.items[key]
	return loc, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, loc domain.Location) error {
	m.mu.Lock()
	m.items[key] = loc
	m.mu.Unlock()
	return nil
}

// RedisCache keeps locations in Redis with an expiry
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at url and checks it answers
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (domain.Location, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Location{}, false, nil
	}
	if err != nil {
		return domain.Location{}, false, fmt.Errorf("redis get: %w", err)
	}
	var loc domain.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return domain.Location{}, false, fmt.Errorf("decode cached location: %w", err)
	}
	return loc, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, loc domain.Location) error {
	raw, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool
func (r *RedisCache) Close() error {
	return r.client.Close()
}
