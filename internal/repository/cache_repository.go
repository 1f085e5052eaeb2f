package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
)

// RedisCacheRepository stores shared response payloads in Redis as JSON.
type RedisCacheRepository struct {
	client *redis.Client
}

// NewRedisCacheRepository constructs a cache repository. The client is shared
// with the session store and is not closed here.
func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{client: client}
}

// Get retrieves and unmarshals the cached value into dest.
func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals value and stores it with ttl.
func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCacheRepository is the process-local cache used without Redis.
type MemoryCacheRepository struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewMemoryCacheRepository builds an empty cache. now defaults to time.Now.
func NewMemoryCacheRepository(now func() time.Time) *MemoryCacheRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryCacheRepository{now: now, entries: make(map[string]cacheEntry)}
}

// Get decodes a live entry into dest.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	entry, ok := r.entries[key]
	if ok && !r.now().Before(entry.expiresAt) {
		delete(r.entries, key)
		ok = false
	}
	r.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores a JSON copy of value for ttl.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = cacheEntry{payload: payload, expiresAt: r.now().Add(ttl)}
	return nil
}
