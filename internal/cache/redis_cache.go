package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// =============================================================================
// REDIS CACHE IMPLEMENTATION
// Implements all cache interfaces with Redis backend
// =============================================================================

// RedisCache implements the Cache interface using Redis
type RedisCache struct {
	client *redis.Client
	config *CacheConfig
	keys   *CacheKeys
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(config *CacheConfig) (*RedisCache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     50, // Connection pool size
		MinIdleConns: 10, // Minimum idle connections
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		config: config,
		keys:   NewCacheKeys(config.KeyPrefix),
	}, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// =============================================================================
// CacheReader Implementation
// =============================================================================

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss - not an error
	}
	return val, err
}

// Exists checks if a key exists in cache
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.client.Exists(ctx, key).Result()
	return result > 0, err
}

// =============================================================================
// CacheWriter Implementation
// =============================================================================

// Set stores a value in cache with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// =============================================================================
// CacheInvalidator Implementation
// =============================================================================

// DeletePattern removes all keys matching a pattern
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Flush clears all cache entries with the configured prefix
func (c *RedisCache) Flush(ctx context.Context) error {
	return c.DeletePattern(ctx, c.config.KeyPrefix+"*")
}

// =============================================================================
// GeyserViewCache Implementation
// =============================================================================

func (c *RedisCache) getView(ctx context.Context, key string) (*ViewAmount, error) {
	data, err := c.Get(ctx, key)
	if err != nil || data == nil {
		return nil, err
	}
	var v ViewAmount
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *RedisCache) setView(ctx context.Context, key string, v *ViewAmount, ttl time.Duration) error {
	v.CachedAt = time.Now()
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// GetTotalStaked retrieves the cached total_staked view.
func (c *RedisCache) GetTotalStaked(ctx context.Context) (*ViewAmount, error) {
	return c.getView(ctx, c.keys.TotalStaked())
}

// SetTotalStaked caches the total_staked view.
func (c *RedisCache) SetTotalStaked(ctx context.Context, v *ViewAmount) error {
	return c.setView(ctx, c.keys.TotalStaked(), v, c.config.TotalStakedTTL)
}

// GetTotalStakedFor retrieves a user's cached total_staked_for view.
func (c *RedisCache) GetTotalStakedFor(ctx context.Context, user string) (*ViewAmount, error) {
	return c.getView(ctx, c.keys.TotalStakedFor(user))
}

// SetTotalStakedFor caches a user's total_staked_for view.
func (c *RedisCache) SetTotalStakedFor(ctx context.Context, user string, v *ViewAmount) error {
	return c.setView(ctx, c.keys.TotalStakedFor(user), v, c.config.TotalStakedForTTL)
}

// GetTotalLocked retrieves the cached total_locked view.
func (c *RedisCache) GetTotalLocked(ctx context.Context) (*ViewAmount, error) {
	return c.getView(ctx, c.keys.TotalLocked())
}

// SetTotalLocked caches the total_locked view.
func (c *RedisCache) SetTotalLocked(ctx context.Context, v *ViewAmount) error {
	return c.setView(ctx, c.keys.TotalLocked(), v, c.config.TotalLockedTTL)
}

// GetTotalUnlocked retrieves the cached total_unlocked view.
func (c *RedisCache) GetTotalUnlocked(ctx context.Context) (*ViewAmount, error) {
	return c.getView(ctx, c.keys.TotalUnlocked())
}

// SetTotalUnlocked caches the total_unlocked view.
func (c *RedisCache) SetTotalUnlocked(ctx context.Context, v *ViewAmount) error {
	return c.setView(ctx, c.keys.TotalUnlocked(), v, c.config.TotalUnlockedTTL)
}

// InvalidateAll drops every cached view. Called after any mutating
// engine operation (stake, unstake, lock_tokens) since all four views
// can change together.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	return c.DeletePattern(ctx, c.config.KeyPrefix+"*")
}

// =============================================================================
// HELPER METHODS
// =============================================================================

// GetClient returns the underlying Redis client for advanced operations
func (c *RedisCache) GetClient() *redis.Client {
	return c.client
}

// Stats returns cache statistics
func (c *RedisCache) Stats(ctx context.Context) (map[string]interface{}, error) {
	info, err := c.client.Info(ctx, "stats", "memory").Result()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"info": info,
	}, nil
}

// HealthCheck checks if Redis is healthy
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
