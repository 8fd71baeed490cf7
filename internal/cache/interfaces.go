package cache

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// ISP-COMPLIANT CACHE INTERFACES
// Each interface is small and focused on a single responsibility
// =============================================================================

// CacheReader handles cache read operations
type CacheReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// CacheWriter handles cache write operations
type CacheWriter interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheInvalidator handles cache invalidation
type CacheInvalidator interface {
	DeletePattern(ctx context.Context, pattern string) error
	Flush(ctx context.Context) error
}

// Cache combines read and write operations (full cache interface)
type Cache interface {
	CacheReader
	CacheWriter
	CacheInvalidator
}

// GeyserViewCache caches the engine's read-only view projections
// (total_staked, total_staked_for, total_locked, total_unlocked) so a
// busy HTTP surface does not recompute them, under the engine mutex,
// on every poll. ISP: only the four view reads the geyser exposes.
type GeyserViewCache interface {
	GetTotalStaked(ctx context.Context) (*ViewAmount, error)
	SetTotalStaked(ctx context.Context, v *ViewAmount) error

	GetTotalStakedFor(ctx context.Context, user string) (*ViewAmount, error)
	SetTotalStakedFor(ctx context.Context, user string, v *ViewAmount) error

	GetTotalLocked(ctx context.Context) (*ViewAmount, error)
	SetTotalLocked(ctx context.Context, v *ViewAmount) error

	GetTotalUnlocked(ctx context.Context) (*ViewAmount, error)
	SetTotalUnlocked(ctx context.Context, v *ViewAmount) error

	InvalidateAll(ctx context.Context) error
}

// =============================================================================
// CACHE DATA TYPES
// =============================================================================

// ViewAmount is a cached engine view result: a big.Int amount encoded
// as its decimal string (JSON numbers lose precision beyond 2^53),
// plus the accounting timestamp it was computed as of.
type ViewAmount struct {
	Amount   string    `json:"amount"`
	AsOf     int64     `json:"as_of"`
	CachedAt time.Time `json:"cached_at"`
}

// =============================================================================
// CACHE CONFIGURATION
// =============================================================================

// CacheConfig holds cache configuration
type CacheConfig struct {
	// TTL settings
	TotalStakedTTL    time.Duration `json:"total_staked_ttl"`
	TotalStakedForTTL time.Duration `json:"total_staked_for_ttl"`
	TotalLockedTTL    time.Duration `json:"total_locked_ttl"`
	TotalUnlockedTTL  time.Duration `json:"total_unlocked_ttl"`

	// Redis settings
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// Key prefix
	KeyPrefix string `json:"key_prefix"`
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		TotalStakedTTL:    5 * time.Second,
		TotalStakedForTTL: 5 * time.Second,
		TotalLockedTTL:    5 * time.Second,
		TotalUnlockedTTL:  5 * time.Second,
		RedisAddr:         "redis:6379",
		RedisDB:           1,
		KeyPrefix:         "geyser:",
	}
}

// =============================================================================
// CACHE KEY HELPERS
// =============================================================================

// CacheKeys provides standardized cache key generation
type CacheKeys struct {
	prefix string
}

// NewCacheKeys creates a new CacheKeys helper
func NewCacheKeys(prefix string) *CacheKeys {
	return &CacheKeys{prefix: prefix}
}

// TotalStaked returns the key for total_staked.
func (k *CacheKeys) TotalStaked() string {
	return k.prefix + "total_staked"
}

// TotalStakedFor returns the key for a user's total_staked_for.
func (k *CacheKeys) TotalStakedFor(user string) string {
	return fmt.Sprintf("%stotal_staked_for:%s", k.prefix, user)
}

// TotalLocked returns the key for total_locked.
func (k *CacheKeys) TotalLocked() string {
	return k.prefix + "total_locked"
}

// TotalUnlocked returns the key for total_unlocked.
func (k *CacheKeys) TotalUnlocked() string {
	return k.prefix + "total_unlocked"
}
