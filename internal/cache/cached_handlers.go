package cache

import (
	"context"
	"log"
	"sync"
)

// =============================================================================
// GEYSER VIEW CACHED SERVICE
// =============================================================================

// ViewFetcher computes a view against the live engine when the cache
// has nothing (or nothing fresh) for it.
type ViewFetcher func(ctx context.Context) (*ViewAmount, error)

// TotalStakedForFetcher computes total_staked_for(user) against the
// live engine.
type TotalStakedForFetcher func(ctx context.Context, user string) (*ViewAmount, error)

// CachedViewService fronts the engine's four read views
// (total_staked, total_staked_for, total_locked, total_unlocked) with
// the cache-aside pattern: a hit returns the cached projection, a
// miss recomputes against the live engine and populates the cache.
type CachedViewService struct {
	cache          GeyserViewCache
	fetchStaked    ViewFetcher
	fetchStakedFor TotalStakedForFetcher
	fetchLocked    ViewFetcher
	fetchUnlocked  ViewFetcher
	mu             sync.RWMutex
	stats          struct {
		hits   int64
		misses int64
	}
}

// NewCachedViewService creates a cached view service.
func NewCachedViewService(cache GeyserViewCache, fetchStaked, fetchLocked, fetchUnlocked ViewFetcher, fetchStakedFor TotalStakedForFetcher) *CachedViewService {
	return &CachedViewService{
		cache:          cache,
		fetchStaked:    fetchStaked,
		fetchStakedFor: fetchStakedFor,
		fetchLocked:    fetchLocked,
		fetchUnlocked:  fetchUnlocked,
	}
}

func (s *CachedViewService) recordHit() {
	s.mu.Lock()
	s.stats.hits++
	s.mu.Unlock()
}

func (s *CachedViewService) recordMiss() {
	s.mu.Lock()
	s.stats.misses++
	s.mu.Unlock()
}

// GetTotalStaked retrieves total_staked with caching.
func (s *CachedViewService) GetTotalStaked(ctx context.Context) (*ViewAmount, error) {
	if cached, err := s.cache.GetTotalStaked(ctx); err == nil && cached != nil {
		s.recordHit()
		return cached, nil
	}
	s.recordMiss()

	v, err := s.fetchStaked(ctx)
	if err != nil {
		return nil, err
	}
	if cacheErr := s.cache.SetTotalStaked(ctx, v); cacheErr != nil {
		log.Printf("[CachedView] failed to cache total_staked: %v", cacheErr)
	}
	return v, nil
}

// GetTotalStakedFor retrieves a user's total_staked_for view with
// caching.
func (s *CachedViewService) GetTotalStakedFor(ctx context.Context, user string) (*ViewAmount, error) {
	if cached, err := s.cache.GetTotalStakedFor(ctx, user); err == nil && cached != nil {
		s.recordHit()
		return cached, nil
	}
	s.recordMiss()

	v, err := s.fetchStakedFor(ctx, user)
	if err != nil {
		return nil, err
	}
	if cacheErr := s.cache.SetTotalStakedFor(ctx, user, v); cacheErr != nil {
		log.Printf("[CachedView] failed to cache total_staked_for(%s): %v", user, cacheErr)
	}
	return v, nil
}

// GetTotalLocked retrieves total_locked with caching.
func (s *CachedViewService) GetTotalLocked(ctx context.Context) (*ViewAmount, error) {
	if cached, err := s.cache.GetTotalLocked(ctx); err == nil && cached != nil {
		s.recordHit()
		return cached, nil
	}
	s.recordMiss()

	v, err := s.fetchLocked(ctx)
	if err != nil {
		return nil, err
	}
	if cacheErr := s.cache.SetTotalLocked(ctx, v); cacheErr != nil {
		log.Printf("[CachedView] failed to cache total_locked: %v", cacheErr)
	}
	return v, nil
}

// GetTotalUnlocked retrieves total_unlocked with caching.
func (s *CachedViewService) GetTotalUnlocked(ctx context.Context) (*ViewAmount, error) {
	if cached, err := s.cache.GetTotalUnlocked(ctx); err == nil && cached != nil {
		s.recordHit()
		return cached, nil
	}
	s.recordMiss()

	v, err := s.fetchUnlocked(ctx)
	if err != nil {
		return nil, err
	}
	if cacheErr := s.cache.SetTotalUnlocked(ctx, v); cacheErr != nil {
		log.Printf("[CachedView] failed to cache total_unlocked: %v", cacheErr)
	}
	return v, nil
}

// InvalidateCache invalidates every cached view, called after any
// mutating engine operation.
func (s *CachedViewService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// GetCacheStats returns cache hit/miss statistics
func (s *CachedViewService) GetCacheStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.stats.hits + s.stats.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(s.stats.hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"hits":     s.stats.hits,
		"misses":   s.stats.misses,
		"hit_rate": hitRate,
	}
}
