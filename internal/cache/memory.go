package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/clever-parlay/internal/metrics"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore provides in-memory caching backed by go-cache. Expiry is checked
// against the injected clock so tests control time.
type MemoryStore struct {
	cache     *gocache.Cache
	clock     Clock
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewMemoryStore creates a new in-memory store. cleanup controls how often
// go-cache purges entries in the background.
func NewMemoryStore(clock Clock, maxSize int, cleanup time.Duration) *MemoryStore {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryStore{
		cache:   gocache.New(gocache.NoExpiration, cleanup),
		clock:   clock,
		maxSize: maxSize,
	}
}

// Get decodes a cached value into dest.
func (s *MemoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found := s.cache.Get(key)
	if !found {
		s.miss()
		return ErrCacheMiss
	}
	entry, ok := raw.(memoryEntry)
	if !ok || !s.clock.Now().Before(entry.expiresAt) {
		s.cache.Delete(key)
		s.miss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		return fmt.Errorf("failed to decode cached value: %w", err)
	}
	s.hitCount++
	metrics.RecordCacheLookup(true)
	s.updateMetrics()
	return nil
}

// Set stores a value for ttl.
func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSize > 0 && s.cache.ItemCount() >= s.maxSize {
		s.evictExpired()
	}

	// go-cache's own expiry is a backstop for the background janitor.
	s.cache.Set(key, memoryEntry{data: data, expiresAt: s.clock.Now().Add(ttl)}, ttl*2)
	return nil
}

// Delete removes keys.
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		s.cache.Delete(k)
	}
	return nil
}

// Clear flushes the entire cache
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Flush()
	s.hitCount = 0
	s.missCount = 0
}

// Stats returns cache statistics
func (s *MemoryStore) Stats() (hits, misses uint64, ratio float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hitCount, s.missCount, s.ratio()
}

// ItemCount returns the number of items in cache
func (s *MemoryStore) ItemCount() int {
	return s.cache.ItemCount()
}

func (s *MemoryStore) evictExpired() {
	now := s.clock.Now()
	for k, item := range s.cache.Items() {
		if entry, ok := item.Object.(memoryEntry); !ok || !now.Before(entry.expiresAt) {
			s.cache.Delete(k)
		}
	}
}

func (s *MemoryStore) miss() {
	s.missCount++
	metrics.RecordCacheLookup(false)
	s.updateMetrics()
}

func (s *MemoryStore) ratio() float64 {
	total := s.hitCount + s.missCount
	if total == 0 {
		return 0
	}
	return float64(s.hitCount) / float64(total)
}

// updateMetrics must be called with the lock held.
func (s *MemoryStore) updateMetrics() {
	metrics.UpdateCacheHitRatio(s.ratio())
}
