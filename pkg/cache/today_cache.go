package cache

import (
	"sync"
	"time"

	"gamification-engine/pkg/common"
)

// TodayCache caches the serialized per-user listing of achievements valid
// today. Each entry carries its own deadline, the user's next local midnight,
// after which the listing may change even without any data write.
type TodayCache struct {
	mu      sync.RWMutex
	entries map[int64]todayEntry
}

type todayEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewTodayCache creates an empty today-listing cache.
func NewTodayCache() *TodayCache {
	return &TodayCache{
		entries: make(map[int64]todayEntry),
	}
}

// Get returns the cached listing if it has not expired at now, or nil.
func (c *TodayCache) Get(userID int64, now time.Time) []byte {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok || !now.Before(entry.expiresAt) {
		common.CacheMisses.WithLabelValues("today").Inc()
		return nil
	}
	common.CacheHits.WithLabelValues("today").Inc()
	return entry.data
}

// Set stores the listing with its expiry deadline.
func (c *TodayCache) Set(userID int64, data []byte, expiresAt time.Time) {
	c.mu.Lock()
	c.entries[userID] = todayEntry{data: data, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Invalidate drops the entry of one user.
func (c *TodayCache) Invalidate(userID int64) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Prune removes every entry expired at now and returns how many were dropped.
// Called periodically by the janitor.
func (c *TodayCache) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for userID, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, userID)
			dropped++
		}
	}
	return dropped
}
