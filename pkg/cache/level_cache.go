package cache

import (
	"sync"

	"gamification-engine/pkg/common"
	"gamification-engine/pkg/domain"
)

// LevelCache memoizes the awarded level rows per (achievement, user) so the
// evaluator does not re-read the level trail on every request. Entries are
// dropped whenever a level is awarded or the user changes.
type LevelCache struct {
	mu      sync.RWMutex
	entries map[AchievementKey][]*domain.AchievementLevel
}

// NewLevelCache creates an empty level memo.
func NewLevelCache() *LevelCache {
	return &LevelCache{
		entries: make(map[AchievementKey][]*domain.AchievementLevel),
	}
}

// Get returns the cached level rows and whether the entry exists. An empty
// trail is a valid cached value, distinct from a miss.
func (c *LevelCache) Get(achievementID, userID int64) ([]*domain.AchievementLevel, bool) {
	c.mu.RLock()
	levels, ok := c.entries[AchievementKey{AchievementID: achievementID, UserID: userID}]
	c.mu.RUnlock()

	if !ok {
		common.CacheMisses.WithLabelValues("levels").Inc()
		return nil, false
	}
	common.CacheHits.WithLabelValues("levels").Inc()
	return levels, true
}

// Set stores the level rows.
func (c *LevelCache) Set(achievementID, userID int64, levels []*domain.AchievementLevel) {
	c.mu.Lock()
	c.entries[AchievementKey{AchievementID: achievementID, UserID: userID}] = levels
	c.mu.Unlock()
}

// Invalidate drops one (achievement, user) entry.
func (c *LevelCache) Invalidate(achievementID, userID int64) {
	c.mu.Lock()
	delete(c.entries, AchievementKey{AchievementID: achievementID, UserID: userID})
	c.mu.Unlock()
}

// InvalidateUser drops every entry of one user across achievements.
func (c *LevelCache) InvalidateUser(userID int64) {
	c.mu.Lock()
	for key := range c.entries {
		if key.UserID == userID {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
