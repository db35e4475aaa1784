package cache

import (
	"sync"

	"gamification-engine/pkg/common"
)

// AchievementKey identifies one cached achievement evaluation.
type AchievementKey struct {
	AchievementID int64
	UserID        int64
}

// SerializedAchievementCache caches pre-marshaled achievement evaluation
// output per (achievement, user). Serving bytes instead of re-marshaling
// keeps repeated evaluations cheap, and byte-identical responses make the
// idempotence of an unchanged evaluation directly observable.
//
// Thread-safety: RWMutex, many readers and rare writers.
type SerializedAchievementCache struct {
	mu      sync.RWMutex
	entries map[AchievementKey][]byte
}

// NewSerializedAchievementCache creates an empty serialized evaluation cache.
func NewSerializedAchievementCache() *SerializedAchievementCache {
	return &SerializedAchievementCache{
		entries: make(map[AchievementKey][]byte),
	}
}

// Get returns the cached serialized evaluation, or nil on a miss.
// The returned slice is shared and must not be modified.
func (c *SerializedAchievementCache) Get(achievementID, userID int64) []byte {
	c.mu.RLock()
	data := c.entries[AchievementKey{AchievementID: achievementID, UserID: userID}]
	c.mu.RUnlock()

	if data == nil {
		common.CacheMisses.WithLabelValues("achievement_eval").Inc()
		return nil
	}
	common.CacheHits.WithLabelValues("achievement_eval").Inc()
	return data
}

// Set stores the serialized evaluation.
func (c *SerializedAchievementCache) Set(achievementID, userID int64, data []byte) {
	c.mu.Lock()
	c.entries[AchievementKey{AchievementID: achievementID, UserID: userID}] = data
	c.mu.Unlock()
}

// Invalidate drops one (achievement, user) entry.
func (c *SerializedAchievementCache) Invalidate(achievementID, userID int64) {
	c.mu.Lock()
	delete(c.entries, AchievementKey{AchievementID: achievementID, UserID: userID})
	c.mu.Unlock()
}

// InvalidateUsers drops the entries of one achievement for every given user.
// Used for cohort fan-out: a change by one user moves the leaderboard seen
// by friends and followers.
func (c *SerializedAchievementCache) InvalidateUsers(achievementID int64, userIDs []int64) {
	c.mu.Lock()
	for _, userID := range userIDs {
		delete(c.entries, AchievementKey{AchievementID: achievementID, UserID: userID})
	}
	c.mu.Unlock()
}

// InvalidateAchievement drops every entry of one achievement across users.
// Used when the achievement's catalog rows change.
func (c *SerializedAchievementCache) InvalidateAchievement(achievementID int64) {
	c.mu.Lock()
	for key := range c.entries {
		if key.AchievementID == achievementID {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// InvalidateUser drops every entry of one user across achievements.
func (c *SerializedAchievementCache) InvalidateUser(userID int64) {
	c.mu.Lock()
	for key := range c.entries {
		if key.UserID == userID {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *SerializedAchievementCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
