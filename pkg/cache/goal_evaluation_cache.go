package cache

import (
	"sync"

	"gamification-engine/pkg/common"
	"gamification-engine/pkg/domain"
)

// EvalKey identifies one cached goal evaluation.
type EvalKey struct {
	GoalID int64
	UserID int64
}

// GoalEvaluationCache is the in-memory memo in front of the persistent
// goal_evaluation_cache table. Entries never expire on their own; the engine
// drops them when a referenced variable changes.
//
// Thread-safety: RWMutex, many readers and rare writers.
type GoalEvaluationCache struct {
	mu      sync.RWMutex
	entries map[EvalKey]*domain.GoalEvaluation
}

// NewGoalEvaluationCache creates an empty goal evaluation memo.
func NewGoalEvaluationCache() *GoalEvaluationCache {
	return &GoalEvaluationCache{
		entries: make(map[EvalKey]*domain.GoalEvaluation),
	}
}

// Get returns the cached evaluation, or nil on a miss.
func (c *GoalEvaluationCache) Get(goalID, userID int64) *domain.GoalEvaluation {
	c.mu.RLock()
	ev := c.entries[EvalKey{GoalID: goalID, UserID: userID}]
	c.mu.RUnlock()

	if ev == nil {
		common.CacheMisses.WithLabelValues("goal_eval").Inc()
		return nil
	}
	common.CacheHits.WithLabelValues("goal_eval").Inc()

	copied := *ev
	return &copied
}

// Set stores the evaluation result.
func (c *GoalEvaluationCache) Set(ev *domain.GoalEvaluation) {
	copied := *ev
	c.mu.Lock()
	c.entries[EvalKey{GoalID: ev.GoalID, UserID: ev.UserID}] = &copied
	c.mu.Unlock()
}

// Delete drops the cached evaluations of one user for the given goals.
func (c *GoalEvaluationCache) Delete(userID int64, goalIDs []int64) {
	c.mu.Lock()
	for _, goalID := range goalIDs {
		delete(c.entries, EvalKey{GoalID: goalID, UserID: userID})
	}
	c.mu.Unlock()
}

// DeleteUser drops every cached evaluation of one user.
func (c *GoalEvaluationCache) DeleteUser(userID int64) {
	c.mu.Lock()
	for key := range c.entries {
		if key.UserID == userID {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *GoalEvaluationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
