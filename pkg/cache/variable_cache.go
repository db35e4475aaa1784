package cache

import (
	"sync"

	"gamification-engine/pkg/domain"
)

// VariableCache memoizes variable rows by name. Variables are created rarely
// and never change shape afterwards, so entries live until process restart.
type VariableCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.Variable
}

// NewVariableCache creates an empty variable memo.
func NewVariableCache() *VariableCache {
	return &VariableCache{
		entries: make(map[string]*domain.Variable),
	}
}

// Get returns the cached variable, or nil on a miss.
func (c *VariableCache) Get(name string) *domain.Variable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[name]
}

// Set stores the variable.
func (c *VariableCache) Set(v *domain.Variable) {
	c.mu.Lock()
	c.entries[v.Name] = v
	c.mu.Unlock()
}
