package engine

import (
	"sync"

	"github.com/sirupsen/logrus"

	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/expr"
)

// RulePair is one (goal, achievement) affected by a variable change.
type RulePair struct {
	GoalID        int64
	AchievementID int64
}

// RulesIndex is the reverse index from variable name to the (goal,
// achievement) pairs whose condition references it. Built from the parsed
// condition ASTs, so an expression mentioning "points" does not also match
// a variable named "points_bonus". Used for cache invalidation only.
type RulesIndex struct {
	mu         sync.RWMutex
	byVariable map[string][]RulePair
}

// NewRulesIndex creates an empty rules index.
func NewRulesIndex() *RulesIndex {
	return &RulesIndex{
		byVariable: make(map[string][]RulePair),
	}
}

// Rebuild replaces the index with one derived from the given goals.
// Goals whose condition does not parse are skipped; they cannot match any
// value row either, so missing them in the index loses nothing.
func (ix *RulesIndex) Rebuild(goals []*domain.Goal, log *logrus.Logger) {
	byVariable := make(map[string][]RulePair)

	for _, goal := range goals {
		if goal.Condition == nil {
			continue
		}
		names, err := expr.ReferencedVariables(*goal.Condition)
		if err != nil {
			if log != nil {
				log.WithFields(logrus.Fields{
					"goal_id": goal.ID,
					"error":   err.Error(),
				}).Warn("skipping goal with unparseable condition in rules index")
			}
			continue
		}
		pair := RulePair{GoalID: goal.ID, AchievementID: goal.AchievementID}
		for _, name := range names {
			byVariable[name] = append(byVariable[name], pair)
		}
	}

	ix.mu.Lock()
	ix.byVariable = byVariable
	ix.mu.Unlock()
}

// Pairs returns the (goal, achievement) pairs referencing the variable.
func (ix *RulesIndex) Pairs(variableName string) []RulePair {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.byVariable[variableName]
}
