package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine metrics, exported on /metrics. Cache counters are labeled by cache
// name (goal_eval, achievement_eval, levels, today).
var (
	ValueIncrements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamification_value_increments_total",
		Help: "Number of value increments applied to the values store.",
	})

	GoalEvaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamification_goal_evaluations_total",
		Help: "Number of goal progress evaluations executed.",
	})

	AchievementEvaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamification_achievement_evaluations_total",
		Help: "Number of full achievement evaluations executed (cache misses).",
	})

	LevelsAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamification_levels_awarded_total",
		Help: "Number of achievement levels awarded.",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamification_cache_hits_total",
		Help: "Cache hits by cache name.",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamification_cache_misses_total",
		Help: "Cache misses by cache name.",
	}, []string{"cache"})
)
