package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"gamification-engine/pkg/common"
	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
	"gamification-engine/pkg/expr"
)

// computeProgress aggregates the user's progress value for one goal.
//
// The repository narrows rows by user, referenced variable names and the
// time cutoff; the condition predicate, date-format grouping and the final
// min/max fold run here. Equivalent to a nested SQL aggregation, inner group
// sums and an outer min/max over the groups.
func (e *Engine) computeProgress(ctx context.Context, goal *domain.Goal, user *domain.User, now time.Time) (float64, error) {
	loc := common.LoadLocation(user.Timezone)

	var names []string
	if goal.Condition != nil {
		var err error
		names, err = expr.ReferencedVariables(*goal.Condition)
		if err != nil {
			return 0, err
		}
	}

	var since *time.Time
	if goal.Timespan != nil {
		cutoff := now.Add(-time.Duration(*goal.Timespan) * 24 * time.Hour)
		since = &cutoff
	}
	if start, windowed := common.PeriodStart(now, loc, goal.Evaluation); windowed {
		if since == nil || start.After(*since) {
			since = &start
		}
	}

	rows, err := e.values.GetUserValues(ctx, user.ID, names, since)
	if err != nil {
		return 0, err
	}

	grouped := goal.GroupByKey || goal.GroupByDateFormat != nil
	groups := make(map[string]int64)
	var total int64

	for _, row := range rows {
		if goal.Condition != nil {
			match, err := expr.EvaluateCondition(*goal.Condition, row.VariableName, row.Key)
			if err != nil {
				return 0, err
			}
			if !match {
				continue
			}
		}

		if !grouped {
			total += row.Value
			continue
		}

		groupKey := ""
		if goal.GroupByDateFormat != nil {
			groupKey = common.ToChar(row.Datetime.In(loc), *goal.GroupByDateFormat)
		}
		if goal.GroupByKey {
			groupKey += "\x00" + row.Key
		}
		groups[groupKey] += row.Value
	}

	if !grouped {
		return float64(total), nil
	}
	if len(groups) == 0 {
		return 0, nil
	}

	first := true
	var agg int64
	for _, sum := range groups {
		if first {
			agg = sum
			first = false
			continue
		}
		if goal.MaxMin == domain.MaxMinMin {
			if sum < agg {
				agg = sum
			}
		} else if sum > agg {
			agg = sum
		}
	}
	return float64(agg), nil
}

// evaluateGoal returns the goal's (achieved, value) for the user, evaluating
// at the given level on a miss. Lookup order: in-memory memo, persistent
// mirror, fresh computation.
func (e *Engine) evaluateGoal(ctx context.Context, goal *domain.Goal, user *domain.User, level int) (*domain.GoalEvaluation, error) {
	if ev := e.goalEvals.Get(goal.ID, user.ID); ev != nil {
		return ev, nil
	}

	if ev, err := e.progress.GetGoalEvaluation(ctx, goal.ID, user.ID); err != nil {
		return nil, err
	} else if ev != nil {
		e.goalEvals.Set(ev)
		return ev, nil
	}

	return e.computeGoalEvaluation(ctx, goal, user, level)
}

// computeGoalEvaluation evaluates the goal from scratch and writes the
// result to both cache layers. An expression failure in the condition or the
// threshold degrades to (achieved=false, value=0) and is logged, so one
// broken rule does not take the whole achievement down.
func (e *Engine) computeGoalEvaluation(ctx context.Context, goal *domain.Goal, user *domain.User, level int) (*domain.GoalEvaluation, error) {
	common.GoalEvaluations.Inc()

	ev := &domain.GoalEvaluation{GoalID: goal.ID, UserID: user.ID}

	progress, err := e.computeProgress(ctx, goal, user, e.clock())
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeDatabaseError) {
			return nil, err
		}
		e.log.WithFields(logrus.Fields{
			"goal_id": goal.ID,
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("goal condition failed to evaluate")
	} else {
		threshold, thresholdOK := e.goalThreshold(goal, level)
		ev.Value = progress
		if thresholdOK {
			switch goal.Operator {
			case domain.OperatorLeq:
				if progress <= threshold {
					ev.Achieved = true
					if threshold > progress {
						ev.Value = threshold
					}
				}
			default:
				if progress >= threshold {
					ev.Achieved = true
					if threshold < progress {
						ev.Value = threshold
					}
				}
			}
		}
	}

	if err := e.progress.UpsertGoalEvaluation(ctx, ev); err != nil {
		return nil, err
	}
	e.goalEvals.Set(ev)

	return ev, nil
}

// goalThreshold evaluates the goal's threshold expression at the level.
// Returns false when there is no threshold or the expression fails.
func (e *Engine) goalThreshold(goal *domain.Goal, level int) (float64, bool) {
	if goal.Goal == nil {
		return 0, false
	}
	v, err := expr.EvaluateValue(*goal.Goal, expr.Params{
		expr.ParamLevel: expr.Int(int64(level)),
	})
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"goal_id": goal.ID,
			"level":   level,
			"error":   err.Error(),
		}).Warn("goal threshold failed to evaluate")
		return 0, false
	}
	return v.AsFloat(), true
}
