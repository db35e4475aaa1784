package engine

import (
	"context"
	"maps"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"gamification-engine/pkg/common"
	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
	"gamification-engine/pkg/expr"
)

// EvaluateAchievement returns the serialized evaluation of one achievement
// for one user, advancing levels as far as the goals allow. The serialized
// memo makes a repeated call with no intervening value change byte-equal.
func (e *Engine) EvaluateAchievement(ctx context.Context, achievementID, userID int64) ([]byte, error) {
	if data := e.achEvals.Get(achievementID, userID); data != nil {
		return data, nil
	}

	ach, err := e.catalog.GetAchievement(ctx, achievementID)
	if err != nil {
		return nil, err
	}
	if ach == nil {
		return nil, errors.ErrAchievementNotFound(achievementID)
	}
	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	common.AchievementEvaluations.Inc()
	out, err := e.evaluateAchievement(ctx, ach, user)
	if err != nil {
		return nil, err
	}

	data, err := sonic.ConfigStd.Marshal(out)
	if err != nil {
		return nil, err
	}
	e.achEvals.Set(achievementID, userID, data)

	return data, nil
}

// evaluateAchievement runs the level progression loop and builds the full
// structured output. Progression is iterative, bounded by maxlevel, and
// never skips a level.
func (e *Engine) evaluateAchievement(ctx context.Context, ach *domain.Achievement, user *domain.User) (*AchievementOutput, error) {
	goals, err := e.catalog.GetGoals(ctx, ach.ID)
	if err != nil {
		return nil, err
	}

	levelRows, err := e.getLevels(ctx, user.ID, ach.ID)
	if err != nil {
		return nil, err
	}
	current := 0
	if len(levelRows) > 0 {
		current = levelRows[0].Level
	}

	newLevels := make(map[string]*NewLevelOutput)
	var evals map[int64]*domain.GoalEvaluation
	target := 0

	for {
		target = current + 1
		if target > ach.MaxLevel {
			target = ach.MaxLevel
		}

		evals = make(map[int64]*domain.GoalEvaluation, len(goals))
		allAchieved := len(goals) > 0
		for _, goal := range goals {
			ev, err := e.evaluateGoal(ctx, goal, user, target)
			if err != nil {
				return nil, err
			}
			evals[goal.ID] = ev
			if !ev.Achieved {
				allAchieved = false
			}
		}

		if !allAchieved || current >= ach.MaxLevel {
			break
		}

		awarded := current + 1
		newLevel, err := e.awardLevel(ctx, ach, user, awarded)
		if err != nil {
			if !errors.HasCode(err, errors.ErrCodeConflict) {
				return nil, err
			}
			// Another evaluator already awarded this level; adopt its state.
			e.levels.Invalidate(ach.ID, user.ID)
		} else {
			newLevels[strconv.Itoa(awarded)] = newLevel
		}

		if err := e.clearGoalCaches(ctx, user.ID, goals); err != nil {
			return nil, err
		}
		levelRows, err = e.getLevels(ctx, user.ID, ach.ID)
		if err != nil {
			return nil, err
		}
		current = 0
		if len(levelRows) > 0 {
			current = levelRows[0].Level
		}
	}

	return e.buildOutput(ctx, ach, user, goals, levelRows, evals, newLevels, current, target)
}

// buildOutput renders the achievement's basic output: levels 0..level+1 so
// clients can show the next level's rewards, the per-goal evaluations at the
// target level, the award trail, and the levels awarded in this call.
func (e *Engine) buildOutput(
	ctx context.Context,
	ach *domain.Achievement,
	user *domain.User,
	goals []*domain.Goal,
	levelRows []*domain.AchievementLevel,
	evals map[int64]*domain.GoalEvaluation,
	newLevels map[string]*NewLevelOutput,
	current, target int,
) (*AchievementOutput, error) {
	out := &AchievementOutput{
		AchievementID:  ach.ID,
		InternalName:   ach.Name,
		Level:          current,
		MaxLevel:       ach.MaxLevel,
		Hidden:         ach.Hidden,
		Priority:       ach.Priority,
		ViewPermission: string(ach.ViewPermission),
		LevelsAchieved: make(map[string]string, len(levelRows)),
		Levels:         make(map[string]*LevelOutput),
		Goals:          make(map[string]*GoalEvalOutput, len(goals)),
	}
	if len(newLevels) > 0 {
		out.NewLevels = newLevels
	}

	if ach.CategoryID != nil {
		category, err := e.catalog.GetCategory(ctx, *ach.CategoryID)
		if err != nil {
			return nil, err
		}
		if category != nil {
			out.Category = &category.Name
		}
	}

	for _, row := range levelRows {
		out.LevelsAchieved[strconv.Itoa(row.Level)] = row.UpdatedAt.UTC().Format(time.RFC3339)
	}

	shown := current + 1
	if shown > ach.MaxLevel {
		shown = ach.MaxLevel
	}
	for lvl := 0; lvl <= shown; lvl++ {
		levelOut, err := e.levelOutput(ctx, ach, goals, lvl)
		if err != nil {
			return nil, err
		}
		out.Levels[strconv.Itoa(lvl)] = levelOut
	}

	var cohort []int64
	if ach.Relevance == domain.RelevanceFriends {
		friends, err := e.users.GetFriendIDs(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		cohort = append([]int64{user.ID}, friends...)
	}

	for _, goal := range goals {
		ev := evals[goal.ID]
		goalOut, err := e.goalEvalOutput(ctx, goal, ev, target)
		if err != nil {
			return nil, err
		}

		if cohort != nil {
			leaderboard, err := e.goalLeaderboard(ctx, ach, goal, cohort)
			if err != nil {
				return nil, err
			}
			goalOut.Leaderboard = leaderboard
			for i := range leaderboard {
				if leaderboard[i].UserID == user.ID {
					position := leaderboard[i].Position
					goalOut.Position = &position
					break
				}
			}
		}

		out.Goals[strconv.FormatInt(goal.ID, 10)] = goalOut
	}

	return out, nil
}

// levelOutput renders the static content of one level.
func (e *Engine) levelOutput(ctx context.Context, ach *domain.Achievement, goals []*domain.Goal, level int) (*LevelOutput, error) {
	out := &LevelOutput{Level: level}

	for _, goal := range goals {
		goalOut, err := e.goalLevelOutput(ctx, goal, level)
		if err != nil {
			return nil, err
		}
		out.Goals = append(out.Goals, goalOut)
	}

	rewards, err := e.rewardsForLevel(ctx, ach, level)
	if err != nil {
		return nil, err
	}
	out.Rewards = rewards

	properties, err := e.renderAchievementProperties(ctx, ach.ID, level)
	if err != nil {
		return nil, err
	}
	out.Properties = properties

	return out, nil
}

// goalLevelOutput renders one goal's threshold, translated name and
// properties at a concrete level.
func (e *Engine) goalLevelOutput(ctx context.Context, goal *domain.Goal, level int) (GoalLevelOutput, error) {
	out := GoalLevelOutput{GoalID: goal.ID, Priority: goal.Priority}

	params := expr.Params{expr.ParamLevel: expr.Int(int64(level))}
	if threshold, ok := e.goalThreshold(goal, level); ok {
		out.Goal = &threshold
		params["goal"] = expr.Float(threshold)
	}

	name, err := e.Trs(ctx, goal.NameTranslationID, params)
	if err != nil {
		return out, err
	}
	out.Name = name

	props, err := e.renderGoalProperties(ctx, goal.ID, level)
	if err != nil {
		return out, err
	}
	out.Props = props

	return out, nil
}

// goalEvalOutput combines the static goal view at the target level with the
// user's evaluation result.
func (e *Engine) goalEvalOutput(ctx context.Context, goal *domain.Goal, ev *domain.GoalEvaluation, target int) (*GoalEvalOutput, error) {
	static, err := e.goalLevelOutput(ctx, goal, target)
	if err != nil {
		return nil, err
	}

	out := &GoalEvalOutput{
		GoalID:   goal.ID,
		Goal:     static.Goal,
		Name:     static.Name,
		Priority: goal.Priority,
		Props:    static.Props,
	}
	if ev != nil {
		out.Achieved = ev.Achieved
		out.Value = ev.Value
	}
	return out, nil
}

// getLevels reads the user's level trail for one achievement through the memo.
func (e *Engine) getLevels(ctx context.Context, userID, achievementID int64) ([]*domain.AchievementLevel, error) {
	if levels, ok := e.levels.Get(achievementID, userID); ok {
		return levels, nil
	}
	levels, err := e.progress.GetLevels(ctx, userID, achievementID)
	if err != nil {
		return nil, err
	}
	e.levels.Set(achievementID, userID, levels)
	return levels, nil
}

// clearGoalCaches drops the user's evaluations for the given goals in both
// cache layers, forcing a fresh evaluation at the next target level.
func (e *Engine) clearGoalCaches(ctx context.Context, userID int64, goals []*domain.Goal) error {
	goalIDs := make([]int64, len(goals))
	for i, goal := range goals {
		goalIDs[i] = goal.ID
	}
	e.goalEvals.Delete(userID, goalIDs)
	return e.progress.DeleteGoalEvaluations(ctx, userID, goalIDs)
}

// awardLevel inserts the level row and materializes its rewards and
// properties. The insert comes first: a CONFLICT from a concurrent award
// aborts before any side effect, and the caller re-reads state.
func (e *Engine) awardLevel(ctx context.Context, ach *domain.Achievement, user *domain.User, level int) (*NewLevelOutput, error) {
	err := e.progress.InsertLevel(ctx, &domain.AchievementLevel{
		UserID:        user.ID,
		AchievementID: ach.ID,
		Level:         level,
	})
	if err != nil {
		return nil, err
	}
	common.LevelsAwarded.Inc()
	e.levels.Invalidate(ach.ID, user.ID)

	rewards, err := e.rewardsForLevel(ctx, ach, level)
	if err != nil {
		return nil, err
	}
	properties, err := e.renderAchievementProperties(ctx, ach.ID, level)
	if err != nil {
		return nil, err
	}

	// Properties flagged as variables feed back into the values store,
	// keyed by the achievement so the sources stay distinguishable.
	for _, prop := range properties {
		if !prop.IsVariable {
			continue
		}
		amount, err := strconv.ParseFloat(prop.Value, 64)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"achievement_id": ach.ID,
				"property":       prop.Name,
				"value":          prop.Value,
			}).Warn("is_variable property value is not numeric, skipping")
			continue
		}
		variable, err := e.catalog.EnsureVariable(ctx, prop.Name, domain.GroupDay, domain.IncreaseAdmin)
		if err != nil {
			return nil, err
		}
		e.variables.Set(variable)
		if err := e.increaseValue(ctx, variable, user, int64(amount), strconv.FormatInt(ach.ID, 10)); err != nil {
			return nil, err
		}
	}

	// A new level moves every leaderboard that includes this user.
	followers, err := e.users.GetFollowerIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	e.achEvals.InvalidateUsers(ach.ID, append(followers, user.ID))

	e.log.WithFields(logrus.Fields{
		"user_id":        user.ID,
		"achievement_id": ach.ID,
		"level":          level,
	}).Info("achievement level awarded")

	return &NewLevelOutput{Level: level, Rewards: rewards, Properties: properties}, nil
}

// rewardsForLevel renders the rewards effective at the level and keeps only
// those that newly appear or whose rendered value changed compared to the
// previous level.
func (e *Engine) rewardsForLevel(ctx context.Context, ach *domain.Achievement, level int) ([]RewardOutput, error) {
	if level < 1 {
		return nil, nil
	}

	current, err := e.renderRewards(ctx, ach.ID, level)
	if err != nil {
		return nil, err
	}
	previous, err := e.renderRewards(ctx, ach.ID, level-1)
	if err != nil {
		return nil, err
	}

	previousByID := make(map[int64]RewardOutput, len(previous))
	for _, r := range previous {
		previousByID[r.RewardID] = r
	}

	var changed []RewardOutput
	for _, r := range current {
		prev, existed := previousByID[r.RewardID]
		if existed && prev.Value == r.Value && maps.Equal(prev.ValueTranslated, r.ValueTranslated) {
			continue
		}
		changed = append(changed, r)
	}
	return changed, nil
}

// renderRewards loads and renders the reward rows effective at one level.
func (e *Engine) renderRewards(ctx context.Context, achievementID int64, level int) ([]RewardOutput, error) {
	rows, err := e.catalog.GetRewards(ctx, achievementID, level)
	if err != nil {
		return nil, err
	}

	params := expr.Params{expr.ParamLevel: expr.Int(int64(level))}
	results := make([]RewardOutput, 0, len(rows))
	for _, row := range rows {
		out := RewardOutput{RewardID: row.RewardID, Name: row.Name}
		if row.Value != nil {
			out.Value = e.render(*row.Value, params)
		}
		translated, err := e.Trs(ctx, row.ValueTranslationID, params)
		if err != nil {
			return nil, err
		}
		out.ValueTranslated = translated
		results = append(results, out)
	}
	return results, nil
}

// renderAchievementProperties loads and renders the achievement property
// rows effective at one level.
func (e *Engine) renderAchievementProperties(ctx context.Context, achievementID int64, level int) ([]PropertyOutput, error) {
	rows, err := e.catalog.GetAchievementProperties(ctx, achievementID, level)
	if err != nil {
		return nil, err
	}

	params := expr.Params{expr.ParamLevel: expr.Int(int64(level))}
	results := make([]PropertyOutput, 0, len(rows))
	for _, row := range rows {
		out := PropertyOutput{Name: row.Name, IsVariable: row.IsVariable}
		if row.Value != nil {
			out.Value = e.render(*row.Value, params)
		}
		translated, err := e.Trs(ctx, row.ValueTranslationID, params)
		if err != nil {
			return nil, err
		}
		out.ValueTranslated = translated
		results = append(results, out)
	}
	return results, nil
}

// renderGoalProperties loads and renders the goal property rows effective at
// one level.
func (e *Engine) renderGoalProperties(ctx context.Context, goalID int64, level int) ([]PropertyOutput, error) {
	rows, err := e.catalog.GetGoalProperties(ctx, goalID, level)
	if err != nil {
		return nil, err
	}

	params := expr.Params{expr.ParamLevel: expr.Int(int64(level))}
	results := make([]PropertyOutput, 0, len(rows))
	for _, row := range rows {
		out := PropertyOutput{Name: row.Name, IsVariable: row.IsVariable}
		if row.Value != nil {
			out.Value = e.render(*row.Value, params)
		}
		translated, err := e.Trs(ctx, row.ValueTranslationID, params)
		if err != nil {
			return nil, err
		}
		out.ValueTranslated = translated
		results = append(results, out)
	}
	return results, nil
}

// goalLeaderboard ranks the cohort on one goal. Members without a persisted
// evaluation are evaluated at their own target level first, then the rows
// are re-read so the ranking reflects every member.
func (e *Engine) goalLeaderboard(ctx context.Context, ach *domain.Achievement, goal *domain.Goal, cohort []int64) ([]LeaderboardEntry, error) {
	rows, err := e.progress.GetLeaderboardRows(ctx, goal.ID, cohort)
	if err != nil {
		return nil, err
	}

	have := make(map[int64]bool, len(rows))
	for _, row := range rows {
		have[row.UserID] = true
	}

	evaluated := false
	for _, memberID := range cohort {
		if have[memberID] {
			continue
		}
		member, err := e.users.GetUser(ctx, memberID)
		if err != nil {
			return nil, err
		}
		if member == nil {
			continue
		}
		memberLevels, err := e.getLevels(ctx, memberID, ach.ID)
		if err != nil {
			return nil, err
		}
		memberTarget := 1
		if len(memberLevels) > 0 {
			memberTarget = memberLevels[0].Level + 1
		}
		if memberTarget > ach.MaxLevel {
			memberTarget = ach.MaxLevel
		}
		if _, err := e.evaluateGoal(ctx, goal, member, memberTarget); err != nil {
			return nil, err
		}
		evaluated = true
	}

	if evaluated {
		rows, err = e.progress.GetLeaderboardRows(ctx, goal.ID, cohort)
		if err != nil {
			return nil, err
		}
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = LeaderboardEntry{UserID: row.UserID, Value: row.Value, Position: i}
	}
	return entries, nil
}
