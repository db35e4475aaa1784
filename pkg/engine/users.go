package engine

import (
	"context"

	"gamification-engine/pkg/domain"
)

// SetUserInfos upserts the user and its friend and group edges, then drops
// every evaluation derived from the old attributes. Timezone and location
// feed directly into progress windows and geo filtering, so nothing cached
// for this user survives the update.
func (e *Engine) SetUserInfos(ctx context.Context, user *domain.User, friendIDs, groupIDs []int64) error {
	if err := e.users.SetUserInfos(ctx, user, friendIDs, groupIDs); err != nil {
		return err
	}
	return e.invalidateUser(ctx, user.ID)
}

// DeleteUser removes the user and all dependent rows, then clears the
// user's cache entries.
func (e *Engine) DeleteUser(ctx context.Context, userID int64) error {
	if err := e.users.DeleteUser(ctx, userID); err != nil {
		return err
	}

	e.goalEvals.DeleteUser(userID)
	e.achEvals.InvalidateUser(userID)
	e.levels.InvalidateUser(userID)
	e.today.Invalidate(userID)

	e.log.WithField("user_id", userID).Info("user deleted")
	return nil
}

// SaveAchievementProperty stores one property assignment. A property flagged
// as a variable also registers its backing variable so increases can target
// it immediately.
func (e *Engine) SaveAchievementProperty(ctx context.Context, achievementID int64, prop *domain.AchievementProperty) error {
	if prop.IsVariable {
		variable, err := e.catalog.EnsureVariable(ctx, prop.Name, domain.GroupDay, domain.IncreaseAdmin)
		if err != nil {
			return err
		}
		e.variables.Set(variable)
	}

	if err := e.catalog.SaveAchievementProperty(ctx, achievementID, prop); err != nil {
		return err
	}

	// The property changes every rendered output of this achievement.
	e.achEvals.InvalidateAchievement(achievementID)
	return nil
}

// invalidateUser drops every cached artifact derived from the user's
// attributes, in memory and in the persistent evaluation mirror.
func (e *Engine) invalidateUser(ctx context.Context, userID int64) error {
	e.goalEvals.DeleteUser(userID)
	if err := e.progress.DeleteAllGoalEvaluations(ctx, userID); err != nil {
		return err
	}
	e.achEvals.InvalidateUser(userID)
	e.levels.InvalidateUser(userID)
	e.today.Invalidate(userID)
	return nil
}
