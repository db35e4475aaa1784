package engine

import (
	"context"

	"gamification-engine/pkg/common"
	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
)

// Caller identifies who is asking for a value increase. The identity comes
// from the authentication collaborator in front of the engine.
type Caller struct {
	UserID int64

	// HasIncreasePermission is the global increase grant held by backend
	// and admin callers.
	HasIncreasePermission bool
}

// MayIncrease reports whether the caller may increase the variable for the
// user. With authentication disabled every caller passes (trusted backend
// mode); otherwise the global grant wins, and increase_permission=own lets
// users update their own counters.
func (e *Engine) MayIncrease(variable *domain.Variable, caller Caller, userID int64) bool {
	if !e.authEnabled {
		return true
	}
	if caller.HasIncreasePermission {
		return true
	}
	return variable.IncreasePermission == domain.IncreaseOwn && caller.UserID == userID
}

// IncreaseValue adds amount to the user's variable in its current time
// bucket and invalidates every evaluation that could observe the change.
func (e *Engine) IncreaseValue(ctx context.Context, caller Caller, variableName string, userID, amount int64, key string) error {
	variable, err := e.lookupVariable(ctx, variableName)
	if err != nil {
		return err
	}

	if !e.MayIncrease(variable, caller, userID) {
		return errors.ErrPermissionDenied(variableName, userID)
	}

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return err
	}

	return e.increaseValue(ctx, variable, user, amount, key)
}

// increaseValue is the internal write path, also used when an awarded level
// materializes an is_variable property. No permission gate.
func (e *Engine) increaseValue(ctx context.Context, variable *domain.Variable, user *domain.User, amount int64, key string) error {
	now := e.clock()
	loc := common.LoadLocation(user.Timezone)
	bucket := common.BucketTime(now, loc, variable.Group)

	err := e.values.IncreaseValue(ctx, &domain.Value{
		UserID:     user.ID,
		VariableID: variable.ID,
		Datetime:   bucket,
		Key:        key,
		Value:      amount,
	})
	if err != nil {
		return err
	}
	common.ValueIncrements.Inc()

	e.log.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"variable": variable.Name,
		"amount":   amount,
		"key":      key,
	}).Debug("value increased")

	return e.invalidateForVariable(ctx, variable.Name, user.ID)
}

// invalidateForVariable drops every cached evaluation the variable change
// can affect: the user's own goal evaluations (memo and persistent mirror)
// and the achievement outputs of the reverse cohort, since the change can
// move the leaderboards of anyone listing this user as a friend.
func (e *Engine) invalidateForVariable(ctx context.Context, variableName string, userID int64) error {
	pairs := e.rules.Pairs(variableName)
	if len(pairs) == 0 {
		return nil
	}

	goalIDs := make([]int64, 0, len(pairs))
	achievementIDs := make(map[int64]struct{}, len(pairs))
	for _, pair := range pairs {
		goalIDs = append(goalIDs, pair.GoalID)
		achievementIDs[pair.AchievementID] = struct{}{}
	}

	e.goalEvals.Delete(userID, goalIDs)
	if err := e.progress.DeleteGoalEvaluations(ctx, userID, goalIDs); err != nil {
		return err
	}

	followers, err := e.users.GetFollowerIDs(ctx, userID)
	if err != nil {
		return err
	}
	cohort := append(followers, userID)

	for achievementID := range achievementIDs {
		e.achEvals.InvalidateUsers(achievementID, cohort)
	}

	return nil
}
