package repository

import (
	"context"
	"time"

	"gamification-engine/pkg/domain"
)

// UserRepository manages users and their friend and group edges.
type UserRepository interface {
	// GetUser retrieves a single user. Returns nil if the user does not exist.
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// GetFriendIDs returns the IDs of the users this user follows.
	GetFriendIDs(ctx context.Context, userID int64) ([]int64, error)

	// GetFollowerIDs returns the IDs of the users following this user.
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)

	// SetUserInfos upserts the user row and reconciles the friend and group
	// edge sets to exactly the given IDs, inside one transaction.
	SetUserInfos(ctx context.Context, user *domain.User, friendIDs, groupIDs []int64) error

	// DeleteUser removes the user and every row that references it.
	DeleteUser(ctx context.Context, userID int64) error
}

// CatalogRepository reads the achievement catalog: variables, achievements,
// goals, rewards, properties and categories.
type CatalogRepository interface {
	// GetVariableByName retrieves a variable. Returns nil if unknown.
	GetVariableByName(ctx context.Context, name string) (*domain.Variable, error)

	// EnsureVariable creates the variable if missing and returns the row
	// either way.
	EnsureVariable(ctx context.Context, name string, group domain.VariableGroup, permission domain.IncreasePermission) (*domain.Variable, error)

	// ListAchievements returns all achievements ordered by priority.
	ListAchievements(ctx context.Context) ([]*domain.Achievement, error)

	// GetAchievement retrieves a single achievement. Returns nil if missing.
	GetAchievement(ctx context.Context, achievementID int64) (*domain.Achievement, error)

	// GetCategory retrieves an achievement category. Returns nil if missing.
	GetCategory(ctx context.Context, categoryID int64) (*domain.AchievementCategory, error)

	// GetGoals returns the goals of one achievement ordered by priority.
	GetGoals(ctx context.Context, achievementID int64) ([]*domain.Goal, error)

	// ListGoals returns every goal in the catalog. Used to build the
	// variable-to-goals rules index at startup and on invalidation.
	ListGoals(ctx context.Context) ([]*domain.Goal, error)

	// GetRewards returns the reward rows effective at the given level:
	// per reward, the row with the highest from_level not above level.
	GetRewards(ctx context.Context, achievementID int64, level int) ([]*domain.AchievementReward, error)

	// GetAchievementProperties returns the property rows effective at the
	// given level, resolved the same way as rewards.
	GetAchievementProperties(ctx context.Context, achievementID int64, level int) ([]*domain.AchievementProperty, error)

	// GetGoalProperties returns the goal property rows effective at the
	// given level.
	GetGoalProperties(ctx context.Context, goalID int64, level int) ([]*domain.GoalProperty, error)

	// SaveAchievementProperty upserts one achievement property assignment.
	SaveAchievementProperty(ctx context.Context, achievementID int64, prop *domain.AchievementProperty) error
}

// ValueRepository stores bucketed value rows.
type ValueRepository interface {
	// IncreaseValue adds the delta to the row identified by the value's
	// primary key, inserting it when absent.
	IncreaseValue(ctx context.Context, value *domain.Value) error

	// GetUserValues returns the user's value rows joined with variable
	// names, optionally restricted to the given variable names and to rows
	// at or after since.
	GetUserValues(ctx context.Context, userID int64, variableNames []string, since *time.Time) ([]*domain.ValueRow, error)
}

// ProgressRepository stores goal evaluation results and awarded levels.
type ProgressRepository interface {
	// GetGoalEvaluation retrieves one cached evaluation. Returns nil when
	// the pair has never been evaluated.
	GetGoalEvaluation(ctx context.Context, goalID, userID int64) (*domain.GoalEvaluation, error)

	// UpsertGoalEvaluation writes the evaluation result for one (goal, user).
	UpsertGoalEvaluation(ctx context.Context, ev *domain.GoalEvaluation) error

	// DeleteGoalEvaluations drops the cached evaluations of one user for the
	// given goals.
	DeleteGoalEvaluations(ctx context.Context, userID int64, goalIDs []int64) error

	// DeleteAllGoalEvaluations drops every cached evaluation of one user.
	// Used when user attributes that feed evaluation (timezone, location)
	// change.
	DeleteAllGoalEvaluations(ctx context.Context, userID int64) error

	// GetLeaderboardRows returns the cached evaluations of the cohort for
	// one goal, ordered by value descending with user ID descending as the
	// tie-break.
	GetLeaderboardRows(ctx context.Context, goalID int64, userIDs []int64) ([]*domain.GoalEvaluation, error)

	// GetLevels returns the user's awarded level rows for one achievement,
	// highest level first.
	GetLevels(ctx context.Context, userID, achievementID int64) ([]*domain.AchievementLevel, error)

	// InsertLevel records one newly awarded level. Returns a CONFLICT error
	// when a concurrent evaluator already awarded it.
	InsertLevel(ctx context.Context, level *domain.AchievementLevel) error
}

// TranslationRepository reads configured languages and rendered texts.
type TranslationRepository interface {
	// GetLanguages returns all configured output languages.
	GetLanguages(ctx context.Context) ([]*domain.Language, error)

	// GetTranslations returns the texts of one translation variable joined
	// with their language names.
	GetTranslations(ctx context.Context, translationVariableID int64) ([]*domain.Translation, error)
}
