package engine

// Output shapes for achievement evaluation. Map keys that are levels or goal
// IDs are rendered as strings so the JSON matches {"1": {...}} style output.

// LeaderboardEntry is one ranked row of a goal leaderboard.
type LeaderboardEntry struct {
	UserID   int64   `json:"user_id"`
	Value    float64 `json:"value"`
	Position int     `json:"position"`
}

// RewardOutput is one reward rendered at a concrete level.
type RewardOutput struct {
	RewardID        int64             `json:"reward_id"`
	Name            string            `json:"name"`
	Value           string            `json:"value,omitempty"`
	ValueTranslated map[string]string `json:"value_translated,omitempty"`
}

// PropertyOutput is one achievement or goal property rendered at a level.
type PropertyOutput struct {
	Name            string            `json:"name"`
	IsVariable      bool              `json:"is_variable,omitempty"`
	Value           string            `json:"value,omitempty"`
	ValueTranslated map[string]string `json:"value_translated,omitempty"`
}

// GoalLevelOutput is the static view of one goal at a concrete level:
// threshold and rendered name, without any user progress.
type GoalLevelOutput struct {
	GoalID   int64             `json:"goal_id"`
	Goal     *float64          `json:"goal,omitempty"`
	Name     map[string]string `json:"name,omitempty"`
	Priority int               `json:"priority"`
	Props    []PropertyOutput  `json:"properties,omitempty"`
}

// GoalEvalOutput is one goal's evaluation at the user's target level.
type GoalEvalOutput struct {
	GoalID      int64              `json:"goal_id"`
	Achieved    bool               `json:"achieved"`
	Value       float64            `json:"value"`
	Goal        *float64           `json:"goal,omitempty"`
	Name        map[string]string  `json:"name,omitempty"`
	Priority    int                `json:"priority"`
	Props       []PropertyOutput   `json:"properties,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
	Position    *int               `json:"position,omitempty"`
}

// LevelOutput is the static content of one level.
type LevelOutput struct {
	Level      int               `json:"level"`
	Goals      []GoalLevelOutput `json:"goals,omitempty"`
	Rewards    []RewardOutput    `json:"rewards,omitempty"`
	Properties []PropertyOutput  `json:"properties,omitempty"`
}

// NewLevelOutput carries the rewards and properties of one level awarded
// during the current evaluation call.
type NewLevelOutput struct {
	Level      int              `json:"level"`
	Rewards    []RewardOutput   `json:"rewards,omitempty"`
	Properties []PropertyOutput `json:"properties,omitempty"`
}

// AchievementOutput is the full structured result of one achievement
// evaluation for one user.
type AchievementOutput struct {
	AchievementID  int64                      `json:"id"`
	InternalName   string                     `json:"internal_name"`
	Level          int                        `json:"level"`
	MaxLevel       int                        `json:"maxlevel"`
	Hidden         bool                       `json:"hidden"`
	Priority       int                        `json:"priority"`
	ViewPermission string                     `json:"view_permission"`
	Category       *string                    `json:"achievementcategory,omitempty"`
	LevelsAchieved map[string]string          `json:"levels_achieved"`
	Levels         map[string]*LevelOutput    `json:"levels"`
	Goals          map[string]*GoalEvalOutput `json:"goals"`
	NewLevels      map[string]*NewLevelOutput `json:"new_levels,omitempty"`
}

// TodayAchievement is one row of the achievements-for-today listing.
type TodayAchievement struct {
	AchievementID  int64   `json:"achievement_id"`
	InternalName   string  `json:"internal_name"`
	MaxLevel       int     `json:"maxlevel"`
	Hidden         bool    `json:"hidden"`
	Priority       int     `json:"priority"`
	ViewPermission string  `json:"view_permission"`
	Category       *string `json:"achievementcategory,omitempty"`
}
