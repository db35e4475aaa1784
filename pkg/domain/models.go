package domain

import "time"

// VariableGroup selects the time bucket into which value increments collapse.
type VariableGroup string

const (
	GroupYear  VariableGroup = "year"
	GroupMonth VariableGroup = "month"
	GroupWeek  VariableGroup = "week"
	GroupDay   VariableGroup = "day"
	GroupNone  VariableGroup = "none"
)

// IsValid returns true if the group is a valid bucket granularity.
func (g VariableGroup) IsValid() bool {
	switch g {
	case GroupYear, GroupMonth, GroupWeek, GroupDay, GroupNone:
		return true
	default:
		return false
	}
}

// IncreasePermission controls who may increase a variable for a user.
type IncreasePermission string

const (
	// IncreaseOwn allows users to increase the variable for themselves.
	IncreaseOwn IncreasePermission = "own"

	// IncreaseAdmin restricts increases to callers holding the global
	// increase permission.
	IncreaseAdmin IncreasePermission = "admin"
)

// Variable is anything measured in the application that goals can refer to.
// Increments are collapsed into one row per (user, bucket, key) according to
// the configured group.
type Variable struct {
	ID                 int64              `json:"id" db:"id"`
	Name               string             `json:"name" db:"name"`
	Group              VariableGroup      `json:"group" db:"grouping"`
	IncreasePermission IncreasePermission `json:"increase_permission" db:"increase_permission"`
}

// Value is one (user, variable, bucket, key) row, the unit of event storage.
// Increments within the same bucket are combined by summing at write time.
type Value struct {
	UserID     int64     `json:"user_id" db:"user_id"`
	VariableID int64     `json:"variable_id" db:"variable_id"`
	Datetime   time.Time `json:"datetime" db:"datetime"`
	Key        string    `json:"key" db:"key"`
	Value      int64     `json:"value" db:"value"`
}

// ValueRow is a value joined with its variable name, the shape the progress
// engine folds over.
type ValueRow struct {
	VariableID   int64     `db:"variable_id"`
	VariableName string    `db:"variable_name"`
	Key          string    `db:"key"`
	Value        int64     `db:"value"`
	Datetime     time.Time `db:"datetime"`
}

// User participates in the gamification: earns achievements, appears in
// leaderboards. Timezone and location support time- and geo-aware rules.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Lat       *float64  `json:"lat,omitempty" db:"lat"`
	Lng       *float64  `json:"lng,omitempty" db:"lng"`
	Timezone  string    `json:"timezone" db:"timezone"`
	Country   *string   `json:"country,omitempty" db:"country"`
	Region    *string   `json:"region,omitempty" db:"region"`
	City      *string   `json:"city,omitempty" db:"city"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Location returns the user's coordinates, or false if not set.
func (u *User) Location() (lat, lng float64, ok bool) {
	if u.Lat == nil || u.Lng == nil {
		return 0, 0, false
	}
	return *u.Lat, *u.Lng, true
}

// Relevance selects the leaderboard cohort for an achievement.
type Relevance string

const (
	RelevanceOwn     Relevance = "own"
	RelevanceFriends Relevance = "friends"

	// RelevanceCity is reserved for partitioning cohorts by the user's city.
	// Until that lands it behaves like RelevanceOwn.
	RelevanceCity Relevance = "city"
)

// IsValid returns true if the relevance is a known cohort type.
func (r Relevance) IsValid() bool {
	switch r {
	case RelevanceOwn, RelevanceFriends, RelevanceCity:
		return true
	default:
		return false
	}
}

// ViewPermission controls who may view an achievement's state.
type ViewPermission string

const (
	ViewEveryone ViewPermission = "everyone"
	ViewOwn      ViewPermission = "own"
)

// Achievement is a collection of goals with level progression up to MaxLevel.
// Optional date validity and a geo fence restrict when and where it is active.
type Achievement struct {
	ID             int64          `json:"id" db:"id"`
	CategoryID     *int64         `json:"category_id,omitempty" db:"achievementcategory_id"`
	Name           string         `json:"name" db:"name"` // internal use
	MaxLevel       int            `json:"maxlevel" db:"maxlevel"`
	Hidden         bool           `json:"hidden" db:"hidden"`
	ValidStart     *time.Time     `json:"valid_start,omitempty" db:"valid_start"`
	ValidEnd       *time.Time     `json:"valid_end,omitempty" db:"valid_end"`
	Lat            *float64       `json:"lat,omitempty" db:"lat"`
	Lng            *float64       `json:"lng,omitempty" db:"lng"`
	MaxDistance    *int           `json:"max_distance,omitempty" db:"max_distance"` // meters
	Priority       int            `json:"priority" db:"priority"`
	Relevance      Relevance      `json:"relevance" db:"relevance"`
	ViewPermission ViewPermission `json:"view_permission" db:"view_permission"`
}

// ValidOn reports whether the achievement's date validity covers the date.
func (a *Achievement) ValidOn(date time.Time) bool {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if a.ValidStart != nil && day.Before(*a.ValidStart) {
		return false
	}
	if a.ValidEnd != nil && day.After(*a.ValidEnd) {
		return false
	}
	return true
}

// AchievementCategory groups achievements for display.
type AchievementCategory struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Evaluation is the cadence window applied during progress computation.
type Evaluation string

const (
	EvalImmediately Evaluation = "immediately"
	EvalDaily       Evaluation = "daily"
	EvalWeekly      Evaluation = "weekly"
	EvalMonthly     Evaluation = "monthly"
	EvalYearly      Evaluation = "yearly"

	// EvalEnd applies no window; the goal is only evaluated terminally.
	EvalEnd Evaluation = "end"
)

// IsValid returns true if the evaluation cadence is known.
func (e Evaluation) IsValid() bool {
	switch e {
	case EvalImmediately, EvalDaily, EvalWeekly, EvalMonthly, EvalYearly, EvalEnd:
		return true
	default:
		return false
	}
}

// Operator compares progress against the goal threshold.
type Operator string

const (
	OperatorGeq Operator = "geq"
	OperatorLeq Operator = "leq"
)

// MaxMin selects which group aggregate represents the user's progress.
type MaxMin string

const (
	MaxMinMax MaxMin = "max"
	MaxMinMin MaxMin = "min"
)

// Goal is an evaluable rule on variables that must be reached to advance an
// achievement level. Condition and Goal hold expression source text.
type Goal struct {
	ID                int64      `json:"id" db:"id"`
	AchievementID     int64      `json:"achievement_id" db:"achievement_id"`
	Name              string     `json:"name" db:"name"` // internal use
	NameTranslationID *int64     `json:"name_translation_id,omitempty" db:"name_translation_id"`
	Condition         *string    `json:"condition,omitempty" db:"condition"`
	Evaluation        Evaluation `json:"evaluation" db:"evaluation"`
	Timespan          *int       `json:"timespan,omitempty" db:"timespan"` // days
	GroupByKey        bool       `json:"group_by_key" db:"group_by_key"`
	GroupByDateFormat *string    `json:"group_by_dateformat,omitempty" db:"group_by_dateformat"`
	Goal              *string    `json:"goal,omitempty" db:"goal"` // threshold expression over level
	Operator          Operator   `json:"operator" db:"operator"`
	MaxMin            MaxMin     `json:"maxmin" db:"maxmin"`
	Priority          int        `json:"priority" db:"priority"`
}

// GoalEvaluation is the persistent mirror of the goal evaluation memo:
// the (achieved, value) pair for one (goal, user). When achieved, Value is
// clamped to the threshold so leaderboards cannot rank achievers above it.
type GoalEvaluation struct {
	GoalID   int64   `json:"goal_id" db:"goal_id"`
	UserID   int64   `json:"user_id" db:"user_id"`
	Value    float64 `json:"value" db:"value"`
	Achieved bool    `json:"achieved" db:"achieved"`
}

// AchievementLevel is one awarded level row. Rows form a contiguous
// sequence 1..L per (user, achievement); the historical trail, not a counter.
type AchievementLevel struct {
	UserID        int64     `json:"user_id" db:"user_id"`
	AchievementID int64     `json:"achievement_id" db:"achievement_id"`
	Level         int       `json:"level" db:"level"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AchievementReward is one reward row joined with its per-level value.
// Value may be a literal, a template string, or reference a translation.
type AchievementReward struct {
	ID                 int64   `json:"id" db:"id"`
	AchievementID      int64   `json:"achievement_id" db:"achievement_id"`
	RewardID           int64   `json:"reward_id" db:"reward_id"`
	Name               string  `json:"name" db:"name"`
	Value              *string `json:"value,omitempty" db:"value"`
	ValueTranslationID *int64  `json:"value_translation_id,omitempty" db:"value_translation_id"`
	FromLevel          int     `json:"from_level" db:"from_level"`
}

// AchievementProperty is one property row joined with its per-level value.
// Properties with IsVariable feed back into the values store when a level
// is awarded.
type AchievementProperty struct {
	PropertyID         int64   `json:"property_id" db:"property_id"`
	Name               string  `json:"name" db:"name"`
	IsVariable         bool    `json:"is_variable" db:"is_variable"`
	Value              *string `json:"value,omitempty" db:"value"`
	ValueTranslationID *int64  `json:"value_translation_id,omitempty" db:"value_translation_id"`
	FromLevel          int     `json:"from_level" db:"from_level"`
}

// GoalProperty is one goal property row joined with its per-level value.
type GoalProperty struct {
	PropertyID         int64   `json:"property_id" db:"property_id"`
	Name               string  `json:"name" db:"name"`
	IsVariable         bool    `json:"is_variable" db:"is_variable"`
	Value              *string `json:"value,omitempty" db:"value"`
	ValueTranslationID *int64  `json:"value_translation_id,omitempty" db:"value_translation_id"`
	FromLevel          int     `json:"from_level" db:"from_level"`
}

// Language is one configured output language.
type Language struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Translation is one rendered text for a translation variable and language.
type Translation struct {
	TranslationVariableID int64  `json:"translationvariable_id" db:"translationvariable_id"`
	LanguageName          string `json:"language" db:"language"`
	Text                  string `json:"text" db:"text"`
}
