package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"gamification-engine/pkg/cache"
	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
	"gamification-engine/pkg/repository"
)

// Config wires the engine's collaborators.
type Config struct {
	Users        repository.UserRepository
	Catalog      repository.CatalogRepository
	Values       repository.ValueRepository
	Progress     repository.ProgressRepository
	Translations repository.TranslationRepository

	GoalEvals *cache.GoalEvaluationCache
	AchEvals  *cache.SerializedAchievementCache
	Levels    *cache.LevelCache
	Today     *cache.TodayCache
	Variables *cache.VariableCache

	Logger *logrus.Logger

	// Clock overrides time.Now, for deterministic tests.
	Clock func() time.Time

	// EnableUserAuthentication gates the may-increase permission check.
	EnableUserAuthentication bool

	// FallbackLanguage is guaranteed present in every translation map.
	FallbackLanguage string
}

// Engine is the evaluation core: it turns value increments into goal
// progress, achievement levels, rewards and leaderboards.
type Engine struct {
	users        repository.UserRepository
	catalog      repository.CatalogRepository
	values       repository.ValueRepository
	progress     repository.ProgressRepository
	translations repository.TranslationRepository

	goalEvals *cache.GoalEvaluationCache
	achEvals  *cache.SerializedAchievementCache
	levels    *cache.LevelCache
	today     *cache.TodayCache
	variables *cache.VariableCache

	rules *RulesIndex

	log              *logrus.Logger
	clock            func() time.Time
	authEnabled      bool
	fallbackLanguage string
}

// NewEngine creates an engine. The rules index starts empty; call
// RefreshRules after construction and whenever the catalog changes.
func NewEngine(cfg Config) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	fallback := cfg.FallbackLanguage
	if fallback == "" {
		fallback = "en"
	}

	return &Engine{
		users:            cfg.Users,
		catalog:          cfg.Catalog,
		values:           cfg.Values,
		progress:         cfg.Progress,
		translations:     cfg.Translations,
		goalEvals:        cfg.GoalEvals,
		achEvals:         cfg.AchEvals,
		levels:           cfg.Levels,
		today:            cfg.Today,
		variables:        cfg.Variables,
		rules:            NewRulesIndex(),
		log:              log,
		clock:            clock,
		authEnabled:      cfg.EnableUserAuthentication,
		fallbackLanguage: fallback,
	}
}

// RefreshRules rebuilds the variable-to-rules index from the catalog.
func (e *Engine) RefreshRules(ctx context.Context) error {
	goals, err := e.catalog.ListGoals(ctx)
	if err != nil {
		return err
	}
	e.rules.Rebuild(goals, e.log)
	return nil
}

// getUser loads a user or fails with a not-found error.
func (e *Engine) getUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.ErrUserNotFound(userID)
	}
	return user, nil
}

// lookupVariable resolves a variable by name through the memo.
func (e *Engine) lookupVariable(ctx context.Context, name string) (*domain.Variable, error) {
	if v := e.variables.Get(name); v != nil {
		return v, nil
	}
	v, err := e.catalog.GetVariableByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.ErrUnknownVariable(name)
	}
	e.variables.Set(v)
	return v, nil
}
