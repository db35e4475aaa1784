package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
)

// In-memory repository fakes. They mirror the persistence contracts closely
// enough for scenario tests: missing rows return nil, leaderboard rows come
// back ordered, and duplicate level inserts fail with a CONFLICT error.

type fakeUserRepo struct {
	users   map[int64]*domain.User
	friends map[int64][]int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[int64]*domain.User),
		friends: make(map[int64][]int64),
	}
}

func (r *fakeUserRepo) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	return r.users[userID], nil
}

func (r *fakeUserRepo) GetFriendIDs(_ context.Context, userID int64) ([]int64, error) {
	return r.friends[userID], nil
}

func (r *fakeUserRepo) GetFollowerIDs(_ context.Context, userID int64) ([]int64, error) {
	var followers []int64
	for from, tos := range r.friends {
		for _, to := range tos {
			if to == userID {
				followers = append(followers, from)
			}
		}
	}
	sort.Slice(followers, func(i, j int) bool { return followers[i] < followers[j] })
	return followers, nil
}

func (r *fakeUserRepo) SetUserInfos(_ context.Context, user *domain.User, friendIDs, _ []int64) error {
	r.users[user.ID] = user
	r.friends[user.ID] = friendIDs
	return nil
}

func (r *fakeUserRepo) DeleteUser(_ context.Context, userID int64) error {
	delete(r.users, userID)
	delete(r.friends, userID)
	return nil
}

type fakeCatalogRepo struct {
	variables    map[string]*domain.Variable
	nextVarID    int64
	achievements map[int64]*domain.Achievement
	categories   map[int64]*domain.AchievementCategory
	goals        []*domain.Goal
	rewards      []*domain.AchievementReward
	achProps     map[int64][]*domain.AchievementProperty
	goalProps    map[int64][]*domain.GoalProperty
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		variables:    make(map[string]*domain.Variable),
		nextVarID:    1,
		achievements: make(map[int64]*domain.Achievement),
		categories:   make(map[int64]*domain.AchievementCategory),
		achProps:     make(map[int64][]*domain.AchievementProperty),
		goalProps:    make(map[int64][]*domain.GoalProperty),
	}
}

func (r *fakeCatalogRepo) addVariable(name string, group domain.VariableGroup, permission domain.IncreasePermission) *domain.Variable {
	v := &domain.Variable{ID: r.nextVarID, Name: name, Group: group, IncreasePermission: permission}
	r.nextVarID++
	r.variables[name] = v
	return v
}

func (r *fakeCatalogRepo) GetVariableByName(_ context.Context, name string) (*domain.Variable, error) {
	return r.variables[name], nil
}

func (r *fakeCatalogRepo) EnsureVariable(_ context.Context, name string, group domain.VariableGroup, permission domain.IncreasePermission) (*domain.Variable, error) {
	if v, ok := r.variables[name]; ok {
		return v, nil
	}
	return r.addVariable(name, group, permission), nil
}

func (r *fakeCatalogRepo) ListAchievements(_ context.Context) ([]*domain.Achievement, error) {
	var achievements []*domain.Achievement
	for _, a := range r.achievements {
		achievements = append(achievements, a)
	}
	sort.Slice(achievements, func(i, j int) bool { return achievements[i].ID < achievements[j].ID })
	return achievements, nil
}

func (r *fakeCatalogRepo) GetAchievement(_ context.Context, achievementID int64) (*domain.Achievement, error) {
	return r.achievements[achievementID], nil
}

func (r *fakeCatalogRepo) GetCategory(_ context.Context, categoryID int64) (*domain.AchievementCategory, error) {
	return r.categories[categoryID], nil
}

func (r *fakeCatalogRepo) GetGoals(_ context.Context, achievementID int64) ([]*domain.Goal, error) {
	var goals []*domain.Goal
	for _, g := range r.goals {
		if g.AchievementID == achievementID {
			goals = append(goals, g)
		}
	}
	return goals, nil
}

func (r *fakeCatalogRepo) ListGoals(_ context.Context) ([]*domain.Goal, error) {
	return r.goals, nil
}

func (r *fakeCatalogRepo) GetRewards(_ context.Context, achievementID int64, level int) ([]*domain.AchievementReward, error) {
	best := make(map[int64]*domain.AchievementReward)
	for _, row := range r.rewards {
		if row.AchievementID != achievementID || row.FromLevel > level {
			continue
		}
		if prev, ok := best[row.RewardID]; !ok || row.FromLevel > prev.FromLevel {
			best[row.RewardID] = row
		}
	}
	var rows []*domain.AchievementReward
	for _, row := range best {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].RewardID < rows[j].RewardID })
	return rows, nil
}

func (r *fakeCatalogRepo) GetAchievementProperties(_ context.Context, achievementID int64, level int) ([]*domain.AchievementProperty, error) {
	best := make(map[int64]*domain.AchievementProperty)
	for _, row := range r.achProps[achievementID] {
		if row.FromLevel > level {
			continue
		}
		if prev, ok := best[row.PropertyID]; !ok || row.FromLevel > prev.FromLevel {
			best[row.PropertyID] = row
		}
	}
	var rows []*domain.AchievementProperty
	for _, row := range best {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PropertyID < rows[j].PropertyID })
	return rows, nil
}

func (r *fakeCatalogRepo) GetGoalProperties(_ context.Context, goalID int64, level int) ([]*domain.GoalProperty, error) {
	best := make(map[int64]*domain.GoalProperty)
	for _, row := range r.goalProps[goalID] {
		if row.FromLevel > level {
			continue
		}
		if prev, ok := best[row.PropertyID]; !ok || row.FromLevel > prev.FromLevel {
			best[row.PropertyID] = row
		}
	}
	var rows []*domain.GoalProperty
	for _, row := range best {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PropertyID < rows[j].PropertyID })
	return rows, nil
}

func (r *fakeCatalogRepo) SaveAchievementProperty(_ context.Context, achievementID int64, prop *domain.AchievementProperty) error {
	for i, existing := range r.achProps[achievementID] {
		if existing.PropertyID == prop.PropertyID && existing.FromLevel == prop.FromLevel {
			r.achProps[achievementID][i] = prop
			return nil
		}
	}
	r.achProps[achievementID] = append(r.achProps[achievementID], prop)
	return nil
}

type fakeValueRepo struct {
	catalog *fakeCatalogRepo
	rows    map[string]*domain.Value
}

func newFakeValueRepo(catalog *fakeCatalogRepo) *fakeValueRepo {
	return &fakeValueRepo{catalog: catalog, rows: make(map[string]*domain.Value)}
}

func (r *fakeValueRepo) IncreaseValue(_ context.Context, value *domain.Value) error {
	key := fmt.Sprintf("%d|%d|%d|%s", value.UserID, value.VariableID, value.Datetime.UnixNano(), value.Key)
	if existing, ok := r.rows[key]; ok {
		existing.Value += value.Value
		return nil
	}
	stored := *value
	r.rows[key] = &stored
	return nil
}

func (r *fakeValueRepo) GetUserValues(_ context.Context, userID int64, variableNames []string, since *time.Time) ([]*domain.ValueRow, error) {
	wanted := make(map[string]bool, len(variableNames))
	for _, name := range variableNames {
		wanted[name] = true
	}

	nameByID := make(map[int64]string, len(r.catalog.variables))
	for name, v := range r.catalog.variables {
		nameByID[v.ID] = name
	}

	var rows []*domain.ValueRow
	for _, value := range r.rows {
		if value.UserID != userID {
			continue
		}
		name := nameByID[value.VariableID]
		if len(variableNames) > 0 && !wanted[name] {
			continue
		}
		if since != nil && value.Datetime.Before(*since) {
			continue
		}
		rows = append(rows, &domain.ValueRow{
			VariableID:   value.VariableID,
			VariableName: name,
			Key:          value.Key,
			Value:        value.Value,
			Datetime:     value.Datetime,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Datetime.Before(rows[j].Datetime) })
	return rows, nil
}

type fakeProgressRepo struct {
	now    func() time.Time
	evals  map[[2]int64]*domain.GoalEvaluation
	levels map[[2]int64][]*domain.AchievementLevel
}

func newFakeProgressRepo(now func() time.Time) *fakeProgressRepo {
	return &fakeProgressRepo{
		now:    now,
		evals:  make(map[[2]int64]*domain.GoalEvaluation),
		levels: make(map[[2]int64][]*domain.AchievementLevel),
	}
}

func (r *fakeProgressRepo) GetGoalEvaluation(_ context.Context, goalID, userID int64) (*domain.GoalEvaluation, error) {
	return r.evals[[2]int64{goalID, userID}], nil
}

func (r *fakeProgressRepo) UpsertGoalEvaluation(_ context.Context, ev *domain.GoalEvaluation) error {
	stored := *ev
	r.evals[[2]int64{ev.GoalID, ev.UserID}] = &stored
	return nil
}

func (r *fakeProgressRepo) DeleteGoalEvaluations(_ context.Context, userID int64, goalIDs []int64) error {
	for _, goalID := range goalIDs {
		delete(r.evals, [2]int64{goalID, userID})
	}
	return nil
}

func (r *fakeProgressRepo) DeleteAllGoalEvaluations(_ context.Context, userID int64) error {
	for key := range r.evals {
		if key[1] == userID {
			delete(r.evals, key)
		}
	}
	return nil
}

func (r *fakeProgressRepo) GetLeaderboardRows(_ context.Context, goalID int64, userIDs []int64) ([]*domain.GoalEvaluation, error) {
	var rows []*domain.GoalEvaluation
	for _, userID := range userIDs {
		if ev, ok := r.evals[[2]int64{goalID, userID}]; ok {
			rows = append(rows, ev)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].UserID > rows[j].UserID
	})
	return rows, nil
}

func (r *fakeProgressRepo) GetLevels(_ context.Context, userID, achievementID int64) ([]*domain.AchievementLevel, error) {
	rows := r.levels[[2]int64{userID, achievementID}]
	sorted := append([]*domain.AchievementLevel(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level > sorted[j].Level })
	return sorted, nil
}

func (r *fakeProgressRepo) InsertLevel(_ context.Context, level *domain.AchievementLevel) error {
	key := [2]int64{level.UserID, level.AchievementID}
	for _, existing := range r.levels[key] {
		if existing.Level == level.Level {
			return errors.ErrConflict("level already awarded")
		}
	}
	stored := *level
	stored.UpdatedAt = r.now()
	r.levels[key] = append(r.levels[key], &stored)
	return nil
}

type fakeTranslationRepo struct {
	languages    []*domain.Language
	translations map[int64][]*domain.Translation
}

func newFakeTranslationRepo() *fakeTranslationRepo {
	return &fakeTranslationRepo{translations: make(map[int64][]*domain.Translation)}
}

func (r *fakeTranslationRepo) GetLanguages(_ context.Context) ([]*domain.Language, error) {
	return r.languages, nil
}

func (r *fakeTranslationRepo) GetTranslations(_ context.Context, translationVariableID int64) ([]*domain.Translation, error) {
	return r.translations[translationVariableID], nil
}
