package repository

import (
	"context"
	"database/sql"

	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
)

// PostgresCatalogRepository implements CatalogRepository using PostgreSQL.
type PostgresCatalogRepository struct {
	db *sql.DB
}

// NewPostgresCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

// GetVariableByName retrieves a variable. Returns nil if unknown.
func (r *PostgresCatalogRepository) GetVariableByName(ctx context.Context, name string) (*domain.Variable, error) {
	query := `
		SELECT id, name, grouping, increase_permission
		FROM variables
		WHERE name = $1
	`

	var v domain.Variable
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&v.ID,
		&v.Name,
		&v.Group,
		&v.IncreasePermission,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, errors.ErrDatabaseError("get variable by name", err)
	}

	return &v, nil
}

// EnsureVariable creates the variable if missing and returns the row either
// way. The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
func (r *PostgresCatalogRepository) EnsureVariable(ctx context.Context, name string, group domain.VariableGroup, permission domain.IncreasePermission) (*domain.Variable, error) {
	query := `
		INSERT INTO variables (name, grouping, increase_permission)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, grouping, increase_permission
	`

	var v domain.Variable
	err := r.db.QueryRowContext(ctx, query, name, string(group), string(permission)).Scan(
		&v.ID,
		&v.Name,
		&v.Group,
		&v.IncreasePermission,
	)
	if err != nil {
		return nil, errors.ErrDatabaseError("ensure variable", err)
	}

	return &v, nil
}

const achievementColumns = `
	id, achievementcategory_id, name, maxlevel, hidden,
	valid_start, valid_end, lat, lng, max_distance,
	priority, relevance, view_permission
`

// ListAchievements returns all achievements ordered by priority.
func (r *PostgresCatalogRepository) ListAchievements(ctx context.Context) ([]*domain.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements ORDER BY priority ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.ErrDatabaseError("list achievements", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate achievements", err)
	}

	return results, nil
}

// GetAchievement retrieves a single achievement. Returns nil if missing.
func (r *PostgresCatalogRepository) GetAchievement(ctx context.Context, achievementID int64) (*domain.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements WHERE id = $1`

	var a domain.Achievement
	err := r.db.QueryRowContext(ctx, query, achievementID).Scan(
		&a.ID,
		&a.CategoryID,
		&a.Name,
		&a.MaxLevel,
		&a.Hidden,
		&a.ValidStart,
		&a.ValidEnd,
		&a.Lat,
		&a.Lng,
		&a.MaxDistance,
		&a.Priority,
		&a.Relevance,
		&a.ViewPermission,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, errors.ErrDatabaseError("get achievement", err)
	}

	return &a, nil
}

// GetCategory retrieves an achievement category. Returns nil if missing.
func (r *PostgresCatalogRepository) GetCategory(ctx context.Context, categoryID int64) (*domain.AchievementCategory, error) {
	query := `SELECT id, name FROM achievementcategories WHERE id = $1`

	var c domain.AchievementCategory
	err := r.db.QueryRowContext(ctx, query, categoryID).Scan(&c.ID, &c.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, errors.ErrDatabaseError("get category", err)
	}

	return &c, nil
}

const goalColumns = `
	id, achievement_id, name, name_translation_id, condition,
	evaluation, timespan, group_by_key, group_by_dateformat,
	goal, operator, maxmin, priority
`

// GetGoals returns the goals of one achievement ordered by priority.
func (r *PostgresCatalogRepository) GetGoals(ctx context.Context, achievementID int64) ([]*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE achievement_id = $1 ORDER BY priority ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, achievementID)
	if err != nil {
		return nil, errors.ErrDatabaseError("get goals", err)
	}
	defer func() { _ = rows.Close() }()

	return scanGoalRows(rows)
}

// ListGoals returns every goal in the catalog.
func (r *PostgresCatalogRepository) ListGoals(ctx context.Context) ([]*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals ORDER BY achievement_id ASC, priority ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.ErrDatabaseError("list goals", err)
	}
	defer func() { _ = rows.Close() }()

	return scanGoalRows(rows)
}

// GetRewards returns the reward rows effective at the given level. Per reward
// the row with the highest from_level not above the level wins.
func (r *PostgresCatalogRepository) GetRewards(ctx context.Context, achievementID int64, level int) ([]*domain.AchievementReward, error) {
	query := `
		SELECT DISTINCT ON (ar.reward_id)
		       ar.id, ar.achievement_id, ar.reward_id, rw.name,
		       ar.value, ar.value_translation_id, ar.from_level
		FROM achievements_rewards ar
		JOIN rewards rw ON rw.id = ar.reward_id
		WHERE ar.achievement_id = $1 AND ar.from_level <= $2
		ORDER BY ar.reward_id ASC, ar.from_level DESC
	`

	rows, err := r.db.QueryContext(ctx, query, achievementID, level)
	if err != nil {
		return nil, errors.ErrDatabaseError("get rewards", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.AchievementReward
	for rows.Next() {
		var rw domain.AchievementReward
		err := rows.Scan(
			&rw.ID,
			&rw.AchievementID,
			&rw.RewardID,
			&rw.Name,
			&rw.Value,
			&rw.ValueTranslationID,
			&rw.FromLevel,
		)
		if err != nil {
			return nil, errors.ErrDatabaseError("scan reward row", err)
		}
		results = append(results, &rw)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate reward rows", err)
	}

	return results, nil
}

// GetAchievementProperties returns the property rows effective at the given
// level, resolved the same way as rewards.
func (r *PostgresCatalogRepository) GetAchievementProperties(ctx context.Context, achievementID int64, level int) ([]*domain.AchievementProperty, error) {
	query := `
		SELECT DISTINCT ON (ap.property_id)
		       ap.property_id, p.name, p.is_variable,
		       ap.value, ap.value_translation_id, ap.from_level
		FROM achievements_achievementproperties ap
		JOIN achievementproperties p ON p.id = ap.property_id
		WHERE ap.achievement_id = $1 AND ap.from_level <= $2
		ORDER BY ap.property_id ASC, ap.from_level DESC
	`

	rows, err := r.db.QueryContext(ctx, query, achievementID, level)
	if err != nil {
		return nil, errors.ErrDatabaseError("get achievement properties", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.AchievementProperty
	for rows.Next() {
		var p domain.AchievementProperty
		err := rows.Scan(
			&p.PropertyID,
			&p.Name,
			&p.IsVariable,
			&p.Value,
			&p.ValueTranslationID,
			&p.FromLevel,
		)
		if err != nil {
			return nil, errors.ErrDatabaseError("scan achievement property row", err)
		}
		results = append(results, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate achievement property rows", err)
	}

	return results, nil
}

// GetGoalProperties returns the goal property rows effective at the given level.
func (r *PostgresCatalogRepository) GetGoalProperties(ctx context.Context, goalID int64, level int) ([]*domain.GoalProperty, error) {
	query := `
		SELECT DISTINCT ON (gp.property_id)
		       gp.property_id, p.name, p.is_variable,
		       gp.value, gp.value_translation_id, gp.from_level
		FROM goals_goalproperties gp
		JOIN goalproperties p ON p.id = gp.property_id
		WHERE gp.goal_id = $1 AND gp.from_level <= $2
		ORDER BY gp.property_id ASC, gp.from_level DESC
	`

	rows, err := r.db.QueryContext(ctx, query, goalID, level)
	if err != nil {
		return nil, errors.ErrDatabaseError("get goal properties", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.GoalProperty
	for rows.Next() {
		var p domain.GoalProperty
		err := rows.Scan(
			&p.PropertyID,
			&p.Name,
			&p.IsVariable,
			&p.Value,
			&p.ValueTranslationID,
			&p.FromLevel,
		)
		if err != nil {
			return nil, errors.ErrDatabaseError("scan goal property row", err)
		}
		results = append(results, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate goal property rows", err)
	}

	return results, nil
}

// SaveAchievementProperty upserts one achievement property assignment.
func (r *PostgresCatalogRepository) SaveAchievementProperty(ctx context.Context, achievementID int64, prop *domain.AchievementProperty) error {
	query := `
		INSERT INTO achievements_achievementproperties
			(achievement_id, property_id, value, value_translation_id, from_level)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (achievement_id, property_id, from_level) DO UPDATE SET
			value = EXCLUDED.value,
			value_translation_id = EXCLUDED.value_translation_id
	`

	_, err := r.db.ExecContext(ctx, query,
		achievementID,
		prop.PropertyID,
		prop.Value,
		prop.ValueTranslationID,
		prop.FromLevel,
	)
	if err != nil {
		return errors.ErrDatabaseError("save achievement property", err)
	}

	return nil
}

// scanAchievement scans one achievement row from a multi-row result.
func scanAchievement(rows *sql.Rows) (*domain.Achievement, error) {
	var a domain.Achievement
	err := rows.Scan(
		&a.ID,
		&a.CategoryID,
		&a.Name,
		&a.MaxLevel,
		&a.Hidden,
		&a.ValidStart,
		&a.ValidEnd,
		&a.Lat,
		&a.Lng,
		&a.MaxDistance,
		&a.Priority,
		&a.Relevance,
		&a.ViewPermission,
	)
	if err != nil {
		return nil, errors.ErrDatabaseError("scan achievement row", err)
	}
	return &a, nil
}

// scanGoalRows scans all goal rows. The operator column is nullable.
func scanGoalRows(rows *sql.Rows) ([]*domain.Goal, error) {
	var results []*domain.Goal
	for rows.Next() {
		var g domain.Goal
		var operator sql.NullString
		err := rows.Scan(
			&g.ID,
			&g.AchievementID,
			&g.Name,
			&g.NameTranslationID,
			&g.Condition,
			&g.Evaluation,
			&g.Timespan,
			&g.GroupByKey,
			&g.GroupByDateFormat,
			&g.Goal,
			&operator,
			&g.MaxMin,
			&g.Priority,
		)
		if err != nil {
			return nil, errors.ErrDatabaseError("scan goal row", err)
		}
		if operator.Valid {
			g.Operator = domain.Operator(operator.String)
		}
		results = append(results, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate goal rows", err)
	}
	return results, nil
}
