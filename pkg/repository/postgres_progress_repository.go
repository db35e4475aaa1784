package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// PostgresProgressRepository implements ProgressRepository using PostgreSQL.
type PostgresProgressRepository struct {
	db *sql.DB
}

// NewPostgresProgressRepository creates a new PostgreSQL-backed progress repository.
func NewPostgresProgressRepository(db *sql.DB) *PostgresProgressRepository {
	return &PostgresProgressRepository{db: db}
}

// GetGoalEvaluation retrieves one cached evaluation. Returns nil when the
// pair has never been evaluated.
func (r *PostgresProgressRepository) GetGoalEvaluation(ctx context.Context, goalID, userID int64) (*domain.GoalEvaluation, error) {
	query := `
		SELECT goal_id, user_id, value, achieved
		FROM goal_evaluation_cache
		WHERE goal_id = $1 AND user_id = $2
	`

	var ev domain.GoalEvaluation
	err := r.db.QueryRowContext(ctx, query, goalID, userID).Scan(
		&ev.GoalID,
		&ev.UserID,
		&ev.Value,
		&ev.Achieved,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, errors.ErrDatabaseError("get goal evaluation", err)
	}

	return &ev, nil
}

// UpsertGoalEvaluation writes the evaluation result for one (goal, user).
func (r *PostgresProgressRepository) UpsertGoalEvaluation(ctx context.Context, ev *domain.GoalEvaluation) error {
	query := `
		INSERT INTO goal_evaluation_cache (goal_id, user_id, value, achieved)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (goal_id, user_id) DO UPDATE SET
			value = EXCLUDED.value,
			achieved = EXCLUDED.achieved
	`

	_, err := r.db.ExecContext(ctx, query, ev.GoalID, ev.UserID, ev.Value, ev.Achieved)
	if err != nil {
		return errors.ErrDatabaseError("upsert goal evaluation", err)
	}

	return nil
}

// DeleteGoalEvaluations drops the cached evaluations of one user for the
// given goals.
func (r *PostgresProgressRepository) DeleteGoalEvaluations(ctx context.Context, userID int64, goalIDs []int64) error {
	if len(goalIDs) == 0 {
		return nil
	}

	query := `DELETE FROM goal_evaluation_cache WHERE user_id = $1 AND goal_id = ANY($2)`

	_, err := r.db.ExecContext(ctx, query, userID, pq.Array(goalIDs))
	if err != nil {
		return errors.ErrDatabaseError("delete goal evaluations", err)
	}

	return nil
}

// DeleteAllGoalEvaluations drops every cached evaluation of one user.
func (r *PostgresProgressRepository) DeleteAllGoalEvaluations(ctx context.Context, userID int64) error {
	query := `DELETE FROM goal_evaluation_cache WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return errors.ErrDatabaseError("delete all goal evaluations", err)
	}

	return nil
}

// GetLeaderboardRows returns the cached evaluations of the cohort for one
// goal. Ordering is value descending with user ID descending as a stable
// tie-break, which is the final leaderboard order.
func (r *PostgresProgressRepository) GetLeaderboardRows(ctx context.Context, goalID int64, userIDs []int64) ([]*domain.GoalEvaluation, error) {
	if len(userIDs) == 0 {
		return []*domain.GoalEvaluation{}, nil
	}

	query := `
		SELECT goal_id, user_id, value, achieved
		FROM goal_evaluation_cache
		WHERE goal_id = $1 AND user_id = ANY($2)
		ORDER BY value DESC, user_id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, goalID, pq.Array(userIDs))
	if err != nil {
		return nil, errors.ErrDatabaseError("get leaderboard rows", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.GoalEvaluation
	for rows.Next() {
		var ev domain.GoalEvaluation
		if err := rows.Scan(&ev.GoalID, &ev.UserID, &ev.Value, &ev.Achieved); err != nil {
			return nil, errors.ErrDatabaseError("scan leaderboard row", err)
		}
		results = append(results, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate leaderboard rows", err)
	}

	return results, nil
}

// GetLevels returns the user's awarded level rows for one achievement,
// highest level first.
func (r *PostgresProgressRepository) GetLevels(ctx context.Context, userID, achievementID int64) ([]*domain.AchievementLevel, error) {
	query := `
		SELECT user_id, achievement_id, level, updated_at
		FROM achievements_users
		WHERE user_id = $1 AND achievement_id = $2
		ORDER BY level DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, achievementID)
	if err != nil {
		return nil, errors.ErrDatabaseError("get levels", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.AchievementLevel
	for rows.Next() {
		var lvl domain.AchievementLevel
		if err := rows.Scan(&lvl.UserID, &lvl.AchievementID, &lvl.Level, &lvl.UpdatedAt); err != nil {
			return nil, errors.ErrDatabaseError("scan level row", err)
		}
		results = append(results, &lvl)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate level rows", err)
	}

	return results, nil
}

// InsertLevel records one newly awarded level. A unique violation means a
// concurrent evaluator already awarded it and surfaces as a CONFLICT error
// so the caller can re-read state instead of failing the evaluation.
func (r *PostgresProgressRepository) InsertLevel(ctx context.Context, level *domain.AchievementLevel) error {
	query := `
		INSERT INTO achievements_users (user_id, achievement_id, level, updated_at)
		VALUES ($1, $2, $3, NOW())
	`

	_, err := r.db.ExecContext(ctx, query, level.UserID, level.AchievementID, level.Level)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return errors.ErrConflict("level already awarded")
		}
		return errors.ErrDatabaseError("insert level", err)
	}

	return nil
}
