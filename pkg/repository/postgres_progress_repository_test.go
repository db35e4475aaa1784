package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
)

func TestPostgresProgressRepository_GetGoalEvaluation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresProgressRepository(db)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"goal_id", "user_id", "value", "achieved"}).
			AddRow(int64(1), int64(7), 4.0, true)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM goal_evaluation_cache`)).
			WithArgs(int64(1), int64(7)).
			WillReturnRows(rows)

		ev, err := repo.GetGoalEvaluation(context.Background(), 1, 7)
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, 4.0, ev.Value)
		assert.True(t, ev.Achieved)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM goal_evaluation_cache`)).
			WithArgs(int64(1), int64(8)).
			WillReturnRows(sqlmock.NewRows([]string{"goal_id", "user_id", "value", "achieved"}))

		ev, err := repo.GetGoalEvaluation(context.Background(), 1, 8)
		require.NoError(t, err)
		assert.Nil(t, ev)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProgressRepository_UpsertGoalEvaluation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresProgressRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO goal_evaluation_cache`)).
		WithArgs(int64(1), int64(7), 3.5, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpsertGoalEvaluation(context.Background(), &domain.GoalEvaluation{
		GoalID: 1, UserID: 7, Value: 3.5, Achieved: false,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProgressRepository_DeleteGoalEvaluations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresProgressRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM goal_evaluation_cache`)).
		WithArgs(int64(7), pq.Array([]int64{1, 2})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteGoalEvaluations(context.Background(), 7, []int64{1, 2}))

	// Empty goal set is a no-op without touching the database.
	require.NoError(t, repo.DeleteGoalEvaluations(context.Background(), 7, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProgressRepository_GetLeaderboardRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresProgressRepository(db)

	rows := sqlmock.NewRows([]string{"goal_id", "user_id", "value", "achieved"}).
		AddRow(int64(1), int64(9), 5.0, true).
		AddRow(int64(1), int64(7), 5.0, true).
		AddRow(int64(1), int64(8), 2.0, false)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY value DESC, user_id DESC`)).
		WithArgs(int64(1), pq.Array([]int64{7, 8, 9})).
		WillReturnRows(rows)

	got, err := repo.GetLeaderboardRows(context.Background(), 1, []int64{7, 8, 9})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(9), got[0].UserID)
	assert.Equal(t, int64(7), got[1].UserID)
	assert.Equal(t, int64(8), got[2].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProgressRepository_GetLeaderboardRows_EmptyCohort(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresProgressRepository(db)

	got, err := repo.GetLeaderboardRows(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProgressRepository_GetLevels(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresProgressRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"user_id", "achievement_id", "level", "updated_at"}).
		AddRow(int64(7), int64(1), 2, now).
		AddRow(int64(7), int64(1), 1, now)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM achievements_users`)).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(rows)

	got, err := repo.GetLevels(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProgressRepository_InsertLevel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresProgressRepository(db)

	t.Run("inserts new level", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO achievements_users`)).
			WithArgs(int64(7), int64(1), 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.InsertLevel(context.Background(), &domain.AchievementLevel{
			UserID: 7, AchievementID: 1, Level: 2,
		})
		require.NoError(t, err)
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO achievements_users`)).
			WithArgs(int64(7), int64(1), 2).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.InsertLevel(context.Background(), &domain.AchievementLevel{
			UserID: 7, AchievementID: 1, Level: 2,
		})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeConflict))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
