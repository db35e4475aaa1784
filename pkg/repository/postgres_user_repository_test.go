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
)

func TestPostgresUserRepository_GetUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresUserRepository(db)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "lat", "lng", "timezone", "country", "region", "city", "created_at"}).
			AddRow(int64(7), 52.52, 13.40, "Europe/Berlin", "DE", nil, "Berlin", created)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM users`)).
			WithArgs(int64(7)).
			WillReturnRows(rows)

		user, err := repo.GetUser(context.Background(), 7)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Europe/Berlin", user.Timezone)
		lat, lng, ok := user.Location()
		require.True(t, ok)
		assert.Equal(t, 52.52, lat)
		assert.Equal(t, 13.40, lng)
		assert.Nil(t, user.Region)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM users`)).
			WithArgs(int64(8)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "lat", "lng", "timezone", "country", "region", "city", "created_at"}))

		user, err := repo.GetUser(context.Background(), 8)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepository_GetFriendIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_id FROM users_users`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"to_id"}).AddRow(int64(8)).AddRow(int64(9)))

	ids, err := repo.GetFriendIDs(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 9}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepository_SetUserInfos(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, lat, lng`)).
		WithArgs(int64(7), nil, nil, "Europe/Berlin", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id) SELECT`)).
		WithArgs(pq.Array([]int64{8})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users_users`)).
		WithArgs(int64(7), pq.Array([]int64{8})).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users_users`)).
		WithArgs(int64(7), pq.Array([]int64{8})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users_groups`)).
		WithArgs(int64(7), pq.Array([]int64{})).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err = repo.SetUserInfos(context.Background(), &domain.User{ID: 7, Timezone: "Europe/Berlin"}, []int64{8}, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepository_DeleteUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgresUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "values"`)).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM goal_evaluation_cache`)).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM achievements_users`)).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users_users`)).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users_groups`)).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users`)).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteUser(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}
