package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
)

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository creates a new PostgreSQL-backed user repository.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// GetUser retrieves a single user. Returns nil if the user does not exist.
func (r *PostgresUserRepository) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	query := `
		SELECT id, lat, lng, timezone, country, region, city, created_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Lat,
		&user.Lng,
		&user.Timezone,
		&user.Country,
		&user.Region,
		&user.City,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, errors.ErrDatabaseError("get user", err)
	}

	return &user, nil
}

// GetFriendIDs returns the IDs of the users this user follows.
func (r *PostgresUserRepository) GetFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT to_id FROM users_users WHERE from_id = $1 ORDER BY to_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError("get friend IDs", err)
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows, "friend")
}

// GetFollowerIDs returns the IDs of the users following this user.
func (r *PostgresUserRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT from_id FROM users_users WHERE to_id = $1 ORDER BY from_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError("get follower IDs", err)
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows, "follower")
}

// SetUserInfos upserts the user row and reconciles the friend and group edge
// sets in one transaction. Edges not in the given sets are removed, missing
// ones inserted; existing rows are left untouched.
func (r *PostgresUserRepository) SetUserInfos(ctx context.Context, user *domain.User, friendIDs, groupIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ErrDatabaseError("begin set user infos", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := `
		INSERT INTO users (id, lat, lng, timezone, country, region, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			timezone = EXCLUDED.timezone,
			country = EXCLUDED.country,
			region = EXCLUDED.region,
			city = EXCLUDED.city
	`

	_, err = tx.ExecContext(ctx, upsert,
		user.ID,
		user.Lat,
		user.Lng,
		user.Timezone,
		user.Country,
		user.Region,
		user.City,
	)
	if err != nil {
		return errors.ErrDatabaseError("upsert user", err)
	}

	// Referenced users and groups are created as placeholder rows so the
	// edge inserts never trip foreign keys.
	if len(friendIDs) > 0 {
		insertUsers := `INSERT INTO users (id) SELECT UNNEST($1::BIGINT[]) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, insertUsers, pq.Array(friendIDs)); err != nil {
			return errors.ErrDatabaseError("ensure friend users", err)
		}
	}
	if len(groupIDs) > 0 {
		insertGroups := `INSERT INTO groups (id) SELECT UNNEST($1::BIGINT[]) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, insertGroups, pq.Array(groupIDs)); err != nil {
			return errors.ErrDatabaseError("ensure groups", err)
		}
	}

	if err := reconcileEdges(ctx, tx, "users_users", "from_id", "to_id", user.ID, friendIDs); err != nil {
		return err
	}
	if err := reconcileEdges(ctx, tx, "users_groups", "user_id", "group_id", user.ID, groupIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrDatabaseError("commit set user infos", err)
	}

	return nil
}

// DeleteUser removes the user and every row that references it. The deletes
// are explicit rather than relying on FK cascades so the order is fixed and
// each step is attributable in error messages.
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ErrDatabaseError("begin delete user", err)
	}
	defer func() { _ = tx.Rollback() }()

	steps := []struct {
		name  string
		query string
	}{
		{"delete values", `DELETE FROM "values" WHERE user_id = $1`},
		{"delete goal evaluations", `DELETE FROM goal_evaluation_cache WHERE user_id = $1`},
		{"delete achievement levels", `DELETE FROM achievements_users WHERE user_id = $1`},
		{"delete friend edges", `DELETE FROM users_users WHERE from_id = $1 OR to_id = $1`},
		{"delete group edges", `DELETE FROM users_groups WHERE user_id = $1`},
		{"delete user", `DELETE FROM users WHERE id = $1`},
	}

	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, userID); err != nil {
			return errors.ErrDatabaseError(step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrDatabaseError("commit delete user", err)
	}

	return nil
}

// reconcileEdges brings the edge rows of one owner to exactly wantIDs.
func reconcileEdges(ctx context.Context, tx *sql.Tx, table, ownerCol, otherCol string, ownerID int64, wantIDs []int64) error {
	if wantIDs == nil {
		wantIDs = []int64{}
	}

	// #nosec G201 -- table and column names are fixed call-site literals
	deleteQuery := `DELETE FROM ` + table + ` WHERE ` + ownerCol + ` = $1 AND NOT (` + otherCol + ` = ANY($2))`
	if _, err := tx.ExecContext(ctx, deleteQuery, ownerID, pq.Array(wantIDs)); err != nil {
		return errors.ErrDatabaseError("reconcile "+table+" delete", err)
	}

	if len(wantIDs) == 0 {
		return nil
	}

	// #nosec G201
	insertQuery := `
		INSERT INTO ` + table + ` (` + ownerCol + `, ` + otherCol + `)
		SELECT $1, UNNEST($2::BIGINT[])
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, insertQuery, ownerID, pq.Array(wantIDs)); err != nil {
		return errors.ErrDatabaseError("reconcile "+table+" insert", err)
	}

	return nil
}

// scanIDs collects a single BIGINT column.
func scanIDs(rows *sql.Rows, what string) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.ErrDatabaseError("scan "+what+" ID", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate "+what+" IDs", err)
	}
	return ids, nil
}
