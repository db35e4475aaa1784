package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
)

// PostgresValueRepository implements ValueRepository using PostgreSQL.
type PostgresValueRepository struct {
	db *sql.DB
}

// NewPostgresValueRepository creates a new PostgreSQL-backed value repository.
func NewPostgresValueRepository(db *sql.DB) *PostgresValueRepository {
	return &PostgresValueRepository{db: db}
}

// IncreaseValue adds the delta to the row identified by the value's primary
// key (user, variable, datetime, key), inserting it when absent. The caller
// is responsible for bucketing Datetime before the write; rows therefore
// collapse per bucket and the add is atomic under concurrent writers.
func (r *PostgresValueRepository) IncreaseValue(ctx context.Context, value *domain.Value) error {
	query := `
		INSERT INTO "values" (user_id, variable_id, datetime, key, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, variable_id, datetime, key) DO UPDATE SET
			value = "values".value + EXCLUDED.value
	`

	_, err := r.db.ExecContext(ctx, query,
		value.UserID,
		value.VariableID,
		value.Datetime,
		value.Key,
		value.Value,
	)
	if err != nil {
		return errors.ErrDatabaseError("increase value", err)
	}

	return nil
}

// GetUserValues returns the user's value rows joined with variable names,
// optionally restricted to the given variable names and to rows at or after
// since. Rows come back in ascending datetime order.
func (r *PostgresValueRepository) GetUserValues(ctx context.Context, userID int64, variableNames []string, since *time.Time) ([]*domain.ValueRow, error) {
	query := `
		SELECT v.variable_id, vr.name, v.key, v.value, v.datetime
		FROM "values" v
		JOIN variables vr ON vr.id = v.variable_id
		WHERE v.user_id = $1
	`
	args := []interface{}{userID}

	if len(variableNames) > 0 {
		args = append(args, pq.Array(variableNames))
		query += ` AND vr.name = ANY($2)`
	}
	if since != nil {
		args = append(args, *since)
		if len(variableNames) > 0 {
			query += ` AND v.datetime >= $3`
		} else {
			query += ` AND v.datetime >= $2`
		}
	}

	query += ` ORDER BY v.datetime ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.ErrDatabaseError("get user values", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.ValueRow
	for rows.Next() {
		var row domain.ValueRow
		err := rows.Scan(
			&row.VariableID,
			&row.VariableName,
			&row.Key,
			&row.Value,
			&row.Datetime,
		)
		if err != nil {
			return nil, errors.ErrDatabaseError("scan value row", err)
		}
		results = append(results, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate value rows", err)
	}

	return results, nil
}
