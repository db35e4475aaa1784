package repository

import (
	"context"
	"database/sql"

	"gamification-engine/pkg/domain"
	"gamification-engine/pkg/errors"
)

// PostgresTranslationRepository implements TranslationRepository using PostgreSQL.
type PostgresTranslationRepository struct {
	db *sql.DB
}

// NewPostgresTranslationRepository creates a new PostgreSQL-backed translation repository.
func NewPostgresTranslationRepository(db *sql.DB) *PostgresTranslationRepository {
	return &PostgresTranslationRepository{db: db}
}

// GetLanguages returns all configured output languages.
func (r *PostgresTranslationRepository) GetLanguages(ctx context.Context) ([]*domain.Language, error) {
	query := `SELECT id, name FROM languages ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.ErrDatabaseError("get languages", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.Language
	for rows.Next() {
		var l domain.Language
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, errors.ErrDatabaseError("scan language row", err)
		}
		results = append(results, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate language rows", err)
	}

	return results, nil
}

// GetTranslations returns the texts of one translation variable joined with
// their language names.
func (r *PostgresTranslationRepository) GetTranslations(ctx context.Context, translationVariableID int64) ([]*domain.Translation, error) {
	query := `
		SELECT t.translationvariable_id, l.name, t.text
		FROM translations t
		JOIN languages l ON l.id = t.language_id
		WHERE t.translationvariable_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, translationVariableID)
	if err != nil {
		return nil, errors.ErrDatabaseError("get translations", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.Translation
	for rows.Next() {
		var t domain.Translation
		if err := rows.Scan(&t.TranslationVariableID, &t.LanguageName, &t.Text); err != nil {
			return nil, errors.ErrDatabaseError("scan translation row", err)
		}
		results = append(results, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrDatabaseError("iterate translation rows", err)
	}

	return results, nil
}
