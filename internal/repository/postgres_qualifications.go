package repository

import (
	"context"
	"database/sql"
	"fmt"

	"clinicon-stellenplan/internal/domain"
)

type PostgresQualificationsRepository struct {
	db *sql.DB
}

func NewPostgresQualificationsRepository(db *sql.DB) *PostgresQualificationsRepository {
	return &PostgresQualificationsRepository{db: db}
}

var _ QualificationsRepository = (*PostgresQualificationsRepository)(nil)

func (r *PostgresQualificationsRepository) ListAll(ctx context.Context) ([]domain.Qualification, error) {
	return r.list(ctx, `SELECT id, code, label FROM qualifications ORDER BY id ASC`)
}

func (r *PostgresQualificationsRepository) ListActive(ctx context.Context) ([]domain.Qualification, error) {
	return r.list(ctx, `SELECT id, code, label FROM qualifications WHERE is_active ORDER BY label ASC`)
}

func (r *PostgresQualificationsRepository) list(ctx context.Context, query string) ([]domain.Qualification, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list qualifications: %w", err)
	}
	defer rows.Close()

	quals := []domain.Qualification{}
	for rows.Next() {
		var q domain.Qualification
		var code sql.NullString
		if err := rows.Scan(&q.ID, &code, &q.Label); err != nil {
			return nil, fmt.Errorf("failed to scan qualification: %w", err)
		}
		q.Code = code.String
		quals = append(quals, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate qualifications: %w", err)
	}
	return quals, nil
}

func (r *PostgresQualificationsRepository) Insert(ctx context.Context, code, label string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO qualifications (code, label) VALUES ($1, $2)
		 ON CONFLICT (code) DO NOTHING`,
		code, label)
	if err != nil {
		return fmt.Errorf("failed to insert qualification: %w", err)
	}
	return nil
}
