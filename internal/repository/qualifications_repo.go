package repository

import (
	"context"

	"clinicon-stellenplan/internal/domain"
)

// QualificationsRepository serves the global qualification catalog.
type QualificationsRepository interface {
	// ListAll returns every row, active or not, for idempotent seeding.
	ListAll(ctx context.Context) ([]domain.Qualification, error)
	// ListActive returns active rows ordered by label.
	ListActive(ctx context.Context) ([]domain.Qualification, error)
	Insert(ctx context.Context, code, label string) error
}
