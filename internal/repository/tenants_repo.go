package repository

import (
	"context"

	"clinicon-stellenplan/internal/domain"
)

// TenantsRepository reads the externally provisioned tenant catalog.
type TenantsRepository interface {
	ListActive(ctx context.Context) ([]domain.Tenant, error)
}

// MembershipsRepository resolves email-based tenant memberships.
type MembershipsRepository interface {
	MembershipsByEmail(ctx context.Context, email string) ([]domain.Membership, error)
}

// DepartmentsRepository reads the active departments of a tenant.
type DepartmentsRepository interface {
	ListActive(ctx context.Context, tenantID int64) ([]domain.Department, error)
}
