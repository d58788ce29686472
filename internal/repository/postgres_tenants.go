package repository

import (
	"context"
	"database/sql"
	"fmt"

	"clinicon-stellenplan/internal/domain"
)

// PostgresTenantsRepository implements TenantsRepository and
// MembershipsRepository on the shared tenants/tenant_users tables.
type PostgresTenantsRepository struct {
	db *sql.DB
}

func NewPostgresTenantsRepository(db *sql.DB) *PostgresTenantsRepository {
	return &PostgresTenantsRepository{db: db}
}

var _ TenantsRepository = (*PostgresTenantsRepository)(nil)
var _ MembershipsRepository = (*PostgresTenantsRepository)(nil)

func (r *PostgresTenantsRepository) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, name FROM tenants WHERE is_active ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Code, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresTenantsRepository) MembershipsByEmail(ctx context.Context, email string) ([]domain.Membership, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT tu.role, t.id, t.code, t.name
		FROM tenant_users tu
		JOIN tenants t ON t.id = tu.tenant_id
		WHERE tu.email = $1 AND tu.is_active AND t.is_active`,
		email)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	memberships := []domain.Membership{}
	for rows.Next() {
		m := domain.Membership{Email: email}
		if err := rows.Scan(&m.Role, &m.Tenant.ID, &m.Tenant.Code, &m.Tenant.Name); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return memberships, nil
}

// PostgresDepartmentsRepository implements DepartmentsRepository.
type PostgresDepartmentsRepository struct {
	db *sql.DB
}

func NewPostgresDepartmentsRepository(db *sql.DB) *PostgresDepartmentsRepository {
	return &PostgresDepartmentsRepository{db: db}
}

var _ DepartmentsRepository = (*PostgresDepartmentsRepository)(nil)

func (r *PostgresDepartmentsRepository) ListActive(ctx context.Context, tenantID int64) ([]domain.Department, error) {
	if tenantID == 0 {
		return []domain.Department{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, code, name
		FROM departments
		WHERE tenant_id = $1 AND is_active
		ORDER BY name ASC`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	departments := []domain.Department{}
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Code, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate departments: %w", err)
	}
	return departments, nil
}
