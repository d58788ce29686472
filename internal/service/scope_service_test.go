package service

import (
	"context"
	"testing"

	"clinicon-stellenplan/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMemberships struct {
	byEmail map[string][]domain.Membership
}

func (f *fakeMemberships) MembershipsByEmail(ctx context.Context, email string) ([]domain.Membership, error) {
	return f.byEmail[email], nil
}

type fakeTenants struct {
	tenants []domain.Tenant
}

func (f *fakeTenants) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	return f.tenants, nil
}

type fakeDepartments struct {
	byTenant map[int64][]domain.Department
}

func (f *fakeDepartments) ListActive(ctx context.Context, tenantID int64) ([]domain.Department, error) {
	return f.byTenant[tenantID], nil
}

func newTestScopeService() *ScopeService {
	tenantA := domain.Tenant{ID: 1, Code: "a", Name: "Klinik A"}
	tenantB := domain.Tenant{ID: 2, Code: "b", Name: "Klinik B"}
	memberships := &fakeMemberships{byEmail: map[string][]domain.Membership{
		"admin@example.org": {{Email: "admin@example.org", Role: "admin", Tenant: tenantA}},
		"staff@example.org": {{Email: "staff@example.org", Role: "tenant", Tenant: tenantB}},
	}}
	tenants := &fakeTenants{tenants: []domain.Tenant{tenantA, tenantB}}
	departments := &fakeDepartments{byTenant: map[int64][]domain.Department{
		2: {
			{ID: 10, TenantID: 2, Code: "its", Name: "Intensivstation"},
			{ID: 11, TenantID: 2, Code: "ops", Name: "OP"},
		},
	}}
	return NewScopeService(memberships, tenants, departments, zap.NewNop())
}

func TestResolveRejectsMissingEmail(t *testing.T) {
	svc := newTestScopeService()
	_, err := svc.Resolve(context.Background(), "   ", 0, 0)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveRejectsUnknownEmail(t *testing.T) {
	svc := newTestScopeService()
	_, err := svc.Resolve(context.Background(), "nobody@example.org", 0, 0)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveAdminSeesAllTenants(t *testing.T) {
	svc := newTestScopeService()
	scope, err := svc.Resolve(context.Background(), "admin@example.org", 0, 0)
	require.NoError(t, err)
	require.Equal(t, "admin", scope.Role)
	require.Len(t, scope.Tenants, 2)
	require.Equal(t, int64(1), scope.TenantID())
}

func TestResolveTenantUserSeesOwnTenantOnly(t *testing.T) {
	svc := newTestScopeService()
	scope, err := svc.Resolve(context.Background(), "staff@example.org", 0, 0)
	require.NoError(t, err)
	require.Equal(t, "tenant", scope.Role)
	require.Len(t, scope.Tenants, 1)
	require.Equal(t, int64(2), scope.TenantID())
	// No department requested: the first active one becomes current.
	require.Equal(t, int64(10), scope.DepartmentID())
}

func TestResolveHonorsRequestedTenantAndDepartment(t *testing.T) {
	svc := newTestScopeService()
	scope, err := svc.Resolve(context.Background(), "admin@example.org", 2, 11)
	require.NoError(t, err)
	require.Equal(t, int64(2), scope.TenantID())
	require.Equal(t, int64(11), scope.DepartmentID())
	require.Equal(t, "total:2:11", scope.ScopeKey().String())
}

func TestResolveIgnoresForeignTenantRequest(t *testing.T) {
	svc := newTestScopeService()
	// Requesting a tenant outside the membership set falls back to the first.
	scope, err := svc.Resolve(context.Background(), "staff@example.org", 1, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), scope.TenantID())
}
