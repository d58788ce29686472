package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinicon-stellenplan/internal/domain"
	"clinicon-stellenplan/internal/repository"

	"go.uber.org/zap"
)

// ErrUnauthorized means the request carries no resolvable identity: no
// email header, or an email without a single active membership. Callers
// must answer 401 and touch nothing.
var ErrUnauthorized = errors.New("unauthorized")

// Scope is the resolved tenant/department context of one request.
type Scope struct {
	Email       string
	Role        string
	Tenants     []domain.Tenant
	Tenant      *domain.Tenant
	Departments []domain.Department
	Department  *domain.Department
}

func (s *Scope) TenantID() int64 {
	if s.Tenant == nil {
		return 0
	}
	return s.Tenant.ID
}

func (s *Scope) DepartmentID() int64 {
	if s.Department == nil {
		return 0
	}
	return s.Department.ID
}

// ScopeKey builds the plan-target/Sollwert partition key for this scope.
func (s *Scope) ScopeKey() domain.ScopeKey {
	return domain.ScopeKey{TenantID: s.TenantID(), DepartmentID: s.DepartmentID()}
}

// ScopeService maps an authenticated email to its authorized tenants and
// the active tenant/department of the request. Pure read, no side effects.
type ScopeService struct {
	memberships repository.MembershipsRepository
	tenants     repository.TenantsRepository
	departments repository.DepartmentsRepository
	logger      *zap.Logger
}

func NewScopeService(
	memberships repository.MembershipsRepository,
	tenants repository.TenantsRepository,
	departments repository.DepartmentsRepository,
	logger *zap.Logger,
) *ScopeService {
	return &ScopeService{
		memberships: memberships,
		tenants:     tenants,
		departments: departments,
		logger:      logger,
	}
}

// Resolve applies the visibility rules: admin and zpd roles see every
// active tenant, any other role only its own membership tenants. The
// requested tenant/department ids (0 = none requested) are honored when
// authorized, otherwise the first entry in list order wins.
func (s *ScopeService) Resolve(ctx context.Context, email string, requestedTenant, requestedDepartment int64) (*Scope, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrUnauthorized
	}

	memberships, err := s.memberships.MembershipsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve memberships: %w", err)
	}
	if len(memberships) == 0 {
		return nil, ErrUnauthorized
	}

	isAdmin := false
	isZpd := false
	for _, m := range memberships {
		switch strings.ToLower(m.Role) {
		case "admin":
			isAdmin = true
		case "zpd":
			isZpd = true
		}
	}

	var tenants []domain.Tenant
	if isAdmin || isZpd {
		tenants, err = s.tenants.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tenants: %w", err)
		}
	} else {
		seen := map[int64]bool{}
		for _, m := range memberships {
			if seen[m.Tenant.ID] {
				continue
			}
			seen[m.Tenant.ID] = true
			tenants = append(tenants, m.Tenant)
		}
	}

	scope := &Scope{
		Email:   email,
		Role:    roleLabel(isAdmin, isZpd),
		Tenants: tenants,
	}
	if len(tenants) == 0 {
		return scope, nil
	}

	active := tenants[0]
	for _, t := range tenants {
		if t.ID == requestedTenant {
			active = t
			break
		}
	}
	scope.Tenant = &active

	departments, err := s.departments.ListActive(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	scope.Departments = departments
	if len(departments) == 0 {
		return scope, nil
	}

	activeDept := departments[0]
	for _, d := range departments {
		if d.ID == requestedDepartment {
			activeDept = d
			break
		}
	}
	scope.Department = &activeDept

	return scope, nil
}

func roleLabel(isAdmin, isZpd bool) string {
	if isAdmin {
		return "admin"
	}
	if isZpd {
		return "zpd"
	}
	return "tenant"
}
