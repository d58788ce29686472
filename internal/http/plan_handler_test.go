package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinicon-stellenplan/internal/domain"
	"clinicon-stellenplan/internal/service"
	"clinicon-stellenplan/internal/store"

	"go.uber.org/zap"
)

type memMemberships struct {
	byEmail map[string][]domain.Membership
}

func (m *memMemberships) MembershipsByEmail(ctx context.Context, email string) ([]domain.Membership, error) {
	return m.byEmail[email], nil
}

type memTenants struct {
	tenants []domain.Tenant
}

func (m *memTenants) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	return m.tenants, nil
}

type memDepartments struct {
	byTenant map[int64][]domain.Department
}

func (m *memDepartments) ListActive(ctx context.Context, tenantID int64) ([]domain.Department, error) {
	return m.byTenant[tenantID], nil
}

type memQualRepo struct {
	rows []domain.Qualification
}

func (m *memQualRepo) ListAll(ctx context.Context) ([]domain.Qualification, error) {
	return m.rows, nil
}

func (m *memQualRepo) ListActive(ctx context.Context) ([]domain.Qualification, error) {
	return m.rows, nil
}

func (m *memQualRepo) Insert(ctx context.Context, code, label string) error {
	m.rows = append(m.rows, domain.Qualification{ID: int64(len(m.rows) + 1), Code: code, Label: label})
	return nil
}

type memPlanRepo struct {
	saved *domain.SaveSweep
}

func (m *memPlanRepo) Employees(ctx context.Context, tenantID, departmentID int64) ([]domain.Employee, error) {
	return nil, nil
}

func (m *memPlanRepo) EmployeesWithDepartments(ctx context.Context, tenantID, departmentID int64) ([]domain.Employee, error) {
	return nil, nil
}

func (m *memPlanRepo) OptionalQualifications(ctx context.Context) (map[int64][]int64, error) {
	return nil, nil
}

func (m *memPlanRepo) MonthValues(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.MonthSeries, error) {
	return nil, nil
}

func (m *memPlanRepo) AbsenceFlags(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.AbsenceSeries, error) {
	return nil, nil
}

func (m *memPlanRepo) MonthTotals(ctx context.Context, year int, category string, tenantID, departmentID int64) (domain.MonthSeries, error) {
	return domain.MonthSeries{}, nil
}

func (m *memPlanRepo) PlanTargetMonths(ctx context.Context, year int, scope string) (domain.MonthSeries, error) {
	return domain.MonthSeries{}, nil
}

func (m *memPlanRepo) PlanTargetsByDepartment(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.MonthSeries, error) {
	return nil, nil
}

func (m *memPlanRepo) AvailableYears(ctx context.Context, tenantID int64) ([]int, error) {
	return nil, nil
}

func (m *memPlanRepo) Sollwert(ctx context.Context, year int, scope string) (*domain.Sollwert, error) {
	return nil, nil
}

func (m *memPlanRepo) SaveSollwert(ctx context.Context, s domain.Sollwert) error {
	return nil
}

func (m *memPlanRepo) SaveSweep(ctx context.Context, sweep domain.SaveSweep) error {
	m.saved = &sweep
	return nil
}

type memKV struct {
	data map[string]string
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (m *memKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func newTestPlanHandler(repo *memPlanRepo) *PlanHandler {
	logger := zap.NewNop()
	tenant := domain.Tenant{ID: 5, Code: "gfo", Name: "GFO Kliniken"}
	memberships := &memMemberships{byEmail: map[string][]domain.Membership{
		"planner@example.org": {{Email: "planner@example.org", Role: "tenant", Tenant: tenant}},
	}}
	tenants := &memTenants{tenants: []domain.Tenant{tenant}}
	departments := &memDepartments{byTenant: map[int64][]domain.Department{
		5: {{ID: 7, TenantID: 5, Code: "its", Name: "Intensivstation"}},
	}}

	scopes := service.NewScopeService(memberships, tenants, departments, logger)
	quals := service.NewQualificationService(&memQualRepo{}, logger)
	plans := service.NewPlanService(repo, repo, quals, &memKV{data: map[string]string{}}, logger)
	return NewPlanHandler(scopes, plans, logger)
}

func TestGetPlanRejectsAnonymousCaller(t *testing.T) {
	h := newTestPlanHandler(&memPlanRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/stellenplan?year=2025", nil)
	w := httptest.NewRecorder()
	h.GetPlan(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"ok":false`) || !strings.Contains(body, "unauthorized") {
		t.Fatalf("expected unauthorized envelope, got: %s", body)
	}
}

func TestGetPlanResolvesScopeFromEmailHeader(t *testing.T) {
	h := newTestPlanHandler(&memPlanRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/stellenplan?year=2025", nil)
	req.Header.Set("cf-access-authenticated-user-email", "planner@example.org")
	w := httptest.NewRecorder()
	h.GetPlan(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		OK     bool           `json:"ok"`
		Year   int            `json:"year"`
		Tenant *domain.Tenant `json:"tenant"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.OK || resp.Year != 2025 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Tenant == nil || resp.Tenant.ID != 5 {
		t.Fatalf("expected tenant 5, got %+v", resp.Tenant)
	}
}

func TestSavePlanRunsScopedSweep(t *testing.T) {
	repo := &memPlanRepo{}
	h := newTestPlanHandler(repo)

	body := `{
		"year": "2025",
		"tenantId": 5,
		"departmentId": 7,
		"employees": [
			{"id": "row-uid-1", "name": "Muster", "months": [1, "0,5"], "absences": ["", "ms"]}
		],
		"extras": [],
		"planTargets": {"months": [10, 11]}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/stellenplan", strings.NewReader(body))
	req.Header.Set("x-user-email", "planner@example.org")
	w := httptest.NewRecorder()
	h.SavePlan(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if repo.saved == nil {
		t.Fatal("expected a sweep to be written")
	}
	if repo.saved.Scope != "total:5:7" {
		t.Fatalf("unexpected sweep scope: %s", repo.saved.Scope)
	}
	row := repo.saved.Rows[0]
	if row.HasID {
		t.Fatal("string uid must route through the natural-key path")
	}
	if row.Values[1] != 0 || row.Absences[1] != "MS" {
		t.Fatalf("expected flagged month zeroed, got value=%v code=%q", row.Values[1], row.Absences[1])
	}
}

// newDepartmentlessPlanHandler resolves the caller to a tenant that has
// no active departments.
func newDepartmentlessPlanHandler(repo *memPlanRepo) *PlanHandler {
	logger := zap.NewNop()
	tenant := domain.Tenant{ID: 5, Code: "gfo", Name: "GFO Kliniken"}
	memberships := &memMemberships{byEmail: map[string][]domain.Membership{
		"planner@example.org": {{Email: "planner@example.org", Role: "tenant", Tenant: tenant}},
	}}
	tenants := &memTenants{tenants: []domain.Tenant{tenant}}
	departments := &memDepartments{byTenant: map[int64][]domain.Department{}}

	scopes := service.NewScopeService(memberships, tenants, departments, logger)
	quals := service.NewQualificationService(&memQualRepo{}, logger)
	plans := service.NewPlanService(repo, repo, quals, &memKV{data: map[string]string{}}, logger)
	return NewPlanHandler(scopes, plans, logger)
}

func TestGetPlanRequiresResolvedDepartment(t *testing.T) {
	h := newDepartmentlessPlanHandler(&memPlanRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/stellenplan?year=2025", nil)
	req.Header.Set("x-user-email", "planner@example.org")
	w := httptest.NewRecorder()
	h.GetPlan(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "tenant_id and department_id are required.") {
		t.Fatalf("expected scope error envelope, got: %s", w.Body.String())
	}
}

func TestSavePlanRequiresResolvedDepartment(t *testing.T) {
	repo := &memPlanRepo{}
	h := newDepartmentlessPlanHandler(repo)

	body := `{"year": 2025, "tenantId": 5, "employees": [{"name": "Muster", "months": [1]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/stellenplan", strings.NewReader(body))
	req.Header.Set("x-user-email", "planner@example.org")
	w := httptest.NewRecorder()
	h.SavePlan(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if repo.saved != nil {
		t.Fatalf("no sweep must be written for an unscoped save, got %+v", repo.saved)
	}
}

func TestSavePlanRejectsInvalidJSON(t *testing.T) {
	h := newTestPlanHandler(&memPlanRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/stellenplan", strings.NewReader("{not json"))
	req.Header.Set("x-user-email", "planner@example.org")
	w := httptest.NewRecorder()
	h.SavePlan(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRouterFallbackReturnsJSONNotFound(t *testing.T) {
	router := NewRouter(zap.NewNop())
	router.RegisterFallback()

	req := httptest.NewRequest(http.MethodGet, "/api/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Not found.") {
		t.Fatalf("expected JSON 404 envelope, got: %s", w.Body.String())
	}
}

func TestMiddlewareAnswersPreflightAndEchoesOrigin(t *testing.T) {
	router := NewRouter(zap.NewNop())
	router.RegisterFallback()
	handler := WithMiddleware(router, zap.NewNop())

	req := httptest.NewRequest(http.MethodOptions, "/api/stellenplan", nil)
	req.Header.Set("Origin", "https://plan.example.org")
	req.Header.Set("Access-Control-Request-Headers", "x-user-email")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://plan.example.org" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "x-user-email" {
		t.Fatalf("expected echoed request headers, got %q", got)
	}
}
