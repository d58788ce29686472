package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clinicon-stellenplan/internal/domain"
	"clinicon-stellenplan/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePlanRepo struct {
	employees     []domain.Employee
	optional      map[int64][]int64
	values        map[int64]domain.MonthSeries
	flags         map[int64]domain.AbsenceSeries
	mainTotals    domain.MonthSeries
	extraTotals   domain.MonthSeries
	planTargets   map[string]domain.MonthSeries
	targetsByDep  map[int64]domain.MonthSeries
	years         []int
	sollwert      *domain.Sollwert
	savedSollwert *domain.Sollwert
}

func (f *fakePlanRepo) Employees(ctx context.Context, tenantID, departmentID int64) ([]domain.Employee, error) {
	return f.employees, nil
}

func (f *fakePlanRepo) EmployeesWithDepartments(ctx context.Context, tenantID, departmentID int64) ([]domain.Employee, error) {
	return f.employees, nil
}

func (f *fakePlanRepo) OptionalQualifications(ctx context.Context) (map[int64][]int64, error) {
	return f.optional, nil
}

func (f *fakePlanRepo) MonthValues(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.MonthSeries, error) {
	return f.values, nil
}

func (f *fakePlanRepo) AbsenceFlags(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.AbsenceSeries, error) {
	return f.flags, nil
}

func (f *fakePlanRepo) MonthTotals(ctx context.Context, year int, category string, tenantID, departmentID int64) (domain.MonthSeries, error) {
	if category == domain.CategoryMain {
		return f.mainTotals, nil
	}
	return f.extraTotals, nil
}

func (f *fakePlanRepo) PlanTargetMonths(ctx context.Context, year int, scope string) (domain.MonthSeries, error) {
	return f.planTargets[scope], nil
}

func (f *fakePlanRepo) PlanTargetsByDepartment(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.MonthSeries, error) {
	return f.targetsByDep, nil
}

func (f *fakePlanRepo) AvailableYears(ctx context.Context, tenantID int64) ([]int, error) {
	return f.years, nil
}

func (f *fakePlanRepo) Sollwert(ctx context.Context, year int, scope string) (*domain.Sollwert, error) {
	return f.sollwert, nil
}

func (f *fakePlanRepo) SaveSollwert(ctx context.Context, s domain.Sollwert) error {
	f.savedSollwert = &s
	return nil
}

type fakePlanWriter struct {
	sweep *domain.SaveSweep
}

func (f *fakePlanWriter) SaveSweep(ctx context.Context, sweep domain.SaveSweep) error {
	f.sweep = &sweep
	return nil
}

type fakeQualRepo struct {
	rows     []domain.Qualification
	inserted []string
}

func (f *fakeQualRepo) ListAll(ctx context.Context) ([]domain.Qualification, error) {
	return f.rows, nil
}

func (f *fakeQualRepo) ListActive(ctx context.Context) ([]domain.Qualification, error) {
	return f.rows, nil
}

func (f *fakeQualRepo) Insert(ctx context.Context, code, label string) error {
	f.inserted = append(f.inserted, code)
	return nil
}

type fakeKV struct {
	data map[string]string
	dels []string
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		f.dels = append(f.dels, k)
		delete(f.data, k)
	}
	return nil
}

func testScope() *Scope {
	tenant := domain.Tenant{ID: 5, Code: "gfo", Name: "GFO Kliniken"}
	dept := domain.Department{ID: 7, TenantID: 5, Code: "its", Name: "Intensivstation"}
	return &Scope{
		Email:       "planner@example.org",
		Role:        "tenant",
		Tenants:     []domain.Tenant{tenant},
		Tenant:      &tenant,
		Departments: []domain.Department{dept},
		Department:  &dept,
	}
}

func newTestPlanService(repo *fakePlanRepo, writer *fakePlanWriter, kv *fakeKV) *PlanService {
	quals := NewQualificationService(&fakeQualRepo{}, zap.NewNop())
	return NewPlanService(repo, writer, quals, kv, zap.NewNop())
}

func TestNormalizeSaveRowForcesAbsenceMonthsToZero(t *testing.T) {
	row := SaveEmployeeRow{
		Name:     "Muster",
		Months:   []domain.FlexFloat{1, 0.75, 0.5},
		Absences: []string{"", "ms", "unknown"},
	}

	out := normalizeSaveRow(row, domain.CategoryMain)

	require.Equal(t, 1.0, out.Values[0])
	// A recognized absence code wins over the submitted number.
	require.Equal(t, 0.0, out.Values[1])
	require.Equal(t, "MS", out.Absences[1])
	// Unknown codes are dropped and the value survives.
	require.Equal(t, 0.5, out.Values[2])
	require.Equal(t, "", out.Absences[2])
}

func TestNormalizeSaveRowTrimsAndFiltersOptionals(t *testing.T) {
	row := SaveEmployeeRow{
		ID:                     42,
		PersonalNumber:         " 4711 ",
		Name:                   "  Muster  ",
		OptionalQualifications: []domain.FlexInt{3, 0, 9},
	}

	out := normalizeSaveRow(row, domain.CategoryExtra)

	require.True(t, out.HasID)
	require.Equal(t, int64(42), out.ID)
	require.Equal(t, "4711", out.PersonalNumber)
	require.Equal(t, "Muster", out.Name)
	require.Equal(t, domain.CategoryExtra, out.Category)
	require.Equal(t, []int64{3, 9}, out.OptionalQualifications)
}

// Select inputs serialize qualification ids as strings; they must keep
// their numeric value, while a string row uid still drops to the
// natural-key path.
func TestSaveRowKeepsStringQualificationIDs(t *testing.T) {
	payload := `{
		"id": "row-uid-1",
		"name": "Muster",
		"qualificationId": "3",
		"optionalQualifications": ["4", "5"]
	}`
	var row SaveEmployeeRow
	require.NoError(t, json.Unmarshal([]byte(payload), &row))

	out := normalizeSaveRow(row, domain.CategoryMain)

	require.False(t, out.HasID)
	require.Equal(t, int64(3), out.QualificationID)
	require.Equal(t, []int64{4, 5}, out.OptionalQualifications)
}

func TestSaveBuildsScopedSweepAndInvalidatesCache(t *testing.T) {
	repo := &fakePlanRepo{}
	writer := &fakePlanWriter{}
	kv := newFakeKV()
	svc := newTestPlanService(repo, writer, kv)

	req := &SavePlanRequest{
		Employees: []SaveEmployeeRow{{Name: "A", Months: []domain.FlexFloat{1}}},
		Extras:    []SaveEmployeeRow{{Name: "B", Category: "Leasing"}},
		PlanTargets: &struct {
			Months []domain.FlexFloat `json:"months"`
		}{Months: []domain.FlexFloat{10, 11}},
	}

	err := svc.Save(context.Background(), testScope(), 2025, req)
	require.NoError(t, err)

	require.NotNil(t, writer.sweep)
	require.Equal(t, 2025, writer.sweep.Year)
	require.Equal(t, int64(5), writer.sweep.TenantID)
	require.Equal(t, int64(7), writer.sweep.DepartmentID)
	require.Equal(t, "total:5:7", writer.sweep.Scope)
	require.Len(t, writer.sweep.Rows, 2)
	require.Equal(t, domain.CategoryMain, writer.sweep.Rows[0].Category)
	require.Equal(t, domain.CategoryExtra, writer.sweep.Rows[1].Category)
	require.Equal(t, "Leasing", writer.sweep.Rows[1].ExtraCategory)
	require.NotNil(t, writer.sweep.PlanTargets)
	require.Equal(t, 10.0, (*writer.sweep.PlanTargets)[0])
	require.Equal(t, 11.0, (*writer.sweep.PlanTargets)[1])

	require.Contains(t, kv.dels, "stellenplan:summary:2025:total:5:7")
}

func TestSummaryCombinesTracksAndComputesDeviation(t *testing.T) {
	repo := &fakePlanRepo{
		planTargets: map[string]domain.MonthSeries{},
	}
	repo.mainTotals.Set(1, 10)
	repo.extraTotals.Set(1, 2)
	var plan domain.MonthSeries
	plan.Set(1, 8)
	repo.planTargets["total:5:7"] = plan

	svc := newTestPlanService(repo, &fakePlanWriter{}, newFakeKV())

	resp, err := svc.Summary(context.Background(), testScope(), 2025)
	require.NoError(t, err)

	require.True(t, resp.OK)
	require.Equal(t, 12.0, resp.Combined.Months[0])
	require.Equal(t, 4.0, resp.Deviation.Months[0])
	require.Equal(t, resp.Combined.Total, resp.Main.Total+resp.Extras.Total)
	require.Equal(t, resp.Combined.Total/12, resp.Combined.Average)
}

func TestSummaryServesCachedResponse(t *testing.T) {
	repo := &fakePlanRepo{planTargets: map[string]domain.MonthSeries{}}
	kv := newFakeKV()
	svc := newTestPlanService(repo, &fakePlanWriter{}, kv)

	first, err := svc.Summary(context.Background(), testScope(), 2025)
	require.NoError(t, err)

	// Mutate the backing data; the cached response must still be served.
	repo.mainTotals.Set(1, 99)
	second, err := svc.Summary(context.Background(), testScope(), 2025)
	require.NoError(t, err)
	require.Equal(t, first.Main.Total, second.Main.Total)
}

func TestGetSollwertDefaultsMethodAndInputs(t *testing.T) {
	repo := &fakePlanRepo{}
	svc := newTestPlanService(repo, &fakePlanWriter{}, newFakeKV())

	resp, err := svc.GetSollwert(context.Background(), testScope(), 2025)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultSollwertMethod, resp.Sollwert.Method)
	require.JSONEq(t, "{}", string(resp.Sollwert.Inputs))
}
