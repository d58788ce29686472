package repository

import (
	"context"

	"clinicon-stellenplan/internal/domain"
)

// PlanRepository reads staffing rows, monthly values, plan targets and the
// Sollwert for one scope. Tenant or department ids of 0 mean "not filtered",
// which keeps legacy unscoped rows readable.
type PlanRepository interface {
	Employees(ctx context.Context, tenantID, departmentID int64) ([]domain.Employee, error)
	// EmployeesWithDepartments joins department labels for the entries view.
	EmployeesWithDepartments(ctx context.Context, tenantID, departmentID int64) ([]domain.Employee, error)
	OptionalQualifications(ctx context.Context) (map[int64][]int64, error)
	MonthValues(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.MonthSeries, error)
	AbsenceFlags(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.AbsenceSeries, error)
	// MonthTotals sums values per month over active employees of one category.
	MonthTotals(ctx context.Context, year int, category string, tenantID, departmentID int64) (domain.MonthSeries, error)
	PlanTargetMonths(ctx context.Context, year int, scope string) (domain.MonthSeries, error)
	// PlanTargetsByDepartment keys the year's targets by department id
	// (0 collects rows without one).
	PlanTargetsByDepartment(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.MonthSeries, error)
	// AvailableYears lists distinct years present in values or targets for
	// the tenant, newest first.
	AvailableYears(ctx context.Context, tenantID int64) ([]int, error)
	// Sollwert returns nil when no row exists for year+scope.
	Sollwert(ctx context.Context, year int, scope string) (*domain.Sollwert, error)
	SaveSollwert(ctx context.Context, s domain.Sollwert) error
}

// PlanWriter commits a full-year save sweep atomically: either every
// employee, value, flag and target row lands, or none do.
type PlanWriter interface {
	SaveSweep(ctx context.Context, sweep domain.SaveSweep) error
}
