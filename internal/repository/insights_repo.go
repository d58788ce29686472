package repository

import (
	"context"

	"clinicon-stellenplan/internal/domain"
)

// InsightsRepository serves the station-level dashboard: the capacity/
// actuals/PPUG side tables plus the employee-derived fallbacks used when
// those tables are empty.
type InsightsRepository interface {
	ListStations(ctx context.Context, tenantID int64) ([]domain.StationInsightRow, error)
	// StationRows joins capacity, actuals and PPUG status for one month.
	StationRows(ctx context.Context, year, month int, tenantID int64) ([]domain.StationInsightRow, error)
	QualificationMix(ctx context.Context, year, month int, tenantID int64) ([]domain.QualificationMixRow, error)
	// LatestActualsMonth / LatestCapacityMonth return 0 when the year has
	// no rows at all.
	LatestActualsMonth(ctx context.Context, year int) (int, error)
	LatestCapacityMonth(ctx context.Context, year int) (int, error)
	ActualTotalsByMonth(ctx context.Context, year int, tenantID int64) (map[int]float64, error)
	CapacityTotalsByMonth(ctx context.Context, year int, tenantID int64) (map[int]float64, error)
	// MainTotalsByMonth is the employee-derived fallback for actuals.
	MainTotalsByMonth(ctx context.Context, year int, tenantID, departmentID int64) (map[int]float64, error)
	// GlobalPlanTotalsByMonth is the wirtschaftsplan fallback for capacity
	// (legacy "total" scope rows).
	GlobalPlanTotalsByMonth(ctx context.Context, year int, tenantID, departmentID int64) (map[int]float64, error)
	// MonthTotalsByDepartment sums main-category FTE per department for one
	// month, labelled for the station name match.
	MonthTotalsByDepartment(ctx context.Context, year, month int, tenantID, departmentID int64) ([]domain.DepartmentTotal, error)
	AbsenceTotalsByDepartment(ctx context.Context, year, month int, tenantID int64) (map[int64]domain.AbsenceTotals, error)
	// PrimaryQualificationTotals sums main-category FTE per primary
	// qualification for one month.
	PrimaryQualificationTotals(ctx context.Context, year, month int, tenantID, departmentID int64) (map[int64]float64, error)
	UpsertPPUGStatus(ctx context.Context, statuses []domain.PPUGStatus) error
}
