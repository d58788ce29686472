package repository

import (
	"context"
	"database/sql"
	"fmt"

	"clinicon-stellenplan/internal/domain"
)

type PostgresInsightsRepository struct {
	db *sql.DB
}

func NewPostgresInsightsRepository(db *sql.DB) *PostgresInsightsRepository {
	return &PostgresInsightsRepository{db: db}
}

var _ InsightsRepository = (*PostgresInsightsRepository)(nil)

func (r *PostgresInsightsRepository) ListStations(ctx context.Context, tenantID int64) ([]domain.StationInsightRow, error) {
	query := `SELECT id, name, COALESCE(code, ''), COALESCE(type, '')
		FROM stations WHERE is_active`
	args := []any{}
	if tenantID != 0 {
		query += " AND tenant_id = $1"
		args = append(args, tenantID)
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	defer rows.Close()

	stations := []domain.StationInsightRow{}
	for rows.Next() {
		var s domain.StationInsightRow
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.Type); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stations: %w", err)
	}
	return stations, nil
}

func (r *PostgresInsightsRepository) StationRows(ctx context.Context, year, month int, tenantID int64) ([]domain.StationInsightRow, error) {
	query := `SELECT s.id, s.name, COALESCE(s.code, ''), COALESCE(s.type, ''),
		COALESCE(cap.vk_soll, 0), COALESCE(act.vk_ist, 0),
		COALESCE(pp.status, 'OK'), COALESCE(pp.ratio_actual, 0), COALESCE(pp.ratio_target, 0)
		FROM stations s
		LEFT JOIN station_capacity cap ON cap.station_id = s.id AND cap.year = $1 AND cap.month = $2
		LEFT JOIN staffing_actuals act ON act.station_id = s.id AND act.year = $1 AND act.month = $2
		LEFT JOIN ppug_status pp ON pp.station_id = s.id AND pp.year = $1 AND pp.month = $2
		WHERE s.is_active`
	args := []any{year, month}
	if tenantID != 0 {
		query += " AND s.tenant_id = $3"
		args = append(args, tenantID)
	}
	query += " ORDER BY s.name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query station rows: %w", err)
	}
	defer rows.Close()

	stations := []domain.StationInsightRow{}
	for rows.Next() {
		var s domain.StationInsightRow
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.Type,
			&s.VKSoll, &s.VKIst, &s.PPUGStatus, &s.RatioActual, &s.RatioTarget); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate station rows: %w", err)
	}
	return stations, nil
}

func (r *PostgresInsightsRepository) QualificationMix(ctx context.Context, year, month int, tenantID int64) ([]domain.QualificationMixRow, error) {
	query := `SELECT station_id, qualification_id, SUM(vk_value)
		FROM station_qualification_mix
		WHERE year = $1 AND month = $2`
	args := []any{year, month}
	if tenantID != 0 {
		query += " AND tenant_id = $3"
		args = append(args, tenantID)
	}
	query += " GROUP BY station_id, qualification_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query qualification mix: %w", err)
	}
	defer rows.Close()

	mix := []domain.QualificationMixRow{}
	for rows.Next() {
		var m domain.QualificationMixRow
		if err := rows.Scan(&m.StationID, &m.QualificationID, &m.Total); err != nil {
			return nil, fmt.Errorf("failed to scan qualification mix row: %w", err)
		}
		mix = append(mix, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate qualification mix: %w", err)
	}
	return mix, nil
}

func (r *PostgresInsightsRepository) LatestActualsMonth(ctx context.Context, year int) (int, error) {
	return r.latestMonth(ctx, `SELECT COALESCE(MAX(month), 0) FROM staffing_actuals WHERE year = $1`, year)
}

func (r *PostgresInsightsRepository) LatestCapacityMonth(ctx context.Context, year int) (int, error) {
	return r.latestMonth(ctx, `SELECT COALESCE(MAX(month), 0) FROM station_capacity WHERE year = $1`, year)
}

func (r *PostgresInsightsRepository) latestMonth(ctx context.Context, query string, year int) (int, error) {
	var month int
	if err := r.db.QueryRowContext(ctx, query, year).Scan(&month); err != nil {
		return 0, fmt.Errorf("failed to query latest month: %w", err)
	}
	return month, nil
}

func (r *PostgresInsightsRepository) ActualTotalsByMonth(ctx context.Context, year int, tenantID int64) (map[int]float64, error) {
	query := `SELECT month, SUM(vk_ist) FROM staffing_actuals WHERE year = $1`
	args := []any{year}
	if tenantID != 0 {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	query += " GROUP BY month"
	return r.monthTotals(ctx, query, args...)
}

func (r *PostgresInsightsRepository) CapacityTotalsByMonth(ctx context.Context, year int, tenantID int64) (map[int]float64, error) {
	query := `SELECT month, SUM(vk_soll) FROM station_capacity WHERE year = $1`
	args := []any{year}
	if tenantID != 0 {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	query += " GROUP BY month"
	return r.monthTotals(ctx, query, args...)
}

func (r *PostgresInsightsRepository) MainTotalsByMonth(ctx context.Context, year int, tenantID, departmentID int64) (map[int]float64, error) {
	query := `SELECT v.month, SUM(v.value)
		FROM employee_month_values v
		JOIN employees e ON e.id = v.employee_id
		WHERE v.year = $1 AND e.category = 'main' AND e.is_active`
	args := []any{year}
	argIdx := 2
	if tenantID != 0 {
		query += fmt.Sprintf(" AND e.tenant_id = $%d", argIdx)
		args = append(args, tenantID)
		argIdx++
	}
	if departmentID != 0 {
		query += fmt.Sprintf(" AND e.department_id = $%d", argIdx)
		args = append(args, departmentID)
		argIdx++
	}
	query += " GROUP BY v.month"
	return r.monthTotals(ctx, query, args...)
}

func (r *PostgresInsightsRepository) GlobalPlanTotalsByMonth(ctx context.Context, year int, tenantID, departmentID int64) (map[int]float64, error) {
	query := `SELECT month, SUM(value)
		FROM wirtschaftsplan_targets
		WHERE year = $1 AND scope = 'total'`
	args := []any{year}
	argIdx := 2
	if tenantID != 0 {
		query += fmt.Sprintf(" AND tenant_id = $%d", argIdx)
		args = append(args, tenantID)
		argIdx++
	}
	if departmentID != 0 {
		query += fmt.Sprintf(" AND department_id = $%d", argIdx)
		args = append(args, departmentID)
		argIdx++
	}
	query += " GROUP BY month"
	return r.monthTotals(ctx, query, args...)
}

func (r *PostgresInsightsRepository) monthTotals(ctx context.Context, query string, args ...any) (map[int]float64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query month totals: %w", err)
	}
	defer rows.Close()

	totals := map[int]float64{}
	for rows.Next() {
		var month int
		var total float64
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("failed to scan month total: %w", err)
		}
		totals[month] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate month totals: %w", err)
	}
	return totals, nil
}

func (r *PostgresInsightsRepository) MonthTotalsByDepartment(ctx context.Context, year, month int, tenantID, departmentID int64) ([]domain.DepartmentTotal, error) {
	query := `SELECT COALESCE(e.department_id, 0),
		COALESCE(d.name, d.code, e.extra_category, 'Station'),
		SUM(v.value)
		FROM employee_month_values v
		JOIN employees e ON e.id = v.employee_id
		LEFT JOIN departments d ON d.id = e.department_id
		WHERE v.year = $1 AND v.month = $2 AND e.category = 'main' AND e.is_active`
	args := []any{year, month}
	argIdx := 3
	if tenantID != 0 {
		query += fmt.Sprintf(" AND e.tenant_id = $%d", argIdx)
		args = append(args, tenantID)
		argIdx++
	}
	if departmentID != 0 {
		query += fmt.Sprintf(" AND e.department_id = $%d", argIdx)
		args = append(args, departmentID)
		argIdx++
	}
	query += ` GROUP BY COALESCE(e.department_id, 0), COALESCE(d.name, d.code, e.extra_category, 'Station')
		ORDER BY 2`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query department totals: %w", err)
	}
	defer rows.Close()

	totals := []domain.DepartmentTotal{}
	for rows.Next() {
		var t domain.DepartmentTotal
		if err := rows.Scan(&t.DepartmentID, &t.Label, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan department total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate department totals: %w", err)
	}
	return totals, nil
}

func (r *PostgresInsightsRepository) AbsenceTotalsByDepartment(ctx context.Context, year, month int, tenantID int64) (map[int64]domain.AbsenceTotals, error) {
	query := `SELECT COALESCE(department_id, 0), code, SUM(value)
		FROM employee_month_flags
		WHERE year = $1 AND month = $2`
	args := []any{year, month}
	if tenantID != 0 {
		query += " AND tenant_id = $3"
		args = append(args, tenantID)
	}
	query += " GROUP BY COALESCE(department_id, 0), code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query absence totals: %w", err)
	}
	defer rows.Close()

	totals := map[int64]domain.AbsenceTotals{}
	for rows.Next() {
		var deptID int64
		var code string
		var total float64
		if err := rows.Scan(&deptID, &code, &total); err != nil {
			return nil, fmt.Errorf("failed to scan absence total: %w", err)
		}
		agg := totals[deptID]
		switch code {
		case domain.AbsenceMaternity:
			agg.MS += total
		case domain.AbsenceParental:
			agg.EZ += total
		case domain.AbsenceCollective:
			agg.KOL += total
		}
		totals[deptID] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate absence totals: %w", err)
	}
	return totals, nil
}

func (r *PostgresInsightsRepository) PrimaryQualificationTotals(ctx context.Context, year, month int, tenantID, departmentID int64) (map[int64]float64, error) {
	query := `SELECT COALESCE(e.qualification_id, 0), SUM(v.value)
		FROM employee_month_values v
		JOIN employees e ON e.id = v.employee_id
		WHERE v.year = $1 AND v.month = $2 AND e.category = 'main' AND e.is_active`
	args := []any{year, month}
	argIdx := 3
	if tenantID != 0 {
		query += fmt.Sprintf(" AND e.tenant_id = $%d", argIdx)
		args = append(args, tenantID)
		argIdx++
	}
	if departmentID != 0 {
		query += fmt.Sprintf(" AND e.department_id = $%d", argIdx)
		args = append(args, departmentID)
		argIdx++
	}
	query += " GROUP BY COALESCE(e.qualification_id, 0)"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query qualification totals: %w", err)
	}
	defer rows.Close()

	totals := map[int64]float64{}
	for rows.Next() {
		var qualID int64
		var total float64
		if err := rows.Scan(&qualID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan qualification total: %w", err)
		}
		totals[qualID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate qualification totals: %w", err)
	}
	return totals, nil
}

func (r *PostgresInsightsRepository) UpsertPPUGStatus(ctx context.Context, statuses []domain.PPUGStatus) error {
	for _, s := range statuses {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO ppug_status (station_id, year, month, status, ratio_actual, ratio_target)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (station_id, year, month)
			DO UPDATE SET status = EXCLUDED.status,
			              ratio_actual = EXCLUDED.ratio_actual,
			              ratio_target = EXCLUDED.ratio_target,
			              updated_at = now()`,
			s.StationID, s.Year, s.Month, s.Status, s.RatioActual, s.RatioTarget)
		if err != nil {
			return fmt.Errorf("failed to upsert ppug status: %w", err)
		}
	}
	return nil
}
