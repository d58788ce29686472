package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"clinicon-stellenplan/internal/domain"
)

type PostgresPlanRepository struct {
	db *sql.DB
}

func NewPostgresPlanRepository(db *sql.DB) *PostgresPlanRepository {
	return &PostgresPlanRepository{db: db}
}

var _ PlanRepository = (*PostgresPlanRepository)(nil)

func (r *PostgresPlanRepository) Employees(ctx context.Context, tenantID, departmentID int64) ([]domain.Employee, error) {
	query := `SELECT id, COALESCE(personal_number, ''), COALESCE(name, ''), category,
		COALESCE(extra_category, ''), COALESCE(qualification_id, 0),
		COALESCE(tenant_id, 0), COALESCE(department_id, 0), is_hidden
		FROM employees WHERE is_active`
	args := []any{}
	argIdx := 1
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
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := []domain.Employee{}
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.PersonalNumber, &e.Name, &e.Category,
			&e.ExtraCategory, &e.QualificationID, &e.TenantID, &e.DepartmentID, &e.IsHidden); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

func (r *PostgresPlanRepository) EmployeesWithDepartments(ctx context.Context, tenantID, departmentID int64) ([]domain.Employee, error) {
	query := `SELECT e.id, COALESCE(e.personal_number, ''), COALESCE(e.name, ''), e.category,
		COALESCE(e.extra_category, ''), COALESCE(e.qualification_id, 0),
		COALESCE(e.tenant_id, 0), COALESCE(e.department_id, 0), e.is_hidden,
		COALESCE(d.name, ''), COALESCE(d.code, '')
		FROM employees e
		LEFT JOIN departments d ON d.id = e.department_id
		WHERE e.is_active`
	args := []any{}
	argIdx := 1
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
	query += " ORDER BY e.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees with departments: %w", err)
	}
	defer rows.Close()

	employees := []domain.Employee{}
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.PersonalNumber, &e.Name, &e.Category,
			&e.ExtraCategory, &e.QualificationID, &e.TenantID, &e.DepartmentID, &e.IsHidden,
			&e.DeptName, &e.DeptCode); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

func (r *PostgresPlanRepository) OptionalQualifications(ctx context.Context) (map[int64][]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT employee_id, qualification_id FROM employee_qualifications ORDER BY employee_id, qualification_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list optional qualifications: %w", err)
	}
	defer rows.Close()

	result := map[int64][]int64{}
	for rows.Next() {
		var employeeID, qualificationID int64
		if err := rows.Scan(&employeeID, &qualificationID); err != nil {
			return nil, fmt.Errorf("failed to scan optional qualification: %w", err)
		}
		result[employeeID] = append(result[employeeID], qualificationID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate optional qualifications: %w", err)
	}
	return result, nil
}

func (r *PostgresPlanRepository) MonthValues(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.MonthSeries, error) {
	query := `SELECT employee_id, month, value FROM employee_month_values WHERE year = $1`
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

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list month values: %w", err)
	}
	defer rows.Close()

	result := map[int64]domain.MonthSeries{}
	for rows.Next() {
		var employeeID int64
		var month int
		var value float64
		if err := rows.Scan(&employeeID, &month, &value); err != nil {
			return nil, fmt.Errorf("failed to scan month value: %w", err)
		}
		series := result[employeeID]
		series.Set(month, value)
		result[employeeID] = series
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate month values: %w", err)
	}
	return result, nil
}

func (r *PostgresPlanRepository) AbsenceFlags(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.AbsenceSeries, error) {
	query := `SELECT employee_id, month, code FROM employee_month_flags WHERE year = $1`
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

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list absence flags: %w", err)
	}
	defer rows.Close()

	result := map[int64]domain.AbsenceSeries{}
	for rows.Next() {
		var employeeID int64
		var month int
		var code string
		if err := rows.Scan(&employeeID, &month, &code); err != nil {
			return nil, fmt.Errorf("failed to scan absence flag: %w", err)
		}
		if month < 1 {
			month = 1
		}
		if month > domain.MonthCount {
			month = domain.MonthCount
		}
		series := result[employeeID]
		series[month-1] = strings.ToUpper(code)
		result[employeeID] = series
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate absence flags: %w", err)
	}
	return result, nil
}

func (r *PostgresPlanRepository) MonthTotals(ctx context.Context, year int, category string, tenantID, departmentID int64) (domain.MonthSeries, error) {
	var series domain.MonthSeries
	query := `SELECT v.month, SUM(v.value)
		FROM employee_month_values v
		JOIN employees e ON e.id = v.employee_id
		WHERE v.year = $1 AND e.category = $2 AND e.is_active`
	args := []any{year, category}
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
	query += " GROUP BY v.month"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return series, fmt.Errorf("failed to query month totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var month int
		var total float64
		if err := rows.Scan(&month, &total); err != nil {
			return series, fmt.Errorf("failed to scan month total: %w", err)
		}
		series.Set(month, total)
	}
	if err := rows.Err(); err != nil {
		return series, fmt.Errorf("failed to iterate month totals: %w", err)
	}
	return series, nil
}

func (r *PostgresPlanRepository) PlanTargetMonths(ctx context.Context, year int, scope string) (domain.MonthSeries, error) {
	var series domain.MonthSeries
	rows, err := r.db.QueryContext(ctx,
		`SELECT month, value FROM wirtschaftsplan_targets WHERE year = $1 AND scope = $2`,
		year, scope)
	if err != nil {
		return series, fmt.Errorf("failed to query plan targets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var month int
		var value float64
		if err := rows.Scan(&month, &value); err != nil {
			return series, fmt.Errorf("failed to scan plan target: %w", err)
		}
		series.Set(month, value)
	}
	if err := rows.Err(); err != nil {
		return series, fmt.Errorf("failed to iterate plan targets: %w", err)
	}
	return series, nil
}

func (r *PostgresPlanRepository) PlanTargetsByDepartment(ctx context.Context, year int, tenantID, departmentID int64) (map[int64]domain.MonthSeries, error) {
	query := `SELECT COALESCE(department_id, 0), month, value
		FROM wirtschaftsplan_targets WHERE year = $1`
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

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan targets by department: %w", err)
	}
	defer rows.Close()

	result := map[int64]domain.MonthSeries{}
	for rows.Next() {
		var deptID int64
		var month int
		var value float64
		if err := rows.Scan(&deptID, &month, &value); err != nil {
			return nil, fmt.Errorf("failed to scan plan target: %w", err)
		}
		series := result[deptID]
		series.Set(month, value)
		result[deptID] = series
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan targets: %w", err)
	}
	return result, nil
}

func (r *PostgresPlanRepository) AvailableYears(ctx context.Context, tenantID int64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT year FROM employee_month_values WHERE COALESCE(tenant_id, 0) IN (0, $1)
		UNION
		SELECT DISTINCT year FROM wirtschaftsplan_targets WHERE COALESCE(tenant_id, 0) IN (0, $1)`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query available years: %w", err)
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("failed to scan year: %w", err)
		}
		years = append(years, year)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate years: %w", err)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (r *PostgresPlanRepository) Sollwert(ctx context.Context, year int, scope string) (*domain.Sollwert, error) {
	var s domain.Sollwert
	var inputs []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value, COALESCE(method, ''), COALESCE(inputs_json, '{}'::jsonb)
		 FROM sollwert_values WHERE year = $1 AND scope = $2`,
		year, scope).Scan(&s.Value, &s.Method, &inputs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sollwert: %w", err)
	}
	s.Year = year
	s.Scope = scope
	s.Inputs = json.RawMessage(inputs)
	if s.Method == "" {
		s.Method = domain.DefaultSollwertMethod
	}
	return &s, nil
}

func (r *PostgresPlanRepository) SaveSollwert(ctx context.Context, s domain.Sollwert) error {
	inputs := s.Inputs
	if len(inputs) == 0 {
		inputs = json.RawMessage("{}")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sollwert_values (year, value, method, inputs_json, scope)
		VALUES ($1, $2, $3, $4::jsonb, $5)
		ON CONFLICT (year, scope)
		DO UPDATE SET value = EXCLUDED.value,
		              method = EXCLUDED.method,
		              inputs_json = EXCLUDED.inputs_json,
		              updated_at = now()`,
		s.Year, s.Value, s.Method, string(inputs), s.Scope)
	if err != nil {
		return fmt.Errorf("failed to save sollwert: %w", err)
	}
	return nil
}
