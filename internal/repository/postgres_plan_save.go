package repository

import (
	"context"
	"database/sql"
	"fmt"

	"clinicon-stellenplan/internal/domain"
)

// PostgresPlanWriter commits save sweeps. The legacy implementation ran the
// sweep statement by statement; a crash mid-save could leave a partially
// applied year. Here the whole sweep runs in one transaction.
type PostgresPlanWriter struct {
	db *sql.DB
}

func NewPostgresPlanWriter(db *sql.DB) *PostgresPlanWriter {
	return &PostgresPlanWriter{db: db}
}

var _ PlanWriter = (*PostgresPlanWriter)(nil)

func (w *PostgresPlanWriter) SaveSweep(ctx context.Context, sweep domain.SaveSweep) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, row := range sweep.Rows {
		employeeID, err := resolveEmployeeID(ctx, tx, row, sweep.TenantID, sweep.DepartmentID)
		if err != nil {
			return err
		}
		if err := replaceOptionalQualifications(ctx, tx, employeeID, row.OptionalQualifications); err != nil {
			return err
		}
		for month := 1; month <= domain.MonthCount; month++ {
			value := row.Values[month-1]
			code := row.Absences[month-1]
			if err := upsertMonthValue(ctx, tx, employeeID, sweep.Year, month, value, sweep.TenantID, sweep.DepartmentID); err != nil {
				return err
			}
			if code != "" {
				if err := upsertAbsenceFlag(ctx, tx, employeeID, sweep.Year, month, code, sweep.TenantID, sweep.DepartmentID); err != nil {
					return err
				}
			} else if err := deleteAbsenceFlag(ctx, tx, employeeID, sweep.Year, month); err != nil {
				return err
			}
		}
	}

	if sweep.PlanTargets != nil {
		for month := 1; month <= domain.MonthCount; month++ {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO wirtschaftsplan_targets (year, month, value, scope, tenant_id, department_id)
				VALUES ($1, $2, $3, $4, NULLIF($5, 0), NULLIF($6, 0))
				ON CONFLICT (year, month, scope)
				DO UPDATE SET value = EXCLUDED.value,
				              tenant_id = EXCLUDED.tenant_id,
				              department_id = EXCLUDED.department_id`,
				sweep.Year, month, sweep.PlanTargets[month-1], sweep.Scope, sweep.TenantID, sweep.DepartmentID)
			if err != nil {
				return fmt.Errorf("failed to upsert plan target: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save transaction: %w", err)
	}
	return nil
}

// resolveEmployeeID implements the upsert-by-natural-key contract. An
// explicit id always updates that row in place; otherwise the natural key
// decides between patching an existing row and inserting a new one.
func resolveEmployeeID(ctx context.Context, tx *sql.Tx, row domain.SweepRow, tenantID, departmentID int64) (int64, error) {
	name := domain.DisplayName(row.Name, row.ExtraCategory)

	if row.HasID {
		_, err := tx.ExecContext(ctx, `
			UPDATE employees
			SET personal_number = $1, name = $2, category = $3, extra_category = NULLIF($4, ''),
			    qualification_id = NULLIF($5, 0), tenant_id = NULLIF($6, 0),
			    department_id = NULLIF($7, 0), is_hidden = $8, updated_at = now()
			WHERE id = $9`,
			row.PersonalNumber, name, row.Category, row.ExtraCategory,
			row.QualificationID, tenantID, departmentID, row.IsHidden, row.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to update employee %d: %w", row.ID, err)
		}
		return row.ID, nil
	}

	var existingID int64
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM employees
		WHERE personal_number = $1 AND name = $2 AND category = $3
		  AND COALESCE(extra_category, '') = $4
		  AND COALESCE(tenant_id, 0) = $5
		  AND COALESCE(department_id, 0) = $6`,
		row.PersonalNumber, name, row.Category, row.ExtraCategory,
		tenantID, departmentID).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		// fall through to insert
	case err != nil:
		return 0, fmt.Errorf("failed to look up employee by natural key: %w", err)
	default:
		_, err := tx.ExecContext(ctx, `
			UPDATE employees
			SET qualification_id = NULLIF($1, 0), tenant_id = NULLIF($2, 0),
			    department_id = NULLIF($3, 0), is_hidden = $4, updated_at = now()
			WHERE id = $5`,
			row.QualificationID, tenantID, departmentID, row.IsHidden, existingID)
		if err != nil {
			return 0, fmt.Errorf("failed to patch employee %d: %w", existingID, err)
		}
		return existingID, nil
	}

	var newID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO employees (personal_number, name, category, extra_category,
			qualification_id, tenant_id, department_id, is_hidden)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, 0), NULLIF($6, 0), NULLIF($7, 0), $8)
		RETURNING id`,
		row.PersonalNumber, name, row.Category, row.ExtraCategory,
		row.QualificationID, tenantID, departmentID, row.IsHidden).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert employee: %w", err)
	}
	return newID, nil
}

// replaceOptionalQualifications is a full replace, not a diff: delete-all
// then insert-each, matching the save contract.
func replaceOptionalQualifications(ctx context.Context, tx *sql.Tx, employeeID int64, ids []int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM employee_qualifications WHERE employee_id = $1`, employeeID); err != nil {
		return fmt.Errorf("failed to clear optional qualifications: %w", err)
	}
	for _, qualificationID := range ids {
		if qualificationID == 0 {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO employee_qualifications (employee_id, qualification_id)
			VALUES ($1, $2)
			ON CONFLICT (employee_id, qualification_id) DO NOTHING`,
			employeeID, qualificationID)
		if err != nil {
			return fmt.Errorf("failed to insert optional qualification: %w", err)
		}
	}
	return nil
}

func upsertMonthValue(ctx context.Context, tx *sql.Tx, employeeID int64, year, month int, value float64, tenantID, departmentID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO employee_month_values (employee_id, year, month, value, tenant_id, department_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), NULLIF($6, 0))
		ON CONFLICT (employee_id, year, month)
		DO UPDATE SET value = EXCLUDED.value,
		              tenant_id = EXCLUDED.tenant_id,
		              department_id = EXCLUDED.department_id,
		              updated_at = now()`,
		employeeID, year, month, value, tenantID, departmentID)
	if err != nil {
		return fmt.Errorf("failed to upsert month value: %w", err)
	}
	return nil
}

func upsertAbsenceFlag(ctx context.Context, tx *sql.Tx, employeeID int64, year, month int, code string, tenantID, departmentID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO employee_month_flags (employee_id, year, month, code, value, tenant_id, department_id)
		VALUES ($1, $2, $3, $4, 1, NULLIF($5, 0), NULLIF($6, 0))
		ON CONFLICT (employee_id, year, month)
		DO UPDATE SET code = EXCLUDED.code,
		              value = EXCLUDED.value,
		              tenant_id = EXCLUDED.tenant_id,
		              department_id = EXCLUDED.department_id,
		              updated_at = now()`,
		employeeID, year, month, code, tenantID, departmentID)
	if err != nil {
		return fmt.Errorf("failed to upsert absence flag: %w", err)
	}
	return nil
}

func deleteAbsenceFlag(ctx context.Context, tx *sql.Tx, employeeID int64, year, month int) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM employee_month_flags WHERE employee_id = $1 AND year = $2 AND month = $3`,
		employeeID, year, month)
	if err != nil {
		return fmt.Errorf("failed to delete absence flag: %w", err)
	}
	return nil
}
