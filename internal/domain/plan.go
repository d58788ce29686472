package domain

import "encoding/json"

// Sollwert is the required-staffing value per year+scope. The server stores
// the client-computed value and its raw derivation inputs verbatim; it never
// recomputes the formula.
type Sollwert struct {
	Year   int             `json:"-"`
	Scope  string          `json:"-"`
	Value  float64         `json:"value"`
	Method string          `json:"method"`
	Inputs json.RawMessage `json:"inputs"`
}

// DefaultSollwertMethod is assumed when no row exists yet.
const DefaultSollwertMethod = "arbeitsplatz"

// SweepRow is one normalized employee row of a save sweep. Values and
// Absences are already reconciled: a recognized absence code forces the
// month's value to zero.
type SweepRow struct {
	ID                     int64 // 0 when the natural key decides
	HasID                  bool
	PersonalNumber         string
	Name                   string
	Category               string
	ExtraCategory          string
	QualificationID        int64
	OptionalQualifications []int64
	IsHidden               bool
	Values                 MonthSeries
	Absences               AbsenceSeries
}

// SaveSweep is the full-year write: every submitted row rewrites all 12
// months, even unchanged ones. The whole sweep commits in one transaction.
type SaveSweep struct {
	Year         int
	TenantID     int64
	DepartmentID int64
	Scope        string
	Rows         []SweepRow
	PlanTargets  *MonthSeries // nil leaves existing targets untouched
}
