package domain

import "strings"

// StationInsightRow is one station joined with its per-month capacity,
// actuals and PPUG compliance side tables. Soll/Ist are zero when the side
// tables carry no row for the requested month.
type StationInsightRow struct {
	ID          int64
	Name        string
	Code        string
	Type        string
	VKSoll      float64
	VKIst       float64
	PPUGStatus  string
	RatioActual float64
	RatioTarget float64
}

// QualificationMixRow is the per-station qualification FTE mix for a month.
type QualificationMixRow struct {
	StationID       int64
	QualificationID int64
	Total           float64
}

// PPUGStatus is the externally sourced staffing-ratio compliance state for
// one station and month.
type PPUGStatus struct {
	StationID   int64
	Year        int
	Month       int
	Status      string
	RatioActual float64
	RatioTarget float64
}

// AbsenceTotals aggregates flag values per department for one month.
type AbsenceTotals struct {
	MS  float64
	EZ  float64
	KOL float64
}

// DepartmentTotal is an employee-derived FTE total labelled with the
// owning department.
type DepartmentTotal struct {
	DepartmentID int64 // 0 for unscoped legacy rows
	Label        string
	Total        float64
}

// MatchKey folds a station or department label for the case- and
// punctuation-insensitive name match used when station side tables are
// absent and departments stand in for stations.
func MatchKey(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
