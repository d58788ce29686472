package domain

// Employee categories. "main" rows are regular budgeted staff; "extra" rows
// are supplementary categories (trainees, apprentices) where ExtraCategory
// substitutes for the name.
const (
	CategoryMain  = "main"
	CategoryExtra = "extra"
)

// FallbackName is used when a row arrives without any display label.
const FallbackName = "Unbenannt"

// Employee is an upsert-by-natural-key staffing row scoped to a
// tenant+department. TenantID/DepartmentID may be zero for legacy rows that
// predate scoping; that state is tolerated but degraded.
type Employee struct {
	ID              int64
	PersonalNumber  string
	Name            string
	Category        string
	ExtraCategory   string
	QualificationID int64 // 0 = none
	TenantID        int64
	DepartmentID    int64
	IsHidden        bool

	// Joined department labels, populated by the entries query only.
	DeptName string
	DeptCode string
}

// DisplayName resolves the label fallback chain: name, then extra category,
// then "Unbenannt". No row may end up without a display label.
func DisplayName(name, extraCategory string) string {
	if name != "" {
		return name
	}
	if extraCategory != "" {
		return extraCategory
	}
	return FallbackName
}
