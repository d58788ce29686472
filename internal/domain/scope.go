package domain

import "fmt"

const scopeTrack = "total"

// ScopeKey partitions plan targets and Sollwert rows by budget track plus
// optional tenant/department. The string form must stay byte-compatible
// with the legacy keys ("total", "total:5:all", "total:5:7") because it is
// persisted in wirtschaftsplan_targets.scope and sollwert_values.scope.
type ScopeKey struct {
	TenantID     int64
	DepartmentID int64
}

func (k ScopeKey) String() string {
	if k.TenantID == 0 {
		return scopeTrack
	}
	if k.DepartmentID == 0 {
		return fmt.Sprintf("%s:%d:all", scopeTrack, k.TenantID)
	}
	return fmt.Sprintf("%s:%d:%d", scopeTrack, k.TenantID, k.DepartmentID)
}

// GlobalScope is the tenant-independent budget track.
func GlobalScope() ScopeKey { return ScopeKey{} }
