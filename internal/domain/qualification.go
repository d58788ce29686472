package domain

import "strings"

// Qualification is a global (not tenant-scoped) catalog entry. Entries are
// never deleted, only deactivated.
type Qualification struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Qualification groups, derived from the code prefix with a label fallback
// for legacy rows that were created before codes existed.
const (
	QualGroupMandatory  = "mandatory"
	QualGroupSpecialist = "specialist"
	QualGroupFunctional = "functional"
	QualGroupLeadership = "leadership"
	QualGroupAcuteCare  = "acute"
	QualGroupOther      = "other"
)

var qualGroupByPrefix = map[string]string{
	"REQ_":  QualGroupMandatory,
	"FACH_": QualGroupSpecialist,
	"FUNC_": QualGroupFunctional,
	"LEAD_": QualGroupLeadership,
	"AKUT_": QualGroupAcuteCare,
}

// Legacy rows carry no code; a small label map keeps them grouped.
var qualGroupByLabel = map[string]string{
	"pflegefachkraft":     QualGroupMandatory,
	"pflegefachassistenz": QualGroupMandatory,
	"ungelernte kraft":    QualGroupMandatory,
	"mfa":                 QualGroupMandatory,
	"praxisanleitung":     QualGroupFunctional,
	"notfallpflege":       QualGroupFunctional,
	"stationsleitung":     QualGroupLeadership,
}

// Group returns the display group of a qualification.
func (q Qualification) Group() string {
	for prefix, group := range qualGroupByPrefix {
		if strings.HasPrefix(q.Code, prefix) {
			return group
		}
	}
	if group, ok := qualGroupByLabel[strings.ToLower(strings.TrimSpace(q.Label))]; ok {
		return group
	}
	return QualGroupOther
}

var primaryEligibleLabels = map[string]bool{
	"pflegefachkraft":     true,
	"pflegefachassistenz": true,
	"ungelernte kraft":    true,
}

// PrimaryEligible reports whether the qualification may be used as an
// employee's single primary qualification.
func (q Qualification) PrimaryEligible() bool {
	if strings.HasPrefix(q.Code, "REQ_") {
		return true
	}
	return primaryEligibleLabels[strings.ToLower(strings.TrimSpace(q.Label))]
}
