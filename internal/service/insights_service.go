package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"clinicon-stellenplan/internal/domain"
	"clinicon-stellenplan/internal/repository"

	"go.uber.org/zap"
)

// InsightsService computes the station-level dashboard: occupancy,
// mandatory-qualification coverage, absence totals and the yearly trend.
// Station side tables (capacity, actuals, PPUG, qualification mix) are
// authoritative when populated; otherwise the employee-derived aggregates
// stand in and departments play the station role.
type InsightsService struct {
	insights       repository.InsightsRepository
	plans          repository.PlanRepository
	qualifications *QualificationService
	logger         *zap.Logger
}

func NewInsightsService(
	insights repository.InsightsRepository,
	plans repository.PlanRepository,
	qualifications *QualificationService,
	logger *zap.Logger,
) *InsightsService {
	return &InsightsService{
		insights:       insights,
		plans:          plans,
		qualifications: qualifications,
		logger:         logger,
	}
}

// StationInsight is one dashboard row.
type StationInsight struct {
	Station         string  `json:"station"`
	BedsPlanned     float64 `json:"beds_planned"`
	BedsOccupied    float64 `json:"beds_occupied"`
	OccupancyPct    float64 `json:"occupancy_pct"`
	QualMixLabel    string  `json:"qual_mix_label"`
	VarianceHours   float64 `json:"variance_hours"`
	SollVZA         float64 `json:"soll_vza"`
	IstVZA          float64 `json:"ist_vza"`
	FulfillPct      float64 `json:"fulfillment_pct"`
	QualCovPct      float64 `json:"qual_coverage_pct"`
	MutterschutzVZA float64 `json:"mutterschutz_vza"`
	ElternzeitVZA   float64 `json:"elternzeit_vza"`
	KolVZA          float64 `json:"kol_vza"`
}

// MandatoryQual is the coverage row for one primary-eligible qualification.
type MandatoryQual struct {
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	SollVZA     float64 `json:"soll_vza"`
	IstVZA      float64 `json:"ist_vza"`
	CoveragePct float64 `json:"coverage_pct"`
}

// TrendPoint is one month of the occupancy/staffing trend.
type TrendPoint struct {
	Date                 string  `json:"date"`
	OccupancyPct         float64 `json:"occupancy_pct"`
	StaffedHours         float64 `json:"staffed_hours"`
	RequiredHours        float64 `json:"required_hours"`
	WirtschaftsplanHours float64 `json:"wirtschaftsplan_hours"`
	SollwertHours        float64 `json:"sollwert_hours"`
}

// ShiftMixEntry is a placeholder series kept for dashboard compatibility.
type ShiftMixEntry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// InsightsMeta describes the response provenance.
type InsightsMeta struct {
	UpdatedAt  string `json:"updated_at"`
	RangeLabel string `json:"range_label"`
	Source     string `json:"source"`
}

// InsightsResponse answers GET /api/insights.
type InsightsResponse struct {
	OK             bool             `json:"ok"`
	Year           int              `json:"year"`
	Month          int              `json:"month"`
	Tenant         *domain.Tenant   `json:"tenant"`
	Meta           InsightsMeta     `json:"meta"`
	Stations       []StationInsight `json:"stations"`
	MandatoryQuals []MandatoryQual  `json:"mandatory_quals"`
	Trend          []TrendPoint     `json:"trend"`
	ShiftMix       []ShiftMixEntry  `json:"shift_mix"`
	HasStationData bool             `json:"hasStationData"`
}

type mandatoryDef struct {
	code     string
	label    string
	patterns []string
}

// Primary-eligible qualification buckets and the token patterns that map
// catalog rows (including legacy, code-less ones) onto them.
var mandatoryDefs = []mandatoryDef{
	{code: "PFK", label: "Pflegefachkraft", patterns: []string{"reqpfk", "pflegefachkraft", "pfk"}},
	{code: "PFA", label: "Pflegefachassistenz", patterns: []string{"reqpfa", "pflegefachassistenz", "pfa"}},
	{code: "UK", label: "Ungelernte Kraft", patterns: []string{"requk", "ungelerntekraft", "ungelernte", "uk"}},
	{code: "MFA", label: "MFA", patterns: []string{"reqmfa", "mfa"}},
}

func matchMandatory(q domain.Qualification) *mandatoryDef {
	tokens := []string{}
	if key := domain.MatchKey(q.Code); key != "" {
		tokens = append(tokens, key)
	}
	if key := domain.MatchKey(q.Label); key != "" {
		tokens = append(tokens, key)
	}
	for i := range mandatoryDefs {
		for _, pattern := range mandatoryDefs[i].patterns {
			for _, token := range tokens {
				if token == pattern || strings.Contains(token, pattern) {
					return &mandatoryDefs[i]
				}
			}
		}
	}
	return nil
}

// resolveMonth picks the reporting month: an explicit valid month wins,
// then the latest month with actuals, then the latest with planned
// capacity, then January.
func (s *InsightsService) resolveMonth(ctx context.Context, year, requested int) (int, error) {
	if requested >= 1 && requested <= domain.MonthCount {
		return requested, nil
	}
	latest, err := s.insights.LatestActualsMonth(ctx, year)
	if err != nil {
		return 0, err
	}
	if latest >= 1 {
		return latest, nil
	}
	latest, err = s.insights.LatestCapacityMonth(ctx, year)
	if err != nil {
		return 0, err
	}
	if latest >= 1 {
		return latest, nil
	}
	return 1, nil
}

func (s *InsightsService) Get(ctx context.Context, scope *Scope, year, requestedMonth int, departmentID int64) (*InsightsResponse, error) {
	tenantID := scope.TenantID()
	scopeKey := domain.ScopeKey{TenantID: tenantID, DepartmentID: departmentID}.String()

	month, err := s.resolveMonth(ctx, year, requestedMonth)
	if err != nil {
		return nil, err
	}

	stationRows, err := s.insights.StationRows(ctx, year, month, tenantID)
	if err != nil {
		return nil, err
	}
	hasSollData := false
	hasIstData := false
	for _, row := range stationRows {
		if row.VKSoll > 0 {
			hasSollData = true
		}
		if row.VKIst > 0 {
			hasIstData = true
		}
	}
	hasStationData := hasSollData || hasIstData

	qualifications, err := s.qualifications.List(ctx)
	if err != nil {
		return nil, err
	}
	qualByID := map[int64]domain.Qualification{}
	for _, q := range qualifications {
		qualByID[q.ID] = q
	}

	mix, err := s.insights.QualificationMix(ctx, year, month, tenantID)
	if err != nil {
		return nil, err
	}
	topMix := map[int64]domain.QualificationMixRow{}
	mixByStation := map[int64]map[int64]float64{}
	for _, row := range mix {
		if top, ok := topMix[row.StationID]; !ok || row.Total > top.Total {
			topMix[row.StationID] = row
		}
		if mixByStation[row.StationID] == nil {
			mixByStation[row.StationID] = map[int64]float64{}
		}
		mixByStation[row.StationID][row.QualificationID] += row.Total
	}

	departments := scope.Departments
	deptIDByKey := map[string]int64{}
	for _, d := range departments {
		if key := domain.MatchKey(d.Name); key != "" {
			deptIDByKey[key] = d.ID
		}
		if key := domain.MatchKey(d.Code); key != "" {
			deptIDByKey[key] = d.ID
		}
	}

	empTotals, err := s.insights.MonthTotalsByDepartment(ctx, year, month, tenantID, departmentID)
	if err != nil {
		return nil, err
	}
	empTotalByKey := map[string]float64{}
	var empTotalSum float64
	for _, t := range empTotals {
		if key := domain.MatchKey(t.Label); key != "" {
			empTotalByKey[key] = t.Total
		}
		empTotalSum += t.Total
	}

	absences, err := s.insights.AbsenceTotalsByDepartment(ctx, year, month, tenantID)
	if err != nil {
		return nil, err
	}

	mandatoryTotals := map[string]*MandatoryQual{}
	for _, def := range mandatoryDefs {
		mandatoryTotals[def.code] = &MandatoryQual{Code: def.code, Label: def.label}
	}

	useEmpTotals := empTotalSum > 0

	stations := []StationInsight{}
	switch {
	case useEmpTotals:
		// Employee-derived view: departments stand in for stations.
		for _, d := range departments {
			key := domain.MatchKey(firstNonEmpty(d.Name, d.Code))
			ist := empTotalByKey[key]
			abs := absences[d.ID]
			stations = append(stations, StationInsight{
				Station:         firstNonEmpty(d.Name, d.Code, "Station"),
				BedsOccupied:    ist,
				QualMixLabel:    "Keine Angabe",
				VarianceHours:   ist,
				IstVZA:          ist,
				MutterschutzVZA: abs.MS,
				ElternzeitVZA:   abs.EZ,
				KolVZA:          abs.KOL,
			})
		}
	case hasStationData:
		for _, row := range stationRows {
			soll := row.VKSoll
			ist := row.VKIst
			stationKey := domain.MatchKey(firstNonEmpty(row.Name, row.Code))
			if ist == 0 {
				if fallback, ok := empTotalByKey[stationKey]; ok {
					ist = fallback
				}
			}

			mixLabel := "Keine Angabe"
			if top, ok := topMix[row.ID]; ok {
				if q, ok := qualByID[top.QualificationID]; ok {
					mixLabel = firstNonEmpty(q.Label, q.Code, "Qualifikation")
				}
			}

			var mandatorySum float64
			for qualID, total := range mixByStation[row.ID] {
				q := qualByID[qualID]
				if def := matchMandatory(q); def != nil {
					mandatorySum += total
					agg := mandatoryTotals[def.code]
					agg.SollVZA += total
					agg.IstVZA += total
				}
			}

			var occupancy, coverage, fulfillment float64
			if soll > 0 {
				occupancy = ist / soll * 100
				coverage = mandatorySum / soll * 100
				fulfillment = ist / soll * 100
			}
			abs := absences[deptIDByKey[stationKey]]
			stations = append(stations, StationInsight{
				Station:         firstNonEmpty(row.Name, row.Code, "Station"),
				BedsPlanned:     soll,
				BedsOccupied:    ist,
				OccupancyPct:    occupancy,
				QualMixLabel:    mixLabel,
				VarianceHours:   ist - soll,
				SollVZA:         soll,
				IstVZA:          ist,
				FulfillPct:      fulfillment,
				QualCovPct:      coverage,
				MutterschutzVZA: abs.MS,
				ElternzeitVZA:   abs.EZ,
				KolVZA:          abs.KOL,
			})
		}
	default:
		// Nothing anywhere: emit the zero-total department labels so the
		// dashboard still renders rows.
		for _, t := range empTotals {
			stations = append(stations, StationInsight{
				Station:       firstNonEmpty(t.Label, "Station"),
				BedsOccupied:  t.Total,
				QualMixLabel:  "Keine Angabe",
				VarianceHours: t.Total,
				IstVZA:        t.Total,
			})
		}
	}

	if departmentID != 0 {
		var deptKey string
		for _, d := range departments {
			if d.ID == departmentID {
				deptKey = domain.MatchKey(firstNonEmpty(d.Name, d.Code))
				break
			}
		}
		if deptKey != "" {
			filtered := stations[:0]
			for _, st := range stations {
				if domain.MatchKey(st.Station) == deptKey {
					filtered = append(filtered, st)
				}
			}
			stations = filtered
		}
	}

	actualTotals := map[int]float64{}
	if hasIstData {
		actualTotals, err = s.insights.ActualTotalsByMonth(ctx, year, tenantID)
		if err != nil {
			return nil, err
		}
	}
	if len(actualTotals) == 0 {
		actualTotals, err = s.insights.MainTotalsByMonth(ctx, year, tenantID, departmentID)
		if err != nil {
			return nil, err
		}
	}

	planTotals := map[int]float64{}
	if hasSollData {
		planTotals, err = s.insights.CapacityTotalsByMonth(ctx, year, tenantID)
		if err != nil {
			return nil, err
		}
	}
	if len(planTotals) == 0 {
		planTotals, err = s.insights.GlobalPlanTotalsByMonth(ctx, year, tenantID, departmentID)
		if err != nil {
			return nil, err
		}
	}

	scopeTargets, err := s.plans.PlanTargetMonths(ctx, year, scopeKey)
	if err != nil {
		return nil, err
	}
	sollwert, err := s.plans.Sollwert(ctx, year, scopeKey)
	if err != nil {
		return nil, err
	}
	var sollwertValue float64
	if sollwert != nil {
		sollwertValue = sollwert.Value
	}

	if useEmpTotals || !hasStationData {
		primaryTotals, err := s.insights.PrimaryQualificationTotals(ctx, year, month, tenantID, departmentID)
		if err != nil {
			return nil, err
		}
		for qualID, total := range primaryTotals {
			q := qualByID[qualID]
			if def := matchMandatory(q); def != nil {
				agg := mandatoryTotals[def.code]
				agg.SollVZA += total
				agg.IstVZA += total
			}
		}
	}

	mandatoryQuals := []MandatoryQual{}
	for _, def := range mandatoryDefs {
		agg := mandatoryTotals[def.code]
		if agg.SollVZA > 0 {
			agg.CoveragePct = agg.IstVZA / agg.SollVZA * 100
		}
		mandatoryQuals = append(mandatoryQuals, *agg)
	}

	trend := make([]TrendPoint, 0, domain.MonthCount)
	for m := 1; m <= domain.MonthCount; m++ {
		soll := planTotals[m]
		ist := actualTotals[m]
		var occupancy float64
		if soll > 0 {
			occupancy = ist / soll * 100
		}
		trend = append(trend, TrendPoint{
			Date:                 fmt.Sprintf("%d-%02d-01", year, m),
			OccupancyPct:         occupancy,
			StaffedHours:         ist,
			RequiredHours:        soll,
			WirtschaftsplanHours: scopeTargets[m-1],
			SollwertHours:        sollwertValue,
		})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })

	return &InsightsResponse{
		OK:     true,
		Year:   year,
		Month:  month,
		Tenant: scope.Tenant,
		Meta: InsightsMeta{
			UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
			RangeLabel: fmt.Sprintf("%d-%02d", year, month),
			Source:     "postgres",
		},
		Stations:       stations,
		MandatoryQuals: mandatoryQuals,
		Trend:          trend,
		ShiftMix: []ShiftMixEntry{
			{Label: "Frueh"},
			{Label: "Spaet"},
			{Label: "Nacht"},
		},
		HasStationData: hasStationData,
	}, nil
}
