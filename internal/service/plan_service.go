package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"clinicon-stellenplan/internal/domain"
	"clinicon-stellenplan/internal/repository"
	"clinicon-stellenplan/internal/store"

	"go.uber.org/zap"
)

const summaryCacheTTL = 5 * time.Minute

// PlanService implements the staffing-plan read/write operations: the full
// plan view, the transactional save sweep, the monthly summary, the
// cross-department entries view and the Sollwert track.
type PlanService struct {
	plans          repository.PlanRepository
	writer         repository.PlanWriter
	qualifications *QualificationService
	cache          store.KV
	logger         *zap.Logger
}

func NewPlanService(
	plans repository.PlanRepository,
	writer repository.PlanWriter,
	qualifications *QualificationService,
	cache store.KV,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		plans:          plans,
		writer:         writer,
		qualifications: qualifications,
		cache:          cache,
		logger:         logger,
	}
}

// PlanRow is one employee row in plan responses. For extra rows the
// Category field carries the free-text extra-category label.
type PlanRow struct {
	ID                     int64                `json:"id"`
	PersonalNumber         string               `json:"personalNumber"`
	Name                   string               `json:"name"`
	Category               string               `json:"category"`
	QualificationID        *int64               `json:"qualificationId"`
	OptionalQualifications []int64              `json:"optionalQualifications"`
	Months                 domain.MonthSeries   `json:"months"`
	Absences               domain.AbsenceSeries `json:"absences"`
	IsHidden               bool                 `json:"isHidden"`
}

// PlanTargetsPayload carries the budget-target months of one scope.
type PlanTargetsPayload struct {
	Scope  string             `json:"scope"`
	Months domain.MonthSeries `json:"months"`
}

// SollwertPayload is the wire shape of a Sollwert row.
type SollwertPayload struct {
	Value  float64         `json:"value"`
	Method string          `json:"method"`
	Inputs json.RawMessage `json:"inputs"`
}

// PlanResponse answers GET /api/stellenplan.
type PlanResponse struct {
	OK             bool                   `json:"ok"`
	Year           int                    `json:"year"`
	Tenant         *domain.Tenant         `json:"tenant"`
	Tenants        []domain.Tenant        `json:"tenants"`
	Department     *domain.Department     `json:"department"`
	Departments    []domain.Department    `json:"departments"`
	Qualifications []domain.Qualification `json:"qualifications"`
	Employees      []PlanRow              `json:"employees"`
	Extras         []PlanRow              `json:"extras"`
	PlanTargets    PlanTargetsPayload     `json:"planTargets"`
	Sollwert       SollwertPayload        `json:"sollwert"`
}

func (s *PlanService) GetPlan(ctx context.Context, scope *Scope, year int) (*PlanResponse, error) {
	if err := s.qualifications.EnsureSeeded(ctx); err != nil {
		return nil, err
	}
	qualifications, err := s.qualifications.List(ctx)
	if err != nil {
		return nil, err
	}

	tenantID := scope.TenantID()
	departmentID := scope.DepartmentID()

	employees, err := s.plans.Employees(ctx, tenantID, departmentID)
	if err != nil {
		return nil, err
	}
	optional, err := s.plans.OptionalQualifications(ctx)
	if err != nil {
		return nil, err
	}
	values, err := s.plans.MonthValues(ctx, year, tenantID, departmentID)
	if err != nil {
		return nil, err
	}
	flags, err := s.plans.AbsenceFlags(ctx, year, tenantID, departmentID)
	if err != nil {
		return nil, err
	}

	scopeKey := scope.ScopeKey().String()
	targets, err := s.plans.PlanTargetMonths(ctx, year, scopeKey)
	if err != nil {
		return nil, err
	}
	sollwert, err := s.plans.Sollwert(ctx, year, scopeKey)
	if err != nil {
		return nil, err
	}

	mains := []PlanRow{}
	extras := []PlanRow{}
	for _, e := range employees {
		row := PlanRow{
			ID:                     e.ID,
			PersonalNumber:         e.PersonalNumber,
			Name:                   e.Name,
			Category:               e.ExtraCategory,
			OptionalQualifications: optional[e.ID],
			Months:                 values[e.ID],
			Absences:               flags[e.ID],
			IsHidden:               e.IsHidden,
		}
		if row.OptionalQualifications == nil {
			row.OptionalQualifications = []int64{}
		}
		if e.QualificationID != 0 {
			qualID := e.QualificationID
			row.QualificationID = &qualID
		}
		if e.Category == domain.CategoryExtra {
			extras = append(extras, row)
		} else {
			mains = append(mains, row)
		}
	}

	return &PlanResponse{
		OK:             true,
		Year:           year,
		Tenant:         scope.Tenant,
		Tenants:        scope.Tenants,
		Department:     scope.Department,
		Departments:    scope.Departments,
		Qualifications: qualifications,
		Employees:      mains,
		Extras:         extras,
		PlanTargets:    PlanTargetsPayload{Scope: scopeKey, Months: targets},
		Sollwert:       sollwertPayload(sollwert),
	}, nil
}

func sollwertPayload(s *domain.Sollwert) SollwertPayload {
	if s == nil {
		return SollwertPayload{Method: domain.DefaultSollwertMethod, Inputs: json.RawMessage("{}")}
	}
	inputs := s.Inputs
	if len(inputs) == 0 {
		inputs = json.RawMessage("{}")
	}
	return SollwertPayload{Value: s.Value, Method: s.Method, Inputs: inputs}
}

// SaveEmployeeRow is the write shape of one submitted row. Field coercion
// is deliberately lenient: unparsable ids and numbers degrade to zero
// instead of failing the save. The id field alone rejects strings outright
// so that client-generated row uids route through the natural-key path;
// qualification ids arrive as numeric strings from select inputs and must
// keep their value.
type SaveEmployeeRow struct {
	ID                     domain.FlexID      `json:"id"`
	PersonalNumber         string             `json:"personalNumber"`
	Name                   string             `json:"name"`
	Category               string             `json:"category"`
	QualificationID        domain.FlexInt     `json:"qualificationId"`
	OptionalQualifications []domain.FlexInt   `json:"optionalQualifications"`
	Months                 []domain.FlexFloat `json:"months"`
	Absences               []string           `json:"absences"`
	IsHidden               bool               `json:"isHidden"`
}

// SavePlanRequest is the POST /api/stellenplan payload.
type SavePlanRequest struct {
	Year         domain.FlexInt    `json:"year"`
	TenantID     domain.FlexInt    `json:"tenantId"`
	DepartmentID domain.FlexInt    `json:"departmentId"`
	Employees    []SaveEmployeeRow `json:"employees"`
	Extras       []SaveEmployeeRow `json:"extras"`
	PlanTargets  *struct {
		Months []domain.FlexFloat `json:"months"`
	} `json:"planTargets"`
}

// Save runs the full-year sweep for the resolved scope in one transaction
// and invalidates the cached summary for that scope.
func (s *PlanService) Save(ctx context.Context, scope *Scope, year int, req *SavePlanRequest) error {
	sweep := domain.SaveSweep{
		Year:         year,
		TenantID:     scope.TenantID(),
		DepartmentID: scope.DepartmentID(),
		Scope:        scope.ScopeKey().String(),
	}
	for _, row := range req.Employees {
		sweep.Rows = append(sweep.Rows, normalizeSaveRow(row, domain.CategoryMain))
	}
	for _, row := range req.Extras {
		sweep.Rows = append(sweep.Rows, normalizeSaveRow(row, domain.CategoryExtra))
	}
	if req.PlanTargets != nil {
		var months domain.MonthSeries
		for i := 0; i < domain.MonthCount && i < len(req.PlanTargets.Months); i++ {
			months[i] = float64(req.PlanTargets.Months[i])
		}
		sweep.PlanTargets = &months
	}

	if err := s.writer.SaveSweep(ctx, sweep); err != nil {
		return err
	}

	if err := s.cache.Del(ctx, summaryCacheKey(year, sweep.Scope)); err != nil {
		s.logger.Warn("Failed to invalidate summary cache", zap.Error(err))
	}
	return nil
}

// normalizeSaveRow reconciles a submitted row into its persisted form. A
// recognized absence code wins over the submitted number: the month's value
// is forced to zero and the flag becomes the authoritative signal.
func normalizeSaveRow(row SaveEmployeeRow, category string) domain.SweepRow {
	out := domain.SweepRow{
		ID:              int64(row.ID),
		HasID:           row.ID != 0,
		PersonalNumber:  strings.TrimSpace(row.PersonalNumber),
		Name:            strings.TrimSpace(row.Name),
		Category:        category,
		ExtraCategory:   strings.TrimSpace(row.Category),
		QualificationID: int64(row.QualificationID),
		IsHidden:        row.IsHidden,
	}
	for _, id := range row.OptionalQualifications {
		if id != 0 {
			out.OptionalQualifications = append(out.OptionalQualifications, int64(id))
		}
	}
	for month := 1; month <= domain.MonthCount; month++ {
		var value float64
		if month-1 < len(row.Months) {
			value = float64(row.Months[month-1])
		}
		var code string
		if month-1 < len(row.Absences) {
			code = domain.NormalizeAbsenceCode(row.Absences[month-1])
		}
		if code != "" {
			value = 0
		}
		out.Values[month-1] = value
		out.Absences[month-1] = code
	}
	return out
}

// Series is one aggregated staffing track over a year.
type Series struct {
	Months  domain.MonthSeries `json:"months"`
	Total   float64            `json:"total"`
	Average float64            `json:"average"`
}

func newSeries(months domain.MonthSeries) Series {
	return Series{Months: months, Total: months.Total(), Average: months.Average()}
}

// SummaryResponse answers GET /api/stellenplan/summary.
type SummaryResponse struct {
	OK        bool   `json:"ok"`
	Year      int    `json:"year"`
	Main      Series `json:"main"`
	Extras    Series `json:"extras"`
	Combined  Series `json:"combined"`
	Plan      Series `json:"plan"`
	Deviation Series `json:"deviation"`
}

func summaryCacheKey(year int, scope string) string {
	return fmt.Sprintf("stellenplan:summary:%d:%s", year, scope)
}

// Summary aggregates the monthly totals for one scope. Responses are
// cached briefly; every save for the scope drops the cached entry.
func (s *PlanService) Summary(ctx context.Context, scope *Scope, year int) (*SummaryResponse, error) {
	scopeKey := scope.ScopeKey().String()
	cacheKey := summaryCacheKey(year, scopeKey)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var resp SummaryResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	}

	tenantID := scope.TenantID()
	departmentID := scope.DepartmentID()

	main, err := s.plans.MonthTotals(ctx, year, domain.CategoryMain, tenantID, departmentID)
	if err != nil {
		return nil, err
	}
	extras, err := s.plans.MonthTotals(ctx, year, domain.CategoryExtra, tenantID, departmentID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.PlanTargetMonths(ctx, year, scopeKey)
	if err != nil {
		return nil, err
	}

	var combined, deviation domain.MonthSeries
	for i := 0; i < domain.MonthCount; i++ {
		combined[i] = main[i] + extras[i]
		deviation[i] = combined[i] - plan[i]
	}

	resp := &SummaryResponse{
		OK:        true,
		Year:      year,
		Main:      newSeries(main),
		Extras:    newSeries(extras),
		Combined:  newSeries(combined),
		Plan:      newSeries(plan),
		Deviation: newSeries(deviation),
	}

	if encoded, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(encoded), summaryCacheTTL); err != nil {
			s.logger.Warn("Failed to cache summary", zap.Error(err))
		}
	}
	return resp, nil
}

// Entry is one denormalized employee row of the entries view.
type Entry struct {
	Dept           string             `json:"dept"`
	DeptID         *int64             `json:"dept_id"`
	Year           int                `json:"year"`
	PersonalNumber string             `json:"personal_number"`
	Name           string             `json:"name"`
	Category       string             `json:"category"`
	ExtraCategory  string             `json:"extra_category"`
	Qual           string             `json:"qual"`
	Include        bool               `json:"include"`
	Months         domain.MonthSeries `json:"months"`
	Values         domain.MonthSeries `json:"values"`
}

// EntriesResponse answers GET /api/stellenplan/entries.
type EntriesResponse struct {
	OK          bool                `json:"ok"`
	Year        int                 `json:"year"`
	Tenant      *domain.Tenant      `json:"tenant"`
	Departments []domain.Department `json:"departments"`
	Entries     []Entry             `json:"entries"`
	PlanByDept  map[string]float64  `json:"plan_by_dept"`
	PlanTotal   float64             `json:"plan_total"`
	Years       []int               `json:"years"`
}

// Entries builds the cross-department view: every employee row of the
// tenant (optionally filtered to one department), joined qualification
// labels, per-department plan averages and the list of available years.
func (s *PlanService) Entries(ctx context.Context, scope *Scope, year int, departmentID int64) (*EntriesResponse, error) {
	if err := s.qualifications.EnsureSeeded(ctx); err != nil {
		return nil, err
	}
	qualifications, err := s.qualifications.List(ctx)
	if err != nil {
		return nil, err
	}
	qualByID := map[int64]domain.Qualification{}
	for _, q := range qualifications {
		qualByID[q.ID] = q
	}

	tenantID := scope.TenantID()
	optional, err := s.plans.OptionalQualifications(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := s.plans.EmployeesWithDepartments(ctx, tenantID, departmentID)
	if err != nil {
		return nil, err
	}
	values, err := s.plans.MonthValues(ctx, year, tenantID, departmentID)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	for _, e := range employees {
		qualIDs := map[int64]bool{}
		for _, id := range optional[e.ID] {
			qualIDs[id] = true
		}
		if e.QualificationID != 0 {
			qualIDs[e.QualificationID] = true
		}
		ids := make([]int64, 0, len(qualIDs))
		for id := range qualIDs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		labels := []string{}
		for _, id := range ids {
			q, ok := qualByID[id]
			if !ok {
				continue
			}
			if q.Label != "" {
				labels = append(labels, q.Label)
			} else if q.Code != "" {
				labels = append(labels, q.Code)
			}
		}

		deptLabel := firstNonEmpty(e.DeptName, e.DeptCode, e.ExtraCategory, "Station")
		entry := Entry{
			Dept:           deptLabel,
			Year:           year,
			PersonalNumber: e.PersonalNumber,
			Name:           e.Name,
			Category:       e.Category,
			ExtraCategory:  e.ExtraCategory,
			Qual:           strings.Join(labels, ", "),
			Include:        !e.IsHidden,
			Months:         values[e.ID],
			Values:         values[e.ID],
		}
		if e.DepartmentID != 0 {
			deptID := e.DepartmentID
			entry.DeptID = &deptID
		}
		entries = append(entries, entry)
	}

	targetsByDept, err := s.plans.PlanTargetsByDepartment(ctx, year, tenantID, departmentID)
	if err != nil {
		return nil, err
	}
	planByDept := map[string]float64{}
	var planTotal float64
	for _, dept := range scope.Departments {
		label := firstNonEmpty(dept.Name, dept.Code, fmt.Sprintf("%d", dept.ID))
		avg := targetsByDept[dept.ID].Average()
		planByDept[label] = avg
		planTotal += avg
	}

	years, err := s.plans.AvailableYears(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		years = []int{year}
	}

	return &EntriesResponse{
		OK:          true,
		Year:        year,
		Tenant:      scope.Tenant,
		Departments: scope.Departments,
		Entries:     entries,
		PlanByDept:  planByDept,
		PlanTotal:   planTotal,
		Years:       years,
	}, nil
}

// SollwertResponse answers GET /api/stellenplan/sollwert.
type SollwertResponse struct {
	OK       bool            `json:"ok"`
	Year     int             `json:"year"`
	Sollwert SollwertPayload `json:"sollwert"`
}

func (s *PlanService) GetSollwert(ctx context.Context, scope *Scope, year int) (*SollwertResponse, error) {
	row, err := s.plans.Sollwert(ctx, year, scope.ScopeKey().String())
	if err != nil {
		return nil, err
	}
	return &SollwertResponse{OK: true, Year: year, Sollwert: sollwertPayload(row)}, nil
}

// SaveSollwertRequest is the POST /api/stellenplan/sollwert payload. The
// value arrives client-computed; the server persists it verbatim together
// with its raw derivation inputs.
type SaveSollwertRequest struct {
	Year         domain.FlexInt   `json:"year"`
	TenantID     domain.FlexInt   `json:"tenantId"`
	DepartmentID domain.FlexInt   `json:"departmentId"`
	Value        domain.FlexFloat `json:"value"`
	Method       string           `json:"method"`
	Inputs       json.RawMessage  `json:"inputs"`
}

func (s *PlanService) SaveSollwert(ctx context.Context, scope *Scope, year int, req *SaveSollwertRequest) error {
	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = domain.DefaultSollwertMethod
	}
	inputs := req.Inputs
	if len(inputs) == 0 {
		inputs = json.RawMessage("{}")
	}
	return s.plans.SaveSollwert(ctx, domain.Sollwert{
		Year:   year,
		Scope:  scope.ScopeKey().String(),
		Value:  float64(req.Value),
		Method: method,
		Inputs: inputs,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
