package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"clinicon-stellenplan/internal/service"

	"go.uber.org/zap"
)

const maxSaveBodyBytes = 10 << 20

// PlanHandler serves the staffing-plan endpoints: the editor payload, the
// save sweep, summaries, Sollwert and the flat entries/export views.
type PlanHandler struct {
	scopes *service.ScopeService
	plans  *service.PlanService
	logger *zap.Logger
}

func NewPlanHandler(scopes *service.ScopeService, plans *service.PlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{scopes: scopes, plans: plans, logger: logger}
}

// resolveScope authenticates the caller and resolves the active tenant and
// department. Writes the error response itself and returns nil on failure.
func (h *PlanHandler) resolveScope(w http.ResponseWriter, r *http.Request, tenantID, departmentID int64) *service.Scope {
	scope, err := h.scopes.Resolve(r.Context(), userEmail(r), tenantID, departmentID)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, Fail("unauthorized"))
			return nil
		}
		h.logger.Error("failed to resolve scope", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal error"))
		return nil
	}
	return scope
}

// resolveDepartmentScope is resolveScope plus the scope-completeness gate.
// The plan, sollwert and export endpoints read and write department-scoped
// rows; a caller whose scope resolves without a tenant or department would
// otherwise operate on unscoped rows, so the request is rejected instead.
func (h *PlanHandler) resolveDepartmentScope(w http.ResponseWriter, r *http.Request, tenantID, departmentID int64) *service.Scope {
	scope := h.resolveScope(w, r, tenantID, departmentID)
	if scope == nil {
		return nil
	}
	if scope.Tenant == nil || scope.Department == nil {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id and department_id are required."))
		return nil
	}
	return scope
}

func requestYear(r *http.Request) int {
	return parseInt(r.URL.Query().Get("year"), time.Now().Year())
}

// GET /api/stellenplan
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	scope := h.resolveDepartmentScope(w, r,
		parseInt64(r.URL.Query().Get("tenant")),
		parseInt64(r.URL.Query().Get("department")))
	if scope == nil {
		return
	}

	resp, err := h.plans.GetPlan(r.Context(), scope, requestYear(r))
	if err != nil {
		h.logger.Error("failed to load plan", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal error"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/stellenplan
func (h *PlanHandler) SavePlan(w http.ResponseWriter, r *http.Request) {
	var req service.SavePlanRequest
	if err := readBodyJSON(r, maxSaveBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid JSON body"))
		return
	}

	scope := h.resolveDepartmentScope(w, r, int64(req.TenantID), int64(req.DepartmentID))
	if scope == nil {
		return
	}

	year := int(req.Year)
	if year == 0 {
		year = requestYear(r)
	}

	if err := h.plans.Save(r.Context(), scope, year, &req); err != nil {
		h.logger.Error("save sweep failed",
			zap.Int("year", year),
			zap.Int64("tenant_id", scope.TenantID()),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, FailDetail("Save failed", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "year": year})
}

// GET /api/stellenplan/summary
func (h *PlanHandler) Summary(w http.ResponseWriter, r *http.Request) {
	scope := h.resolveScope(w, r,
		parseInt64(r.URL.Query().Get("tenant")),
		parseInt64(r.URL.Query().Get("department")))
	if scope == nil {
		return
	}

	resp, err := h.plans.Summary(r.Context(), scope, requestYear(r))
	if err != nil {
		h.logger.Error("failed to compute summary", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal error"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/stellenplan/entries
func (h *PlanHandler) Entries(w http.ResponseWriter, r *http.Request) {
	departmentID := parseInt64(r.URL.Query().Get("department"))
	scope := h.resolveScope(w, r, parseInt64(r.URL.Query().Get("tenant")), departmentID)
	if scope == nil {
		return
	}
	// The entries view spans departments but is still tenant-scoped.
	if scope.Tenant == nil {
		writeJSON(w, http.StatusBadRequest, Fail("tenant_id is required."))
		return
	}

	resp, err := h.plans.Entries(r.Context(), scope, requestYear(r), departmentID)
	if err != nil {
		h.logger.Error("failed to load entries", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal error"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/stellenplan/sollwert
func (h *PlanHandler) GetSollwert(w http.ResponseWriter, r *http.Request) {
	scope := h.resolveDepartmentScope(w, r,
		parseInt64(r.URL.Query().Get("tenant")),
		parseInt64(r.URL.Query().Get("department")))
	if scope == nil {
		return
	}

	resp, err := h.plans.GetSollwert(r.Context(), scope, requestYear(r))
	if err != nil {
		h.logger.Error("failed to load sollwert", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal error"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/stellenplan/sollwert
func (h *PlanHandler) SaveSollwert(w http.ResponseWriter, r *http.Request) {
	var req service.SaveSollwertRequest
	if err := readBodyJSON(r, maxSaveBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid JSON body"))
		return
	}

	scope := h.resolveDepartmentScope(w, r, int64(req.TenantID), int64(req.DepartmentID))
	if scope == nil {
		return
	}

	year := int(req.Year)
	if year == 0 {
		year = requestYear(r)
	}

	if err := h.plans.SaveSollwert(r.Context(), scope, year, &req); err != nil {
		h.logger.Error("failed to save sollwert", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, FailDetail("Save failed", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "year": year})
}

// GET /api/stellenplan/export
func (h *PlanHandler) Export(w http.ResponseWriter, r *http.Request) {
	scope := h.resolveDepartmentScope(w, r,
		parseInt64(r.URL.Query().Get("tenant")),
		parseInt64(r.URL.Query().Get("department")))
	if scope == nil {
		return
	}

	year := requestYear(r)
	plan, err := h.plans.GetPlan(r.Context(), scope, year)
	if err != nil {
		h.logger.Error("failed to load plan for export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal error"))
		return
	}

	data, err := GeneratePlanExport(plan)
	if err != nil {
		h.logger.Error("failed to generate export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Export failed"))
		return
	}

	filename := fmt.Sprintf("stellenplan_%d.xlsx", year)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
