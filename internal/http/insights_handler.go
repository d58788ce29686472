package httpapi

import (
	"errors"
	"net/http"
	"time"

	"clinicon-stellenplan/internal/service"

	"go.uber.org/zap"
)

// InsightsHandler serves the station dashboard and the PPUG sync trigger.
type InsightsHandler struct {
	scopes   *service.ScopeService
	insights *service.InsightsService
	ppugSync *service.PPUGSyncService
	logger   *zap.Logger
}

func NewInsightsHandler(
	scopes *service.ScopeService,
	insights *service.InsightsService,
	ppugSync *service.PPUGSyncService,
	logger *zap.Logger,
) *InsightsHandler {
	return &InsightsHandler{scopes: scopes, insights: insights, ppugSync: ppugSync, logger: logger}
}

// GET /api/insights
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	// The scope key follows the raw department parameter, not the resolved
	// default, so an unscoped request reads the tenant-wide targets.
	departmentID := parseInt64(r.URL.Query().Get("department"))
	scope, err := h.scopes.Resolve(r.Context(), userEmail(r),
		parseInt64(r.URL.Query().Get("tenant")), departmentID)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, Fail("unauthorized"))
			return
		}
		h.logger.Error("failed to resolve scope", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal error"))
		return
	}

	year := parseInt(r.URL.Query().Get("year"), time.Now().Year())
	month := parseInt(r.URL.Query().Get("month"), 0)

	resp, err := h.insights.Get(r.Context(), scope, year, month, departmentID)
	if err != nil {
		h.logger.Error("failed to compute insights", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal error"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/insights/ppug/sync
func (h *InsightsHandler) SyncPPUG(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scopes.Resolve(r.Context(), userEmail(r),
		parseInt64(r.URL.Query().Get("tenant")), 0)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, Fail("unauthorized"))
			return
		}
		h.logger.Error("failed to resolve scope", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal error"))
		return
	}
	if scope.Role != "admin" && scope.Role != "zpd" {
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
		return
	}
	if h.ppugSync == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("PPUG sync is not configured"))
		return
	}

	now := time.Now()
	year := parseInt(r.URL.Query().Get("year"), now.Year())
	month := parseInt(r.URL.Query().Get("month"), int(now.Month()))

	result, err := h.ppugSync.Sync(r.Context(), scope.TenantID(), year, month)
	if err != nil {
		h.logger.Error("PPUG sync failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, FailDetail("Sync failed", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
