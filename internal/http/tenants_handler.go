package httpapi

import (
	"errors"
	"net/http"

	"clinicon-stellenplan/internal/service"

	"go.uber.org/zap"
)

// TenantsHandler lists the tenants and departments visible to the caller.
type TenantsHandler struct {
	scopes *service.ScopeService
	logger *zap.Logger
}

func NewTenantsHandler(scopes *service.ScopeService, logger *zap.Logger) *TenantsHandler {
	return &TenantsHandler{scopes: scopes, logger: logger}
}

func (h *TenantsHandler) resolve(w http.ResponseWriter, r *http.Request) *service.Scope {
	scope, err := h.scopes.Resolve(r.Context(), userEmail(r),
		parseInt64(r.URL.Query().Get("tenant")),
		parseInt64(r.URL.Query().Get("department")))
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

// GET /api/tenants
func (h *TenantsHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	scope := h.resolve(w, r)
	if scope == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"role":    scope.Role,
		"tenant":  scope.Tenant,
		"tenants": scope.Tenants,
	})
}

// GET /api/departments
func (h *TenantsHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	scope := h.resolve(w, r)
	if scope == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"tenant":      scope.Tenant,
		"department":  scope.Department,
		"departments": scope.Departments,
	})
}
