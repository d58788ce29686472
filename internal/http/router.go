package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router uses the standard library ServeMux; the API surface is small and
// fully enumerated.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodGet(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, Fail("Method not allowed"))
			return
		}
		h(w, r)
	}
}

func methodPost(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, Fail("Method not allowed"))
			return
		}
		h(w, r)
	}
}

// RegisterPlanRoutes wires the staffing-plan endpoints.
func (r *Router) RegisterPlanRoutes(h *PlanHandler) {
	r.Handle("/api/stellenplan", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.GetPlan(w, req)
		case http.MethodPost:
			h.SavePlan(w, req)
		default:
			writeJSON(w, http.StatusMethodNotAllowed, Fail("Method not allowed"))
		}
	})
	r.Handle("/api/stellenplan/summary", methodGet(h.Summary))
	r.Handle("/api/stellenplan/entries", methodGet(h.Entries))
	r.Handle("/api/stellenplan/export", methodGet(h.Export))
	r.Handle("/api/stellenplan/sollwert", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.GetSollwert(w, req)
		case http.MethodPost:
			h.SaveSollwert(w, req)
		default:
			writeJSON(w, http.StatusMethodNotAllowed, Fail("Method not allowed"))
		}
	})
}

// RegisterInsightsRoutes wires the dashboard and PPUG sync endpoints.
func (r *Router) RegisterInsightsRoutes(h *InsightsHandler) {
	r.Handle("/api/insights", methodGet(h.Get))
	r.Handle("/api/insights/ppug/sync", methodPost(h.SyncPPUG))
}

// RegisterTenantRoutes wires the tenant and department listings.
func (r *Router) RegisterTenantRoutes(h *TenantsHandler) {
	r.Handle("/api/tenants", methodGet(h.ListTenants))
	r.Handle("/api/departments", methodGet(h.ListDepartments))
}

// RegisterFallback answers everything else with the JSON 404 envelope.
func (r *Router) RegisterFallback() {
	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, Fail("Not found."))
	})
}
