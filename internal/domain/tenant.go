package domain

// Tenant is a hospital operator (Traeger). Rows are provisioned externally
// and read-only for this service.
type Tenant struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Department scopes all staffing data below a tenant.
type Department struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"-"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

// Membership links an authenticated email to a tenant with a role.
// Roles "admin" and "zpd" see every tenant; any other role is restricted
// to its own membership rows.
type Membership struct {
	Email  string
	Role   string
	Tenant Tenant
}
