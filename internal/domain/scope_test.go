package domain

import "testing"

func TestScopeKeySerialization(t *testing.T) {
	cases := []struct {
		key  ScopeKey
		want string
	}{
		{ScopeKey{}, "total"},
		{ScopeKey{TenantID: 5}, "total:5:all"},
		{ScopeKey{TenantID: 5, DepartmentID: 7}, "total:5:7"},
		// A department without a tenant cannot be addressed.
		{ScopeKey{DepartmentID: 7}, "total"},
	}
	for _, c := range cases {
		if got := c.key.String(); got != c.want {
			t.Fatalf("ScopeKey%+v = %q, want %q", c.key, got, c.want)
		}
	}
}

func TestScopeKeysIsolateTenants(t *testing.T) {
	a := ScopeKey{TenantID: 1, DepartmentID: 3}.String()
	b := ScopeKey{TenantID: 2, DepartmentID: 3}.String()
	if a == b {
		t.Fatalf("different tenants produced the same scope key: %q", a)
	}
	if GlobalScope().String() != "total" {
		t.Fatalf("unexpected global scope key: %q", GlobalScope().String())
	}
}
