package domain

import "testing"

func TestQualificationGroup(t *testing.T) {
	cases := []struct {
		q    Qualification
		want string
	}{
		{Qualification{Code: "REQ_PFK", Label: "Pflegefachkraft"}, QualGroupMandatory},
		{Qualification{Code: "FACH_ANAESTHESIE", Label: "Fachweiterbildung Anästhesie"}, QualGroupSpecialist},
		{Qualification{Code: "FUNC_PRAXISANLEITUNG", Label: "Praxisanleitung"}, QualGroupFunctional},
		{Qualification{Code: "LEAD_STATION", Label: "Stationsleitung"}, QualGroupLeadership},
		{Qualification{Code: "AKUT_IMC", Label: "IMC"}, QualGroupAcuteCare},
		// Legacy rows without codes fall back to the label map.
		{Qualification{Label: "Pflegefachassistenz"}, QualGroupMandatory},
		{Qualification{Label: "Stationsleitung"}, QualGroupLeadership},
		{Qualification{Label: "Etwas Anderes"}, QualGroupOther},
	}
	for _, c := range cases {
		if got := c.q.Group(); got != c.want {
			t.Fatalf("Group(%q/%q) = %q, want %q", c.q.Code, c.q.Label, got, c.want)
		}
	}
}

func TestQualificationPrimaryEligible(t *testing.T) {
	if !(Qualification{Code: "REQ_UK", Label: "Ungelernte Kraft"}).PrimaryEligible() {
		t.Fatal("REQ_ qualification should be primary eligible")
	}
	if !(Qualification{Label: "pflegefachkraft"}).PrimaryEligible() {
		t.Fatal("legacy Pflegefachkraft row should be primary eligible")
	}
	if (Qualification{Code: "FACH_OP", Label: "OP-Pflege"}).PrimaryEligible() {
		t.Fatal("specialist qualification must not be primary eligible")
	}
}
