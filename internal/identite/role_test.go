package identite

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"client", RoleClient, false},
		{"Chauffeur", RoleChauffeur, false},
		{" COMMERCIAL ", RoleCommercial, false},
		{"admin", RoleAdmin, false},
		{"superadmin", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseRole(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRole(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRequetesCouvrentTousLesRoles(t *testing.T) {
	for _, role := range Roles() {
		if _, ok := requetes[role]; !ok {
			t.Fatalf("missing profile query for role %q", role)
		}
	}
	if len(requetes) != len(Roles()) {
		t.Fatalf("dispatch table has %d entries, want %d", len(requetes), len(Roles()))
	}
}
