package vehicule

import "testing"

func TestNormalizeStatut(t *testing.T) {
	if got := NormalizeStatut(""); got != StatutDisponible {
		t.Fatalf("défaut = %q", got)
	}
	if got := NormalizeStatut("  EN_MAINTENANCE "); got != StatutEnMaintenance {
		t.Fatalf("normalisation = %q", got)
	}
}

func TestIsValidStatut(t *testing.T) {
	for _, s := range []string{StatutDisponible, StatutEnMaintenance, StatutEnMission} {
		if !IsValidStatut(s) {
			t.Errorf("IsValidStatut(%q) = false", s)
		}
	}
	if IsValidStatut("au_garage") {
		t.Error("statut inconnu accepté")
	}
}
