package collecte

import "testing"

func TestTransitionAutorisee(t *testing.T) {
	cas := []struct {
		de, vers string
		attendu  bool
	}{
		{StatutEnAttente, StatutEnCours, true},
		{StatutEnAttente, StatutAnnulee, true},
		{StatutEnAttente, StatutProbleme, true},
		{StatutEnAttente, StatutTerminee, false},
		{StatutEnCours, StatutTerminee, true},
		{StatutEnCours, StatutAnnulee, true},
		{StatutEnCours, StatutProbleme, true},
		{StatutEnCours, StatutEnAttente, false},
		{StatutProbleme, StatutEnCours, true},
		{StatutProbleme, StatutAnnulee, true},
		{StatutProbleme, StatutTerminee, false},
		{StatutTerminee, StatutEnCours, false},
		{StatutTerminee, StatutAnnulee, false},
		{StatutAnnulee, StatutEnAttente, false},
		{StatutAnnulee, StatutEnCours, false},
		{"inconnu", StatutEnCours, false},
	}

	for _, c := range cas {
		if got := TransitionAutorisee(c.de, c.vers); got != c.attendu {
			t.Errorf("TransitionAutorisee(%q, %q) = %v, attendu %v", c.de, c.vers, got, c.attendu)
		}
	}
}

func TestStatutsTerminauxSansSortie(t *testing.T) {
	for _, statut := range []string{StatutTerminee, StatutAnnulee} {
		if !EstTerminal(statut) {
			t.Errorf("EstTerminal(%q) = false", statut)
		}
		if sorties := transitions[statut]; len(sorties) != 0 {
			t.Errorf("statut %q devrait être sans sortie, a %v", statut, sorties)
		}
	}
}

func TestTransitionProblemeAutorisee(t *testing.T) {
	cas := []struct {
		de, vers string
		attendu  bool
	}{
		{ProblemeEnAttente, ProblemeEnCours, true},
		{ProblemeEnAttente, ProblemeResolu, true},
		{ProblemeEnCours, ProblemeResolu, true},
		{ProblemeEnCours, ProblemeEnAttente, false},
		{ProblemeResolu, ProblemeEnCours, false},
		{ProblemeResolu, ProblemeEnAttente, false},
	}

	for _, c := range cas {
		if got := TransitionProblemeAutorisee(c.de, c.vers); got != c.attendu {
			t.Errorf("TransitionProblemeAutorisee(%q, %q) = %v, attendu %v", c.de, c.vers, got, c.attendu)
		}
	}
}

func TestIsValidStatut(t *testing.T) {
	for _, statut := range []string{StatutEnAttente, StatutEnCours, StatutTerminee, StatutAnnulee, StatutProbleme} {
		if !IsValidStatut(statut) {
			t.Errorf("IsValidStatut(%q) = false", statut)
		}
	}
	for _, statut := range []string{"", "pending", "EN_ATTENTE "} {
		if IsValidStatut(statut) {
			t.Errorf("IsValidStatut(%q) = true", statut)
		}
	}
	if !IsValidStatut(NormalizeStatut("  EN_ATTENTE ")) {
		t.Error("NormalizeStatut devrait ramener à la forme canonique")
	}
}

func TestUpdateInputVide(t *testing.T) {
	if !(UpdateInput{}).Vide() {
		t.Error("UpdateInput zéro devrait être vide")
	}
	notes := "accès par l'arrière"
	if (UpdateInput{Notes: &notes}).Vide() {
		t.Error("UpdateInput avec notes ne devrait pas être vide")
	}
}
