package util

import "testing"

func TestValidateEmail(t *testing.T) {
	for _, email := range []string{"claire@exemple.fr", "a+b@sous.domaine.fr"} {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q) = %v", email, err)
		}
	}
	for _, email := range []string{"", "sans-arobase", "a@"} {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) accepté", email)
		} else if !IsValidation(err) {
			t.Errorf("ValidateEmail(%q) devrait retourner une erreur de validation", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("court"); err == nil {
		t.Error("mot de passe de 5 caractères accepté")
	}
	if err := ValidatePassword("suffisant"); err != nil {
		t.Errorf("mot de passe valide refusé: %v", err)
	}
}

func TestRequireString(t *testing.T) {
	if err := RequireString("  ", "nom"); err == nil {
		t.Error("chaîne blanche acceptée")
	}
	if err := RequireString("ok", "nom"); err != nil {
		t.Errorf("chaîne non vide refusée: %v", err)
	}
}
