package messagerie

import (
	"context"
	"errors"
	"testing"
)

// Les contrôles d'entrée se font avant tout accès aux données : un service
// sans repository suffit à les tester.
func TestSendValidation(t *testing.T) {
	svc := NewService(nil)

	cas := []struct {
		nom string
		in  SendInput
	}{
		{"sujet vide", SendInput{DestinataireID: 2, DestinataireRole: "client", Corps: "bonjour"}},
		{"corps vide", SendInput{DestinataireID: 2, DestinataireRole: "client", Sujet: "s"}},
		{"role vide", SendInput{DestinataireID: 2, Sujet: "s", Corps: "c"}},
	}

	for _, c := range cas {
		if _, err := svc.Send(context.Background(), 1, "admin", c.in); err == nil {
			t.Errorf("%s: envoi accepté", c.nom)
		}
	}
}

func TestSendASoiMemeRefuse(t *testing.T) {
	svc := NewService(nil)

	in := SendInput{DestinataireID: 1, DestinataireRole: "admin", Sujet: "s", Corps: "c"}
	if _, err := svc.Send(context.Background(), 1, "admin", in); !errors.Is(err, ErrDestinataireEstExpediteur) {
		t.Fatalf("err = %v", err)
	}
}
