package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cocollecte/cocal/internal/utilisateur"
)

type stubUtilisateurs struct {
	UtilisateurService

	createErr  error
	updateErr  error
	deleteErr  error
	detail     *utilisateur.Detail
	roleFiltre string
}

func (s *stubUtilisateurs) Create(_ context.Context, in utilisateur.CreateInput) (*utilisateur.Detail, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.detail, nil
}

func (s *stubUtilisateurs) Update(_ context.Context, _ int64, _ utilisateur.UpdateInput) (*utilisateur.Detail, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.detail, nil
}

func (s *stubUtilisateurs) Delete(_ context.Context, _ int64) error {
	return s.deleteErr
}

func (s *stubUtilisateurs) List(_ context.Context, role string) ([]utilisateur.Detail, error) {
	s.roleFiltre = role
	return nil, nil
}

func routeurUtilisateurs(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/admin/users", h.CreateUtilisateur)
	r.Get("/admin/users", h.ListUtilisateurs)
	r.Put("/admin/users/{id}", h.UpdateUtilisateur)
	r.Delete("/admin/users/{id}", h.DeleteUtilisateur)
	return r
}

func TestCreateUtilisateur(t *testing.T) {
	stub := &stubUtilisateurs{detail: &utilisateur.Detail{
		Utilisateur: utilisateur.Utilisateur{ID: 5, Nom: "Karim Haddad", Role: "chauffeur"},
	}}
	h := &Handler{utilisateurs: stub}
	r := routeurUtilisateurs(h)

	req := httptest.NewRequest(http.MethodPost, "/admin/users",
		strings.NewReader(`{"nom":"Karim Haddad","email":"karim@exemple.fr","mot_de_passe":"secret123!","role":"chauffeur"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, corps = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateUtilisateurEmailEnDouble(t *testing.T) {
	stub := &stubUtilisateurs{createErr: utilisateur.ErrEmailDejaUtilise}
	h := &Handler{utilisateurs: stub}
	r := routeurUtilisateurs(h)

	req := httptest.NewRequest(http.MethodPost, "/admin/users",
		strings.NewReader(`{"nom":"X","email":"karim@exemple.fr","mot_de_passe":"secret123!","role":"client"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, attendu 409", rec.Code)
	}
}

func TestCreateUtilisateurDeuxiemeAdmin(t *testing.T) {
	stub := &stubUtilisateurs{createErr: utilisateur.ErrAdminExistant}
	h := &Handler{utilisateurs: stub}
	r := routeurUtilisateurs(h)

	req := httptest.NewRequest(http.MethodPost, "/admin/users",
		strings.NewReader(`{"nom":"X","email":"deux@exemple.fr","mot_de_passe":"secret123!","role":"admin"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, attendu 409", rec.Code)
	}
}

func TestUpdateDernierAdminInterdit(t *testing.T) {
	// retirer son rôle au seul admin est une règle métier : 403, pas 409
	stub := &stubUtilisateurs{updateErr: utilisateur.ErrDernierAdmin}
	h := &Handler{utilisateurs: stub}
	r := routeurUtilisateurs(h)

	req := httptest.NewRequest(http.MethodPut, "/admin/users/1",
		strings.NewReader(`{"role":"commercial"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, attendu 403", rec.Code)
	}
}

func TestDeleteCommercialBloque(t *testing.T) {
	stub := &stubUtilisateurs{deleteErr: &utilisateur.CommercialBloqueError{
		Clients: []utilisateur.ClientRef{{ID: 2, Nom: "Boulangerie Petit"}},
	}}
	h := &Handler{utilisateurs: stub}
	r := routeurUtilisateurs(h)

	req := httptest.NewRequest(http.MethodDelete, "/admin/users/9", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, attendu 409", rec.Code)
	}

	var envelope struct {
		Error struct {
			Details struct {
				Clients []utilisateur.ClientRef `json:"clients"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Error.Details.Clients) != 1 || envelope.Error.Details.Clients[0].Nom != "Boulangerie Petit" {
		t.Fatalf("détails = %+v", envelope.Error.Details)
	}
}

func TestListUtilisateursFiltreRole(t *testing.T) {
	stub := &stubUtilisateurs{}
	h := &Handler{utilisateurs: stub}
	r := routeurUtilisateurs(h)

	req := httptest.NewRequest(http.MethodGet, "/admin/users?role=chauffeur", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if stub.roleFiltre != "chauffeur" {
		t.Fatalf("filtre transmis = %q", stub.roleFiltre)
	}
}
