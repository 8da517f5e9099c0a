package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cocollecte/cocal/internal/collecte"
	"github.com/cocollecte/cocal/internal/http/middleware"
	"github.com/cocollecte/cocal/internal/identite"
)

type stubCollectes struct {
	CollecteService

	createErr error
	statutErr error
	demande   *collecte.DemandeCollecte

	creePourClient   int64
	statutDemande    string
	chauffeurAppele  int64
	commercialAppele *int64
}

func (s *stubCollectes) Create(_ context.Context, clientID int64, in collecte.CreateInput) (*collecte.DemandeCollecte, error) {
	s.creePourClient = clientID
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.demande, nil
}

func (s *stubCollectes) UpdateByClient(_ context.Context, _, _ int64, _ collecte.UpdateInput) (*collecte.DemandeCollecte, error) {
	if s.statutErr != nil {
		return nil, s.statutErr
	}
	return s.demande, nil
}

func (s *stubCollectes) UpdateStatutChauffeur(_ context.Context, _, chauffeurID int64, statut string) (*collecte.DemandeCollecte, error) {
	s.chauffeurAppele = chauffeurID
	s.statutDemande = statut
	if s.statutErr != nil {
		return nil, s.statutErr
	}
	return s.demande, nil
}

func (s *stubCollectes) UpdateProblemeStatut(_ context.Context, _ int64, statut string, commercialID *int64) (*collecte.Probleme, error) {
	s.commercialAppele = commercialID
	s.statutDemande = statut
	return &collecte.Probleme{ID: 1, Statut: statut}, nil
}

func (s *stubCollectes) Affecter(_ context.Context, _ int64, _ collecte.AffectationInput, commercialID *int64) (*collecte.DemandeCollecte, error) {
	s.commercialAppele = commercialID
	if s.statutErr != nil {
		return nil, s.statutErr
	}
	return s.demande, nil
}

func profilClient(clientID int64) *identite.Profil {
	return &identite.Profil{UtilisateurID: 10, Role: identite.RoleClient, ClientID: &clientID}
}

func profilChauffeur(chauffeurID int64) *identite.Profil {
	return &identite.Profil{UtilisateurID: 20, Role: identite.RoleChauffeur, ChauffeurID: &chauffeurID}
}

func requeteAvecProfil(method, cible string, corps string, profil *identite.Profil) *http.Request {
	req := httptest.NewRequest(method, cible, strings.NewReader(corps))
	return req.WithContext(middleware.WithProfil(req.Context(), profil))
}

func routeurCollecte(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/client/demande-collecte", h.CreateDemande)
	r.Put("/client/demande-collecte/{id}", h.UpdateDemandeClient)
	r.Put("/chauffeur/collectes/{id}/statut", h.UpdateStatutChauffeur)
	r.Put("/commercial/problemes/{id}/statut", h.UpdateProblemeCommercial)
	r.Put("/commercial/demande/{id}/affectation", h.AffecterDemandeCommercial)
	r.Put("/admin/collectes/{id}/affectation", h.AffecterDemande)
	return r
}

func TestCreateDemande(t *testing.T) {
	stub := &stubCollectes{demande: &collecte.DemandeCollecte{ID: 42, Statut: collecte.StatutEnAttente}}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	req := requeteAvecProfil(http.MethodPost, "/client/demande-collecte",
		`{"type_dechet":"carton","date_souhaitee":"2026-09-15"}`, profilClient(3))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, corps = %s", rec.Code, rec.Body.String())
	}
	if stub.creePourClient != 3 {
		t.Fatalf("clientID transmis = %d", stub.creePourClient)
	}

	var envelope struct {
		Data collecte.DemandeCollecte `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.ID != 42 {
		t.Fatalf("id = %d", envelope.Data.ID)
	}
}

func TestCreateDemandeDateInvalide(t *testing.T) {
	stub := &stubCollectes{createErr: collecte.ErrDateInvalide}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	req := requeteAvecProfil(http.MethodPost, "/client/demande-collecte",
		`{"type_dechet":"carton","date_souhaitee":"15/09/2026"}`, profilClient(3))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUpdateDemandeClientVerrouillee(t *testing.T) {
	stub := &stubCollectes{statutErr: collecte.ErrDemandeVerrouillee}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	req := requeteAvecProfil(http.MethodPut, "/client/demande-collecte/42",
		`{"notes":"autre créneau"}`, profilClient(3))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, attendu 409", rec.Code)
	}
}

func TestUpdateDemandeClientAutreProprietaire(t *testing.T) {
	stub := &stubCollectes{statutErr: collecte.ErrAccesRefuse}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	req := requeteAvecProfil(http.MethodPut, "/client/demande-collecte/42",
		`{"notes":"x"}`, profilClient(3))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, attendu 403", rec.Code)
	}
}

func TestUpdateStatutChauffeur(t *testing.T) {
	stub := &stubCollectes{demande: &collecte.DemandeCollecte{ID: 42, Statut: collecte.StatutTerminee}}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	req := requeteAvecProfil(http.MethodPut, "/chauffeur/collectes/42/statut",
		`{"statut":"terminee"}`, profilChauffeur(8))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, corps = %s", rec.Code, rec.Body.String())
	}
	if stub.chauffeurAppele != 8 || stub.statutDemande != "terminee" {
		t.Fatalf("appel = (%d, %q)", stub.chauffeurAppele, stub.statutDemande)
	}
}

func TestUpdateStatutChauffeurHorsPerimetre(t *testing.T) {
	// une demande affectée à un autre chauffeur répond introuvable,
	// sans révéler son existence
	stub := &stubCollectes{statutErr: collecte.ErrIntrouvable}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	req := requeteAvecProfil(http.MethodPut, "/chauffeur/collectes/42/statut",
		`{"statut":"terminee"}`, profilChauffeur(8))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, attendu 404", rec.Code)
	}
}

func TestUpdateStatutChauffeurTransitionRefusee(t *testing.T) {
	stub := &stubCollectes{statutErr: collecte.ErrTransitionInvalide}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	req := requeteAvecProfil(http.MethodPut, "/chauffeur/collectes/42/statut",
		`{"statut":"en_attente"}`, profilChauffeur(8))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, attendu 409", rec.Code)
	}
}

func TestUpdateProblemeCommercialScope(t *testing.T) {
	stub := &stubCollectes{}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	profil := &identite.Profil{UtilisateurID: 55, Role: identite.RoleCommercial}
	req := requeteAvecProfil(http.MethodPut, "/commercial/problemes/9/statut",
		`{"statut":"resolu"}`, profil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if stub.commercialAppele == nil || *stub.commercialAppele != 55 {
		t.Fatalf("le périmètre commercial doit être transmis, reçu %v", stub.commercialAppele)
	}
}

func TestAffectationPerimetres(t *testing.T) {
	stub := &stubCollectes{demande: &collecte.DemandeCollecte{ID: 42}}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	profilAdmin := &identite.Profil{UtilisateurID: 1, Role: identite.RoleAdmin}
	req := requeteAvecProfil(http.MethodPut, "/admin/collectes/42/affectation",
		`{"chauffeur_id":8,"vehicule_id":3}`, profilAdmin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d", rec.Code)
	}
	if stub.commercialAppele != nil {
		t.Fatal("l'admin ne doit transmettre aucun périmètre")
	}

	profilCommercial := &identite.Profil{UtilisateurID: 55, Role: identite.RoleCommercial}
	req = requeteAvecProfil(http.MethodPut, "/commercial/demande/42/affectation",
		`{"chauffeur_id":8,"vehicule_id":3}`, profilCommercial)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("commercial: status = %d", rec.Code)
	}
	if stub.commercialAppele == nil || *stub.commercialAppele != 55 {
		t.Fatalf("périmètre commercial attendu, reçu %v", stub.commercialAppele)
	}
}

func TestAffectationChauffeurDejaEnMission(t *testing.T) {
	// affecter un chauffeur indisponible à une seconde demande est refusé
	stub := &stubCollectes{statutErr: collecte.ErrChauffeurIndisponible}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	profilAdmin := &identite.Profil{UtilisateurID: 1, Role: identite.RoleAdmin}
	req := requeteAvecProfil(http.MethodPut, "/admin/collectes/42/affectation",
		`{"chauffeur_id":8,"vehicule_id":3}`, profilAdmin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, attendu 409", rec.Code)
	}
}

func TestAffectationVehiculeEnMaintenance(t *testing.T) {
	stub := &stubCollectes{statutErr: collecte.ErrVehiculeIndisponible}
	h := &Handler{collectes: stub}
	r := routeurCollecte(h)

	profilAdmin := &identite.Profil{UtilisateurID: 1, Role: identite.RoleAdmin}
	req := requeteAvecProfil(http.MethodPut, "/admin/collectes/42/affectation",
		`{"chauffeur_id":8,"vehicule_id":3}`, profilAdmin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, attendu 409", rec.Code)
	}
}

func TestIdentifiantInvalide(t *testing.T) {
	h := &Handler{collectes: &stubCollectes{}}
	r := routeurCollecte(h)

	req := requeteAvecProfil(http.MethodPut, "/chauffeur/collectes/abc/statut",
		`{"statut":"terminee"}`, profilChauffeur(8))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, attendu 400", rec.Code)
	}
}
