package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/cocollecte/cocal/internal/identite"
	"github.com/cocollecte/cocal/internal/messagerie"
)

type stubMessages struct {
	MessagerieService

	sendErr      error
	luErr        error
	expediteurID int64
	roleEnvoi    string
}

func (s *stubMessages) Send(_ context.Context, expediteurID int64, expediteurRole string, in messagerie.SendInput) (*messagerie.Message, error) {
	s.expediteurID = expediteurID
	s.roleEnvoi = expediteurRole
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &messagerie.Message{ID: 1, ExpediteurID: expediteurID, Sujet: in.Sujet}, nil
}

func (s *stubMessages) MarquerLu(_ context.Context, id, _ int64) (*messagerie.Message, error) {
	if s.luErr != nil {
		return nil, s.luErr
	}
	return &messagerie.Message{ID: id, Lu: true}, nil
}

func routeurMessagerie(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/messages", h.SendMessage)
	r.Put("/messages/{id}/lu", h.MarquerMessageLu)
	return r
}

func TestSendMessage(t *testing.T) {
	stub := &stubMessages{}
	h := &Handler{messages: stub}
	r := routeurMessagerie(h)

	profil := &identite.Profil{UtilisateurID: 4, Role: identite.RoleCommercial}
	req := requeteAvecProfil(http.MethodPost, "/messages",
		`{"destinataire_id":9,"destinataire_role":"chauffeur","sujet":"Tournée de demain","corps":"RDV au dépôt à 6h"}`, profil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, corps = %s", rec.Code, rec.Body.String())
	}
	if stub.expediteurID != 4 || stub.roleEnvoi != "commercial" {
		t.Fatalf("expéditeur transmis = (%d, %q)", stub.expediteurID, stub.roleEnvoi)
	}
}

func TestSendMessageDestinataireInconnu(t *testing.T) {
	stub := &stubMessages{sendErr: messagerie.ErrDestinataireIntrouvable}
	h := &Handler{messages: stub}
	r := routeurMessagerie(h)

	profil := &identite.Profil{UtilisateurID: 4, Role: identite.RoleClient}
	req := requeteAvecProfil(http.MethodPost, "/messages",
		`{"destinataire_id":999,"destinataire_role":"chauffeur","sujet":"s","corps":"c"}`, profil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, attendu 404", rec.Code)
	}
}

func TestMarquerLuReserveAuDestinataire(t *testing.T) {
	stub := &stubMessages{luErr: messagerie.ErrIntrouvable}
	h := &Handler{messages: stub}
	r := routeurMessagerie(h)

	profil := &identite.Profil{UtilisateurID: 4, Role: identite.RoleClient}
	req := requeteAvecProfil(http.MethodPut, "/messages/7/lu", "", profil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, attendu 404", rec.Code)
	}
}
