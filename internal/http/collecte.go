package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cocollecte/cocal/internal/collecte"
	"github.com/cocollecte/cocal/internal/http/middleware"
	"github.com/cocollecte/cocal/internal/util"
)

// CollecteService expose les opérations sur les demandes de collecte.
type CollecteService interface {
	Create(ctx context.Context, clientID int64, in collecte.CreateInput) (*collecte.DemandeCollecte, error)
	ListByClient(ctx context.Context, clientID int64) ([]collecte.DemandeCollecte, error)
	UpdateByClient(ctx context.Context, id, clientID int64, in collecte.UpdateInput) (*collecte.DemandeCollecte, error)
	DeleteByClient(ctx context.Context, id, clientID int64) error
	ListByChauffeur(ctx context.Context, chauffeurID int64) ([]collecte.DemandeVue, error)
	ListByCommercial(ctx context.Context, commercialID int64) ([]collecte.DemandeVue, error)
	ListAll(ctx context.Context) ([]collecte.DemandeVue, error)
	UpdateStatutChauffeur(ctx context.Context, id, chauffeurID int64, statut string) (*collecte.DemandeCollecte, error)
	UpdateStatutCommercial(ctx context.Context, id, commercialID int64, statut string) (*collecte.DemandeCollecte, error)
	UpdateStatutAdmin(ctx context.Context, id int64, statut string) (*collecte.DemandeCollecte, error)
	Affecter(ctx context.Context, demandeID int64, in collecte.AffectationInput, commercialID *int64) (*collecte.DemandeCollecte, error)
	SignalerProbleme(ctx context.Context, demandeID, chauffeurID int64, description string) (*collecte.Probleme, error)
	ListProblemes(ctx context.Context) ([]collecte.ProblemeVue, error)
	ListProblemesByCommercial(ctx context.Context, commercialID int64) ([]collecte.ProblemeVue, error)
	UpdateProblemeStatut(ctx context.Context, problemeID int64, statut string, commercialID *int64) (*collecte.Probleme, error)
}

func idParam(r *http.Request, nom string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, nom), 10, 64)
}

func writeCollecteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collecte.ErrIntrouvable),
		errors.Is(err, collecte.ErrChauffeurIntrouvable),
		errors.Is(err, collecte.ErrVehiculeIntrouvable),
		errors.Is(err, collecte.ErrProblemeIntrouvable):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, collecte.ErrAccesRefuse):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, collecte.ErrDemandeVerrouillee),
		errors.Is(err, collecte.ErrDemandeNonAffectable),
		errors.Is(err, collecte.ErrChauffeurIndisponible),
		errors.Is(err, collecte.ErrVehiculeIndisponible),
		errors.Is(err, collecte.ErrTransitionInvalide):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, collecte.ErrStatutInvalide),
		errors.Is(err, collecte.ErrAucunChamp),
		errors.Is(err, collecte.ErrDateInvalide),
		util.IsValidation(err):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "opération impossible", nil)
	}
}

// CreateDemande enregistre une nouvelle demande pour le client connecté.
func (h *Handler) CreateDemande(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	var in collecte.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	demande, err := h.collectes.Create(r.Context(), *profil.ClientID, in)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, demande)
}

// ListDemandesClient retourne l'historique du client connecté.
func (h *Handler) ListDemandesClient(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	demandes, err := h.collectes.ListByClient(r.Context(), *profil.ClientID)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"demandes": demandes})
}

// UpdateDemandeClient modifie une demande encore en attente.
func (h *Handler) UpdateDemandeClient(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var in collecte.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	demande, err := h.collectes.UpdateByClient(r.Context(), id, *profil.ClientID, in)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, demande)
}

// DeleteDemandeClient annule une demande encore en attente.
func (h *Handler) DeleteDemandeClient(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	if err := h.collectes.DeleteByClient(r.Context(), id, *profil.ClientID); err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"supprime": true})
}

// ListCollectesChauffeur retourne les missions du chauffeur connecté.
func (h *Handler) ListCollectesChauffeur(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	demandes, err := h.collectes.ListByChauffeur(r.Context(), *profil.ChauffeurID)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"demandes": demandes})
}

type statutPayload struct {
	Statut string `json:"statut"`
}

// UpdateStatutChauffeur fait avancer une mission du chauffeur connecté.
func (h *Handler) UpdateStatutChauffeur(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var payload statutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	demande, err := h.collectes.UpdateStatutChauffeur(r.Context(), id, *profil.ChauffeurID, payload.Statut)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, demande)
}

// SignalerProbleme enregistre un signalement du chauffeur sur sa mission.
func (h *Handler) SignalerProbleme(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var payload struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	probleme, err := h.collectes.SignalerProbleme(r.Context(), id, *profil.ChauffeurID, payload.Description)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, probleme)
}

// ListDemandesCommercial retourne les demandes du portefeuille du commercial.
func (h *Handler) ListDemandesCommercial(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	demandes, err := h.collectes.ListByCommercial(r.Context(), profil.UtilisateurID)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"demandes": demandes})
}

// UpdateStatutCommercial fait avancer une demande d'un client du commercial.
func (h *Handler) UpdateStatutCommercial(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var payload statutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	demande, err := h.collectes.UpdateStatutCommercial(r.Context(), id, profil.UtilisateurID, payload.Statut)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, demande)
}

// ListProblemesCommercial retourne les signalements du portefeuille.
func (h *Handler) ListProblemesCommercial(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	problemes, err := h.collectes.ListProblemesByCommercial(r.Context(), profil.UtilisateurID)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"problemes": problemes})
}

// UpdateProblemeCommercial fait avancer un signalement du portefeuille.
func (h *Handler) UpdateProblemeCommercial(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var payload statutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	probleme, err := h.collectes.UpdateProblemeStatut(r.Context(), id, payload.Statut, &profil.UtilisateurID)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, probleme)
}

// ListCollectesAdmin retourne toutes les demandes.
func (h *Handler) ListCollectesAdmin(w http.ResponseWriter, r *http.Request) {
	demandes, err := h.collectes.ListAll(r.Context())
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"demandes": demandes})
}

// UpdateStatutAdmin fait avancer n'importe quelle demande.
func (h *Handler) UpdateStatutAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var payload statutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	demande, err := h.collectes.UpdateStatutAdmin(r.Context(), id, payload.Statut)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, demande)
}

// AffecterDemande attribue chauffeur et véhicule à une demande, sans
// contrainte de périmètre.
func (h *Handler) AffecterDemande(w http.ResponseWriter, r *http.Request) {
	h.affecter(w, r, nil)
}

// AffecterDemandeCommercial restreint l'affectation aux demandes des
// clients du commercial connecté.
func (h *Handler) AffecterDemandeCommercial(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())
	h.affecter(w, r, &profil.UtilisateurID)
}

func (h *Handler) affecter(w http.ResponseWriter, r *http.Request, commercialID *int64) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var in collecte.AffectationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	demande, err := h.collectes.Affecter(r.Context(), id, in, commercialID)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, demande)
}

// ListProblemesAdmin retourne tous les signalements.
func (h *Handler) ListProblemesAdmin(w http.ResponseWriter, r *http.Request) {
	problemes, err := h.collectes.ListProblemes(r.Context())
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"problemes": problemes})
}

// UpdateProblemeAdmin fait avancer n'importe quel signalement.
func (h *Handler) UpdateProblemeAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var payload statutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	probleme, err := h.collectes.UpdateProblemeStatut(r.Context(), id, payload.Statut, nil)
	if err != nil {
		writeCollecteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, probleme)
}
