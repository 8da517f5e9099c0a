package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cocollecte/cocal/internal/http/middleware"
	"github.com/cocollecte/cocal/internal/identite"
	"github.com/cocollecte/cocal/internal/util"
	"github.com/cocollecte/cocal/internal/utilisateur"
)

// UtilisateurService expose la gestion des comptes et des lignes de rôle.
type UtilisateurService interface {
	Create(ctx context.Context, in utilisateur.CreateInput) (*utilisateur.Detail, error)
	Update(ctx context.Context, id int64, in utilisateur.UpdateInput) (*utilisateur.Detail, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*utilisateur.Detail, error)
	List(ctx context.Context, role string) ([]utilisateur.Detail, error)
	ListClientsByCommercial(ctx context.Context, commercialID int64) ([]utilisateur.ClientAvecNom, error)
}

func writeUtilisateurError(w http.ResponseWriter, err error) {
	var bloque *utilisateur.CommercialBloqueError
	switch {
	case errors.Is(err, utilisateur.ErrIntrouvable):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, utilisateur.ErrDernierAdmin):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, utilisateur.ErrEmailDejaUtilise),
		errors.Is(err, utilisateur.ErrAdminExistant):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.As(err, &bloque):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), map[string]any{"clients": bloque.Clients})
	case errors.Is(err, identite.ErrRoleInvalide),
		errors.Is(err, utilisateur.ErrAucunChamp),
		util.IsValidation(err):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "opération impossible", nil)
	}
}

// CreateUtilisateur crée un compte avec sa ligne de rôle.
func (h *Handler) CreateUtilisateur(w http.ResponseWriter, r *http.Request) {
	var in utilisateur.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	detail, err := h.utilisateurs.Create(r.Context(), in)
	if err != nil {
		writeUtilisateurError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, detail)
}

// ListUtilisateurs retourne les comptes, filtrés par rôle si demandé.
func (h *Handler) ListUtilisateurs(w http.ResponseWriter, r *http.Request) {
	details, err := h.utilisateurs.List(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		writeUtilisateurError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"utilisateurs": details})
}

// GetUtilisateur charge un compte complet.
func (h *Handler) GetUtilisateur(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	detail, err := h.utilisateurs.Get(r.Context(), id)
	if err != nil {
		writeUtilisateurError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, detail)
}

// UpdateUtilisateur applique une mise à jour partielle, changement de rôle
// compris.
func (h *Handler) UpdateUtilisateur(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var in utilisateur.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	detail, err := h.utilisateurs.Update(r.Context(), id, in)
	if err != nil {
		writeUtilisateurError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, detail)
}

// DeleteUtilisateur supprime un compte et ses lignes de rôle.
func (h *Handler) DeleteUtilisateur(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	if err := h.utilisateurs.Delete(r.Context(), id); err != nil {
		writeUtilisateurError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"supprime": true})
}

// ListClientsCommercial retourne le portefeuille du commercial connecté.
func (h *Handler) ListClientsCommercial(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	clients, err := h.utilisateurs.ListClientsByCommercial(r.Context(), profil.UtilisateurID)
	if err != nil {
		writeUtilisateurError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"clients": clients})
}
