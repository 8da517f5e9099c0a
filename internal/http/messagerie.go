package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cocollecte/cocal/internal/http/middleware"
	"github.com/cocollecte/cocal/internal/messagerie"
	"github.com/cocollecte/cocal/internal/util"
)

// MessagerieService expose la messagerie interne.
type MessagerieService interface {
	Send(ctx context.Context, expediteurID int64, expediteurRole string, in messagerie.SendInput) (*messagerie.Message, error)
	List(ctx context.Context, utilisateurID int64) ([]messagerie.MessageVue, error)
	MarquerLu(ctx context.Context, id, destinataireID int64) (*messagerie.Message, error)
	Delete(ctx context.Context, id, utilisateurID int64) error
}

func writeMessagerieError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, messagerie.ErrIntrouvable):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, messagerie.ErrDestinataireIntrouvable):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, messagerie.ErrDestinataireEstExpediteur),
		util.IsValidation(err):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "opération impossible", nil)
	}
}

// SendMessage envoie un message interne au nom du compte connecté.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	var in messagerie.SendInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	message, err := h.messages.Send(r.Context(), profil.UtilisateurID, string(profil.Role), in)
	if err != nil {
		writeMessagerieError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, message)
}

// ListMessages retourne la boîte du compte connecté.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	messages, err := h.messages.List(r.Context(), profil.UtilisateurID)
	if err != nil {
		writeMessagerieError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// MarquerMessageLu marque un message reçu comme lu.
func (h *Handler) MarquerMessageLu(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	message, err := h.messages.MarquerLu(r.Context(), id, profil.UtilisateurID)
	if err != nil {
		writeMessagerieError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, message)
}

// DeleteMessage retire un message de la boîte.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	profil := middleware.GetProfil(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	if err := h.messages.Delete(r.Context(), id, profil.UtilisateurID); err != nil {
		writeMessagerieError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"supprime": true})
}
