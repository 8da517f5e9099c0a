package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cocollecte/cocal/internal/util"
	"github.com/cocollecte/cocal/internal/vehicule"
)

// VehiculeService expose la gestion du parc.
type VehiculeService interface {
	Create(ctx context.Context, in vehicule.CreateInput) (*vehicule.Vehicule, error)
	Get(ctx context.Context, id int64) (*vehicule.Vehicule, error)
	List(ctx context.Context, statut string) ([]vehicule.Vehicule, error)
	Update(ctx context.Context, id int64, in vehicule.UpdateInput) (*vehicule.Vehicule, error)
	Delete(ctx context.Context, id int64) error
}

func writeVehiculeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vehicule.ErrIntrouvable):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, vehicule.ErrMatriculeDejaUtilise),
		errors.Is(err, vehicule.ErrVehiculeAffecte):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, vehicule.ErrStatutInvalide),
		errors.Is(err, vehicule.ErrAucunChamp),
		util.IsValidation(err):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "opération impossible", nil)
	}
}

// CreateVehicule ajoute un véhicule au parc.
func (h *Handler) CreateVehicule(w http.ResponseWriter, r *http.Request) {
	var in vehicule.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	v, err := h.vehicules.Create(r.Context(), in)
	if err != nil {
		writeVehiculeError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, v)
}

// ListVehicules retourne le parc, filtré par statut si demandé.
func (h *Handler) ListVehicules(w http.ResponseWriter, r *http.Request) {
	vehicules, err := h.vehicules.List(r.Context(), r.URL.Query().Get("statut"))
	if err != nil {
		writeVehiculeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"vehicules": vehicules})
}

// GetVehicule charge un véhicule.
func (h *Handler) GetVehicule(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	v, err := h.vehicules.Get(r.Context(), id)
	if err != nil {
		writeVehiculeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, v)
}

// UpdateVehicule applique une mise à jour partielle.
func (h *Handler) UpdateVehicule(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	var in vehicule.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	v, err := h.vehicules.Update(r.Context(), id, in)
	if err != nil {
		writeVehiculeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, v)
}

// DeleteVehicule retire un véhicule du parc.
func (h *Handler) DeleteVehicule(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identifiant invalide", nil)
		return
	}

	if err := h.vehicules.Delete(r.Context(), id); err != nil {
		writeVehiculeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"supprime": true})
}
