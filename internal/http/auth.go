package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cocollecte/cocal/internal/http/middleware"
	"github.com/cocollecte/cocal/internal/identite"
	"github.com/cocollecte/cocal/internal/service"
	"github.com/cocollecte/cocal/internal/util"
	"github.com/cocollecte/cocal/internal/utilisateur"
)

// AuthProvider expose les opérations d'authentification.
type AuthProvider interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, rawRefresh string) (*service.LoginResult, error)
	Logout(ctx context.Context, rawRefresh string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, nouveauMotDePasse string) error
	Me(ctx context.Context, utilisateurID int64, role string) (*identite.Profil, error)
}

// Login authentifie un compte, quel que soit son rôle.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email      string `json:"email"`
		MotDePasse string `json:"mot_de_passe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	result, err := h.auth.Login(r.Context(), payload.Email, payload.MotDePasse)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "identifiants invalides", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "connexion impossible", nil)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Refresh échange un refresh token contre une nouvelle paire de tokens.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	result, err := h.auth.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "refresh token invalide", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "rafraîchissement impossible", nil)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Logout révoque le refresh token fourni.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	if err := h.auth.Logout(r.Context(), payload.RefreshToken); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "déconnexion impossible", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"deconnecte": true})
}

// ForgotPassword déclenche l'envoi d'un code de réinitialisation.
// La réponse est identique que l'adresse existe ou non.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), payload.Email); err != nil {
		if util.IsValidation(err) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "envoi impossible", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "si un compte existe pour cette adresse, un e-mail a été envoyé",
	})
}

// ResetPassword consomme un code de réinitialisation.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token      string `json:"token"`
		MotDePasse string `json:"mot_de_passe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON invalide", nil)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), payload.Token, payload.MotDePasse); err != nil {
		switch {
		case util.IsValidation(err):
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		case errors.Is(err, utilisateur.ErrResetTokenInvalid):
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		default:
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "réinitialisation impossible", nil)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"reinitialise": true})
}

// Me retourne le profil complet du compte connecté.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.SubjectID(r.Context())
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identification invalide", nil)
		return
	}

	profil, err := h.auth.Me(r.Context(), id, middleware.GetRole(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, identite.ErrRoleInvalide):
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "rôle inconnu", nil)
		case errors.Is(err, identite.ErrProfilIntrouvable):
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "profil introuvable", nil)
		default:
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "impossible de charger le profil", nil)
		}
		return
	}

	WriteJSON(w, http.StatusOK, profil)
}
