package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cocollecte/cocal/internal/auth"
	"github.com/cocollecte/cocal/internal/identite"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyRole    contextKey = "role"
	ContextKeyProfil  contextKey = "profil"
)

// Auth valide le JWT d'accès et injecte sujet et rôle dans le contexte.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token absent")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token invalide")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject récupère le sujet du contexte.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetRole récupère le rôle revendiqué par le token.
func GetRole(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyRole).(string)
	return val
}

// SubjectID convertit le sujet en identifiant numérique.
func SubjectID(ctx context.Context) (int64, error) {
	return strconv.ParseInt(GetSubject(ctx), 10, 64)
}

// RequireProfil vérifie que le token porte le rôle attendu, résout la ligne
// de profil et l'injecte dans le contexte. Toute requête d'un groupe de
// routes rôle-scopé passe par ici.
func RequireProfil(resolver *identite.Resolver, role identite.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := SubjectID(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "identification invalide")
				return
			}

			if !strings.EqualFold(GetRole(r.Context()), string(role)) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "accès réservé au rôle "+string(role))
				return
			}

			profil, err := resolver.Resoudre(r.Context(), id, role)
			if err != nil {
				switch err {
				case identite.ErrRoleInvalide:
					writeError(w, http.StatusForbidden, "FORBIDDEN", "rôle inconnu")
				case identite.ErrProfilIntrouvable:
					writeError(w, http.StatusNotFound, "NOT_FOUND", "profil introuvable")
				default:
					writeError(w, http.StatusInternalServerError, "INTERNAL", "impossible de charger le profil")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyProfil, profil)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetProfil retourne le profil résolu, ou nil hors d'un groupe rôle-scopé.
func GetProfil(ctx context.Context) *identite.Profil {
	val, _ := ctx.Value(ContextKeyProfil).(*identite.Profil)
	return val
}

// WithProfil injecte un profil dans le contexte (utilisé par les tests).
func WithProfil(ctx context.Context, profil *identite.Profil) context.Context {
	return context.WithValue(ctx, ContextKeyProfil, profil)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
