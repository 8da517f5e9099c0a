package identite

import (
	"errors"
	"strings"
)

// Role identifie l'un des quatre profils de la plateforme.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCommercial Role = "commercial"
	RoleClient     Role = "client"
	RoleChauffeur  Role = "chauffeur"
)

var (
	// ErrRoleInvalide est retourné pour un rôle inconnu.
	ErrRoleInvalide = errors.New("rôle invalide")
	// ErrProfilIntrouvable indique que la ligne de profil du rôle n'existe pas.
	ErrProfilIntrouvable = errors.New("profil introuvable")
)

// Roles liste les rôles reconnus, dans l'ordre de privilège décroissant.
func Roles() []Role {
	return []Role{RoleAdmin, RoleCommercial, RoleClient, RoleChauffeur}
}

// ParseRole normalise et valide un rôle fourni par l'extérieur.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleAdmin, RoleCommercial, RoleClient, RoleChauffeur:
		return role, nil
	default:
		return "", ErrRoleInvalide
	}
}
