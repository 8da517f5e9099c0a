package identite

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Profil agrège l'utilisateur authentifié et sa ligne de rôle.
// Les champs pointeurs ne sont renseignés que pour le rôle correspondant.
type Profil struct {
	UtilisateurID int64  `json:"utilisateur_id"`
	Nom           string `json:"nom"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`

	// role=client
	ClientID     *int64 `json:"client_id,omitempty"`
	CommercialID *int64 `json:"commercial_id,omitempty"`

	// role=chauffeur
	ChauffeurID *int64 `json:"chauffeur_id,omitempty"`
	Disponible  *bool  `json:"disponible,omitempty"`
	VehiculeID  *int64 `json:"vehicule_id,omitempty"`
}

// requeteProfil décrit comment charger le profil d'un rôle donné.
// La table est fermée : chaque rôle reconnu a exactement une entrée,
// ce que vérifie un test du package.
type requeteProfil struct {
	sql  string
	scan func(row pgx.Row, p *Profil) error
}

var requetes = map[Role]requeteProfil{
	RoleAdmin: {
		sql: `SELECT u.id, u.nom, u.email FROM utilisateurs u WHERE u.id = $1 AND u.role = 'admin'`,
		scan: func(row pgx.Row, p *Profil) error {
			return row.Scan(&p.UtilisateurID, &p.Nom, &p.Email)
		},
	},
	RoleCommercial: {
		sql: `SELECT u.id, u.nom, u.email FROM utilisateurs u WHERE u.id = $1 AND u.role = 'commercial'`,
		scan: func(row pgx.Row, p *Profil) error {
			return row.Scan(&p.UtilisateurID, &p.Nom, &p.Email)
		},
	},
	RoleClient: {
		sql: `
            SELECT u.id, u.nom, u.email, c.id, c.commercial_id
            FROM utilisateurs u
            JOIN clients c ON c.utilisateur_id = u.id
            WHERE u.id = $1 AND u.role = 'client'`,
		scan: func(row pgx.Row, p *Profil) error {
			return row.Scan(&p.UtilisateurID, &p.Nom, &p.Email, &p.ClientID, &p.CommercialID)
		},
	},
	RoleChauffeur: {
		sql: `
            SELECT u.id, u.nom, u.email, ch.id, ch.disponible, ch.vehicule_id
            FROM utilisateurs u
            JOIN chauffeurs ch ON ch.utilisateur_id = u.id
            WHERE u.id = $1 AND u.role = 'chauffeur'`,
		scan: func(row pgx.Row, p *Profil) error {
			return row.Scan(&p.UtilisateurID, &p.Nom, &p.Email, &p.ChauffeurID, &p.Disponible, &p.VehiculeID)
		},
	},
}

// Resolver charge le profil correspondant au rôle revendiqué par le token.
type Resolver struct {
	pool *pgxpool.Pool
}

// NewResolver crée une instance du résolveur.
func NewResolver(pool *pgxpool.Pool) *Resolver {
	return &Resolver{pool: pool}
}

// Resoudre récupère le profil du rôle. Lecture seule, idempotent :
// ne crée jamais de ligne de profil.
func (r *Resolver) Resoudre(ctx context.Context, utilisateurID int64, role Role) (*Profil, error) {
	req, ok := requetes[role]
	if !ok {
		return nil, ErrRoleInvalide
	}

	profil := &Profil{Role: role}
	row := r.pool.QueryRow(ctx, req.sql, utilisateurID)
	if err := req.scan(row, profil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfilIntrouvable
		}
		return nil, err
	}

	return profil, nil
}
