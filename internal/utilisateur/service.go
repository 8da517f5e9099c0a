package utilisateur

import (
	"context"
	"strings"

	"github.com/cocollecte/cocal/internal/auth"
	"github.com/cocollecte/cocal/internal/identite"
	"github.com/cocollecte/cocal/internal/util"
)

// Service porte les règles de gestion des comptes.
type Service struct {
	repo *Repository
}

// NewService crée une instance du service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create valide, hache le mot de passe et crée le compte avec sa ligne de rôle.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Detail, error) {
	if err := util.RequireString(in.Nom, "nom"); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(in.MotDePasse); err != nil {
		return nil, err
	}

	role, err := identite.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	in.Role = string(role)

	hash, err := auth.Hash(in.MotDePasse)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, in, hash)
}

// Update applique une mise à jour partielle. Le mot de passe n'est re-haché
// que s'il est fourni.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Detail, error) {
	if in.Vide() {
		return nil, ErrAucunChamp
	}

	if in.Nom != nil {
		if err := util.RequireString(*in.Nom, "nom"); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if err := util.ValidateEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if in.Role != nil {
		role, err := identite.ParseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		normalise := string(role)
		in.Role = &normalise
	}

	var hash *string
	if in.MotDePasse != nil {
		if err := util.ValidatePassword(*in.MotDePasse); err != nil {
			return nil, err
		}
		h, err := auth.Hash(*in.MotDePasse)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	return s.repo.Update(ctx, id, in, hash)
}

// Delete supprime le compte (refusé pour un commercial encore rattaché).
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Get charge un compte complet.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	return s.repo.GetByID(ctx, id)
}

// List retourne les comptes, filtrés par rôle si demandé.
func (s *Service) List(ctx context.Context, role string) ([]Detail, error) {
	role = strings.TrimSpace(role)
	if role != "" {
		parsed, err := identite.ParseRole(role)
		if err != nil {
			return nil, err
		}
		role = string(parsed)
	}
	return s.repo.List(ctx, role)
}

// ListClientsByCommercial liste le portefeuille d'un commercial.
func (s *Service) ListClientsByCommercial(ctx context.Context, commercialID int64) ([]ClientAvecNom, error) {
	return s.repo.ListClientsByCommercial(ctx, commercialID)
}
