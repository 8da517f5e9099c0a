package vehicule

import (
	"context"
	"strings"

	"github.com/cocollecte/cocal/internal/util"
)

// Service porte les règles de gestion du parc.
type Service struct {
	repo *Repository
}

// NewService crée une instance du service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create valide et enregistre un véhicule.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Vehicule, error) {
	if err := util.RequireString(in.Matricule, "matricule"); err != nil {
		return nil, err
	}
	in.Statut = NormalizeStatut(in.Statut)
	if !IsValidStatut(in.Statut) {
		return nil, ErrStatutInvalide
	}
	return s.repo.Create(ctx, in)
}

// Get charge un véhicule.
func (s *Service) Get(ctx context.Context, id int64) (*Vehicule, error) {
	return s.repo.Get(ctx, id)
}

// List retourne le parc, filtré par statut si demandé.
func (s *Service) List(ctx context.Context, statut string) ([]Vehicule, error) {
	statut = strings.ToLower(strings.TrimSpace(statut))
	if statut != "" && !IsValidStatut(statut) {
		return nil, ErrStatutInvalide
	}
	return s.repo.List(ctx, statut)
}

// Update applique une mise à jour partielle.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Vehicule, error) {
	if in.Vide() {
		return nil, ErrAucunChamp
	}
	if in.Statut != nil {
		statut := NormalizeStatut(*in.Statut)
		if !IsValidStatut(statut) {
			return nil, ErrStatutInvalide
		}
		in.Statut = &statut
	}
	if in.Matricule != nil {
		if err := util.RequireString(*in.Matricule, "matricule"); err != nil {
			return nil, err
		}
	}
	return s.repo.Update(ctx, id, in)
}

// Delete retire un véhicule du parc.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
