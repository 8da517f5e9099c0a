package messagerie

import (
	"context"
	"strings"

	"github.com/cocollecte/cocal/internal/util"
)

// Service porte les règles de la messagerie interne.
type Service struct {
	repo *Repository
}

// NewService crée une instance du service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Send valide le destinataire (identifiant et rôle, casse ignorée) puis
// enregistre le message.
func (s *Service) Send(ctx context.Context, expediteurID int64, expediteurRole string, in SendInput) (*Message, error) {
	if err := util.RequireString(in.Sujet, "sujet"); err != nil {
		return nil, err
	}
	if err := util.RequireString(in.Corps, "corps"); err != nil {
		return nil, err
	}
	if err := util.RequireString(in.DestinataireRole, "destinataire_role"); err != nil {
		return nil, err
	}
	if in.DestinataireID == expediteurID {
		return nil, ErrDestinataireEstExpediteur
	}

	role, err := s.repo.RoleDestinataire(ctx, in.DestinataireID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(role, strings.TrimSpace(in.DestinataireRole)) {
		return nil, ErrDestinataireIntrouvable
	}

	return s.repo.Insert(ctx, expediteurID, expediteurRole, in)
}

// List retourne la boîte de l'utilisateur, envoyés et reçus mêlés.
func (s *Service) List(ctx context.Context, utilisateurID int64) ([]MessageVue, error) {
	return s.repo.ListByUtilisateur(ctx, utilisateurID)
}

// MarquerLu marque un message reçu comme lu.
func (s *Service) MarquerLu(ctx context.Context, id, destinataireID int64) (*Message, error) {
	return s.repo.MarquerLu(ctx, id, destinataireID)
}

// Delete retire un message de la boîte.
func (s *Service) Delete(ctx context.Context, id, utilisateurID int64) error {
	return s.repo.Delete(ctx, id, utilisateurID)
}
