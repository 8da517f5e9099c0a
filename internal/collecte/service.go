package collecte

import (
	"context"
	"strings"
	"time"

	"github.com/cocollecte/cocal/internal/util"
)

// Service porte les règles métier des demandes de collecte. Le périmètre
// d'accès (client propriétaire, chauffeur affecté, clients du commercial)
// est appliqué au niveau des requêtes du repository.
type Service struct {
	repo *Repository
}

// NewService crée une instance du service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func parseDate(valeur string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(valeur))
	if err != nil {
		return time.Time{}, ErrDateInvalide
	}
	return t, nil
}

// Create valide et enregistre une demande pour le client.
func (s *Service) Create(ctx context.Context, clientID int64, in CreateInput) (*DemandeCollecte, error) {
	if err := util.RequireString(in.TypeDechet, "type_dechet"); err != nil {
		return nil, err
	}
	if err := util.RequireString(in.DateSouhaitee, "date_souhaitee"); err != nil {
		return nil, err
	}
	date, err := parseDate(in.DateSouhaitee)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, clientID, in, date)
}

// ListByClient retourne l'historique du client.
func (s *Service) ListByClient(ctx context.Context, clientID int64) ([]DemandeCollecte, error) {
	return s.repo.ListByClient(ctx, clientID)
}

// UpdateByClient modifie une demande encore en attente du client.
func (s *Service) UpdateByClient(ctx context.Context, id, clientID int64, in UpdateInput) (*DemandeCollecte, error) {
	if in.Vide() {
		return nil, ErrAucunChamp
	}
	if in.TypeDechet != nil {
		if err := util.RequireString(*in.TypeDechet, "type_dechet"); err != nil {
			return nil, err
		}
	}
	var date *time.Time
	if in.DateSouhaitee != nil {
		d, err := parseDate(*in.DateSouhaitee)
		if err != nil {
			return nil, err
		}
		date = &d
	}
	return s.repo.UpdateByClient(ctx, id, clientID, in, date)
}

// DeleteByClient annule définitivement une demande en attente du client.
func (s *Service) DeleteByClient(ctx context.Context, id, clientID int64) error {
	return s.repo.DeleteByClient(ctx, id, clientID)
}

// ListByChauffeur retourne les missions du chauffeur.
func (s *Service) ListByChauffeur(ctx context.Context, chauffeurID int64) ([]DemandeVue, error) {
	return s.repo.ListByChauffeur(ctx, chauffeurID)
}

// ListByCommercial retourne les demandes du portefeuille du commercial.
func (s *Service) ListByCommercial(ctx context.Context, commercialID int64) ([]DemandeVue, error) {
	return s.repo.ListByCommercial(ctx, commercialID)
}

// ListAll retourne toutes les demandes.
func (s *Service) ListAll(ctx context.Context) ([]DemandeVue, error) {
	return s.repo.ListAll(ctx)
}

func valideStatutCible(statut string) (string, error) {
	statut = NormalizeStatut(statut)
	if !IsValidStatut(statut) {
		return "", ErrStatutInvalide
	}
	return statut, nil
}

// UpdateStatutChauffeur fait avancer une mission du chauffeur.
func (s *Service) UpdateStatutChauffeur(ctx context.Context, id, chauffeurID int64, statut string) (*DemandeCollecte, error) {
	statut, err := valideStatutCible(statut)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateStatutChauffeur(ctx, id, chauffeurID, statut)
}

// UpdateStatutCommercial fait avancer une demande du portefeuille.
func (s *Service) UpdateStatutCommercial(ctx context.Context, id, commercialID int64, statut string) (*DemandeCollecte, error) {
	statut, err := valideStatutCible(statut)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateStatutCommercial(ctx, id, commercialID, statut)
}

// UpdateStatutAdmin fait avancer n'importe quelle demande, en respectant
// le même graphe de transitions que les autres rôles.
func (s *Service) UpdateStatutAdmin(ctx context.Context, id int64, statut string) (*DemandeCollecte, error) {
	statut, err := valideStatutCible(statut)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateStatutAdmin(ctx, id, statut)
}

// Affecter attribue un chauffeur et un véhicule à une demande. Le
// commercial ne peut affecter que les demandes de ses clients.
func (s *Service) Affecter(ctx context.Context, demandeID int64, in AffectationInput, commercialID *int64) (*DemandeCollecte, error) {
	if in.ChauffeurID == 0 {
		return nil, ErrChauffeurIntrouvable
	}
	if in.VehiculeID == 0 {
		return nil, ErrVehiculeIntrouvable
	}
	return s.repo.Affecter(ctx, demandeID, in, commercialID)
}

// SignalerProbleme enregistre un signalement du chauffeur sur sa mission.
func (s *Service) SignalerProbleme(ctx context.Context, demandeID, chauffeurID int64, description string) (*Probleme, error) {
	if err := util.RequireString(description, "description"); err != nil {
		return nil, err
	}
	return s.repo.SignalerProbleme(ctx, demandeID, chauffeurID, description)
}

// ListProblemes retourne tous les signalements.
func (s *Service) ListProblemes(ctx context.Context) ([]ProblemeVue, error) {
	return s.repo.ListProblemes(ctx)
}

// ListProblemesByCommercial restreint au portefeuille du commercial.
func (s *Service) ListProblemesByCommercial(ctx context.Context, commercialID int64) ([]ProblemeVue, error) {
	return s.repo.ListProblemesByCommercial(ctx, commercialID)
}

// UpdateProblemeStatut fait avancer un signalement. Le commercial ne peut
// toucher que les problèmes de ses clients.
func (s *Service) UpdateProblemeStatut(ctx context.Context, problemeID int64, statut string, commercialID *int64) (*Probleme, error) {
	statut = NormalizeStatut(statut)
	if !IsValidStatutProbleme(statut) {
		return nil, ErrStatutInvalide
	}
	return s.repo.UpdateProblemeStatut(ctx, problemeID, statut, commercialID)
}
