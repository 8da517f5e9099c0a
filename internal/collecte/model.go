package collecte

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrIntrouvable           = errors.New("demande introuvable")
	ErrAccesRefuse           = errors.New("demande appartenant à un autre client")
	ErrStatutInvalide        = errors.New("statut invalide")
	ErrTransitionInvalide    = errors.New("transition de statut non autorisée")
	ErrAucunChamp            = errors.New("aucun champ fourni")
	ErrDemandeVerrouillee    = errors.New("demande déjà prise en charge")
	ErrDemandeNonAffectable  = errors.New("demande non affectable dans son statut actuel")
	ErrChauffeurIntrouvable  = errors.New("chauffeur introuvable")
	ErrChauffeurIndisponible = errors.New("chauffeur déjà en mission")
	ErrVehiculeIntrouvable   = errors.New("véhicule introuvable")
	ErrVehiculeIndisponible  = errors.New("véhicule indisponible")
	ErrProblemeIntrouvable   = errors.New("problème introuvable")
	ErrDateInvalide          = errors.New("date souhaitée invalide, format attendu AAAA-MM-JJ")
)

// Statuts d'une demande de collecte.
const (
	StatutEnAttente = "en_attente"
	StatutEnCours   = "en_cours"
	StatutTerminee  = "terminee"
	StatutAnnulee   = "annulee"
	StatutProbleme  = "probleme"
)

// Statuts d'un problème signalé.
const (
	ProblemeEnAttente = "en_attente"
	ProblemeEnCours   = "en_cours"
	ProblemeResolu    = "resolu"
)

// transitions est le graphe strict du cycle de vie d'une demande.
// terminee et annulee sont terminaux pour tous les rôles, admin compris.
// probleme peut revenir en en_cours (résolution) ou être annulé.
var transitions = map[string][]string{
	StatutEnAttente: {StatutEnCours, StatutAnnulee, StatutProbleme},
	StatutEnCours:   {StatutTerminee, StatutAnnulee, StatutProbleme},
	StatutProbleme:  {StatutEnCours, StatutAnnulee},
	StatutTerminee:  {},
	StatutAnnulee:   {},
}

var transitionsProbleme = map[string][]string{
	ProblemeEnAttente: {ProblemeEnCours, ProblemeResolu},
	ProblemeEnCours:   {ProblemeResolu},
	ProblemeResolu:    {},
}

// TransitionAutorisee indique si le passage de statut est permis.
func TransitionAutorisee(de, vers string) bool {
	for _, s := range transitions[de] {
		if s == vers {
			return true
		}
	}
	return false
}

// TransitionProblemeAutorisee vérifie le cycle de vie d'un problème.
func TransitionProblemeAutorisee(de, vers string) bool {
	for _, s := range transitionsProbleme[de] {
		if s == vers {
			return true
		}
	}
	return false
}

// EstTerminal indique un statut sans sortie possible.
func EstTerminal(statut string) bool {
	return statut == StatutTerminee || statut == StatutAnnulee
}

// NormalizeStatut applique la casse canonique.
func NormalizeStatut(statut string) string {
	return strings.ToLower(strings.TrimSpace(statut))
}

// IsValidStatut indique si le statut de demande est reconnu.
func IsValidStatut(statut string) bool {
	_, ok := transitions[statut]
	return ok
}

// IsValidStatutProbleme indique si le statut de problème est reconnu.
func IsValidStatutProbleme(statut string) bool {
	_, ok := transitionsProbleme[statut]
	return ok
}

// DemandeCollecte représente une demande de ramassage.
type DemandeCollecte struct {
	ID                int64     `json:"id"`
	ClientID          int64     `json:"client_id"`
	CommercialID      *int64    `json:"commercial_id,omitempty"`
	ChauffeurID       *int64    `json:"chauffeur_id,omitempty"`
	TypeDechet        string    `json:"type_dechet"`
	DateSouhaitee     time.Time `json:"date_souhaitee"`
	Creneau           string    `json:"creneau"`
	QuantiteEstimeeKg float64   `json:"quantite_estimee_kg"`
	Notes             string    `json:"notes"`
	Statut            string    `json:"statut"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	CreeLe            time.Time `json:"cree_le"`
}

// DemandeVue enrichit la demande des noms utiles aux listes commercial/admin.
type DemandeVue struct {
	DemandeCollecte
	ClientNom    string  `json:"client_nom"`
	ChauffeurNom *string `json:"chauffeur_nom,omitempty"`
}

// Probleme est un signalement émis par un chauffeur sur une demande affectée.
type Probleme struct {
	ID          int64     `json:"id"`
	DemandeID   int64     `json:"demande_id"`
	ChauffeurID int64     `json:"chauffeur_id"`
	Description string    `json:"description"`
	Statut      string    `json:"statut"`
	SignaleLe   time.Time `json:"signale_le"`
}

// ProblemeVue enrichit le signalement pour les écrans commercial/admin.
type ProblemeVue struct {
	Probleme
	ChauffeurNom string `json:"chauffeur_nom"`
	TypeDechet   string `json:"type_dechet"`
	ClientNom    string `json:"client_nom"`
}

// CreateInput porte les champs de création d'une demande.
type CreateInput struct {
	TypeDechet        string   `json:"type_dechet"`
	DateSouhaitee     string   `json:"date_souhaitee"`
	Creneau           string   `json:"creneau"`
	QuantiteEstimeeKg float64  `json:"quantite_estimee_kg"`
	Notes             string   `json:"notes"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
}

// UpdateInput porte une mise à jour partielle côté client.
type UpdateInput struct {
	TypeDechet        *string  `json:"type_dechet"`
	DateSouhaitee     *string  `json:"date_souhaitee"`
	Creneau           *string  `json:"creneau"`
	QuantiteEstimeeKg *float64 `json:"quantite_estimee_kg"`
	Notes             *string  `json:"notes"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
}

// Vide indique qu'aucun champ n'a été fourni.
func (in UpdateInput) Vide() bool {
	return in.TypeDechet == nil && in.DateSouhaitee == nil && in.Creneau == nil &&
		in.QuantiteEstimeeKg == nil && in.Notes == nil && in.Latitude == nil && in.Longitude == nil
}

// AffectationInput lie une demande à un chauffeur et un véhicule.
type AffectationInput struct {
	ChauffeurID int64 `json:"chauffeur_id"`
	VehiculeID  int64 `json:"vehicule_id"`
}
