package vehicule

import (
	"errors"
	"strings"
)

var (
	ErrIntrouvable          = errors.New("véhicule introuvable")
	ErrMatriculeDejaUtilise = errors.New("matricule déjà utilisé")
	ErrStatutInvalide       = errors.New("statut de véhicule invalide")
	ErrVehiculeAffecte      = errors.New("véhicule encore affecté à un chauffeur")
	ErrAucunChamp           = errors.New("aucun champ fourni")
)

const (
	StatutDisponible    = "disponible"
	StatutEnMaintenance = "en_maintenance"
	StatutEnMission     = "en_mission"
)

var statutsValides = map[string]struct{}{
	StatutDisponible:    {},
	StatutEnMaintenance: {},
	StatutEnMission:     {},
}

// Vehicule représente un véhicule de collecte.
type Vehicule struct {
	ID           int64   `json:"id"`
	Matricule    string  `json:"matricule"`
	Marque       string  `json:"marque"`
	Modele       string  `json:"modele"`
	CapaciteKg   float64 `json:"capacite_kg"`
	Statut       string  `json:"statut"`
	TypeVehicule string  `json:"type_vehicule"`
}

// CreateInput porte les champs de création d'un véhicule.
type CreateInput struct {
	Matricule    string  `json:"matricule"`
	Marque       string  `json:"marque"`
	Modele       string  `json:"modele"`
	CapaciteKg   float64 `json:"capacite_kg"`
	Statut       string  `json:"statut"`
	TypeVehicule string  `json:"type_vehicule"`
}

// UpdateInput porte une mise à jour partielle.
type UpdateInput struct {
	Matricule    *string  `json:"matricule"`
	Marque       *string  `json:"marque"`
	Modele       *string  `json:"modele"`
	CapaciteKg   *float64 `json:"capacite_kg"`
	Statut       *string  `json:"statut"`
	TypeVehicule *string  `json:"type_vehicule"`
}

// Vide indique qu'aucun champ n'a été fourni.
func (in UpdateInput) Vide() bool {
	return in.Matricule == nil && in.Marque == nil && in.Modele == nil &&
		in.CapaciteKg == nil && in.Statut == nil && in.TypeVehicule == nil
}

// NormalizeStatut applique le défaut et la casse canonique.
func NormalizeStatut(statut string) string {
	statut = strings.ToLower(strings.TrimSpace(statut))
	if statut == "" {
		return StatutDisponible
	}
	return statut
}

// IsValidStatut indique si le statut est reconnu.
func IsValidStatut(statut string) bool {
	_, ok := statutsValides[strings.ToLower(strings.TrimSpace(statut))]
	return ok
}
