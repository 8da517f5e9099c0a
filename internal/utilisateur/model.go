package utilisateur

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrIntrouvable       = errors.New("utilisateur introuvable")
	ErrEmailDejaUtilise  = errors.New("email déjà utilisé")
	ErrAdminExistant     = errors.New("un administrateur existe déjà")
	ErrDernierAdmin      = errors.New("impossible de retirer le dernier administrateur")
	ErrResetTokenInvalid = errors.New("token de réinitialisation invalide ou expiré")
	ErrAucunChamp        = errors.New("aucun champ fourni")
)

// CommercialBloqueError signale qu'un commercial ne peut être supprimé ou
// rétrogradé tant que des clients lui sont rattachés.
type CommercialBloqueError struct {
	Clients []ClientRef
}

func (e *CommercialBloqueError) Error() string {
	noms := make([]string, 0, len(e.Clients))
	for _, c := range e.Clients {
		noms = append(noms, fmt.Sprintf("%s (#%d)", c.Nom, c.ID))
	}
	return "commercial encore rattaché aux clients: " + strings.Join(noms, ", ")
}

// Utilisateur représente un compte de la plateforme.
type Utilisateur struct {
	ID             int64     `json:"id"`
	Nom            string    `json:"nom"`
	Email          string    `json:"email"`
	MotDePasseHash string    `json:"-"`
	Role           string    `json:"role"`
	CreeLe         time.Time `json:"cree_le"`
}

// ClientProfil est la ligne de rôle d'un client.
type ClientProfil struct {
	ID            int64  `json:"id"`
	UtilisateurID int64  `json:"utilisateur_id"`
	Telephone     string `json:"telephone"`
	Adresse       string `json:"adresse"`
	TypeClient    string `json:"type_client"`
	CommercialID  *int64 `json:"commercial_id,omitempty"`
}

// ChauffeurProfil est la ligne de rôle d'un chauffeur.
type ChauffeurProfil struct {
	ID            int64  `json:"id"`
	UtilisateurID int64  `json:"utilisateur_id"`
	Disponible    bool   `json:"disponible"`
	VehiculeID    *int64 `json:"vehicule_id,omitempty"`
}

// Detail agrège le compte et sa ligne de rôle éventuelle.
type Detail struct {
	Utilisateur
	Client    *ClientProfil    `json:"client,omitempty"`
	Chauffeur *ChauffeurProfil `json:"chauffeur,omitempty"`
}

// ClientRef identifie un client bloquant (id de la ligne client + nom du compte).
type ClientRef struct {
	ID  int64  `json:"id"`
	Nom string `json:"nom"`
}

// ClientAvecNom enrichit le profil client du nom et de l'email du compte.
type ClientAvecNom struct {
	ClientProfil
	Nom   string `json:"nom"`
	Email string `json:"email"`
}

// CreateInput porte les champs de création d'un compte.
type CreateInput struct {
	Nom        string `json:"nom"`
	Email      string `json:"email"`
	MotDePasse string `json:"mot_de_passe"`
	Role       string `json:"role"`

	// champs de rôle
	Telephone    string `json:"telephone"`
	Adresse      string `json:"adresse"`
	TypeClient   string `json:"type_client"`
	CommercialID *int64 `json:"commercial_id"`
	Disponible   *bool  `json:"disponible"`
}

// UpdateInput porte une mise à jour partielle : seuls les champs non nil
// sont appliqués.
type UpdateInput struct {
	Nom        *string `json:"nom"`
	Email      *string `json:"email"`
	MotDePasse *string `json:"mot_de_passe"`
	Role       *string `json:"role"`

	Telephone    *string `json:"telephone"`
	Adresse      *string `json:"adresse"`
	TypeClient   *string `json:"type_client"`
	CommercialID *int64  `json:"commercial_id"`
	Disponible   *bool   `json:"disponible"`
}

// Vide indique qu'aucun champ n'a été fourni.
func (in UpdateInput) Vide() bool {
	return in.Nom == nil && in.Email == nil && in.MotDePasse == nil && in.Role == nil &&
		in.Telephone == nil && in.Adresse == nil && in.TypeClient == nil &&
		in.CommercialID == nil && in.Disponible == nil
}
