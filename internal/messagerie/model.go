package messagerie

import (
	"errors"
	"time"
)

var (
	ErrIntrouvable               = errors.New("message introuvable")
	ErrDestinataireIntrouvable   = errors.New("destinataire introuvable pour ce rôle")
	ErrDestinataireEstExpediteur = errors.New("impossible de s'envoyer un message à soi-même")
)

// Message est un message interne entre deux utilisateurs de la plateforme.
// Le rôle est figé à l'envoi : un changement de rôle ultérieur ne réécrit
// pas l'historique.
type Message struct {
	ID               int64     `json:"id"`
	ExpediteurID     int64     `json:"expediteur_id"`
	ExpediteurRole   string    `json:"expediteur_role"`
	DestinataireID   int64     `json:"destinataire_id"`
	DestinataireRole string    `json:"destinataire_role"`
	Sujet            string    `json:"sujet"`
	Corps            string    `json:"corps"`
	Lu               bool      `json:"lu"`
	EnvoyeLe         time.Time `json:"envoye_le"`
}

// MessageVue enrichit le message des noms pour l'affichage de la boîte.
type MessageVue struct {
	Message
	ExpediteurNom   string `json:"expediteur_nom"`
	DestinataireNom string `json:"destinataire_nom"`
}

// SendInput porte les champs d'envoi d'un message.
type SendInput struct {
	DestinataireID   int64  `json:"destinataire_id"`
	DestinataireRole string `json:"destinataire_role"`
	Sujet            string `json:"sujet"`
	Corps            string `json:"corps"`
}
