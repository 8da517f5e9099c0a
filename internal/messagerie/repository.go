package messagerie

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository fournit l'accès à la table des messages.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository crée une instance du repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const colonnes = `id, expediteur_id, expediteur_role, destinataire_id, destinataire_role,
       sujet, corps, lu, envoye_le`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ExpediteurID, &m.ExpediteurRole, &m.DestinataireID,
		&m.DestinataireRole, &m.Sujet, &m.Corps, &m.Lu, &m.EnvoyeLe)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntrouvable
		}
		return nil, err
	}
	return &m, nil
}

// RoleDestinataire retourne le rôle réel de l'utilisateur, ou
// ErrDestinataireIntrouvable s'il n'existe pas.
func (r *Repository) RoleDestinataire(ctx context.Context, id int64) (string, error) {
	var role string
	if err := r.pool.QueryRow(ctx,
		`SELECT role FROM utilisateurs WHERE id = $1`, id).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrDestinataireIntrouvable
		}
		return "", err
	}
	return role, nil
}

// Insert enregistre le message avec les rôles figés au moment de l'envoi.
func (r *Repository) Insert(ctx context.Context, expediteurID int64, expediteurRole string, in SendInput) (*Message, error) {
	return scanMessage(r.pool.QueryRow(ctx, `
        INSERT INTO messages (expediteur_id, expediteur_role, destinataire_id, destinataire_role, sujet, corps)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+colonnes,
		expediteurID, expediteurRole, in.DestinataireID, strings.ToLower(in.DestinataireRole),
		strings.TrimSpace(in.Sujet), in.Corps))
}

// ListByUtilisateur retourne les messages envoyés et reçus, les plus
// récents d'abord, avec les noms des deux correspondants.
func (r *Repository) ListByUtilisateur(ctx context.Context, utilisateurID int64) ([]MessageVue, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT m.id, m.expediteur_id, m.expediteur_role, m.destinataire_id, m.destinataire_role,
               m.sujet, m.corps, m.lu, m.envoye_le, ue.nom, ud.nom
        FROM messages m
        JOIN utilisateurs ue ON ue.id = m.expediteur_id
        JOIN utilisateurs ud ON ud.id = m.destinataire_id
        WHERE m.expediteur_id = $1 OR m.destinataire_id = $1
        ORDER BY m.envoye_le DESC`, utilisateurID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vues []MessageVue
	for rows.Next() {
		var v MessageVue
		if err := rows.Scan(&v.ID, &v.ExpediteurID, &v.ExpediteurRole, &v.DestinataireID,
			&v.DestinataireRole, &v.Sujet, &v.Corps, &v.Lu, &v.EnvoyeLe,
			&v.ExpediteurNom, &v.DestinataireNom); err != nil {
			return nil, err
		}
		vues = append(vues, v)
	}
	return vues, rows.Err()
}

// MarquerLu marque un message lu, uniquement par son destinataire.
func (r *Repository) MarquerLu(ctx context.Context, id, destinataireID int64) (*Message, error) {
	return scanMessage(r.pool.QueryRow(ctx, `
        UPDATE messages SET lu = TRUE
        WHERE id = $1 AND destinataire_id = $2
        RETURNING `+colonnes, id, destinataireID))
}

// Delete supprime un message, par son expéditeur ou son destinataire.
func (r *Repository) Delete(ctx context.Context, id, utilisateurID int64) error {
	tag, err := r.pool.Exec(ctx, `
        DELETE FROM messages
        WHERE id = $1 AND (expediteur_id = $2 OR destinataire_id = $2)`, id, utilisateurID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIntrouvable
	}
	return nil
}
