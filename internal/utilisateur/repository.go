package utilisateur

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cocollecte/cocal/internal/db"
)

// querier est satisfait par *pgxpool.Pool et pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository fournit l'accès aux tables utilisateurs / clients / chauffeurs.
// Toute écriture multi-table passe par une transaction explicite.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository crée une instance du repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const colonnesUtilisateur = `id, nom, email, mot_de_passe_hash, role, cree_le`

func scanUtilisateur(row pgx.Row) (Utilisateur, error) {
	var u Utilisateur
	err := row.Scan(&u.ID, &u.Nom, &u.Email, &u.MotDePasseHash, &u.Role, &u.CreeLe)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Utilisateur{}, ErrIntrouvable
		}
		return Utilisateur{}, err
	}
	return u, nil
}

// GetByID charge un compte et sa ligne de rôle.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Detail, error) {
	return getDetail(ctx, r.pool, id)
}

func getDetail(ctx context.Context, q querier, id int64) (*Detail, error) {
	u, err := scanUtilisateur(q.QueryRow(ctx,
		`SELECT `+colonnesUtilisateur+` FROM utilisateurs WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	detail := &Detail{Utilisateur: u}
	switch u.Role {
	case "client":
		var c ClientProfil
		err := q.QueryRow(ctx, `
            SELECT id, utilisateur_id, telephone, adresse, type_client, commercial_id
            FROM clients WHERE utilisateur_id = $1`, id).
			Scan(&c.ID, &c.UtilisateurID, &c.Telephone, &c.Adresse, &c.TypeClient, &c.CommercialID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			detail.Client = &c
		}
	case "chauffeur":
		var ch ChauffeurProfil
		err := q.QueryRow(ctx, `
            SELECT id, utilisateur_id, disponible, vehicule_id
            FROM chauffeurs WHERE utilisateur_id = $1`, id).
			Scan(&ch.ID, &ch.UtilisateurID, &ch.Disponible, &ch.VehiculeID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			detail.Chauffeur = &ch
		}
	}

	return detail, nil
}

// GetByEmail retrouve un compte par e-mail (insensible à la casse).
func (r *Repository) GetByEmail(ctx context.Context, email string) (Utilisateur, error) {
	return scanUtilisateur(r.pool.QueryRow(ctx,
		`SELECT `+colonnesUtilisateur+` FROM utilisateurs WHERE lower(email) = lower($1)`, email))
}

// List retourne les comptes, éventuellement filtrés par rôle, avec leurs
// lignes de rôle, du plus récent au plus ancien.
func (r *Repository) List(ctx context.Context, role string) ([]Detail, error) {
	query := `
        SELECT u.id, u.nom, u.email, u.mot_de_passe_hash, u.role, u.cree_le,
               c.id, c.telephone, c.adresse, c.type_client, c.commercial_id,
               ch.id, ch.disponible, ch.vehicule_id
        FROM utilisateurs u
        LEFT JOIN clients c ON c.utilisateur_id = u.id
        LEFT JOIN chauffeurs ch ON ch.utilisateur_id = u.id`

	var args []any
	if role != "" {
		query += ` WHERE u.role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY u.cree_le DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []Detail
	for rows.Next() {
		var (
			d Detail

			clientID     *int64
			telephone    *string
			adresse      *string
			typeClient   *string
			commercialID *int64

			chauffeurID *int64
			disponible  *bool
			vehiculeID  *int64
		)
		if err := rows.Scan(
			&d.ID, &d.Nom, &d.Email, &d.MotDePasseHash, &d.Role, &d.CreeLe,
			&clientID, &telephone, &adresse, &typeClient, &commercialID,
			&chauffeurID, &disponible, &vehiculeID,
		); err != nil {
			return nil, err
		}
		if clientID != nil {
			d.Client = &ClientProfil{
				ID:            *clientID,
				UtilisateurID: d.ID,
				Telephone:     deref(telephone),
				Adresse:       deref(adresse),
				TypeClient:    deref(typeClient),
				CommercialID:  commercialID,
			}
		}
		if chauffeurID != nil {
			d.Chauffeur = &ChauffeurProfil{
				ID:            *chauffeurID,
				UtilisateurID: d.ID,
				Disponible:    disponible != nil && *disponible,
				VehiculeID:    vehiculeID,
			}
		}
		details = append(details, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return details, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create insère le compte et sa ligne de rôle dans une même transaction.
func (r *Repository) Create(ctx context.Context, in CreateInput, motDePasseHash string) (*Detail, error) {
	var detail *Detail

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var emailPris bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM utilisateurs WHERE lower(email) = lower($1))`,
			in.Email).Scan(&emailPris); err != nil {
			return err
		}
		if emailPris {
			return ErrEmailDejaUtilise
		}

		if in.Role == "admin" {
			if err := verifieAdminUnique(ctx, tx, 0); err != nil {
				return err
			}
		}

		u := Utilisateur{
			Nom:            strings.TrimSpace(in.Nom),
			Email:          strings.ToLower(strings.TrimSpace(in.Email)),
			MotDePasseHash: motDePasseHash,
			Role:           in.Role,
		}
		if err := tx.QueryRow(ctx, `
            INSERT INTO utilisateurs (nom, email, mot_de_passe_hash, role)
            VALUES ($1, $2, $3, $4)
            RETURNING id, cree_le`,
			u.Nom, u.Email, u.MotDePasseHash, u.Role).Scan(&u.ID, &u.CreeLe); err != nil {
			return err
		}

		detail = &Detail{Utilisateur: u}

		switch in.Role {
		case "client":
			c := ClientProfil{
				UtilisateurID: u.ID,
				Telephone:     strings.TrimSpace(in.Telephone),
				Adresse:       strings.TrimSpace(in.Adresse),
				TypeClient:    strings.TrimSpace(in.TypeClient),
				CommercialID:  in.CommercialID,
			}
			if err := tx.QueryRow(ctx, `
                INSERT INTO clients (utilisateur_id, telephone, adresse, type_client, commercial_id)
                VALUES ($1, $2, $3, $4, $5)
                RETURNING id`,
				c.UtilisateurID, c.Telephone, c.Adresse, c.TypeClient, c.CommercialID).Scan(&c.ID); err != nil {
				return err
			}
			detail.Client = &c
		case "chauffeur":
			disponible := true
			if in.Disponible != nil {
				disponible = *in.Disponible
			}
			ch := ChauffeurProfil{UtilisateurID: u.ID, Disponible: disponible}
			if err := tx.QueryRow(ctx, `
                INSERT INTO chauffeurs (utilisateur_id, disponible)
                VALUES ($1, $2)
                RETURNING id`,
				ch.UtilisateurID, ch.Disponible).Scan(&ch.ID); err != nil {
				return err
			}
			detail.Chauffeur = &ch
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// Update applique une mise à jour partielle, y compris le changement de rôle
// et la réconciliation des lignes de rôle, dans une seule transaction.
func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput, motDePasseHash *string) (*Detail, error) {
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var roleActuel string
		if err := tx.QueryRow(ctx,
			`SELECT role FROM utilisateurs WHERE id = $1 FOR UPDATE`, id).Scan(&roleActuel); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrIntrouvable
			}
			return err
		}

		if in.Email != nil {
			var emailPris bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM utilisateurs WHERE lower(email) = lower($1) AND id <> $2)`,
				*in.Email, id).Scan(&emailPris); err != nil {
				return err
			}
			if emailPris {
				return ErrEmailDejaUtilise
			}
		}

		nouveauRole := roleActuel
		if in.Role != nil {
			nouveauRole = *in.Role
		}

		if nouveauRole != roleActuel {
			// Un seul admin : on ne le rétrograde pas, et on n'en promeut
			// pas un second.
			if roleActuel == "admin" {
				return ErrDernierAdmin
			}
			if nouveauRole == "admin" {
				if err := verifieAdminUnique(ctx, tx, id); err != nil {
					return err
				}
			}
			if roleActuel == "commercial" {
				if err := verifieCommercialLibre(ctx, tx, id); err != nil {
					return err
				}
			}
		}

		setParts := []string{}
		args := []any{}
		idx := 1

		if in.Nom != nil {
			setParts = append(setParts, fmt.Sprintf("nom = $%d", idx))
			args = append(args, strings.TrimSpace(*in.Nom))
			idx++
		}
		if in.Email != nil {
			setParts = append(setParts, fmt.Sprintf("email = $%d", idx))
			args = append(args, strings.ToLower(strings.TrimSpace(*in.Email)))
			idx++
		}
		if motDePasseHash != nil {
			setParts = append(setParts, fmt.Sprintf("mot_de_passe_hash = $%d", idx))
			args = append(args, *motDePasseHash)
			idx++
		}
		if in.Role != nil {
			setParts = append(setParts, fmt.Sprintf("role = $%d", idx))
			args = append(args, nouveauRole)
			idx++
		}

		if len(setParts) > 0 {
			args = append(args, id)
			query := fmt.Sprintf(`UPDATE utilisateurs SET %s WHERE id = $%d`,
				strings.Join(setParts, ", "), idx)
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return err
			}
		}

		return reconcilieLignesDeRole(ctx, tx, id, roleActuel, nouveauRole, in)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// reconcilieLignesDeRole supprime la ligne de l'ancien rôle et crée ou met à
// jour celle du nouveau. Pas de ligne orpheline après un changement de rôle.
func reconcilieLignesDeRole(ctx context.Context, tx pgx.Tx, id int64, ancien, nouveau string, in UpdateInput) error {
	if ancien != nouveau {
		switch ancien {
		case "client":
			if _, err := tx.Exec(ctx, `DELETE FROM clients WHERE utilisateur_id = $1`, id); err != nil {
				return err
			}
		case "chauffeur":
			if _, err := tx.Exec(ctx, `DELETE FROM chauffeurs WHERE utilisateur_id = $1`, id); err != nil {
				return err
			}
		}
	}

	switch nouveau {
	case "client":
		if ancien != "client" {
			_, err := tx.Exec(ctx, `
                INSERT INTO clients (utilisateur_id, telephone, adresse, type_client, commercial_id)
                VALUES ($1, $2, $3, $4, $5)`,
				id, trimOuVide(in.Telephone), trimOuVide(in.Adresse), trimOuVide(in.TypeClient), in.CommercialID)
			return err
		}
		return patchClient(ctx, tx, id, in)
	case "chauffeur":
		if ancien != "chauffeur" {
			disponible := true
			if in.Disponible != nil {
				disponible = *in.Disponible
			}
			_, err := tx.Exec(ctx, `
                INSERT INTO chauffeurs (utilisateur_id, disponible)
                VALUES ($1, $2)`, id, disponible)
			return err
		}
		if in.Disponible != nil {
			_, err := tx.Exec(ctx,
				`UPDATE chauffeurs SET disponible = $2 WHERE utilisateur_id = $1`, id, *in.Disponible)
			return err
		}
	}

	return nil
}

func patchClient(ctx context.Context, tx pgx.Tx, id int64, in UpdateInput) error {
	setParts := []string{}
	args := []any{}
	idx := 1

	if in.Telephone != nil {
		setParts = append(setParts, fmt.Sprintf("telephone = $%d", idx))
		args = append(args, strings.TrimSpace(*in.Telephone))
		idx++
	}
	if in.Adresse != nil {
		setParts = append(setParts, fmt.Sprintf("adresse = $%d", idx))
		args = append(args, strings.TrimSpace(*in.Adresse))
		idx++
	}
	if in.TypeClient != nil {
		setParts = append(setParts, fmt.Sprintf("type_client = $%d", idx))
		args = append(args, strings.TrimSpace(*in.TypeClient))
		idx++
	}
	if in.CommercialID != nil {
		setParts = append(setParts, fmt.Sprintf("commercial_id = $%d", idx))
		args = append(args, *in.CommercialID)
		idx++
	}

	if len(setParts) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE clients SET %s WHERE utilisateur_id = $%d`,
		strings.Join(setParts, ", "), idx)
	_, err := tx.Exec(ctx, query, args...)
	return err
}

func trimOuVide(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Delete supprime le compte et ses lignes de rôle. La suppression d'un
// commercial encore rattaché à des clients est refusée.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var role string
		if err := tx.QueryRow(ctx,
			`SELECT role FROM utilisateurs WHERE id = $1 FOR UPDATE`, id).Scan(&role); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrIntrouvable
			}
			return err
		}

		if role == "commercial" {
			if err := verifieCommercialLibre(ctx, tx, id); err != nil {
				return err
			}
		}

		// Nettoyage explicite des lignes de rôle, en plus des cascades du schéma.
		if _, err := tx.Exec(ctx, `DELETE FROM clients WHERE utilisateur_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM chauffeurs WHERE utilisateur_id = $1`, id); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `DELETE FROM utilisateurs WHERE id = $1`, id)
		return err
	})
}

func verifieAdminUnique(ctx context.Context, q querier, excludeID int64) error {
	var existe bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM utilisateurs WHERE role = 'admin' AND id <> $1)`,
		excludeID).Scan(&existe); err != nil {
		return err
	}
	if existe {
		return ErrAdminExistant
	}
	return nil
}

func verifieCommercialLibre(ctx context.Context, q querier, commercialID int64) error {
	refs, err := clientsDuCommercial(ctx, q, commercialID)
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		return &CommercialBloqueError{Clients: refs}
	}
	return nil
}

func clientsDuCommercial(ctx context.Context, q querier, commercialID int64) ([]ClientRef, error) {
	rows, err := q.Query(ctx, `
        SELECT c.id, u.nom
        FROM clients c
        JOIN utilisateurs u ON u.id = c.utilisateur_id
        WHERE c.commercial_id = $1
        ORDER BY u.nom`, commercialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ClientRef
	for rows.Next() {
		var ref ClientRef
		if err := rows.Scan(&ref.ID, &ref.Nom); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ListClientsByCommercial liste le portefeuille d'un commercial.
func (r *Repository) ListClientsByCommercial(ctx context.Context, commercialID int64) ([]ClientAvecNom, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT c.id, c.utilisateur_id, c.telephone, c.adresse, c.type_client, c.commercial_id,
               u.nom, u.email
        FROM clients c
        JOIN utilisateurs u ON u.id = c.utilisateur_id
        WHERE c.commercial_id = $1
        ORDER BY u.nom`, commercialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []ClientAvecNom
	for rows.Next() {
		var c ClientAvecNom
		if err := rows.Scan(&c.ID, &c.UtilisateurID, &c.Telephone, &c.Adresse, &c.TypeClient,
			&c.CommercialID, &c.Nom, &c.Email); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// SetResetToken enregistre le hash du token de réinitialisation sur le compte.
func (r *Repository) SetResetToken(ctx context.Context, email, tokenHash string, expire time.Time) (Utilisateur, error) {
	return scanUtilisateur(r.pool.QueryRow(ctx, `
        UPDATE utilisateurs
        SET reset_token_hash = $2, reset_token_expire = $3
        WHERE lower(email) = lower($1)
        RETURNING `+colonnesUtilisateur, email, tokenHash, expire))
}

// ResetPassword remplace le mot de passe si le token est valide, puis
// invalide le token.
func (r *Repository) ResetPassword(ctx context.Context, tokenHash, motDePasseHash string) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
            SELECT id FROM utilisateurs
            WHERE reset_token_hash = $1 AND reset_token_expire > now()
            FOR UPDATE`, tokenHash).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrResetTokenInvalid
			}
			return err
		}

		_, err = tx.Exec(ctx, `
            UPDATE utilisateurs
            SET mot_de_passe_hash = $2, reset_token_hash = NULL, reset_token_expire = NULL
            WHERE id = $1`, id, motDePasseHash)
		return err
	})
}
