package collecte

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cocollecte/cocal/internal/db"
)

// Repository fournit l'accès aux demandes de collecte et aux problèmes.
// L'autorisation commerciale passe toujours par la jointure clients :
// la copie dénormalisée commercial_id n'est jamais utilisée pour décider.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository crée une instance du repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const colonnesDemande = `id, client_id, commercial_id, chauffeur_id, type_dechet, date_souhaitee,
       creneau, quantite_estimee_kg, notes, statut, latitude, longitude, cree_le`

func scanDemande(row pgx.Row) (*DemandeCollecte, error) {
	var d DemandeCollecte
	err := row.Scan(&d.ID, &d.ClientID, &d.CommercialID, &d.ChauffeurID, &d.TypeDechet,
		&d.DateSouhaitee, &d.Creneau, &d.QuantiteEstimeeKg, &d.Notes, &d.Statut,
		&d.Latitude, &d.Longitude, &d.CreeLe)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntrouvable
		}
		return nil, err
	}
	return &d, nil
}

// Create insère la demande en copiant le commercial courant du client.
func (r *Repository) Create(ctx context.Context, clientID int64, in CreateInput, dateSouhaitee time.Time) (*DemandeCollecte, error) {
	var demande *DemandeCollecte

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var commercialID *int64
		if err := tx.QueryRow(ctx,
			`SELECT commercial_id FROM clients WHERE id = $1`, clientID).Scan(&commercialID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrIntrouvable
			}
			return err
		}

		row := tx.QueryRow(ctx, `
            INSERT INTO demandes_collecte
                (client_id, commercial_id, type_dechet, date_souhaitee, creneau,
                 quantite_estimee_kg, notes, statut, latitude, longitude)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            RETURNING `+colonnesDemande,
			clientID, commercialID,
			strings.TrimSpace(in.TypeDechet), dateSouhaitee, strings.TrimSpace(in.Creneau),
			in.QuantiteEstimeeKg, strings.TrimSpace(in.Notes), StatutEnAttente,
			in.Latitude, in.Longitude)

		var err error
		demande, err = scanDemande(row)
		return err
	})
	if err != nil {
		return nil, err
	}

	return demande, nil
}

// ListByClient retourne les demandes d'un client, les plus récentes d'abord.
func (r *Repository) ListByClient(ctx context.Context, clientID int64) ([]DemandeCollecte, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+colonnesDemande+`
        FROM demandes_collecte
        WHERE client_id = $1
        ORDER BY cree_le DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var demandes []DemandeCollecte
	for rows.Next() {
		d, err := scanDemande(rows)
		if err != nil {
			return nil, err
		}
		demandes = append(demandes, *d)
	}
	return demandes, rows.Err()
}

// GetByID charge une demande sans contrainte de périmètre (usage admin).
func (r *Repository) GetByID(ctx context.Context, id int64) (*DemandeCollecte, error) {
	return scanDemande(r.pool.QueryRow(ctx,
		`SELECT `+colonnesDemande+` FROM demandes_collecte WHERE id = $1`, id))
}

// verrouilleDemandeClient charge et verrouille une demande pour mutation
// par son propriétaire. Distingue absence et propriété d'autrui.
func verrouilleDemandeClient(ctx context.Context, tx pgx.Tx, id, clientID int64) error {
	var (
		proprietaire int64
		statut       string
		chauffeurID  *int64
	)
	err := tx.QueryRow(ctx, `
        SELECT client_id, statut, chauffeur_id
        FROM demandes_collecte
        WHERE id = $1
        FOR UPDATE`, id).Scan(&proprietaire, &statut, &chauffeurID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrIntrouvable
		}
		return err
	}
	if proprietaire != clientID {
		return ErrAccesRefuse
	}
	if statut != StatutEnAttente || chauffeurID != nil {
		return ErrDemandeVerrouillee
	}
	return nil
}

// UpdateByClient applique les champs fournis sur une demande encore en
// attente appartenant au client.
func (r *Repository) UpdateByClient(ctx context.Context, id, clientID int64, in UpdateInput, dateSouhaitee *time.Time) (*DemandeCollecte, error) {
	var demande *DemandeCollecte

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := verrouilleDemandeClient(ctx, tx, id, clientID); err != nil {
			return err
		}

		setParts := []string{}
		args := []any{}
		idx := 1

		if in.TypeDechet != nil {
			setParts = append(setParts, fmt.Sprintf("type_dechet = $%d", idx))
			args = append(args, strings.TrimSpace(*in.TypeDechet))
			idx++
		}
		if dateSouhaitee != nil {
			setParts = append(setParts, fmt.Sprintf("date_souhaitee = $%d", idx))
			args = append(args, *dateSouhaitee)
			idx++
		}
		if in.Creneau != nil {
			setParts = append(setParts, fmt.Sprintf("creneau = $%d", idx))
			args = append(args, strings.TrimSpace(*in.Creneau))
			idx++
		}
		if in.QuantiteEstimeeKg != nil {
			setParts = append(setParts, fmt.Sprintf("quantite_estimee_kg = $%d", idx))
			args = append(args, *in.QuantiteEstimeeKg)
			idx++
		}
		if in.Notes != nil {
			setParts = append(setParts, fmt.Sprintf("notes = $%d", idx))
			args = append(args, strings.TrimSpace(*in.Notes))
			idx++
		}
		if in.Latitude != nil {
			setParts = append(setParts, fmt.Sprintf("latitude = $%d", idx))
			args = append(args, *in.Latitude)
			idx++
		}
		if in.Longitude != nil {
			setParts = append(setParts, fmt.Sprintf("longitude = $%d", idx))
			args = append(args, *in.Longitude)
			idx++
		}

		if len(setParts) == 0 {
			return ErrAucunChamp
		}

		args = append(args, id)
		query := fmt.Sprintf(`UPDATE demandes_collecte SET %s WHERE id = $%d RETURNING `+colonnesDemande,
			strings.Join(setParts, ", "), idx)

		var err error
		demande, err = scanDemande(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, err
	}

	return demande, nil
}

// DeleteByClient supprime définitivement une demande en attente du client.
func (r *Repository) DeleteByClient(ctx context.Context, id, clientID int64) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := verrouilleDemandeClient(ctx, tx, id, clientID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM demandes_collecte WHERE id = $1`, id)
		return err
	})
}

const colonnesVue = `d.id, d.client_id, d.commercial_id, d.chauffeur_id, d.type_dechet, d.date_souhaitee,
       d.creneau, d.quantite_estimee_kg, d.notes, d.statut, d.latitude, d.longitude, d.cree_le,
       uc.nom, uch.nom`

func scanVue(row pgx.Row) (*DemandeVue, error) {
	var v DemandeVue
	err := row.Scan(&v.ID, &v.ClientID, &v.CommercialID, &v.ChauffeurID, &v.TypeDechet,
		&v.DateSouhaitee, &v.Creneau, &v.QuantiteEstimeeKg, &v.Notes, &v.Statut,
		&v.Latitude, &v.Longitude, &v.CreeLe, &v.ClientNom, &v.ChauffeurNom)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntrouvable
		}
		return nil, err
	}
	return &v, nil
}

func (r *Repository) listVues(ctx context.Context, filtre string, args ...any) ([]DemandeVue, error) {
	query := `
        SELECT ` + colonnesVue + `
        FROM demandes_collecte d
        JOIN clients c ON c.id = d.client_id
        JOIN utilisateurs uc ON uc.id = c.utilisateur_id
        LEFT JOIN chauffeurs ch ON ch.id = d.chauffeur_id
        LEFT JOIN utilisateurs uch ON uch.id = ch.utilisateur_id`
	if filtre != "" {
		query += ` WHERE ` + filtre
	}
	query += ` ORDER BY d.cree_le DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vues []DemandeVue
	for rows.Next() {
		v, err := scanVue(rows)
		if err != nil {
			return nil, err
		}
		vues = append(vues, *v)
	}
	return vues, rows.Err()
}

// ListByChauffeur retourne les demandes affectées à un chauffeur.
func (r *Repository) ListByChauffeur(ctx context.Context, chauffeurID int64) ([]DemandeVue, error) {
	return r.listVues(ctx, `d.chauffeur_id = $1`, chauffeurID)
}

// ListByCommercial retourne les demandes des clients du commercial,
// via la jointure clients.
func (r *Repository) ListByCommercial(ctx context.Context, commercialID int64) ([]DemandeVue, error) {
	return r.listVues(ctx, `c.commercial_id = $1`, commercialID)
}

// ListAll retourne toutes les demandes (usage admin).
func (r *Repository) ListAll(ctx context.Context) ([]DemandeVue, error) {
	return r.listVues(ctx, "")
}

// updateStatut verrouille la demande dans le périmètre donné, vérifie la
// transition puis applique le nouveau statut. Un statut terminal libère le
// chauffeur et son véhicule dans la même transaction. L'absence de ligne
// dans le périmètre est remontée comme introuvable, sans distinguer
// l'inexistence du refus d'accès. jointClients ajoute la jointure clients
// quand le filtre porte sur le commercial.
func (r *Repository) updateStatut(ctx context.Context, id int64, statut string, jointClients bool, filtre string, args ...any) (*DemandeCollecte, error) {
	var demande *DemandeCollecte

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            SELECT d.statut, d.chauffeur_id
            FROM demandes_collecte d`
		if jointClients {
			query += `
            JOIN clients c ON c.id = d.client_id`
		}
		query += `
            WHERE d.id = $1`
		if filtre != "" {
			query += ` AND ` + filtre
		}
		query += `
            FOR UPDATE OF d`

		var (
			statutActuel string
			chauffeurID  *int64
		)
		lockArgs := append([]any{id}, args...)
		if err := tx.QueryRow(ctx, query, lockArgs...).Scan(&statutActuel, &chauffeurID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrIntrouvable
			}
			return err
		}

		if !TransitionAutorisee(statutActuel, statut) {
			return ErrTransitionInvalide
		}

		var err error
		demande, err = scanDemande(tx.QueryRow(ctx,
			`UPDATE demandes_collecte SET statut = $2 WHERE id = $1 RETURNING `+colonnesDemande,
			id, statut))
		if err != nil {
			return err
		}

		if EstTerminal(statut) && chauffeurID != nil {
			return libereAffectation(ctx, tx, *chauffeurID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return demande, nil
}

// libereAffectation rend le chauffeur disponible et son véhicule au parc.
func libereAffectation(ctx context.Context, tx pgx.Tx, chauffeurID int64) error {
	var vehiculeID *int64
	if err := tx.QueryRow(ctx,
		`SELECT vehicule_id FROM chauffeurs WHERE id = $1 FOR UPDATE`, chauffeurID).Scan(&vehiculeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE chauffeurs SET disponible = TRUE, vehicule_id = NULL WHERE id = $1`, chauffeurID); err != nil {
		return err
	}

	if vehiculeID != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE vehicules SET statut = 'disponible' WHERE id = $1 AND statut = 'en_mission'`,
			*vehiculeID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatutChauffeur ne touche que les demandes affectées au chauffeur.
func (r *Repository) UpdateStatutChauffeur(ctx context.Context, id, chauffeurID int64, statut string) (*DemandeCollecte, error) {
	return r.updateStatut(ctx, id, statut, false, `d.chauffeur_id = $2`, chauffeurID)
}

// UpdateStatutCommercial ne touche que les demandes des clients du commercial.
func (r *Repository) UpdateStatutCommercial(ctx context.Context, id, commercialID int64, statut string) (*DemandeCollecte, error) {
	return r.updateStatut(ctx, id, statut, true, `c.commercial_id = $2`, commercialID)
}

// UpdateStatutAdmin est sans contrainte de périmètre.
func (r *Repository) UpdateStatutAdmin(ctx context.Context, id int64, statut string) (*DemandeCollecte, error) {
	return r.updateStatut(ctx, id, statut, false, "")
}

// Affecter lie demande, chauffeur et véhicule en une seule transaction :
// soit les trois écritures aboutissent, soit aucune. Le chauffeur doit être
// disponible ; réaffecter une demande libère d'abord son chauffeur en place.
// commercialID, s'il est fourni, restreint l'opération aux demandes des
// clients du commercial.
func (r *Repository) Affecter(ctx context.Context, demandeID int64, in AffectationInput, commercialID *int64) (*DemandeCollecte, error) {
	var demande *DemandeCollecte

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            SELECT d.statut, d.chauffeur_id FROM demandes_collecte d`
		args := []any{demandeID}
		if commercialID != nil {
			query += `
            JOIN clients c ON c.id = d.client_id
            WHERE d.id = $1 AND c.commercial_id = $2`
			args = append(args, *commercialID)
		} else {
			query += `
            WHERE d.id = $1`
		}
		query += `
            FOR UPDATE OF d`

		var (
			statut          string
			chauffeurActuel *int64
		)
		if err := tx.QueryRow(ctx, query, args...).Scan(&statut, &chauffeurActuel); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrIntrouvable
			}
			return err
		}
		if statut != StatutEnAttente && statut != StatutEnCours {
			return ErrDemandeNonAffectable
		}

		// Sans cette libération, l'ancien chauffeur resterait indisponible
		// et son véhicule bloqué en mission après la réaffectation.
		if chauffeurActuel != nil {
			if err := libereAffectation(ctx, tx, *chauffeurActuel); err != nil {
				return err
			}
		}

		var disponible bool
		if err := tx.QueryRow(ctx,
			`SELECT disponible FROM chauffeurs WHERE id = $1 FOR UPDATE`, in.ChauffeurID).Scan(&disponible); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrChauffeurIntrouvable
			}
			return err
		}
		if !disponible {
			return ErrChauffeurIndisponible
		}

		var statutVehicule string
		if err := tx.QueryRow(ctx,
			`SELECT statut FROM vehicules WHERE id = $1 FOR UPDATE`, in.VehiculeID).Scan(&statutVehicule); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrVehiculeIntrouvable
			}
			return err
		}
		if statutVehicule == "en_maintenance" {
			return ErrVehiculeIndisponible
		}

		var err error
		demande, err = scanDemande(tx.QueryRow(ctx,
			`UPDATE demandes_collecte SET chauffeur_id = $2 WHERE id = $1 RETURNING `+colonnesDemande,
			demandeID, in.ChauffeurID))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE chauffeurs SET vehicule_id = $2, disponible = FALSE WHERE id = $1`,
			in.ChauffeurID, in.VehiculeID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE vehicules SET statut = 'en_mission' WHERE id = $1`, in.VehiculeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return demande, nil
}

// SignalerProbleme vérifie l'affectation, insère le signalement et bascule
// la demande en probleme, le tout atomiquement.
func (r *Repository) SignalerProbleme(ctx context.Context, demandeID, chauffeurID int64, description string) (*Probleme, error) {
	var probleme *Probleme

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var statut string
		err := tx.QueryRow(ctx, `
            SELECT statut FROM demandes_collecte
            WHERE id = $1 AND chauffeur_id = $2
            FOR UPDATE`, demandeID, chauffeurID).Scan(&statut)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrIntrouvable
			}
			return err
		}

		if !TransitionAutorisee(statut, StatutProbleme) {
			return ErrTransitionInvalide
		}

		var p Probleme
		if err := tx.QueryRow(ctx, `
            INSERT INTO problemes (demande_id, chauffeur_id, description)
            VALUES ($1, $2, $3)
            RETURNING id, demande_id, chauffeur_id, description, statut, signale_le`,
			demandeID, chauffeurID, strings.TrimSpace(description)).
			Scan(&p.ID, &p.DemandeID, &p.ChauffeurID, &p.Description, &p.Statut, &p.SignaleLe); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE demandes_collecte SET statut = $2 WHERE id = $1`, demandeID, StatutProbleme); err != nil {
			return err
		}

		probleme = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return probleme, nil
}

const colonnesProblemeVue = `p.id, p.demande_id, p.chauffeur_id, p.description, p.statut, p.signale_le,
       uch.nom, d.type_dechet, uc.nom`

func (r *Repository) listProblemes(ctx context.Context, filtre string, args ...any) ([]ProblemeVue, error) {
	query := `
        SELECT ` + colonnesProblemeVue + `
        FROM problemes p
        JOIN demandes_collecte d ON d.id = p.demande_id
        JOIN clients c ON c.id = d.client_id
        JOIN utilisateurs uc ON uc.id = c.utilisateur_id
        JOIN chauffeurs ch ON ch.id = p.chauffeur_id
        JOIN utilisateurs uch ON uch.id = ch.utilisateur_id`
	if filtre != "" {
		query += ` WHERE ` + filtre
	}
	query += ` ORDER BY p.signale_le DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vues []ProblemeVue
	for rows.Next() {
		var v ProblemeVue
		if err := rows.Scan(&v.ID, &v.DemandeID, &v.ChauffeurID, &v.Description, &v.Statut,
			&v.SignaleLe, &v.ChauffeurNom, &v.TypeDechet, &v.ClientNom); err != nil {
			return nil, err
		}
		vues = append(vues, v)
	}
	return vues, rows.Err()
}

// ListProblemes retourne tous les signalements (usage admin).
func (r *Repository) ListProblemes(ctx context.Context) ([]ProblemeVue, error) {
	return r.listProblemes(ctx, "")
}

// ListProblemesByCommercial restreint aux clients du commercial.
func (r *Repository) ListProblemesByCommercial(ctx context.Context, commercialID int64) ([]ProblemeVue, error) {
	return r.listProblemes(ctx, `c.commercial_id = $1`, commercialID)
}

// UpdateProblemeStatut fait avancer un signalement. commercialID restreint
// le périmètre quand il est fourni.
func (r *Repository) UpdateProblemeStatut(ctx context.Context, problemeID int64, statut string, commercialID *int64) (*Probleme, error) {
	var probleme *Probleme

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            SELECT p.statut
            FROM problemes p`
		args := []any{problemeID}
		if commercialID != nil {
			query += `
            JOIN demandes_collecte d ON d.id = p.demande_id
            JOIN clients c ON c.id = d.client_id
            WHERE p.id = $1 AND c.commercial_id = $2`
			args = append(args, *commercialID)
		} else {
			query += `
            WHERE p.id = $1`
		}
		query += `
            FOR UPDATE OF p`

		var statutActuel string
		if err := tx.QueryRow(ctx, query, args...).Scan(&statutActuel); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrProblemeIntrouvable
			}
			return err
		}

		if !TransitionProblemeAutorisee(statutActuel, statut) {
			return ErrTransitionInvalide
		}

		var p Probleme
		if err := tx.QueryRow(ctx, `
            UPDATE problemes SET statut = $2 WHERE id = $1
            RETURNING id, demande_id, chauffeur_id, description, statut, signale_le`,
			problemeID, statut).
			Scan(&p.ID, &p.DemandeID, &p.ChauffeurID, &p.Description, &p.Statut, &p.SignaleLe); err != nil {
			return err
		}

		probleme = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return probleme, nil
}
