package vehicule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cocollecte/cocal/internal/db"
)

// Repository fournit l'accès à la table des véhicules.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository crée une instance du repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const colonnes = `id, matricule, marque, modele, capacite_kg, statut, type_vehicule`

func scanVehicule(row pgx.Row) (*Vehicule, error) {
	var v Vehicule
	if err := row.Scan(&v.ID, &v.Matricule, &v.Marque, &v.Modele, &v.CapaciteKg, &v.Statut, &v.TypeVehicule); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntrouvable
		}
		return nil, err
	}
	return &v, nil
}

// Create insère un véhicule. Le matricule est unique.
func (r *Repository) Create(ctx context.Context, in CreateInput) (*Vehicule, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO vehicules (matricule, marque, modele, capacite_kg, statut, type_vehicule)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+colonnes,
		strings.TrimSpace(in.Matricule),
		strings.TrimSpace(in.Marque),
		strings.TrimSpace(in.Modele),
		in.CapaciteKg,
		in.Statut,
		strings.TrimSpace(in.TypeVehicule),
	)

	v, err := scanVehicule(row)
	if err != nil {
		if estViolationUnicite(err) {
			return nil, ErrMatriculeDejaUtilise
		}
		return nil, err
	}
	return v, nil
}

// Get charge un véhicule.
func (r *Repository) Get(ctx context.Context, id int64) (*Vehicule, error) {
	return scanVehicule(r.pool.QueryRow(ctx,
		`SELECT `+colonnes+` FROM vehicules WHERE id = $1`, id))
}

// List retourne les véhicules, filtrés par statut si demandé.
func (r *Repository) List(ctx context.Context, statut string) ([]Vehicule, error) {
	query := `SELECT ` + colonnes + ` FROM vehicules`
	var args []any
	if statut != "" {
		query += ` WHERE statut = $1`
		args = append(args, statut)
	}
	query += ` ORDER BY matricule`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicules []Vehicule
	for rows.Next() {
		v, err := scanVehicule(rows)
		if err != nil {
			return nil, err
		}
		vehicules = append(vehicules, *v)
	}
	return vehicules, rows.Err()
}

// Update applique une mise à jour partielle.
func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (*Vehicule, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	if in.Matricule != nil {
		setParts = append(setParts, fmt.Sprintf("matricule = $%d", idx))
		args = append(args, strings.TrimSpace(*in.Matricule))
		idx++
	}
	if in.Marque != nil {
		setParts = append(setParts, fmt.Sprintf("marque = $%d", idx))
		args = append(args, strings.TrimSpace(*in.Marque))
		idx++
	}
	if in.Modele != nil {
		setParts = append(setParts, fmt.Sprintf("modele = $%d", idx))
		args = append(args, strings.TrimSpace(*in.Modele))
		idx++
	}
	if in.CapaciteKg != nil {
		setParts = append(setParts, fmt.Sprintf("capacite_kg = $%d", idx))
		args = append(args, *in.CapaciteKg)
		idx++
	}
	if in.Statut != nil {
		setParts = append(setParts, fmt.Sprintf("statut = $%d", idx))
		args = append(args, *in.Statut)
		idx++
	}
	if in.TypeVehicule != nil {
		setParts = append(setParts, fmt.Sprintf("type_vehicule = $%d", idx))
		args = append(args, strings.TrimSpace(*in.TypeVehicule))
		idx++
	}

	if len(setParts) == 0 {
		return r.Get(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE vehicules SET %s WHERE id = $%d RETURNING `+colonnes,
		strings.Join(setParts, ", "), idx)

	v, err := scanVehicule(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if estViolationUnicite(err) {
			return nil, ErrMatriculeDejaUtilise
		}
		return nil, err
	}
	return v, nil
}

// Delete supprime un véhicule s'il n'est référencé par aucun chauffeur.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var affecte bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM chauffeurs WHERE vehicule_id = $1)`, id).Scan(&affecte); err != nil {
			return err
		}
		if affecte {
			return ErrVehiculeAffecte
		}

		tag, err := tx.Exec(ctx, `DELETE FROM vehicules WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrIntrouvable
		}
		return nil
	})
}

func estViolationUnicite(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
