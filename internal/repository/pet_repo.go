package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YuviX-514/pawAdopt/internal/domain"
)

// PetRepository define el contrato de persistencia para mascotas.
// Las lecturas resuelven el dueño; las búsquedas sin resultado devuelven pgx.ErrNoRows.
type PetRepository interface {
	Create(ctx context.Context, pet domain.Pet) error
	GetByID(ctx context.Context, id string) (domain.Pet, error)
	List(ctx context.Context) ([]domain.Pet, error)
	ListAdoptedByEmail(ctx context.Context, email string) ([]domain.Pet, error)
	// MarkAdopted marca la mascota como adoptada solo si todavía no lo está.
	// Devuelve ErrAlreadyAdopted si otra escritura ganó, pgx.ErrNoRows si no existe.
	MarkAdopted(ctx context.Context, id string, details domain.AdoptionDetails, updatedAt time.Time) (domain.Pet, error)
}

// PgPetRepository implementa PetRepository usando pgxpool.
type PgPetRepository struct {
	pool *pgxpool.Pool
}

func NewPgPetRepository(pool *pgxpool.Pool) *PgPetRepository {
	return &PgPetRepository{pool: pool}
}

const petWithOwnerColumns = `
	p.id, p.owner_id, p.name, p.species, p.breed, p.age, p.gender, p.description,
	p.photos, p.adopted, p.adopted_details, p.version, p.created_at, p.updated_at,
	u.id, u.username, u.email, u.image, u.provider, u.created_at, u.updated_at
`

func (r *PgPetRepository) Create(ctx context.Context, pet domain.Pet) error {
	const query = `
		INSERT INTO pets (
			id, owner_id, name, species, breed, age, gender, description,
			photos, adopted, adopted_details, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, NULL, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		pet.ID,
		pet.OwnerID,
		pet.Name,
		pet.Species,
		pet.Breed,
		pet.Age,
		pet.Gender,
		pet.Description,
		pet.Photos,
		pet.Version,
		pet.CreatedAt,
		pet.UpdatedAt,
	)
	return err
}

func (r *PgPetRepository) GetByID(ctx context.Context, id string) (domain.Pet, error) {
	query := `
		SELECT ` + petWithOwnerColumns + `
		FROM pets p
		JOIN users u ON u.id = p.owner_id
		WHERE p.id = $1
	`
	return scanPet(r.pool.QueryRow(ctx, query, id))
}

func (r *PgPetRepository) List(ctx context.Context) ([]domain.Pet, error) {
	query := `
		SELECT ` + petWithOwnerColumns + `
		FROM pets p
		JOIN users u ON u.id = p.owner_id
		ORDER BY p.created_at ASC, p.id ASC
	`
	return r.queryPets(ctx, query)
}

func (r *PgPetRepository) ListAdoptedByEmail(ctx context.Context, email string) ([]domain.Pet, error) {
	query := `
		SELECT ` + petWithOwnerColumns + `
		FROM pets p
		JOIN users u ON u.id = p.owner_id
		WHERE p.adopted AND lower(p.adopted_details ->> 'email') = lower($1)
		ORDER BY p.created_at ASC, p.id ASC
	`
	return r.queryPets(ctx, query, email)
}

func (r *PgPetRepository) MarkAdopted(ctx context.Context, id string, details domain.AdoptionDetails, updatedAt time.Time) (domain.Pet, error) {
	// El WHERE adopted = FALSE hace de compare-and-set: solo una escritura concurrente afecta la fila.
	query := `
		WITH updated AS (
			UPDATE pets
			SET adopted = TRUE,
				adopted_details = $2,
				version = version + 1,
				updated_at = $3
			WHERE id = $1 AND adopted = FALSE
			RETURNING *
		)
		SELECT ` + petWithOwnerColumns + `
		FROM updated p
		JOIN users u ON u.id = p.owner_id
	`
	pet, err := scanPet(r.pool.QueryRow(ctx, query, id, details, updatedAt))
	if err == nil {
		return pet, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Pet{}, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pets WHERE id = $1)`, id).Scan(&exists); err != nil {
		return domain.Pet{}, err
	}
	if !exists {
		return domain.Pet{}, pgx.ErrNoRows
	}
	return domain.Pet{}, ErrAlreadyAdopted
}

func (r *PgPetRepository) queryPets(ctx context.Context, query string, args ...any) ([]domain.Pet, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pets := make([]domain.Pet, 0)
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, pet)
	}
	return pets, rows.Err()
}

func scanPet(row pgx.Row) (domain.Pet, error) {
	var (
		p     domain.Pet
		owner domain.User
	)
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Age,
		&p.Gender,
		&p.Description,
		&p.Photos,
		&p.Adopted,
		&p.AdoptedDetails,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
		&owner.ID,
		&owner.Username,
		&owner.Email,
		&owner.Image,
		&owner.Provider,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		return domain.Pet{}, err
	}
	p.Owner = &owner
	return p, nil
}
