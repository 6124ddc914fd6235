package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
)

// PersonRepository provides data access for canonical people.
type PersonRepository interface {
	Create(ctx context.Context, q database.Querier, person *models.Person) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Person, error)
	GetByEmail(ctx context.Context, q database.Querier, email string) (*models.Person, error)
	GetByNameAndLocation(ctx context.Context, q database.Querier, fullName, address, town string) (*models.Person, error)
	GetByName(ctx context.Context, q database.Querier, fullName string) (*models.Person, error)
	Update(ctx context.Context, q database.Querier, person *models.Person) error
	Count(ctx context.Context, q database.Querier) (int, error)
}

type personRepository struct{}

func NewPersonRepository() PersonRepository {
	return &personRepository{}
}

var _ PersonRepository = (*personRepository)(nil)

const personColumns = `
	id, first_name, last_name, suffix, full_name, email, phone,
	primary_address, primary_town, primary_state, is_local_resident,
	data_sources, first_seen_at, last_seen_at`

func (r *personRepository) Create(ctx context.Context, q database.Querier, person *models.Person) error {
	if person.ID == uuid.Nil {
		person.ID = uuid.New()
	}

	query := `
		INSERT INTO people (
			id, first_name, last_name, suffix, full_name, email, phone,
			primary_address, primary_town, primary_state, is_local_resident,
			data_sources
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := q.Exec(ctx, query,
		person.ID,
		person.FirstName,
		person.LastName,
		person.Suffix,
		person.FullName,
		person.Email,
		person.Phone,
		person.PrimaryAddress,
		person.PrimaryTown,
		person.PrimaryState,
		person.IsLocalResident,
		person.DataSources,
	)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

func (r *personRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM people WHERE id = $1`, personColumns)
	return scanPerson(q.QueryRow(ctx, query, id))
}

func (r *personRepository) GetByEmail(ctx context.Context, q database.Querier, email string) (*models.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM people WHERE LOWER(email) = LOWER($1)`, personColumns)
	return scanPerson(q.QueryRow(ctx, query, email))
}

func (r *personRepository) GetByNameAndLocation(ctx context.Context, q database.Querier, fullName, address, town string) (*models.Person, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM people
		WHERE UPPER(full_name) = UPPER($1)
		  AND UPPER(COALESCE(primary_address, '')) = UPPER($2)
		  AND UPPER(COALESCE(primary_town, '')) = UPPER($3)
		ORDER BY last_seen_at DESC
		LIMIT 1`, personColumns)
	return scanPerson(q.QueryRow(ctx, query, fullName, address, town))
}

func (r *personRepository) GetByName(ctx context.Context, q database.Querier, fullName string) (*models.Person, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM people
		WHERE UPPER(full_name) = UPPER($1)
		ORDER BY last_seen_at DESC
		LIMIT 1`, personColumns)
	return scanPerson(q.QueryRow(ctx, query, fullName))
}

func (r *personRepository) Update(ctx context.Context, q database.Querier, person *models.Person) error {
	query := `
		UPDATE people SET
			first_name = $2, last_name = $3, suffix = $4, full_name = $5,
			email = $6, phone = $7,
			primary_address = $8, primary_town = $9, primary_state = $10,
			is_local_resident = $11, data_sources = $12, last_seen_at = NOW()
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		person.ID,
		person.FirstName,
		person.LastName,
		person.Suffix,
		person.FullName,
		person.Email,
		person.Phone,
		person.PrimaryAddress,
		person.PrimaryTown,
		person.PrimaryState,
		person.IsLocalResident,
		person.DataSources,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person %s not found for update", person.ID)
	}
	return nil
}

func (r *personRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM people`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count people: %w", err)
	}
	return count, nil
}

func scanPerson(row pgx.Row) (*models.Person, error) {
	var person models.Person
	err := row.Scan(
		&person.ID,
		&person.FirstName,
		&person.LastName,
		&person.Suffix,
		&person.FullName,
		&person.Email,
		&person.Phone,
		&person.PrimaryAddress,
		&person.PrimaryTown,
		&person.PrimaryState,
		&person.IsLocalResident,
		&person.DataSources,
		&person.FirstSeenAt,
		&person.LastSeenAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan person: %w", err)
	}
	return &person, nil
}
