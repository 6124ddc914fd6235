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

// OrganizationRepository provides data access for canonical organizations.
type OrganizationRepository interface {
	Create(ctx context.Context, q database.Querier, org *models.Organization) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Organization, error)
	GetByName(ctx context.Context, q database.Querier, name string) (*models.Organization, error)
	Update(ctx context.Context, q database.Querier, org *models.Organization) error
	Count(ctx context.Context, q database.Querier) (int, error)
}

type organizationRepository struct{}

func NewOrganizationRepository() OrganizationRepository {
	return &organizationRepository{}
}

var _ OrganizationRepository = (*organizationRepository)(nil)

const orgColumns = `
	id, name, display_name, org_type, registered_state, address, town,
	primary_person_id, data_sources, created_at, updated_at`

func (r *organizationRepository) Create(ctx context.Context, q database.Querier, org *models.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}

	query := `
		INSERT INTO organizations (
			id, name, display_name, org_type, registered_state, address, town,
			primary_person_id, data_sources
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		org.ID,
		org.Name,
		org.DisplayName,
		org.OrgType,
		org.RegisteredState,
		org.Address,
		org.Town,
		org.PrimaryPersonID,
		org.DataSources,
	)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Organization, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizations WHERE id = $1`, orgColumns)
	return scanOrganization(q.QueryRow(ctx, query, id))
}

// GetByName looks up by the upper-cased canonical name.
func (r *organizationRepository) GetByName(ctx context.Context, q database.Querier, name string) (*models.Organization, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizations WHERE name = UPPER(TRIM($1))`, orgColumns)
	return scanOrganization(q.QueryRow(ctx, query, name))
}

func (r *organizationRepository) Update(ctx context.Context, q database.Querier, org *models.Organization) error {
	query := `
		UPDATE organizations SET
			name = $2, display_name = $3, org_type = $4,
			registered_state = $5, address = $6, town = $7,
			primary_person_id = $8, data_sources = $9, updated_at = NOW()
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		org.ID,
		org.Name,
		org.DisplayName,
		org.OrgType,
		org.RegisteredState,
		org.Address,
		org.Town,
		org.PrimaryPersonID,
		org.DataSources,
	)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("organization %s not found for update", org.ID)
	}
	return nil
}

func (r *organizationRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}
	return count, nil
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.DisplayName,
		&org.OrgType,
		&org.RegisteredState,
		&org.Address,
		&org.Town,
		&org.PrimaryPersonID,
		&org.DataSources,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}
	return &org, nil
}
