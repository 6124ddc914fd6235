package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
)

// OwnershipRepository provides data access for parcel ownership links.
type OwnershipRepository interface {
	Create(ctx context.Context, q database.Querier, ownership *models.PropertyOwnership) error
	ListByParcel(ctx context.Context, q database.Querier, parcelID uuid.UUID) ([]*models.PropertyOwnership, error)
	DeleteByParcelAndSource(ctx context.Context, q database.Querier, parcelID uuid.UUID, dataSource string) (int64, error)
	Count(ctx context.Context, q database.Querier) (int, error)
}

type ownershipRepository struct{}

func NewOwnershipRepository() OwnershipRepository {
	return &ownershipRepository{}
}

var _ OwnershipRepository = (*ownershipRepository)(nil)

// Create persists an ownership link. The exactly-one-owner invariant is
// validated here before any SQL runs; a violating row is a per-record
// hard failure, never a silent default.
func (r *ownershipRepository) Create(ctx context.Context, q database.Querier, ownership *models.PropertyOwnership) error {
	if err := ownership.Validate(); err != nil {
		return err
	}
	if ownership.ID == uuid.Nil {
		ownership.ID = uuid.New()
	}

	query := `
		INSERT INTO property_ownerships (
			id, parcel_id, person_id, organization_id, dwelling_id,
			ownership_share, ownership_type, is_primary_owner,
			as_listed_name, data_source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := q.Exec(ctx, query,
		ownership.ID,
		ownership.ParcelID,
		ownership.PersonID,
		ownership.OrganizationID,
		ownership.DwellingID,
		ownership.OwnershipShare,
		ownership.OwnershipType,
		ownership.IsPrimaryOwner,
		ownership.AsListedName,
		ownership.DataSource,
	)
	if err != nil {
		return fmt.Errorf("failed to create ownership: %w", err)
	}
	return nil
}

func (r *ownershipRepository) ListByParcel(ctx context.Context, q database.Querier, parcelID uuid.UUID) ([]*models.PropertyOwnership, error) {
	query := `
		SELECT id, parcel_id, person_id, organization_id, dwelling_id,
		       ownership_share, ownership_type, is_primary_owner,
		       as_listed_name, data_source, created_at
		FROM property_ownerships
		WHERE parcel_id = $1
		ORDER BY is_primary_owner DESC, created_at`

	rows, err := q.Query(ctx, query, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ownerships: %w", err)
	}
	defer rows.Close()

	var ownerships []*models.PropertyOwnership
	for rows.Next() {
		var o models.PropertyOwnership
		err := rows.Scan(
			&o.ID,
			&o.ParcelID,
			&o.PersonID,
			&o.OrganizationID,
			&o.DwellingID,
			&o.OwnershipShare,
			&o.OwnershipType,
			&o.IsPrimaryOwner,
			&o.AsListedName,
			&o.DataSource,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ownership: %w", err)
		}
		ownerships = append(ownerships, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ownerships: %w", err)
	}
	return ownerships, nil
}

// DeleteByParcelAndSource clears a source's ownership rows for a parcel
// so a re-ingest replaces rather than appends.
func (r *ownershipRepository) DeleteByParcelAndSource(ctx context.Context, q database.Querier, parcelID uuid.UUID, dataSource string) (int64, error) {
	tag, err := q.Exec(ctx,
		`DELETE FROM property_ownerships WHERE parcel_id = $1 AND data_source = $2`,
		parcelID, dataSource)
	if err != nil {
		return 0, fmt.Errorf("failed to delete ownerships: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ownershipRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM property_ownerships`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ownerships: %w", err)
	}
	return count, nil
}
