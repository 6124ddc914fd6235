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

// DwellingRepository provides data access for dwellings.
type DwellingRepository interface {
	Create(ctx context.Context, q database.Querier, dwelling *models.Dwelling) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Dwelling, error)
	ListByParcel(ctx context.Context, q database.Querier, parcelID uuid.UUID) ([]*models.Dwelling, error)
	ListAll(ctx context.Context, q database.Querier) ([]*models.Dwelling, error)
	CountByParcel(ctx context.Context, q database.Querier, parcelID uuid.UUID) (int, error)
	Update(ctx context.Context, q database.Querier, dwelling *models.Dwelling) error
	DeleteBySource(ctx context.Context, q database.Querier, dataSource string) (int64, error)
	Count(ctx context.Context, q database.Querier) (int, error)
	CountBySource(ctx context.Context, q database.Querier) (map[string]int, error)
}

type dwellingRepository struct{}

func NewDwellingRepository() DwellingRepository {
	return &dwellingRepository{}
}

var _ DwellingRepository = (*dwellingRepository)(nil)

const dwellingColumns = `
	id, parcel_id, unit_number, unit_address, dwelling_type, dwelling_use,
	is_owner_occupied, bedrooms, bathrooms, square_feet, year_built, assessed_value,
	has_separate_entrance, has_sleeping_area, has_cooking_area, has_sanitation, is_year_round,
	homestead_filed, occupant_name, occupant_state, str_listing_id,
	data_source, source_confidence, notes, created_at, updated_at`

func (r *dwellingRepository) Create(ctx context.Context, q database.Querier, dwelling *models.Dwelling) error {
	if dwelling.ID == uuid.Nil {
		dwelling.ID = uuid.New()
	}

	query := `
		INSERT INTO dwellings (
			id, parcel_id, unit_number, unit_address, dwelling_type, dwelling_use,
			is_owner_occupied, bedrooms, bathrooms, square_feet, year_built, assessed_value,
			has_separate_entrance, has_sleeping_area, has_cooking_area, has_sanitation, is_year_round,
			homestead_filed, occupant_name, occupant_state, str_listing_id,
			data_source, source_confidence, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		          $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	_, err := q.Exec(ctx, query,
		dwelling.ID,
		dwelling.ParcelID,
		dwelling.UnitNumber,
		dwelling.UnitAddress,
		dwelling.Type,
		dwelling.Use,
		dwelling.IsOwnerOccupied,
		dwelling.Bedrooms,
		dwelling.Bathrooms,
		dwelling.SquareFeet,
		dwelling.YearBuilt,
		dwelling.AssessedValue,
		dwelling.HasSeparateEntrance,
		dwelling.HasSleepingArea,
		dwelling.HasCookingArea,
		dwelling.HasSanitation,
		dwelling.IsYearRound,
		dwelling.HomesteadFiled,
		dwelling.OccupantName,
		dwelling.OccupantState,
		dwelling.STRListingID,
		dwelling.DataSource,
		dwelling.SourceConfidence,
		dwelling.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create dwelling: %w", err)
	}
	return nil
}

func (r *dwellingRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Dwelling, error) {
	query := fmt.Sprintf(`SELECT %s FROM dwellings WHERE id = $1`, dwellingColumns)
	return scanDwelling(q.QueryRow(ctx, query, id))
}

func (r *dwellingRepository) ListByParcel(ctx context.Context, q database.Querier, parcelID uuid.UUID) ([]*models.Dwelling, error) {
	query := fmt.Sprintf(`SELECT %s FROM dwellings WHERE parcel_id = $1 ORDER BY unit_number NULLS FIRST, created_at`, dwellingColumns)

	rows, err := q.Query(ctx, query, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dwellings: %w", err)
	}
	defer rows.Close()

	var dwellings []*models.Dwelling
	for rows.Next() {
		dwelling, err := scanDwelling(rows)
		if err != nil {
			return nil, err
		}
		dwellings = append(dwellings, dwelling)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dwellings: %w", err)
	}
	return dwellings, nil
}

func (r *dwellingRepository) ListAll(ctx context.Context, q database.Querier) ([]*models.Dwelling, error) {
	query := fmt.Sprintf(`SELECT %s FROM dwellings ORDER BY parcel_id, unit_number NULLS FIRST`, dwellingColumns)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list dwellings: %w", err)
	}
	defer rows.Close()

	var dwellings []*models.Dwelling
	for rows.Next() {
		dwelling, err := scanDwelling(rows)
		if err != nil {
			return nil, err
		}
		dwellings = append(dwellings, dwelling)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dwellings: %w", err)
	}
	return dwellings, nil
}

func (r *dwellingRepository) CountByParcel(ctx context.Context, q database.Querier, parcelID uuid.UUID) (int, error) {
	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM dwellings WHERE parcel_id = $1`, parcelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dwellings for parcel: %w", err)
	}
	return count, nil
}

func (r *dwellingRepository) Update(ctx context.Context, q database.Querier, dwelling *models.Dwelling) error {
	query := `
		UPDATE dwellings SET
			unit_number = $2, unit_address = $3, dwelling_type = $4, dwelling_use = $5,
			is_owner_occupied = $6, bedrooms = $7, bathrooms = $8, square_feet = $9,
			year_built = $10, assessed_value = $11,
			has_separate_entrance = $12, has_sleeping_area = $13, has_cooking_area = $14,
			has_sanitation = $15, is_year_round = $16,
			homestead_filed = $17, occupant_name = $18, occupant_state = $19,
			str_listing_id = $20, data_source = $21, source_confidence = $22, notes = $23,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		dwelling.ID,
		dwelling.UnitNumber,
		dwelling.UnitAddress,
		dwelling.Type,
		dwelling.Use,
		dwelling.IsOwnerOccupied,
		dwelling.Bedrooms,
		dwelling.Bathrooms,
		dwelling.SquareFeet,
		dwelling.YearBuilt,
		dwelling.AssessedValue,
		dwelling.HasSeparateEntrance,
		dwelling.HasSleepingArea,
		dwelling.HasCookingArea,
		dwelling.HasSanitation,
		dwelling.IsYearRound,
		dwelling.HomesteadFiled,
		dwelling.OccupantName,
		dwelling.OccupantState,
		dwelling.STRListingID,
		dwelling.DataSource,
		dwelling.SourceConfidence,
		dwelling.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update dwelling: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dwelling %s not found for update", dwelling.ID)
	}
	return nil
}

// DeleteBySource removes every dwelling a given inference source created,
// used by the reset path before a fresh inference run.
func (r *dwellingRepository) DeleteBySource(ctx context.Context, q database.Querier, dataSource string) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM dwellings WHERE data_source = $1`, dataSource)
	if err != nil {
		return 0, fmt.Errorf("failed to delete dwellings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *dwellingRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM dwellings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count dwellings: %w", err)
	}
	return count, nil
}

func (r *dwellingRepository) CountBySource(ctx context.Context, q database.Querier) (map[string]int, error) {
	rows, err := q.Query(ctx, `SELECT data_source, COUNT(*) FROM dwellings GROUP BY data_source`)
	if err != nil {
		return nil, fmt.Errorf("failed to count dwellings by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan dwelling source count: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dwelling source counts: %w", err)
	}
	return counts, nil
}

func scanDwelling(row pgx.Row) (*models.Dwelling, error) {
	var d models.Dwelling
	err := row.Scan(
		&d.ID,
		&d.ParcelID,
		&d.UnitNumber,
		&d.UnitAddress,
		&d.Type,
		&d.Use,
		&d.IsOwnerOccupied,
		&d.Bedrooms,
		&d.Bathrooms,
		&d.SquareFeet,
		&d.YearBuilt,
		&d.AssessedValue,
		&d.HasSeparateEntrance,
		&d.HasSleepingArea,
		&d.HasCookingArea,
		&d.HasSanitation,
		&d.IsYearRound,
		&d.HomesteadFiled,
		&d.OccupantName,
		&d.OccupantState,
		&d.STRListingID,
		&d.DataSource,
		&d.SourceConfidence,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan dwelling: %w", err)
	}
	return &d, nil
}
