// Package repositories holds the raw-SQL data access layer. Every method
// takes an explicit database.Querier so batch runners can pass the pool
// or an open transaction; repositories never reach into ambient state.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
)

// ParcelRepository provides data access for parcels and their per-year
// tax status rows.
type ParcelRepository interface {
	Create(ctx context.Context, q database.Querier, parcel *models.Parcel) error
	Update(ctx context.Context, q database.Querier, parcel *models.Parcel) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Parcel, error)
	GetBySpanNormalized(ctx context.Context, q database.Querier, spanNorm string) (*models.Parcel, error)
	ListAll(ctx context.Context, q database.Querier) ([]*models.Parcel, error)
	UpsertTaxStatus(ctx context.Context, q database.Querier, status *models.TaxStatus) error
	GetTaxStatus(ctx context.Context, q database.Querier, parcelID uuid.UUID, taxYear int) (*models.TaxStatus, error)
	Count(ctx context.Context, q database.Querier) (int, error)
}

type parcelRepository struct{}

func NewParcelRepository() ParcelRepository {
	return &parcelRepository{}
}

var _ ParcelRepository = (*parcelRepository)(nil)

const parcelColumns = `
	id, span, span_normalized, address, town, acres,
	assessed_land, assessed_building, assessed_total,
	property_type, descprop, cat_code, housesite_value, homestead_filed,
	lat, lng, geometry, created_at, updated_at`

func (r *parcelRepository) Create(ctx context.Context, q database.Querier, parcel *models.Parcel) error {
	if parcel.ID == uuid.Nil {
		parcel.ID = uuid.New()
	}

	geomJSON, err := marshalRings(parcel.Rings)
	if err != nil {
		return fmt.Errorf("failed to marshal parcel geometry: %w", err)
	}

	query := `
		INSERT INTO parcels (
			id, span, span_normalized, address, town, acres,
			assessed_land, assessed_building, assessed_total,
			property_type, descprop, cat_code, housesite_value, homestead_filed,
			lat, lng, geometry
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = q.Exec(ctx, query,
		parcel.ID,
		parcel.Span,
		parcel.SpanNormalized,
		parcel.Address,
		parcel.Town,
		parcel.Acres,
		parcel.AssessedLand,
		parcel.AssessedBuilding,
		parcel.AssessedTotal,
		parcel.PropertyType,
		parcel.Description,
		parcel.CatCode,
		parcel.HousesiteValue,
		parcel.HomesteadFiled,
		parcel.Lat,
		parcel.Lng,
		geomJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create parcel: %w", err)
	}
	return nil
}

func (r *parcelRepository) Update(ctx context.Context, q database.Querier, parcel *models.Parcel) error {
	geomJSON, err := marshalRings(parcel.Rings)
	if err != nil {
		return fmt.Errorf("failed to marshal parcel geometry: %w", err)
	}

	query := `
		UPDATE parcels SET
			span = $2, span_normalized = $3, address = $4, town = $5, acres = $6,
			assessed_land = $7, assessed_building = $8, assessed_total = $9,
			property_type = $10, descprop = $11, cat_code = $12,
			housesite_value = $13, homestead_filed = $14,
			lat = $15, lng = $16, geometry = $17,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		parcel.ID,
		parcel.Span,
		parcel.SpanNormalized,
		parcel.Address,
		parcel.Town,
		parcel.Acres,
		parcel.AssessedLand,
		parcel.AssessedBuilding,
		parcel.AssessedTotal,
		parcel.PropertyType,
		parcel.Description,
		parcel.CatCode,
		parcel.HousesiteValue,
		parcel.HomesteadFiled,
		parcel.Lat,
		parcel.Lng,
		geomJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update parcel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("parcel %s not found for update", parcel.ID)
	}
	return nil
}

func (r *parcelRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Parcel, error) {
	query := fmt.Sprintf(`SELECT %s FROM parcels WHERE id = $1`, parcelColumns)
	return scanParcel(q.QueryRow(ctx, query, id))
}

func (r *parcelRepository) GetBySpanNormalized(ctx context.Context, q database.Querier, spanNorm string) (*models.Parcel, error) {
	query := fmt.Sprintf(`SELECT %s FROM parcels WHERE span_normalized = $1`, parcelColumns)
	return scanParcel(q.QueryRow(ctx, query, spanNorm))
}

func (r *parcelRepository) ListAll(ctx context.Context, q database.Querier) ([]*models.Parcel, error) {
	query := fmt.Sprintf(`SELECT %s FROM parcels ORDER BY span`, parcelColumns)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	defer rows.Close()

	var parcels []*models.Parcel
	for rows.Next() {
		parcel, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		parcels = append(parcels, parcel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parcels: %w", err)
	}
	return parcels, nil
}

func (r *parcelRepository) UpsertTaxStatus(ctx context.Context, q database.Querier, status *models.TaxStatus) error {
	if status.ID == uuid.Nil {
		status.ID = uuid.New()
	}

	query := `
		INSERT INTO tax_status (id, parcel_id, tax_year, homestead_filed, housesite_value, education_tax, municipal_tax)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (parcel_id, tax_year) DO UPDATE SET
			homestead_filed = EXCLUDED.homestead_filed,
			housesite_value = EXCLUDED.housesite_value,
			education_tax = EXCLUDED.education_tax,
			municipal_tax = EXCLUDED.municipal_tax`

	_, err := q.Exec(ctx, query,
		status.ID,
		status.ParcelID,
		status.TaxYear,
		status.HomesteadFiled,
		status.HousesiteValue,
		status.EducationTax,
		status.MunicipalTax,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert tax status: %w", err)
	}
	return nil
}

func (r *parcelRepository) GetTaxStatus(ctx context.Context, q database.Querier, parcelID uuid.UUID, taxYear int) (*models.TaxStatus, error) {
	query := `
		SELECT id, parcel_id, tax_year, homestead_filed, housesite_value, education_tax, municipal_tax, created_at
		FROM tax_status
		WHERE parcel_id = $1 AND tax_year = $2`

	var status models.TaxStatus
	err := q.QueryRow(ctx, query, parcelID, taxYear).Scan(
		&status.ID,
		&status.ParcelID,
		&status.TaxYear,
		&status.HomesteadFiled,
		&status.HousesiteValue,
		&status.EducationTax,
		&status.MunicipalTax,
		&status.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tax status: %w", err)
	}
	return &status, nil
}

func (r *parcelRepository) Count(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM parcels`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count parcels: %w", err)
	}
	return count, nil
}

func scanParcel(row pgx.Row) (*models.Parcel, error) {
	var parcel models.Parcel
	var geomJSON []byte

	err := row.Scan(
		&parcel.ID,
		&parcel.Span,
		&parcel.SpanNormalized,
		&parcel.Address,
		&parcel.Town,
		&parcel.Acres,
		&parcel.AssessedLand,
		&parcel.AssessedBuilding,
		&parcel.AssessedTotal,
		&parcel.PropertyType,
		&parcel.Description,
		&parcel.CatCode,
		&parcel.HousesiteValue,
		&parcel.HomesteadFiled,
		&parcel.Lat,
		&parcel.Lng,
		&geomJSON,
		&parcel.CreatedAt,
		&parcel.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan parcel: %w", err)
	}

	if len(geomJSON) > 0 && string(geomJSON) != "null" {
		if jsonErr := json.Unmarshal(geomJSON, &parcel.Rings); jsonErr != nil {
			return nil, fmt.Errorf("failed to unmarshal parcel geometry: %w", jsonErr)
		}
	}
	return &parcel, nil
}

// marshalRings serializes boundary rings for the JSONB geometry column,
// returning nil (SQL NULL) when there is no geometry.
func marshalRings(rings [][][2]float64) ([]byte, error) {
	if len(rings) == 0 {
		return nil, nil
	}
	return json.Marshal(rings)
}
