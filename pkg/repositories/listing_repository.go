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

// ListingRepository provides data access for bronze and silver
// short-term-rental listings.
type ListingRepository interface {
	CreateBronze(ctx context.Context, q database.Querier, listing *models.BronzeSTRListing) error
	ListUnprocessedBronze(ctx context.Context, q database.Querier) ([]*models.BronzeSTRListing, error)
	CreateSilver(ctx context.Context, q database.Querier, listing *models.STRListing) error
	GetSilverByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.STRListing, error)
	UpdateSilverMatch(ctx context.Context, q database.Querier, listing *models.STRListing) error
	ListSilverByParcel(ctx context.Context, q database.Querier, parcelID uuid.UUID) ([]*models.STRListing, error)
	CountSilver(ctx context.Context, q database.Querier) (int, error)
	CountMatchedSilver(ctx context.Context, q database.Querier) (int, error)
}

type listingRepository struct{}

func NewListingRepository() ListingRepository {
	return &listingRepository{}
}

var _ ListingRepository = (*listingRepository)(nil)

func (r *listingRepository) CreateBronze(ctx context.Context, q database.Querier, listing *models.BronzeSTRListing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}

	query := `
		INSERT INTO bronze_str_listings (
			id, source_site, source_id, title, listing_url, lat, lng,
			bedrooms, bathrooms, max_guests, nightly_price, host_name,
			last_review_date, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (source_site, source_id) DO NOTHING`

	_, err := q.Exec(ctx, query,
		listing.ID,
		listing.SourceSite,
		listing.SourceID,
		listing.Title,
		listing.ListingURL,
		listing.Lat,
		listing.Lng,
		listing.Bedrooms,
		listing.Bathrooms,
		listing.MaxGuests,
		listing.NightlyPrice,
		listing.HostName,
		listing.LastReviewDate,
		listing.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bronze listing: %w", err)
	}
	return nil
}

func (r *listingRepository) ListUnprocessedBronze(ctx context.Context, q database.Querier) ([]*models.BronzeSTRListing, error) {
	query := `
		SELECT id, source_site, source_id, title, listing_url, lat, lng,
		       bedrooms, bathrooms, max_guests, nightly_price, host_name,
		       last_review_date, scraped_at, created_at
		FROM bronze_str_listings
		WHERE id NOT IN (SELECT bronze_id FROM str_listings)
		ORDER BY created_at`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed bronze listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.BronzeSTRListing
	for rows.Next() {
		var l models.BronzeSTRListing
		err := rows.Scan(
			&l.ID,
			&l.SourceSite,
			&l.SourceID,
			&l.Title,
			&l.ListingURL,
			&l.Lat,
			&l.Lng,
			&l.Bedrooms,
			&l.Bathrooms,
			&l.MaxGuests,
			&l.NightlyPrice,
			&l.HostName,
			&l.LastReviewDate,
			&l.ScrapedAt,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bronze listing: %w", err)
		}
		listings = append(listings, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bronze listings: %w", err)
	}
	return listings, nil
}

const silverListingColumns = `
	id, bronze_id, source_site, source_id, title, listing_url, lat, lng,
	bedrooms, bathrooms, max_guests, nightly_cents, host_name, last_review_date,
	is_active, parcel_id, match_method, match_confidence, created_at, updated_at`

func (r *listingRepository) CreateSilver(ctx context.Context, q database.Querier, listing *models.STRListing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}

	query := `
		INSERT INTO str_listings (
			id, bronze_id, source_site, source_id, title, listing_url, lat, lng,
			bedrooms, bathrooms, max_guests, nightly_cents, host_name, last_review_date,
			is_active, parcel_id, match_method, match_confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (bronze_id) DO NOTHING`

	_, err := q.Exec(ctx, query,
		listing.ID,
		listing.BronzeID,
		listing.SourceSite,
		listing.SourceID,
		listing.Title,
		listing.ListingURL,
		listing.Lat,
		listing.Lng,
		listing.Bedrooms,
		listing.Bathrooms,
		listing.MaxGuests,
		listing.NightlyCents,
		listing.HostName,
		listing.LastReviewDate,
		listing.IsActive,
		listing.ParcelID,
		listing.MatchMethod,
		listing.MatchConfidence,
	)
	if err != nil {
		return fmt.Errorf("failed to create silver listing: %w", err)
	}
	return nil
}

func (r *listingRepository) GetSilverByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.STRListing, error) {
	query := fmt.Sprintf(`SELECT %s FROM str_listings WHERE id = $1`, silverListingColumns)
	return scanSilverListing(q.QueryRow(ctx, query, id))
}

func (r *listingRepository) UpdateSilverMatch(ctx context.Context, q database.Querier, listing *models.STRListing) error {
	query := `
		UPDATE str_listings SET
			parcel_id = $2, match_method = $3, match_confidence = $4,
			updated_at = NOW()
		WHERE id = $1`

	_, err := q.Exec(ctx, query,
		listing.ID,
		listing.ParcelID,
		listing.MatchMethod,
		listing.MatchConfidence,
	)
	if err != nil {
		return fmt.Errorf("failed to update silver listing match: %w", err)
	}
	return nil
}

func (r *listingRepository) ListSilverByParcel(ctx context.Context, q database.Querier, parcelID uuid.UUID) ([]*models.STRListing, error) {
	query := fmt.Sprintf(`SELECT %s FROM str_listings WHERE parcel_id = $1 ORDER BY created_at`, silverListingColumns)

	rows, err := q.Query(ctx, query, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list silver listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.STRListing
	for rows.Next() {
		listing, err := scanSilverListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating silver listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) CountSilver(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM str_listings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count silver listings: %w", err)
	}
	return count, nil
}

func (r *listingRepository) CountMatchedSilver(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM str_listings WHERE parcel_id IS NOT NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matched listings: %w", err)
	}
	return count, nil
}

func scanSilverListing(row pgx.Row) (*models.STRListing, error) {
	var l models.STRListing
	err := row.Scan(
		&l.ID,
		&l.BronzeID,
		&l.SourceSite,
		&l.SourceID,
		&l.Title,
		&l.ListingURL,
		&l.Lat,
		&l.Lng,
		&l.Bedrooms,
		&l.Bathrooms,
		&l.MaxGuests,
		&l.NightlyCents,
		&l.HostName,
		&l.LastReviewDate,
		&l.IsActive,
		&l.ParcelID,
		&l.MatchMethod,
		&l.MatchConfidence,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan silver listing: %w", err)
	}
	return &l, nil
}
