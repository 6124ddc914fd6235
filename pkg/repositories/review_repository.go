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

// ReviewRepository provides data access for the review ledger.
type ReviewRepository interface {
	Create(ctx context.Context, q database.Querier, entry *models.ReviewEntry) error
	GetByListing(ctx context.Context, q database.Querier, strListingID uuid.UUID) (*models.ReviewEntry, error)
	Update(ctx context.Context, q database.Querier, entry *models.ReviewEntry) error
	ListByStatus(ctx context.Context, q database.Querier, status models.ReviewStatus, limit int) ([]*models.ReviewEntry, error)
	CountByStatus(ctx context.Context, q database.Querier) (map[models.ReviewStatus]int, error)
}

type reviewRepository struct{}

func NewReviewRepository() ReviewRepository {
	return &reviewRepository{}
}

var _ ReviewRepository = (*reviewRepository)(nil)

const reviewColumns = `
	id, str_listing_id, status, dwelling_id, rejection_reason,
	notes, reviewed_by, reviewed_at, created_at, updated_at`

func (r *reviewRepository) Create(ctx context.Context, q database.Querier, entry *models.ReviewEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = models.ReviewUnreviewed
	}

	query := `
		INSERT INTO str_review_status (
			id, str_listing_id, status, dwelling_id, rejection_reason,
			notes, reviewed_by, reviewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (str_listing_id) DO NOTHING`

	_, err := q.Exec(ctx, query,
		entry.ID,
		entry.STRListingID,
		entry.Status,
		entry.DwellingID,
		entry.RejectionReason,
		entry.Notes,
		entry.ReviewedBy,
		entry.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review entry: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByListing(ctx context.Context, q database.Querier, strListingID uuid.UUID) (*models.ReviewEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM str_review_status WHERE str_listing_id = $1`, reviewColumns)
	return scanReviewEntry(q.QueryRow(ctx, query, strListingID))
}

func (r *reviewRepository) Update(ctx context.Context, q database.Querier, entry *models.ReviewEntry) error {
	query := `
		UPDATE str_review_status SET
			status = $2, dwelling_id = $3, rejection_reason = $4,
			notes = $5, reviewed_by = $6, reviewed_at = $7, updated_at = NOW()
		WHERE str_listing_id = $1`

	tag, err := q.Exec(ctx, query,
		entry.STRListingID,
		entry.Status,
		entry.DwellingID,
		entry.RejectionReason,
		entry.Notes,
		entry.ReviewedBy,
		entry.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update review entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review entry for listing %s not found", entry.STRListingID)
	}
	return nil
}

func (r *reviewRepository) ListByStatus(ctx context.Context, q database.Querier, status models.ReviewStatus, limit int) ([]*models.ReviewEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM str_review_status
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`, reviewColumns)

	rows, err := q.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list review entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.ReviewEntry
	for rows.Next() {
		entry, err := scanReviewEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review entries: %w", err)
	}
	return entries, nil
}

func (r *reviewRepository) CountByStatus(ctx context.Context, q database.Querier) (map[models.ReviewStatus]int, error) {
	rows, err := q.Query(ctx, `SELECT status, COUNT(*) FROM str_review_status GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count review entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ReviewStatus]int)
	for rows.Next() {
		var status models.ReviewStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan review count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review counts: %w", err)
	}
	return counts, nil
}

func scanReviewEntry(row pgx.Row) (*models.ReviewEntry, error) {
	var entry models.ReviewEntry
	err := row.Scan(
		&entry.ID,
		&entry.STRListingID,
		&entry.Status,
		&entry.DwellingID,
		&entry.RejectionReason,
		&entry.Notes,
		&entry.ReviewedBy,
		&entry.ReviewedAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan review entry: %w", err)
	}
	return &entry, nil
}
