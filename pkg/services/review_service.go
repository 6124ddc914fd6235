package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/apperrors"
	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/repositories"
)

// ReviewService is the review-ledger state machine. A listing starts
// unreviewed and moves to confirmed, rejected, or skipped; terminal
// states re-enter unreviewed only through an explicit Reset. Repeating
// an identical transition is a no-op; a conflicting one fails with
// ErrInvalidTransition.
type ReviewService interface {
	Confirm(ctx context.Context, strListingID, dwellingID uuid.UUID, reviewer string, notes string) (*models.ReviewEntry, error)
	Reject(ctx context.Context, strListingID uuid.UUID, reason models.RejectionReason, reviewer string, notes string) (*models.ReviewEntry, error)
	Skip(ctx context.Context, strListingID uuid.UUID, reviewer string) (*models.ReviewEntry, error)
	Reset(ctx context.Context, strListingID uuid.UUID) (*models.ReviewEntry, error)
	Queue(ctx context.Context, limit int) ([]*models.ReviewEntry, error)
}

type reviewService struct {
	db        database.TxQuerier
	reviews   repositories.ReviewRepository
	dwellings repositories.DwellingRepository
	listings  repositories.ListingRepository
	logger    *zap.Logger
}

func NewReviewService(
	db database.TxQuerier,
	reviews repositories.ReviewRepository,
	dwellings repositories.DwellingRepository,
	listings repositories.ListingRepository,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		db:        db,
		reviews:   reviews,
		dwellings: dwellings,
		listings:  listings,
		logger:    logger,
	}
}

var _ ReviewService = (*reviewService)(nil)

// Confirm requires a target dwelling and sets that dwelling's listing
// link authoritatively, overwriting any weaker automatic guess.
func (s *reviewService) Confirm(ctx context.Context, strListingID, dwellingID uuid.UUID, reviewer string, notes string) (*models.ReviewEntry, error) {
	if dwellingID == uuid.Nil {
		return nil, apperrors.ErrMissingDwelling
	}

	var result *models.ReviewEntry
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		entry, err := s.getOrCreateEntry(ctx, q, strListingID)
		if err != nil {
			return err
		}

		if entry.Status == models.ReviewConfirmed {
			if entry.DwellingID != nil && *entry.DwellingID == dwellingID {
				result = entry // identical repetition, idempotent
				return nil
			}
			return fmt.Errorf("listing %s already confirmed to a different dwelling: %w", strListingID, apperrors.ErrInvalidTransition)
		}
		if entry.Status != models.ReviewUnreviewed {
			return fmt.Errorf("listing %s is %s: %w", strListingID, entry.Status, apperrors.ErrInvalidTransition)
		}

		dwelling, err := s.dwellings.GetByID(ctx, q, dwellingID)
		if err != nil {
			return err
		}
		if dwelling == nil {
			return fmt.Errorf("dwelling %s: %w", dwellingID, apperrors.ErrNotFound)
		}

		listing, err := s.listings.GetSilverByID(ctx, q, strListingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return fmt.Errorf("listing %s: %w", strListingID, apperrors.ErrNotFound)
		}

		// Manual confirmation outranks every automatic match.
		dwelling.STRListingID = &strListingID
		dwelling.Use = models.UseShortTermRental
		dwelling.DataSource = models.SignalManualReview
		dwelling.SourceConfidence = 1.0
		if err := s.dwellings.Update(ctx, q, dwelling); err != nil {
			return err
		}

		// The listing's match columns follow the confirmed dwelling, so
		// it counts as matched and inference sees it on the parcel.
		method := models.MatchByManual
		confidence := 1.0
		listing.ParcelID = &dwelling.ParcelID
		listing.MatchMethod = &method
		listing.MatchConfidence = &confidence
		if err := s.listings.UpdateSilverMatch(ctx, q, listing); err != nil {
			return err
		}

		now := time.Now()
		entry.Status = models.ReviewConfirmed
		entry.DwellingID = &dwellingID
		entry.RejectionReason = nil
		entry.ReviewedBy = &reviewer
		entry.ReviewedAt = &now
		setNotes(entry, notes)
		if err := s.reviews.Update(ctx, q, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("listing confirmed",
		zap.String("listing_id", strListingID.String()),
		zap.String("dwelling_id", dwellingID.String()),
		zap.String("reviewer", reviewer))
	return result, nil
}

// Reject requires a reason from the closed set.
func (s *reviewService) Reject(ctx context.Context, strListingID uuid.UUID, reason models.RejectionReason, reviewer string, notes string) (*models.ReviewEntry, error) {
	if !models.ValidRejectionReason(reason) {
		return nil, fmt.Errorf("reason %q: %w", reason, apperrors.ErrInvalidReason)
	}

	var result *models.ReviewEntry
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		entry, err := s.getOrCreateEntry(ctx, q, strListingID)
		if err != nil {
			return err
		}

		if entry.Status == models.ReviewRejected {
			if entry.RejectionReason != nil && *entry.RejectionReason == reason {
				result = entry
				return nil
			}
			return fmt.Errorf("listing %s already rejected for a different reason: %w", strListingID, apperrors.ErrInvalidTransition)
		}
		if entry.Status != models.ReviewUnreviewed {
			return fmt.Errorf("listing %s is %s: %w", strListingID, entry.Status, apperrors.ErrInvalidTransition)
		}

		now := time.Now()
		entry.Status = models.ReviewRejected
		entry.RejectionReason = &reason
		entry.DwellingID = nil
		entry.ReviewedBy = &reviewer
		entry.ReviewedAt = &now
		setNotes(entry, notes)
		if err := s.reviews.Update(ctx, q, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Skip defers the decision with no payload.
func (s *reviewService) Skip(ctx context.Context, strListingID uuid.UUID, reviewer string) (*models.ReviewEntry, error) {
	var result *models.ReviewEntry
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		entry, err := s.getOrCreateEntry(ctx, q, strListingID)
		if err != nil {
			return err
		}

		if entry.Status == models.ReviewSkipped {
			result = entry
			return nil
		}
		if entry.Status != models.ReviewUnreviewed {
			return fmt.Errorf("listing %s is %s: %w", strListingID, entry.Status, apperrors.ErrInvalidTransition)
		}

		now := time.Now()
		entry.Status = models.ReviewSkipped
		entry.ReviewedBy = &reviewer
		entry.ReviewedAt = &now
		if err := s.reviews.Update(ctx, q, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reset returns any state to unreviewed and clears the payload.
func (s *reviewService) Reset(ctx context.Context, strListingID uuid.UUID) (*models.ReviewEntry, error) {
	var result *models.ReviewEntry
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		entry, err := s.reviews.GetByListing(ctx, q, strListingID)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("review entry for listing %s: %w", strListingID, apperrors.ErrNotFound)
		}
		if entry.Status == models.ReviewUnreviewed {
			result = entry
			return nil
		}

		entry.Status = models.ReviewUnreviewed
		entry.DwellingID = nil
		entry.RejectionReason = nil
		entry.Notes = nil
		entry.ReviewedBy = nil
		entry.ReviewedAt = nil
		if err := s.reviews.Update(ctx, q, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *reviewService) Queue(ctx context.Context, limit int) ([]*models.ReviewEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.reviews.ListByStatus(ctx, s.db, models.ReviewUnreviewed, limit)
}

// getOrCreateEntry loads the listing's ledger row, creating the initial
// unreviewed row if the listing exists but was never enqueued.
func (s *reviewService) getOrCreateEntry(ctx context.Context, q database.Querier, strListingID uuid.UUID) (*models.ReviewEntry, error) {
	entry, err := s.reviews.GetByListing(ctx, q, strListingID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	listing, err := s.listings.GetSilverByID(ctx, q, strListingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, fmt.Errorf("listing %s: %w", strListingID, apperrors.ErrNotFound)
	}

	entry = &models.ReviewEntry{
		ID:           uuid.New(),
		STRListingID: strListingID,
		Status:       models.ReviewUnreviewed,
	}
	if err := s.reviews.Create(ctx, q, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func setNotes(entry *models.ReviewEntry, notes string) {
	if notes == "" {
		entry.Notes = nil
		return
	}
	entry.Notes = &notes
}
