package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/repositories"
)

// listingActiveWindow is how recently a listing must have been reviewed
// to count as active.
const listingActiveWindow = 365 * 24 * time.Hour

// ListingService promotes bronze short-term-rental listings to silver
// rows, spatially matching each to a parcel. Listings that cannot be
// matched automatically land in the review queue instead of being
// guessed.
type ListingService interface {
	Transform(ctx context.Context) (*models.BatchSummary, error)
}

type listingService struct {
	db             database.TxQuerier
	listings       repositories.ListingRepository
	reviews        repositories.ReviewRepository
	matcher        RecordMatcher
	commitWindow   int
	maxErrorSample int
	logger         *zap.Logger
}

func NewListingService(
	db database.TxQuerier,
	listings repositories.ListingRepository,
	reviews repositories.ReviewRepository,
	matcher RecordMatcher,
	commitWindow int,
	maxErrorSample int,
	logger *zap.Logger,
) ListingService {
	if commitWindow < 1 {
		commitWindow = 200
	}
	return &listingService{
		db:             db,
		listings:       listings,
		reviews:        reviews,
		matcher:        matcher,
		commitWindow:   commitWindow,
		maxErrorSample: maxErrorSample,
		logger:         logger,
	}
}

var _ ListingService = (*listingService)(nil)

func (s *listingService) Transform(ctx context.Context) (*models.BatchSummary, error) {
	summary := models.NewBatchSummary(s.maxErrorSample)

	idx, err := s.matcher.BuildIndex(ctx, s.db)
	if err != nil {
		return nil, err
	}

	pending, err := s.listings.ListUnprocessedBronze(ctx, s.db)
	if err != nil {
		return summary, err
	}

	now := time.Now()
	for start := 0; start < len(pending); start += s.commitWindow {
		end := start + s.commitWindow
		if end > len(pending) {
			end = len(pending)
		}
		window := pending[start:end]

		err = s.db.WithTx(ctx, func(q database.Querier) error {
			for _, bronze := range window {
				summary.Processed++

				silver := silverFromBronze(bronze, now)

				match := s.matcher.Match(idx, "", bronze.Lat, bronze.Lng)
				if match != nil {
					parcelID := match.ParcelID
					method := match.Method
					confidence := match.Confidence
					silver.ParcelID = &parcelID
					silver.MatchMethod = &method
					silver.MatchConfidence = &confidence
					summary.Matched++
				} else {
					summary.Unmatched++
				}

				if err := s.listings.CreateSilver(ctx, q, silver); err != nil {
					return err
				}
				summary.Valid++

				// Unmatched listings go to a reviewer rather than being
				// linked on a guess.
				if match == nil {
					entry := &models.ReviewEntry{
						ID:           uuid.New(),
						STRListingID: silver.ID,
						Status:       models.ReviewUnreviewed,
					}
					if err := s.reviews.Create(ctx, q, entry); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("listing window failed: %w", err)
		}

		s.logger.Info("listing transform progress", zap.String("summary", summary.String()))
	}

	return summary, nil
}

func silverFromBronze(bronze *models.BronzeSTRListing, now time.Time) *models.STRListing {
	silver := &models.STRListing{
		ID:             uuid.New(),
		BronzeID:       bronze.ID,
		SourceSite:     bronze.SourceSite,
		SourceID:       bronze.SourceID,
		Title:          bronze.Title,
		ListingURL:     bronze.ListingURL,
		Lat:            bronze.Lat,
		Lng:            bronze.Lng,
		Bedrooms:       bronze.Bedrooms,
		Bathrooms:      bronze.Bathrooms,
		MaxGuests:      bronze.MaxGuests,
		HostName:       bronze.HostName,
		LastReviewDate: bronze.LastReviewDate,
	}

	if bronze.NightlyPrice != nil {
		cents := int64(math.Round(*bronze.NightlyPrice * 100))
		silver.NightlyCents = &cents
	}

	// Active means reviewed within the last year; a listing nobody has
	// reviewed in that long is treated as dormant.
	silver.IsActive = bronze.LastReviewDate != nil &&
		now.Sub(*bronze.LastReviewDate) <= listingActiveWindow

	return silver
}
