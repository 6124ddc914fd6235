package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/parse"
	"github.com/madriverdata/parcelgraph/pkg/repositories"
)

// TransferService promotes bronze property transfers to validated silver
// rows, matching each to a parcel by identifier.
type TransferService interface {
	Transform(ctx context.Context) (*models.BatchSummary, error)
	// ValidateBronze turns one bronze row into a silver candidate, or
	// nil with a skip reason when required fields are missing.
	ValidateBronze(bronze *models.BronzeTransfer) (*models.PropertyTransfer, string)
}

type transferService struct {
	db             database.TxQuerier
	transfers      repositories.TransferRepository
	matcher        RecordMatcher
	commitWindow   int
	maxErrorSample int
	logger         *zap.Logger
}

func NewTransferService(
	db database.TxQuerier,
	transfers repositories.TransferRepository,
	matcher RecordMatcher,
	commitWindow int,
	maxErrorSample int,
	logger *zap.Logger,
) TransferService {
	if commitWindow < 1 {
		commitWindow = 200
	}
	return &transferService{
		db:             db,
		transfers:      transfers,
		matcher:        matcher,
		commitWindow:   commitWindow,
		maxErrorSample: maxErrorSample,
		logger:         logger,
	}
}

var _ TransferService = (*transferService)(nil)

func (s *transferService) Transform(ctx context.Context) (*models.BatchSummary, error) {
	summary := models.NewBatchSummary(s.maxErrorSample)

	idx, err := s.matcher.BuildIndex(ctx, s.db)
	if err != nil {
		return nil, err
	}

	// Unprocessed-only listing makes re-runs resume where they stopped
	// instead of duplicating silver rows.
	pending, err := s.transfers.ListUnprocessedBronze(ctx, s.db)
	if err != nil {
		return summary, err
	}

	for start := 0; start < len(pending); start += s.commitWindow {
		end := start + s.commitWindow
		if end > len(pending) {
			end = len(pending)
		}
		window := pending[start:end]

		err = s.db.WithTx(ctx, func(q database.Querier) error {
			for _, bronze := range window {
				summary.Processed++

				silver, skipReason := s.ValidateBronze(bronze)
				if silver == nil {
					summary.RecordError("transfer %s: %s", bronze.ID, skipReason)
					continue
				}

				if match := s.matcher.Match(idx, silver.Span, nil, nil); match != nil {
					parcelID := match.ParcelID
					silver.ParcelID = &parcelID
					summary.Matched++
				} else {
					summary.Unmatched++
				}

				if err := s.transfers.CreateSilver(ctx, q, silver); err != nil {
					return err
				}
				summary.Valid++
			}
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("transfer window failed: %w", err)
		}

		s.logger.Info("transfer transform progress", zap.String("summary", summary.String()))
	}

	return summary, nil
}

// ValidateBronze applies the required-field gate and normalizations.
func (s *transferService) ValidateBronze(bronze *models.BronzeTransfer) (*models.PropertyTransfer, string) {
	if bronze.Span == nil || parse.NormalizeSPAN(*bronze.Span) == "" {
		return nil, "missing span"
	}
	if bronze.SalePrice == nil {
		return nil, "missing sale price"
	}
	if bronze.SaleDate == nil {
		return nil, "missing sale date"
	}

	silver := &models.PropertyTransfer{
		ID:             uuid.New(),
		BronzeID:       bronze.ID,
		Span:           *bronze.Span,
		SaleDate:       *bronze.SaleDate,
		SalePriceCents: int64(math.Round(*bronze.SalePrice * 100)),
		BuyerName:      bronze.BuyerName,
		SellerName:     bronze.SellerName,
	}

	if bronze.BuyerState != nil {
		if state := parse.NormalizeState(*bronze.BuyerState); state != "" {
			silver.BuyerState = &state
			silver.IsOutOfStateBuyer = state != "VT"
		}
	}

	if bronze.IntendedUse != nil {
		use := parse.NormalizeIntendedUse(*bronze.IntendedUse)
		if use != "" {
			silver.IntendedUse = &use
			silver.IsPrimaryResidence = use == "primary"
			silver.IsSecondaryResidence = use == "secondary"
		}
	}

	if *bronze.SalePrice == 0 {
		silver.ValidationNotes = append(silver.ValidationNotes, "zero sale price, likely non-arms-length transfer")
	} else if *bronze.SalePrice > 50_000_000 {
		silver.ValidationNotes = append(silver.ValidationNotes, "implausibly high sale price")
	}

	return silver, ""
}
