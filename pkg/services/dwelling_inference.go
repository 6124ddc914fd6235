package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/parse"
	"github.com/madriverdata/parcelgraph/pkg/repositories"
)

// InferenceStats summarizes one dwelling-inference run.
type InferenceStats struct {
	ParcelsTotal            int
	ParcelsWithDwellings    int
	ParcelsWithoutDwellings int
	DwellingsCreated        int
	SkippedExisting         int
	SkippedNoSignal         int
	BySignal                map[string]int
}

// DwellingInferenceService materializes dwellings from positive evidence
// only. The default count for any parcel is zero; a row appears only when
// one of the four signals fires. Re-runs skip parcels that already have
// dwellings, so the pass is idempotent.
type DwellingInferenceService interface {
	Run(ctx context.Context, reset bool) (*InferenceStats, error)
	// InferParcel evaluates the signal hierarchy for one parcel and
	// returns the dwellings to create, without persisting anything.
	InferParcel(parcel *models.Parcel, taxStatus *models.TaxStatus, listings []*models.STRListing) []*models.Dwelling
}

type dwellingInferenceService struct {
	db           database.TxQuerier
	parcels      repositories.ParcelRepository
	dwellings    repositories.DwellingRepository
	listings     repositories.ListingRepository
	taxYear      int
	commitWindow int
	logger       *zap.Logger
}

func NewDwellingInferenceService(
	db database.TxQuerier,
	parcels repositories.ParcelRepository,
	dwellings repositories.DwellingRepository,
	listings repositories.ListingRepository,
	taxYear int,
	commitWindow int,
	logger *zap.Logger,
) DwellingInferenceService {
	if commitWindow < 1 {
		commitWindow = 200
	}
	return &dwellingInferenceService{
		db:           db,
		parcels:      parcels,
		dwellings:    dwellings,
		listings:     listings,
		taxYear:      taxYear,
		commitWindow: commitWindow,
		logger:       logger,
	}
}

var _ DwellingInferenceService = (*dwellingInferenceService)(nil)

func (s *dwellingInferenceService) Run(ctx context.Context, reset bool) (*InferenceStats, error) {
	stats := &InferenceStats{BySignal: make(map[string]int)}

	if reset {
		var cleared int64
		for _, source := range []string{models.SignalDescription, models.SignalHomestead, models.SignalHousesite, models.SignalSTRListing} {
			n, err := s.dwellings.DeleteBySource(ctx, s.db, source)
			if err != nil {
				return nil, fmt.Errorf("failed to clear inferred dwellings: %w", err)
			}
			cleared += n
		}
		s.logger.Info("cleared inferred dwellings", zap.Int64("count", cleared))
	}

	parcels, err := s.parcels.ListAll(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	stats.ParcelsTotal = len(parcels)

	// One transaction per commit window so an aborted run leaves a
	// consistent, re-runnable prefix.
	for start := 0; start < len(parcels); start += s.commitWindow {
		end := start + s.commitWindow
		if end > len(parcels) {
			end = len(parcels)
		}
		window := parcels[start:end]

		err := s.db.WithTx(ctx, func(q database.Querier) error {
			for _, parcel := range window {
				if err := s.inferAndPersist(ctx, q, parcel, stats); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("inference window failed at parcel %d: %w", start, err)
		}

		s.logger.Info("inference progress",
			zap.Int("processed", end),
			zap.Int("total", len(parcels)),
			zap.Int("dwellings_created", stats.DwellingsCreated))
	}

	return stats, nil
}

func (s *dwellingInferenceService) inferAndPersist(ctx context.Context, q database.Querier, parcel *models.Parcel, stats *InferenceStats) error {
	existing, err := s.dwellings.CountByParcel(ctx, q, parcel.ID)
	if err != nil {
		return err
	}
	if existing > 0 {
		stats.SkippedExisting++
		return nil
	}

	taxStatus, err := s.parcels.GetTaxStatus(ctx, q, parcel.ID, s.taxYear)
	if err != nil {
		return err
	}
	listings, err := s.listings.ListSilverByParcel(ctx, q, parcel.ID)
	if err != nil {
		return err
	}

	dwellings := s.InferParcel(parcel, taxStatus, listings)
	if len(dwellings) == 0 {
		stats.SkippedNoSignal++
		stats.ParcelsWithoutDwellings++
		return nil
	}

	for _, d := range dwellings {
		if err := s.dwellings.Create(ctx, q, d); err != nil {
			return err
		}
		stats.DwellingsCreated++
		stats.BySignal[d.DataSource]++
	}
	stats.ParcelsWithDwellings++
	return nil
}

// InferParcel applies the signal hierarchy. The first firing signal is
// authoritative for count and classification; weaker signals still
// enrich (bedroom counts, listing links) but never override it.
func (s *dwellingInferenceService) InferParcel(parcel *models.Parcel, taxStatus *models.TaxStatus, listings []*models.STRListing) []*models.Dwelling {
	homesteadFiled := parcel.HomesteadFiled
	var housesite *int64 = parcel.HousesiteValue
	if taxStatus != nil {
		homesteadFiled = homesteadFiled || taxStatus.HomesteadFiled
		if taxStatus.HousesiteValue != nil {
			housesite = taxStatus.HousesiteValue
		}
	}

	descprop := ""
	if parcel.Description != nil {
		descprop = *parcel.Description
	}

	// Signal 1: explicit dwelling count in the description text.
	if count := parse.DwellingCountFromDescription(descprop); count > 0 {
		out := make([]*models.Dwelling, 0, count)
		for i := 0; i < count; i++ {
			var listing *models.STRListing
			if i < len(listings) {
				listing = listings[i]
			}

			var d *models.Dwelling
			if i == 0 && homesteadFiled {
				d = newDwelling(parcel, models.UseFullTimeResidence, boolRef(true), models.SignalDescription, models.ConfidenceDescription)
				d.HomesteadFiled = true
			} else if listing != nil {
				d = newDwelling(parcel, models.UseShortTermRental, boolRef(false), models.SignalDescription, models.ConfidenceDescription)
				attachListing(d, listing)
			} else {
				d = newDwelling(parcel, models.UseSecondHome, nil, models.SignalDescription, models.ConfidenceDescription)
			}

			if count > 1 {
				unit := fmt.Sprintf("Unit-%d", i+1)
				d.UnitNumber = &unit
			}
			note := fmt.Sprintf("from description text: %s", descprop)
			d.Notes = &note
			out = append(out, d)
		}
		return out
	}

	// Signal 2: owner-occupancy tax filing.
	if homesteadFiled {
		d := newDwelling(parcel, models.UseFullTimeResidence, boolRef(true), models.SignalHomestead, models.ConfidenceHomestead)
		d.HomesteadFiled = true
		note := "homestead filing implies a dwelling"
		d.Notes = &note
		return []*models.Dwelling{d}
	}

	// Signal 3: non-zero housesite valuation.
	if housesite != nil && *housesite > 0 {
		var d *models.Dwelling
		if len(listings) > 0 {
			d = newDwelling(parcel, models.UseShortTermRental, boolRef(false), models.SignalHousesite, models.ConfidenceHousesite)
			attachListing(d, listings[0])
		} else {
			d = newDwelling(parcel, models.UseSecondHome, nil, models.SignalHousesite, models.ConfidenceHousesite)
		}
		note := fmt.Sprintf("housesite value %d", *housesite)
		d.Notes = &note
		return []*models.Dwelling{d}
	}

	// Signal 4: matched short-term-rental listings.
	if len(listings) > 0 {
		out := make([]*models.Dwelling, 0, len(listings))
		for _, listing := range listings {
			d := newDwelling(parcel, models.UseShortTermRental, boolRef(false), models.SignalSTRListing, models.ConfidenceSTRListing)
			attachListing(d, listing)
			note := fmt.Sprintf("short-term rental on %s", listing.SourceSite)
			d.Notes = &note
			out = append(out, d)
		}
		return out
	}

	return nil
}

func newDwelling(parcel *models.Parcel, use models.DwellingUse, ownerOccupied *bool, source string, confidence float64) *models.Dwelling {
	return &models.Dwelling{
		ID:               uuid.New(),
		ParcelID:         parcel.ID,
		UnitAddress:      parcel.Address,
		Type:             models.DwellingTypeMainHouse,
		Use:              use,
		IsOwnerOccupied:  ownerOccupied,
		DataSource:       source,
		SourceConfidence: confidence,

		// All four signals attest to a unit recognized as a dwelling by
		// the tax roll or an active rental, which implies the full flag
		// set.
		HasSeparateEntrance: true,
		HasSleepingArea:     true,
		HasCookingArea:      true,
		HasSanitation:       true,
		IsYearRound:         true,
	}
}

func attachListing(d *models.Dwelling, listing *models.STRListing) {
	id := listing.ID
	d.STRListingID = &id
	if listing.Bedrooms != nil {
		bedrooms := *listing.Bedrooms
		d.Bedrooms = &bedrooms
	}
}

func boolRef(b bool) *bool { return &b }
