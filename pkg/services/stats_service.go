package services

import (
	"context"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/repositories"
)

// EngineStats is a point-in-time census of the database, with dwelling
// classifications derived on the fly rather than read from a column.
type EngineStats struct {
	Parcels             int
	People              int
	Organizations       int
	Ownerships          int
	Dwellings           int
	DwellingsBySource   map[string]int
	BronzeTransfers     int
	SilverTransfers     int
	SilverListings      int
	MatchedListings     int
	ReviewsByStatus     map[models.ReviewStatus]int
	ByClassification    map[models.TaxClassification]int
	UnclassifiedUnknown int
}

// StatsService reports entity counts and derived classification tallies.
type StatsService interface {
	Collect(ctx context.Context) (*EngineStats, error)
}

type statsService struct {
	db         database.TxQuerier
	parcels    repositories.ParcelRepository
	people     repositories.PersonRepository
	orgs       repositories.OrganizationRepository
	ownerships repositories.OwnershipRepository
	dwellings  repositories.DwellingRepository
	transfers  repositories.TransferRepository
	listings   repositories.ListingRepository
	reviews    repositories.ReviewRepository
}

func NewStatsService(
	db database.TxQuerier,
	parcels repositories.ParcelRepository,
	people repositories.PersonRepository,
	orgs repositories.OrganizationRepository,
	ownerships repositories.OwnershipRepository,
	dwellings repositories.DwellingRepository,
	transfers repositories.TransferRepository,
	listings repositories.ListingRepository,
	reviews repositories.ReviewRepository,
) StatsService {
	return &statsService{
		db:         db,
		parcels:    parcels,
		people:     people,
		orgs:       orgs,
		ownerships: ownerships,
		dwellings:  dwellings,
		transfers:  transfers,
		listings:   listings,
		reviews:    reviews,
	}
}

var _ StatsService = (*statsService)(nil)

func (s *statsService) Collect(ctx context.Context) (*EngineStats, error) {
	stats := &EngineStats{
		ByClassification: make(map[models.TaxClassification]int),
	}
	q := s.db

	var err error
	if stats.Parcels, err = s.parcels.Count(ctx, q); err != nil {
		return nil, err
	}
	if stats.People, err = s.people.Count(ctx, q); err != nil {
		return nil, err
	}
	if stats.Organizations, err = s.orgs.Count(ctx, q); err != nil {
		return nil, err
	}
	if stats.Ownerships, err = s.ownerships.Count(ctx, q); err != nil {
		return nil, err
	}
	if stats.Dwellings, err = s.dwellings.Count(ctx, q); err != nil {
		return nil, err
	}
	if stats.DwellingsBySource, err = s.dwellings.CountBySource(ctx, q); err != nil {
		return nil, err
	}
	if stats.BronzeTransfers, err = s.transfers.CountBronze(ctx, q); err != nil {
		return nil, err
	}
	if stats.SilverTransfers, err = s.transfers.CountSilver(ctx, q); err != nil {
		return nil, err
	}
	if stats.SilverListings, err = s.listings.CountSilver(ctx, q); err != nil {
		return nil, err
	}
	if stats.MatchedListings, err = s.listings.CountMatchedSilver(ctx, q); err != nil {
		return nil, err
	}
	if stats.ReviewsByStatus, err = s.reviews.CountByStatus(ctx, q); err != nil {
		return nil, err
	}

	dwellings, err := s.dwellings.ListAll(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, d := range dwellings {
		classification, ok := Classify(d.Use, d.IsOwnerOccupied)
		if !ok {
			stats.UnclassifiedUnknown++
			continue
		}
		stats.ByClassification[classification]++
	}

	return stats, nil
}
