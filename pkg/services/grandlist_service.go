package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/geo"
	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/parse"
	"github.com/madriverdata/parcelgraph/pkg/repositories"
)

// GrandListRow is one bronze parcel row from the municipal grand list,
// as produced by the upstream ETL.
type GrandListRow struct {
	Span             string
	Address          string
	OwnerName        string
	Owner2Name       string
	MailingAddress   string
	MailingTown      string
	MailingState     string
	Acres            *float64
	AssessedLand     *int64
	AssessedBuilding *int64
	AssessedTotal    *int64
	CatCode          string
	Description      string
	HomesteadFiled   bool
	HousesiteValue   *int64
	Lat              *float64
	Lng              *float64
	Rings            [][][2]float64
}

// GrandListService ingests the parcel roll: parcels keyed by normalized
// SPAN (updated, never duplicated), per-year tax status, and ownerships
// resolved through the identity resolver.
type GrandListService interface {
	Import(ctx context.Context, rows []GrandListRow, taxYear int) (*models.BatchSummary, error)
	// AttachGeometry joins shapefile polygons to existing parcels by the
	// identifier attribute and fills missing centroids.
	AttachGeometry(ctx context.Context, shapes []geo.Shape) (*models.BatchSummary, error)
}

type grandListService struct {
	db             database.TxQuerier
	parcels        repositories.ParcelRepository
	ownerships     repositories.OwnershipRepository
	resolver       IdentityResolver
	town           string
	commitWindow   int
	maxErrorSample int
	logger         *zap.Logger
}

func NewGrandListService(
	db database.TxQuerier,
	parcels repositories.ParcelRepository,
	ownerships repositories.OwnershipRepository,
	resolver IdentityResolver,
	town string,
	commitWindow int,
	maxErrorSample int,
	logger *zap.Logger,
) GrandListService {
	if commitWindow < 1 {
		commitWindow = 200
	}
	return &grandListService{
		db:             db,
		parcels:        parcels,
		ownerships:     ownerships,
		resolver:       resolver,
		town:           town,
		commitWindow:   commitWindow,
		maxErrorSample: maxErrorSample,
		logger:         logger,
	}
}

var _ GrandListService = (*grandListService)(nil)

func (s *grandListService) Import(ctx context.Context, rows []GrandListRow, taxYear int) (*models.BatchSummary, error) {
	summary := models.NewBatchSummary(s.maxErrorSample)

	seen := make(map[string]bool, len(rows))

	for start := 0; start < len(rows); start += s.commitWindow {
		end := start + s.commitWindow
		if end > len(rows) {
			end = len(rows)
		}
		window := rows[start:end]

		err := s.db.WithTx(ctx, func(q database.Querier) error {
			for i := range window {
				row := &window[i]
				summary.Processed++

				spanNorm := parse.NormalizeSPAN(row.Span)
				if spanNorm == "" {
					summary.RecordError("row %d: missing span", start+i)
					continue
				}
				if seen[spanNorm] {
					summary.Duplicates++
					continue
				}
				seen[spanNorm] = true

				if err := s.importRow(ctx, q, row, spanNorm, taxYear, summary); err != nil {
					return err
				}
				summary.Valid++
			}
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("grand list window failed: %w", err)
		}

		s.logger.Info("grand list progress",
			zap.Int("processed", summary.Processed),
			zap.Int("total", len(rows)))
	}

	return summary, nil
}

func (s *grandListService) importRow(ctx context.Context, q database.Querier, row *GrandListRow, spanNorm string, taxYear int, summary *models.BatchSummary) error {
	parcel, err := s.parcels.GetBySpanNormalized(ctx, q, spanNorm)
	if err != nil {
		return err
	}

	if parcel == nil {
		parcel = &models.Parcel{ID: uuid.New(), Span: row.Span, SpanNormalized: spanNorm, Town: s.town}
		applyRow(parcel, row)
		if err := s.parcels.Create(ctx, q, parcel); err != nil {
			return err
		}
	} else {
		// Same SPAN on a later roll updates in place, never duplicates.
		applyRow(parcel, row)
		if err := s.parcels.Update(ctx, q, parcel); err != nil {
			return err
		}
	}

	status := &models.TaxStatus{
		ParcelID:       parcel.ID,
		TaxYear:        taxYear,
		HomesteadFiled: row.HomesteadFiled,
		HousesiteValue: row.HousesiteValue,
	}
	if err := s.parcels.UpsertTaxStatus(ctx, q, status); err != nil {
		return err
	}

	return s.importOwners(ctx, q, parcel, row, summary)
}

// importOwners replaces the grand-list ownerships for the parcel with
// freshly resolved ones. Joint owners split the share equally; the
// first listed owner is primary.
func (s *grandListService) importOwners(ctx context.Context, q database.Querier, parcel *models.Parcel, row *GrandListRow, summary *models.BatchSummary) error {
	if _, err := s.ownerships.DeleteByParcelAndSource(ctx, q, parcel.ID, models.SourceGrandList); err != nil {
		return err
	}

	hints := ResolutionHints{
		Address:    row.MailingAddress,
		Town:       row.MailingTown,
		State:      row.MailingState,
		DataSource: models.SourceGrandList,
	}

	type owner struct {
		personID *uuid.UUID
		orgID    *uuid.UUID
		listed   string
		ownType  models.OwnershipType
	}
	var owners []owner

	for _, rawName := range []string{row.OwnerName, row.Owner2Name} {
		if strings.TrimSpace(rawName) == "" {
			continue
		}
		resolved, err := s.resolver.ResolveOwner(ctx, q, rawName, hints)
		if err != nil {
			return err
		}

		if resolved.Organization != nil {
			id := resolved.Organization.ID
			owners = append(owners, owner{orgID: &id, listed: rawName, ownType: models.OwnershipFeeSimple})
			// People under an org here are trust principals, linked via
			// the organization, not separate title holders.
			continue
		}
		for _, person := range resolved.People {
			id := person.ID
			ownType := models.OwnershipFeeSimple
			if len(resolved.People) > 1 {
				ownType = models.OwnershipJointTenancy
			}
			owners = append(owners, owner{personID: &id, listed: rawName, ownType: ownType})
		}
	}

	if len(owners) == 0 {
		// An owner string that parses to nothing is a counted skip, not
		// a batch failure.
		summary.RecordError("parcel %s: owner %q parsed to nothing", parcel.Span, row.OwnerName)
		return nil
	}

	share := 1.0 / float64(len(owners))
	for i, o := range owners {
		ownership := &models.PropertyOwnership{
			ID:             uuid.New(),
			ParcelID:       parcel.ID,
			PersonID:       o.personID,
			OrganizationID: o.orgID,
			OwnershipShare: share,
			OwnershipType:  o.ownType,
			IsPrimaryOwner: i == 0,
			AsListedName:   o.listed,
			DataSource:     models.SourceGrandList,
		}
		if err := s.ownerships.Create(ctx, q, ownership); err != nil {
			// A bad owner reference invalidates this row only.
			summary.InvariantViolations++
			summary.RecordError("parcel %s: %v", parcel.Span, err)
			continue
		}
	}
	return nil
}

func (s *grandListService) AttachGeometry(ctx context.Context, shapes []geo.Shape) (*models.BatchSummary, error) {
	summary := models.NewBatchSummary(s.maxErrorSample)

	for start := 0; start < len(shapes); start += s.commitWindow {
		end := start + s.commitWindow
		if end > len(shapes) {
			end = len(shapes)
		}
		window := shapes[start:end]

		err := s.db.WithTx(ctx, func(q database.Querier) error {
			for _, shape := range window {
				summary.Processed++

				spanNorm := parse.NormalizeSPAN(shape.Key)
				if spanNorm == "" {
					summary.RecordError("shape with empty identifier")
					continue
				}
				parcel, err := s.parcels.GetBySpanNormalized(ctx, q, spanNorm)
				if err != nil {
					return err
				}
				if parcel == nil {
					summary.Unmatched++
					continue
				}

				parcel.Rings = make([][][2]float64, len(shape.Rings))
				for i, ring := range shape.Rings {
					parcel.Rings[i] = ring
				}
				if lat, lng, ok := geo.Centroid(shape.Rings); ok {
					parcel.Lat = &lat
					parcel.Lng = &lng
				}
				if err := s.parcels.Update(ctx, q, parcel); err != nil {
					return err
				}
				summary.Matched++
				summary.Valid++
			}
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("geometry window failed: %w", err)
		}
	}

	return summary, nil
}

func applyRow(parcel *models.Parcel, row *GrandListRow) {
	parcel.Span = row.Span
	if row.Address != "" {
		addr := row.Address
		parcel.Address = &addr
	}
	parcel.Acres = row.Acres
	parcel.AssessedLand = row.AssessedLand
	parcel.AssessedBuilding = row.AssessedBuilding
	parcel.AssessedTotal = row.AssessedTotal
	if row.CatCode != "" {
		cat := row.CatCode
		parcel.CatCode = &cat
		propType := parse.PropertyTypeFromCAT(cat)
		parcel.PropertyType = &propType
	}
	if row.Description != "" {
		desc := row.Description
		parcel.Description = &desc
	}
	parcel.HomesteadFiled = row.HomesteadFiled
	parcel.HousesiteValue = row.HousesiteValue
	if row.Lat != nil && row.Lng != nil {
		parcel.Lat = row.Lat
		parcel.Lng = row.Lng
	}
	if len(row.Rings) > 0 {
		parcel.Rings = row.Rings
	}
}
