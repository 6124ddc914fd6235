//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madriverdata/parcelgraph/pkg/apperrors"
	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/testhelpers"
)

// wipe clears every table between tests, child tables first.
func wipe(t *testing.T, q database.Querier) {
	t.Helper()
	ctx := context.Background()
	for _, table := range []string{
		"str_review_status", "str_listings", "bronze_str_listings",
		"property_transfers", "bronze_transfers",
		"property_ownerships", "dwellings", "organizations", "people",
		"tax_status", "parcels",
	} {
		if _, err := q.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to wipe %s: %v", table, err)
		}
	}
}

func strp(s string) *string   { return &s }
func f64p(v float64) *float64 { return &v }
func i64p(v int64) *int64     { return &v }

func seedParcel(t *testing.T, q database.Querier, span string) *models.Parcel {
	t.Helper()
	repo := NewParcelRepository()
	parcel := &models.Parcel{
		Span:           span,
		SpanNormalized: span,
		Town:           "Warren",
		Acres:          f64p(2.5),
		Lat:            f64p(44.11),
		Lng:            f64p(-72.85),
	}
	require.NoError(t, repo.Create(context.Background(), q, parcel))
	return parcel
}

func TestParcelRepository_RoundTrip(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	q := testDB.DB
	wipe(t, q)
	ctx := context.Background()
	repo := NewParcelRepository()

	parcel := &models.Parcel{
		Span:           "123-038-10559",
		SpanNormalized: "12303810559",
		Address:        strp("123 MAIN ST"),
		Town:           "Warren",
		Acres:          f64p(1.2),
		AssessedTotal:  i64p(45000000),
		Description:    strp("1.2 ACRES & 2 DWLS"),
		HomesteadFiled: true,
		Lat:            f64p(44.115),
		Lng:            f64p(-72.857),
		Rings: [][][2]float64{{
			{-72.86, 44.11}, {-72.85, 44.11}, {-72.85, 44.12}, {-72.86, 44.11},
		}},
	}
	require.NoError(t, repo.Create(ctx, q, parcel))

	got, err := repo.GetBySpanNormalized(ctx, q, "12303810559")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, parcel.ID, got.ID)
	assert.Equal(t, "123-038-10559", got.Span)
	assert.Equal(t, "1.2 ACRES & 2 DWLS", *got.Description)
	assert.True(t, got.HomesteadFiled)
	require.Len(t, got.Rings, 1)
	assert.Len(t, got.Rings[0], 4)

	got.Acres = f64p(1.4)
	got.HomesteadFiled = false
	require.NoError(t, repo.Update(ctx, q, got))

	again, err := repo.GetByID(ctx, q, parcel.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.4, *again.Acres)
	assert.False(t, again.HomesteadFiled)

	missing, err := repo.GetBySpanNormalized(ctx, q, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParcelRepository_TaxStatusUpsert(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	q := testDB.DB
	wipe(t, q)
	ctx := context.Background()
	repo := NewParcelRepository()
	parcel := seedParcel(t, q, "tax-span")

	status := &models.TaxStatus{
		ParcelID:       parcel.ID,
		TaxYear:        2025,
		HomesteadFiled: true,
		HousesiteValue: i64p(25000000),
	}
	require.NoError(t, repo.UpsertTaxStatus(ctx, q, status))

	// Same parcel and year updates in place rather than duplicating.
	status.ID = uuid.Nil
	status.HomesteadFiled = false
	require.NoError(t, repo.UpsertTaxStatus(ctx, q, status))

	got, err := repo.GetTaxStatus(ctx, q, parcel.ID, 2025)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.HomesteadFiled)
	assert.Equal(t, int64(25000000), *got.HousesiteValue)

	none, err := repo.GetTaxStatus(ctx, q, parcel.ID, 2024)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPersonRepository_EmailLookupIsCaseInsensitive(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	q := testDB.DB
	wipe(t, q)
	ctx := context.Background()
	repo := NewPersonRepository()

	person := &models.Person{
		FirstName:   "Stacey",
		LastName:    "Weston",
		FullName:    "WESTON STACEY B",
		Email:       strp("Stacey.Weston@example.com"),
		DataSources: []string{models.SourceGrandList},
	}
	require.NoError(t, repo.Create(ctx, q, person))

	got, err := repo.GetByEmail(ctx, q, "STACEY.WESTON@EXAMPLE.COM")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, person.ID, got.ID)
	assert.Equal(t, []string{models.SourceGrandList}, got.DataSources)
}

func TestOwnershipRepository_HolderConstraint(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	q := testDB.DB
	wipe(t, q)
	ctx := context.Background()
	parcel := seedParcel(t, q, "own-span")

	people := NewPersonRepository()
	person := &models.Person{FirstName: "Robert", LastName: "Phillips", FullName: "PHILLIPS ROBERT"}
	require.NoError(t, people.Create(ctx, q, person))

	repo := NewOwnershipRepository()
	ownership := &models.PropertyOwnership{
		ParcelID:       parcel.ID,
		PersonID:       &person.ID,
		OwnershipShare: 1.0,
		OwnershipType:  models.OwnershipFeeSimple,
		IsPrimaryOwner: true,
		AsListedName:   "PHILLIPS ROBERT",
		DataSource:     models.SourceGrandList,
	}
	require.NoError(t, repo.Create(ctx, q, ownership))

	// Neither holder set fails validation before touching the database.
	bad := &models.PropertyOwnership{
		ParcelID:       parcel.ID,
		OwnershipShare: 1.0,
		OwnershipType:  models.OwnershipFeeSimple,
		DataSource:     models.SourceGrandList,
	}
	err := repo.Create(ctx, q, bad)
	require.ErrorIs(t, err, apperrors.ErrOwnerReference)

	listed, err := repo.ListByParcel(ctx, q, parcel.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "PHILLIPS ROBERT", listed[0].AsListedName)

	deleted, err := repo.DeleteByParcelAndSource(ctx, q, parcel.ID, models.SourceGrandList)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestDwellingRepository_SourceLifecycle(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	q := testDB.DB
	wipe(t, q)
	ctx := context.Background()
	parcel := seedParcel(t, q, "dwl-span")
	repo := NewDwellingRepository()

	for i, source := range []string{models.SignalDescription, models.SignalDescription, models.SignalManualReview} {
		unit := string(rune('1' + i))
		dwelling := &models.Dwelling{
			ParcelID:            parcel.ID,
			UnitNumber:          strp("Unit-" + unit),
			Type:                models.DwellingTypeMainHouse,
			Use:                 models.UseSecondHome,
			HasSeparateEntrance: true,
			HasSleepingArea:     true,
			HasCookingArea:      true,
			HasSanitation:       true,
			IsYearRound:         true,
			DataSource:          source,
			SourceConfidence:    models.ConfidenceDescription,
		}
		require.NoError(t, repo.Create(ctx, q, dwelling))
	}

	count, err := repo.CountByParcel(ctx, q, parcel.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	bySource, err := repo.CountBySource(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, bySource[models.SignalDescription])
	assert.Equal(t, 1, bySource[models.SignalManualReview])

	// Clearing inferred rows leaves the manually reviewed one alone.
	deleted, err := repo.DeleteBySource(ctx, q, models.SignalDescription)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.ListByParcel(ctx, q, parcel.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, models.SignalManualReview, remaining[0].DataSource)
}

func TestListingRepository_BronzeToSilver(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	q := testDB.DB
	wipe(t, q)
	ctx := context.Background()
	repo := NewListingRepository()

	bronze := &models.BronzeSTRListing{
		SourceSite:   "airbnb",
		SourceID:     "rm-100",
		Title:        strp("Slopeside chalet"),
		Lat:          f64p(44.12),
		Lng:          f64p(-72.86),
		NightlyPrice: f64p(289.99),
		ScrapedAt:    time.Now(),
	}
	require.NoError(t, repo.CreateBronze(ctx, q, bronze))

	// Re-scraping the same listing is a no-op, not a duplicate.
	dup := &models.BronzeSTRListing{SourceSite: "airbnb", SourceID: "rm-100", ScrapedAt: time.Now()}
	require.NoError(t, repo.CreateBronze(ctx, q, dup))

	unprocessed, err := repo.ListUnprocessedBronze(ctx, q)
	require.NoError(t, err)
	require.Len(t, unprocessed, 1)

	silver := &models.STRListing{
		BronzeID:     bronze.ID,
		SourceSite:   bronze.SourceSite,
		SourceID:     bronze.SourceID,
		Title:        bronze.Title,
		NightlyCents: i64p(28999),
	}
	require.NoError(t, repo.CreateSilver(ctx, q, silver))

	unprocessed, err = repo.ListUnprocessedBronze(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, unprocessed)

	count, err := repo.CountSilver(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matched, err := repo.CountMatchedSilver(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 0, matched)

	// A manual confirmation later rewrites the match columns in place.
	parcel := seedParcel(t, q, "listing-span")
	method := models.MatchByManual
	silver.ParcelID = &parcel.ID
	silver.MatchMethod = &method
	silver.MatchConfidence = f64p(1.0)
	require.NoError(t, repo.UpdateSilverMatch(ctx, q, silver))

	onParcel, err := repo.ListSilverByParcel(ctx, q, parcel.ID)
	require.NoError(t, err)
	require.Len(t, onParcel, 1)
	assert.Equal(t, models.MatchByManual, *onParcel[0].MatchMethod)

	matched, err = repo.CountMatchedSilver(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, matched)
}

func TestReviewRepository_StatusTransitions(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	q := testDB.DB
	wipe(t, q)
	ctx := context.Background()
	listings := NewListingRepository()
	repo := NewReviewRepository()

	bronze := &models.BronzeSTRListing{SourceSite: "vrbo", SourceID: "v-7", ScrapedAt: time.Now()}
	require.NoError(t, listings.CreateBronze(ctx, q, bronze))
	silver := &models.STRListing{BronzeID: bronze.ID, SourceSite: "vrbo", SourceID: "v-7"}
	require.NoError(t, listings.CreateSilver(ctx, q, silver))

	entry := &models.ReviewEntry{
		STRListingID: silver.ID,
		Status:       models.ReviewUnreviewed,
	}
	require.NoError(t, repo.Create(ctx, q, entry))

	queued, err := repo.ListByStatus(ctx, q, models.ReviewUnreviewed, 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)

	now := time.Now()
	reason := models.RejectNotInTown
	entry.Status = models.ReviewRejected
	entry.RejectionReason = &reason
	entry.ReviewedBy = strp("reviewer@example.com")
	entry.ReviewedAt = &now
	require.NoError(t, repo.Update(ctx, q, entry))

	got, err := repo.GetByListing(ctx, q, silver.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.ReviewRejected, got.Status)
	assert.Equal(t, models.RejectNotInTown, *got.RejectionReason)

	counts, err := repo.CountByStatus(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.ReviewRejected])
	assert.Zero(t, counts[models.ReviewUnreviewed])
}

func TestTransferRepository_UnprocessedGate(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	q := testDB.DB
	wipe(t, q)
	ctx := context.Background()
	repo := NewTransferRepository()

	saleDate := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	bronze := &models.BronzeTransfer{
		Span:      strp("123-038-10559"),
		SaleDate:  &saleDate,
		SalePrice: f64p(450000),
		BuyerName: strp("PHILLIPS ROBERT"),
	}
	require.NoError(t, repo.CreateBronze(ctx, q, bronze))

	silver := &models.PropertyTransfer{
		BronzeID:        bronze.ID,
		Span:            "12303810559",
		SaleDate:        saleDate,
		SalePriceCents:  45000000,
		ValidationNotes: []string{},
	}
	require.NoError(t, repo.CreateSilver(ctx, q, silver))

	unprocessed, err := repo.ListUnprocessedBronze(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, unprocessed)

	countB, err := repo.CountBronze(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, countB)
	countS, err := repo.CountSilver(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, countS)
}
