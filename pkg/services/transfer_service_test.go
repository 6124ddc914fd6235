package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/models"
)

func timePtr(tm time.Time) *time.Time { return &tm }

type transferFixture struct {
	svc       TransferService
	parcels   *fakeParcelRepo
	transfers *fakeTransferRepo
}

func newTransferFixture() *transferFixture {
	f := &transferFixture{
		parcels:   newFakeParcelRepo(),
		transfers: &fakeTransferRepo{},
	}
	matcher := NewRecordMatcher(f.parcels, DefaultThresholds(), zap.NewNop())
	f.svc = NewTransferService(fakeTx{}, f.transfers, matcher, 2, 25, zap.NewNop())
	return f
}

func TestValidateBronzeRequiredFields(t *testing.T) {
	f := newTransferFixture()
	saleDate := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		bronze     *models.BronzeTransfer
		wantReason string
	}{
		{
			"missing span",
			&models.BronzeTransfer{SalePrice: floatPtr(450000), SaleDate: timePtr(saleDate)},
			"missing span",
		},
		{
			"blank span",
			&models.BronzeTransfer{Span: strPtr("  ---  "), SalePrice: floatPtr(450000), SaleDate: timePtr(saleDate)},
			"missing span",
		},
		{
			"missing price",
			&models.BronzeTransfer{Span: strPtr("618-194-10282"), SaleDate: timePtr(saleDate)},
			"missing sale price",
		},
		{
			"missing date",
			&models.BronzeTransfer{Span: strPtr("618-194-10282"), SalePrice: floatPtr(450000)},
			"missing sale date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			silver, reason := f.svc.ValidateBronze(tt.bronze)
			assert.Nil(t, silver)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestValidateBronzeNormalizes(t *testing.T) {
	f := newTransferFixture()
	saleDate := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	bronze := &models.BronzeTransfer{
		Span:        strPtr("618-194-10282"),
		SaleDate:    timePtr(saleDate),
		SalePrice:   floatPtr(450000.50),
		BuyerState:  strPtr("Connecticut"),
		IntendedUse: strPtr("Primary Residence"),
	}

	silver, reason := f.svc.ValidateBronze(bronze)
	require.NotNil(t, silver, reason)
	assert.Equal(t, int64(45000050), silver.SalePriceCents)
	require.NotNil(t, silver.BuyerState)
	assert.Equal(t, "CT", *silver.BuyerState)
	assert.True(t, silver.IsOutOfStateBuyer)
	require.NotNil(t, silver.IntendedUse)
	assert.Equal(t, "primary", *silver.IntendedUse)
	assert.True(t, silver.IsPrimaryResidence)
	assert.False(t, silver.IsSecondaryResidence)
	assert.Empty(t, silver.ValidationNotes)
}

func TestValidateBronzeVermontBuyerIsInState(t *testing.T) {
	f := newTransferFixture()

	bronze := &models.BronzeTransfer{
		Span:       strPtr("618-194-10282"),
		SaleDate:   timePtr(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)),
		SalePrice:  floatPtr(300000),
		BuyerState: strPtr("vt"),
	}

	silver, _ := f.svc.ValidateBronze(bronze)
	require.NotNil(t, silver)
	assert.False(t, silver.IsOutOfStateBuyer)
}

func TestValidateBronzeSuspiciousPrices(t *testing.T) {
	f := newTransferFixture()
	saleDate := timePtr(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	zero, _ := f.svc.ValidateBronze(&models.BronzeTransfer{
		Span: strPtr("618-194-10282"), SaleDate: saleDate, SalePrice: floatPtr(0),
	})
	require.NotNil(t, zero)
	require.Len(t, zero.ValidationNotes, 1)
	assert.Contains(t, zero.ValidationNotes[0], "non-arms-length")

	high, _ := f.svc.ValidateBronze(&models.BronzeTransfer{
		Span: strPtr("618-194-10282"), SaleDate: saleDate, SalePrice: floatPtr(60_000_000),
	})
	require.NotNil(t, high)
	require.Len(t, high.ValidationNotes, 1)
	assert.Contains(t, high.ValidationNotes[0], "implausibly high")
}

func TestTransformMatchesAndSkips(t *testing.T) {
	f := newTransferFixture()
	ctx := context.Background()

	parcel := &models.Parcel{Span: "618-194-10282", SpanNormalized: "61819410282", Town: "Warren"}
	require.NoError(t, f.parcels.Create(ctx, fakeTx{}, parcel))

	saleDate := timePtr(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	valid := &models.BronzeTransfer{Span: strPtr("618-194-10282"), SaleDate: saleDate, SalePrice: floatPtr(450000)}
	unmatched := &models.BronzeTransfer{Span: strPtr("999-999-99999"), SaleDate: saleDate, SalePrice: floatPtr(250000)}
	invalid := &models.BronzeTransfer{Span: strPtr("618-194-10282"), SalePrice: floatPtr(100000)}

	for _, b := range []*models.BronzeTransfer{valid, unmatched, invalid} {
		require.NoError(t, f.transfers.CreateBronze(ctx, fakeTx{}, b))
	}

	summary, err := f.svc.Transform(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Valid)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.Unmatched)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "missing sale date")

	require.Len(t, f.transfers.silver, 2)
	require.NotNil(t, f.transfers.silver[0].ParcelID)
	assert.Equal(t, parcel.ID, *f.transfers.silver[0].ParcelID)
	assert.Nil(t, f.transfers.silver[1].ParcelID)
}

func TestTransformResumesWithoutDuplicating(t *testing.T) {
	f := newTransferFixture()
	ctx := context.Background()

	saleDate := timePtr(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	bronze := &models.BronzeTransfer{Span: strPtr("618-194-10282"), SaleDate: saleDate, SalePrice: floatPtr(450000)}
	require.NoError(t, f.transfers.CreateBronze(ctx, fakeTx{}, bronze))

	_, err := f.svc.Transform(ctx)
	require.NoError(t, err)
	summary, err := f.svc.Transform(ctx)
	require.NoError(t, err)

	// The bronze row already has a silver counterpart, so the second run
	// sees nothing pending.
	assert.Equal(t, 0, summary.Processed)
	assert.Len(t, f.transfers.silver, 1)
}
