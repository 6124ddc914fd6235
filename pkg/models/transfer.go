package models

import (
	"time"

	"github.com/google/uuid"
)

// BronzeTransfer is a raw property-transfer-tax row, one per recorded
// sale, kept verbatim.
type BronzeTransfer struct {
	ID           uuid.UUID
	Span         *string
	SaleDate     *time.Time
	SalePrice    *float64
	BuyerName    *string
	BuyerAddress *string
	BuyerTown    *string
	BuyerState   *string
	SellerName   *string
	IntendedUse  *string
	PropertyUse  *string
	CreatedAt    time.Time
}

// PropertyTransfer is the cleaned transfer row. Every row passed the
// required-field gate (span, price, date); bronze rows that did not are
// counted as skipped, never half-written.
type PropertyTransfer struct {
	ID                   uuid.UUID
	BronzeID             uuid.UUID
	ParcelID             *uuid.UUID
	Span                 string
	SaleDate             time.Time
	SalePriceCents       int64
	BuyerName            *string
	BuyerState           *string
	SellerName           *string
	IntendedUse          *string
	IsPrimaryResidence   bool
	IsSecondaryResidence bool
	IsOutOfStateBuyer    bool
	ValidationNotes      []string
	CreatedAt            time.Time
}
