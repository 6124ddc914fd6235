package models

import (
	"time"

	"github.com/google/uuid"
)

// Dwelling is a habitable unit on a parcel. Rows exist only where some
// positive signal attests to a unit; the absence of a row means no
// evidence, not "no dwelling".
type Dwelling struct {
	ID          uuid.UUID
	ParcelID    uuid.UUID
	UnitNumber  *string
	UnitAddress *string
	Type        DwellingType
	Use         DwellingUse
	// IsOwnerOccupied is tri-state: nil means occupancy is unknown, which
	// classifies differently from a known false.
	IsOwnerOccupied *bool
	Bedrooms        *int
	Bathrooms       *float64
	SquareFeet      *int
	YearBuilt       *int
	AssessedValue   *int64

	// Habitability flags. A unit counts as a dwelling under the
	// governing standard only when all five hold.
	HasSeparateEntrance bool
	HasSleepingArea     bool
	HasCookingArea      bool
	HasSanitation       bool
	IsYearRound         bool

	HomesteadFiled bool
	OccupantName   *string
	OccupantState  *string

	STRListingID *uuid.UUID

	DataSource       string
	SourceConfidence float64
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsHabitable reports whether all five habitability flags hold.
func (d *Dwelling) IsHabitable() bool {
	return d.HasSeparateEntrance && d.HasSleepingArea && d.HasCookingArea && d.HasSanitation && d.IsYearRound
}
