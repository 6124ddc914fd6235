package models

import (
	"time"

	"github.com/google/uuid"
)

// Parcel is a unit of land from the municipal grand list, keyed by its
// state parcel number (SPAN). Span keeps the listed form; SpanNormalized
// is the matching form with separators stripped and letters upper-cased.
type Parcel struct {
	ID               uuid.UUID
	Span             string
	SpanNormalized   string
	Address          *string
	Town             string
	Acres            *float64
	AssessedLand     *int64
	AssessedBuilding *int64
	AssessedTotal    *int64
	PropertyType     *string
	Description      *string // DESCPROP free text from the grand list
	CatCode          *string
	HousesiteValue   *int64
	HomesteadFiled   bool
	Lat              *float64
	Lng              *float64
	// Rings holds the parcel boundary as rings of [lng, lat] pairs,
	// outer ring first. Nil when no geometry has been loaded.
	Rings     [][][2]float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasGeometry reports whether the parcel carries a usable boundary.
func (p *Parcel) HasGeometry() bool {
	return len(p.Rings) > 0 && len(p.Rings[0]) >= 3
}

// HasCentroid reports whether the parcel carries a point location.
func (p *Parcel) HasCentroid() bool {
	return p.Lat != nil && p.Lng != nil
}

// TaxStatus is one tax year's filing state for a parcel.
type TaxStatus struct {
	ID             uuid.UUID
	ParcelID       uuid.UUID
	TaxYear        int
	HomesteadFiled bool
	HousesiteValue *int64
	EducationTax   *int64
	MunicipalTax   *int64
	CreatedAt      time.Time
}
