package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/madriverdata/parcelgraph/pkg/apperrors"
)

// PropertyOwnership links a parcel to exactly one owner, either a person
// or an organization, never both and never neither.
type PropertyOwnership struct {
	ID             uuid.UUID
	ParcelID       uuid.UUID
	PersonID       *uuid.UUID
	OrganizationID *uuid.UUID
	DwellingID     *uuid.UUID
	OwnershipShare float64
	OwnershipType  OwnershipType
	IsPrimaryOwner bool
	AsListedName   string // verbatim owner string from the source
	DataSource     string
	CreatedAt      time.Time
}

// Validate enforces the exactly-one-owner-reference invariant.
func (o *PropertyOwnership) Validate() error {
	if (o.PersonID == nil) == (o.OrganizationID == nil) {
		return apperrors.ErrOwnerReference
	}
	return nil
}
