package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a canonical non-person owning entity (LLC, trust,
// corporation, estate). Name is the upper-cased dedup key; DisplayName
// keeps the listed form.
type Organization struct {
	ID              uuid.UUID
	Name            string
	DisplayName     string
	OrgType         OrganizationType
	RegisteredState *string
	Address         *string
	Town            *string
	// PrimaryPersonID links a trust to the person extracted from its
	// name, e.g. the WESTON STACEY B behind "WESTON STACEY B REVOCABLE
	// TRUST". Nil for every other org type.
	PrimaryPersonID *uuid.UUID
	DataSources     []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
