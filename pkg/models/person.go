package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Person is a canonical individual. One row per real person; sources that
// mention the same person resolve to the same row, they never create
// duplicates.
type Person struct {
	ID              uuid.UUID
	FirstName       string
	LastName        string
	Suffix          *string
	FullName        string // as listed in the strongest source, verbatim
	Email           *string
	Phone           *string
	PrimaryAddress  *string
	PrimaryTown     *string
	PrimaryState    *string
	IsLocalResident bool
	DataSources     []string
	FirstSeenAt     time.Time
	LastSeenAt      time.Time
}

// DisplayName returns "FIRST LAST [SUFFIX]".
func (p *Person) DisplayName() string {
	parts := []string{p.FirstName, p.LastName}
	if p.Suffix != nil && *p.Suffix != "" {
		parts = append(parts, *p.Suffix)
	}
	return strings.Join(parts, " ")
}

// HasSource reports whether src is already in the provenance list.
func (p *Person) HasSource(src string) bool {
	for _, s := range p.DataSources {
		if s == src {
			return true
		}
	}
	return false
}
