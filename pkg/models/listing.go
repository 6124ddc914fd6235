package models

import (
	"time"

	"github.com/google/uuid"
)

// BronzeSTRListing is a raw scraped short-term-rental listing, kept
// verbatim for re-processing.
type BronzeSTRListing struct {
	ID             uuid.UUID
	SourceSite     string
	SourceID       string
	Title          *string
	ListingURL     *string
	Lat            *float64
	Lng            *float64
	Bedrooms       *int
	Bathrooms      *float64
	MaxGuests      *int
	NightlyPrice   *float64
	HostName       *string
	LastReviewDate *time.Time
	ScrapedAt      time.Time
	CreatedAt      time.Time
}

// STRListing is the cleaned short-term-rental listing, matched (when
// possible) to a parcel. ParcelID nil means the match fell below the
// confidence floor and the listing sits in the review queue.
type STRListing struct {
	ID              uuid.UUID
	BronzeID        uuid.UUID
	SourceSite      string
	SourceID        string
	Title           *string
	ListingURL      *string
	Lat             *float64
	Lng             *float64
	Bedrooms        *int
	Bathrooms       *float64
	MaxGuests       *int
	NightlyCents    *int64
	HostName        *string
	LastReviewDate  *time.Time
	IsActive        bool
	ParcelID        *uuid.UUID
	MatchMethod     *MatchMethod
	MatchConfidence *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReviewEntry is one listing's row in the review ledger.
type ReviewEntry struct {
	ID              uuid.UUID
	STRListingID    uuid.UUID
	Status          ReviewStatus
	DwellingID      *uuid.UUID
	RejectionReason *RejectionReason
	Notes           *string
	ReviewedBy      *string
	ReviewedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
