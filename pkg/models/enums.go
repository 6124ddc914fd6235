package models

// DwellingType categorizes the physical unit.
type DwellingType string

const (
	DwellingTypeMainHouse DwellingType = "main_house"
	DwellingTypeADU       DwellingType = "adu"
	DwellingTypeCondoUnit DwellingType = "condo_unit"
	DwellingTypeApartment DwellingType = "apartment"
	DwellingTypeCamp      DwellingType = "camp"
	DwellingTypeOther     DwellingType = "other"
)

// DwellingUse is how the unit is actually used, as far as the engine can
// tell from the signals it has seen.
type DwellingUse string

const (
	UseFullTimeResidence DwellingUse = "full_time_residence"
	UseSecondHome        DwellingUse = "second_home"
	UseShortTermRental   DwellingUse = "short_term_rental"
	UseVacant            DwellingUse = "vacant"
	UseSeasonal          DwellingUse = "seasonal"
	UseCommercial        DwellingUse = "commercial"
	UseUnknown           DwellingUse = "unknown"
)

// TaxClassification is the derived tax bucket for a dwelling. It is never
// stored; Classify recomputes it from use and occupancy on every read.
type TaxClassification string

const (
	TaxHomestead         TaxClassification = "homestead"
	TaxNHSResidential    TaxClassification = "nhs_residential"
	TaxNHSNonResidential TaxClassification = "nhs_nonresidential"
)

// OrganizationType categorizes an owning entity that is not a person.
type OrganizationType string

const (
	OrgLLC         OrganizationType = "llc"
	OrgTrust       OrganizationType = "trust"
	OrgCorporation OrganizationType = "corporation"
	OrgEstate      OrganizationType = "estate"
	OrgGovernment  OrganizationType = "government"
	OrgNonprofit   OrganizationType = "nonprofit"
	OrgAssociation OrganizationType = "association"
	OrgOther       OrganizationType = "other"
)

// CanFileHomestead reports whether this kind of organization can hold a
// homestead declaration. Only trusts qualify; a trustee can occupy trust
// property as a primary residence.
func (t OrganizationType) CanFileHomestead() bool {
	return t == OrgTrust
}

// OwnershipType describes the legal form of an ownership link.
type OwnershipType string

const (
	OwnershipFeeSimple        OwnershipType = "fee_simple"
	OwnershipLifeEstate       OwnershipType = "life_estate"
	OwnershipTrustBeneficiary OwnershipType = "trust_beneficiary"
	OwnershipJointTenancy     OwnershipType = "joint_tenancy"
	OwnershipOther            OwnershipType = "other"
)

// MatchMethod records how a listing was tied to a parcel.
type MatchMethod string

const (
	MatchBySPAN     MatchMethod = "span"
	MatchBySpatial  MatchMethod = "spatial"
	MatchByCentroid MatchMethod = "spatial_centroid"
	MatchByManual   MatchMethod = "manual"
)

// ReviewStatus is the state of a listing in the review ledger.
type ReviewStatus string

const (
	ReviewUnreviewed ReviewStatus = "unreviewed"
	ReviewConfirmed  ReviewStatus = "confirmed"
	ReviewRejected   ReviewStatus = "rejected"
	ReviewSkipped    ReviewStatus = "skipped"
)

// RejectionReason is the closed set of reasons a reviewer can reject a
// listing with.
type RejectionReason string

const (
	RejectNotInTown       RejectionReason = "not_in_town"
	RejectDuplicate       RejectionReason = "duplicate"
	RejectInvalidListing  RejectionReason = "invalid_listing"
	RejectCannotDetermine RejectionReason = "cannot_determine"
	RejectOther           RejectionReason = "other"
)

// ValidRejectionReason reports whether r is in the closed set.
func ValidRejectionReason(r RejectionReason) bool {
	switch r {
	case RejectNotInTown, RejectDuplicate, RejectInvalidListing, RejectCannotDetermine, RejectOther:
		return true
	}
	return false
}

// Data source provenance values recorded on entities the engine creates.
const (
	SourceGrandList     = "grand_list"
	SourceTransferIndex = "transfer_index"
	SourceSTRListings   = "str_listings"
	SourceCommunityList = "community_list"
	SourceManualReview  = "manual_review"
)

// Dwelling inference signal sources, in descending evidence strength.
const (
	SignalDescription  = "descprop"
	SignalHomestead    = "homestead_filing"
	SignalHousesite    = "housesite_value"
	SignalSTRListing   = "str_listing"
	SignalManualReview = "manual_review"
)

// Confidence carried by each inference signal.
const (
	ConfidenceDescription = 0.95
	ConfidenceHomestead   = 0.95
	ConfidenceHousesite   = 0.85
	ConfidenceSTRListing  = 0.80
)
