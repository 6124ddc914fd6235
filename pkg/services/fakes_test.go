package services

// In-memory repository fakes for unit tests. They ignore the Querier
// argument, so fakeTx hands them a no-op session.

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
)

type fakeTx struct{}

var _ database.TxQuerier = fakeTx{}

func (fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (f fakeTx) WithTx(ctx context.Context, fn func(q database.Querier) error) error {
	return fn(f)
}

type fakeParcelRepo struct {
	order   []uuid.UUID
	parcels map[uuid.UUID]*models.Parcel
	tax     map[uuid.UUID]map[int]*models.TaxStatus
}

func newFakeParcelRepo() *fakeParcelRepo {
	return &fakeParcelRepo{
		parcels: make(map[uuid.UUID]*models.Parcel),
		tax:     make(map[uuid.UUID]map[int]*models.TaxStatus),
	}
}

func (r *fakeParcelRepo) Create(_ context.Context, _ database.Querier, parcel *models.Parcel) error {
	if parcel.ID == uuid.Nil {
		parcel.ID = uuid.New()
	}
	r.order = append(r.order, parcel.ID)
	r.parcels[parcel.ID] = parcel
	return nil
}

func (r *fakeParcelRepo) Update(_ context.Context, _ database.Querier, parcel *models.Parcel) error {
	if _, ok := r.parcels[parcel.ID]; !ok {
		return fmt.Errorf("parcel %s not found", parcel.ID)
	}
	r.parcels[parcel.ID] = parcel
	return nil
}

func (r *fakeParcelRepo) GetByID(_ context.Context, _ database.Querier, id uuid.UUID) (*models.Parcel, error) {
	return r.parcels[id], nil
}

func (r *fakeParcelRepo) GetBySpanNormalized(_ context.Context, _ database.Querier, spanNorm string) (*models.Parcel, error) {
	for _, id := range r.order {
		if r.parcels[id].SpanNormalized == spanNorm {
			return r.parcels[id], nil
		}
	}
	return nil, nil
}

func (r *fakeParcelRepo) ListAll(_ context.Context, _ database.Querier) ([]*models.Parcel, error) {
	out := make([]*models.Parcel, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.parcels[id])
	}
	return out, nil
}

func (r *fakeParcelRepo) UpsertTaxStatus(_ context.Context, _ database.Querier, status *models.TaxStatus) error {
	if status.ID == uuid.Nil {
		status.ID = uuid.New()
	}
	byYear := r.tax[status.ParcelID]
	if byYear == nil {
		byYear = make(map[int]*models.TaxStatus)
		r.tax[status.ParcelID] = byYear
	}
	byYear[status.TaxYear] = status
	return nil
}

func (r *fakeParcelRepo) GetTaxStatus(_ context.Context, _ database.Querier, parcelID uuid.UUID, taxYear int) (*models.TaxStatus, error) {
	return r.tax[parcelID][taxYear], nil
}

func (r *fakeParcelRepo) Count(_ context.Context, _ database.Querier) (int, error) {
	return len(r.parcels), nil
}

type fakePersonRepo struct {
	people []*models.Person
}

func (r *fakePersonRepo) Create(_ context.Context, _ database.Querier, person *models.Person) error {
	if person.ID == uuid.Nil {
		person.ID = uuid.New()
	}
	r.people = append(r.people, person)
	return nil
}

func (r *fakePersonRepo) GetByID(_ context.Context, _ database.Querier, id uuid.UUID) (*models.Person, error) {
	for _, p := range r.people {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePersonRepo) GetByEmail(_ context.Context, _ database.Querier, email string) (*models.Person, error) {
	for _, p := range r.people {
		if p.Email != nil && strings.EqualFold(*p.Email, email) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePersonRepo) GetByNameAndLocation(_ context.Context, _ database.Querier, fullName, address, town string) (*models.Person, error) {
	for _, p := range r.people {
		if !strings.EqualFold(p.FullName, fullName) {
			continue
		}
		if p.PrimaryAddress != nil && strings.EqualFold(*p.PrimaryAddress, address) &&
			p.PrimaryTown != nil && strings.EqualFold(*p.PrimaryTown, town) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePersonRepo) GetByName(_ context.Context, _ database.Querier, fullName string) (*models.Person, error) {
	for _, p := range r.people {
		if strings.EqualFold(p.FullName, fullName) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePersonRepo) Update(_ context.Context, _ database.Querier, person *models.Person) error {
	for i, p := range r.people {
		if p.ID == person.ID {
			r.people[i] = person
			return nil
		}
	}
	return fmt.Errorf("person %s not found", person.ID)
}

func (r *fakePersonRepo) Count(_ context.Context, _ database.Querier) (int, error) {
	return len(r.people), nil
}

type fakeOrgRepo struct {
	orgs []*models.Organization
}

func (r *fakeOrgRepo) Create(_ context.Context, _ database.Querier, org *models.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	r.orgs = append(r.orgs, org)
	return nil
}

func (r *fakeOrgRepo) GetByID(_ context.Context, _ database.Querier, id uuid.UUID) (*models.Organization, error) {
	for _, o := range r.orgs {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOrgRepo) GetByName(_ context.Context, _ database.Querier, name string) (*models.Organization, error) {
	canonical := strings.ToUpper(strings.TrimSpace(name))
	for _, o := range r.orgs {
		if o.Name == canonical {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOrgRepo) Update(_ context.Context, _ database.Querier, org *models.Organization) error {
	for i, o := range r.orgs {
		if o.ID == org.ID {
			r.orgs[i] = org
			return nil
		}
	}
	return fmt.Errorf("organization %s not found", org.ID)
}

func (r *fakeOrgRepo) Count(_ context.Context, _ database.Querier) (int, error) {
	return len(r.orgs), nil
}

type fakeOwnershipRepo struct {
	ownerships []*models.PropertyOwnership
}

func (r *fakeOwnershipRepo) Create(_ context.Context, _ database.Querier, ownership *models.PropertyOwnership) error {
	if err := ownership.Validate(); err != nil {
		return err
	}
	if ownership.ID == uuid.Nil {
		ownership.ID = uuid.New()
	}
	r.ownerships = append(r.ownerships, ownership)
	return nil
}

func (r *fakeOwnershipRepo) ListByParcel(_ context.Context, _ database.Querier, parcelID uuid.UUID) ([]*models.PropertyOwnership, error) {
	var out []*models.PropertyOwnership
	for _, o := range r.ownerships {
		if o.ParcelID == parcelID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOwnershipRepo) DeleteByParcelAndSource(_ context.Context, _ database.Querier, parcelID uuid.UUID, dataSource string) (int64, error) {
	var kept []*models.PropertyOwnership
	var deleted int64
	for _, o := range r.ownerships {
		if o.ParcelID == parcelID && o.DataSource == dataSource {
			deleted++
			continue
		}
		kept = append(kept, o)
	}
	r.ownerships = kept
	return deleted, nil
}

func (r *fakeOwnershipRepo) Count(_ context.Context, _ database.Querier) (int, error) {
	return len(r.ownerships), nil
}

type fakeDwellingRepo struct {
	dwellings []*models.Dwelling
}

func (r *fakeDwellingRepo) Create(_ context.Context, _ database.Querier, dwelling *models.Dwelling) error {
	if dwelling.ID == uuid.Nil {
		dwelling.ID = uuid.New()
	}
	r.dwellings = append(r.dwellings, dwelling)
	return nil
}

func (r *fakeDwellingRepo) GetByID(_ context.Context, _ database.Querier, id uuid.UUID) (*models.Dwelling, error) {
	for _, d := range r.dwellings {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (r *fakeDwellingRepo) ListByParcel(_ context.Context, _ database.Querier, parcelID uuid.UUID) ([]*models.Dwelling, error) {
	var out []*models.Dwelling
	for _, d := range r.dwellings {
		if d.ParcelID == parcelID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDwellingRepo) ListAll(_ context.Context, _ database.Querier) ([]*models.Dwelling, error) {
	return r.dwellings, nil
}

func (r *fakeDwellingRepo) CountByParcel(_ context.Context, _ database.Querier, parcelID uuid.UUID) (int, error) {
	count := 0
	for _, d := range r.dwellings {
		if d.ParcelID == parcelID {
			count++
		}
	}
	return count, nil
}

func (r *fakeDwellingRepo) Update(_ context.Context, _ database.Querier, dwelling *models.Dwelling) error {
	for i, d := range r.dwellings {
		if d.ID == dwelling.ID {
			r.dwellings[i] = dwelling
			return nil
		}
	}
	return fmt.Errorf("dwelling %s not found for update", dwelling.ID)
}

func (r *fakeDwellingRepo) DeleteBySource(_ context.Context, _ database.Querier, dataSource string) (int64, error) {
	var kept []*models.Dwelling
	var deleted int64
	for _, d := range r.dwellings {
		if d.DataSource == dataSource {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	r.dwellings = kept
	return deleted, nil
}

func (r *fakeDwellingRepo) Count(_ context.Context, _ database.Querier) (int, error) {
	return len(r.dwellings), nil
}

func (r *fakeDwellingRepo) CountBySource(_ context.Context, _ database.Querier) (map[string]int, error) {
	counts := make(map[string]int)
	for _, d := range r.dwellings {
		counts[d.DataSource]++
	}
	return counts, nil
}

type fakeListingRepo struct {
	bronze []*models.BronzeSTRListing
	silver []*models.STRListing
}

func (r *fakeListingRepo) CreateBronze(_ context.Context, _ database.Querier, listing *models.BronzeSTRListing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	for _, b := range r.bronze {
		if b.SourceSite == listing.SourceSite && b.SourceID == listing.SourceID {
			return nil
		}
	}
	r.bronze = append(r.bronze, listing)
	return nil
}

func (r *fakeListingRepo) ListUnprocessedBronze(_ context.Context, _ database.Querier) ([]*models.BronzeSTRListing, error) {
	processed := make(map[uuid.UUID]bool, len(r.silver))
	for _, s := range r.silver {
		processed[s.BronzeID] = true
	}
	var out []*models.BronzeSTRListing
	for _, b := range r.bronze {
		if !processed[b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) CreateSilver(_ context.Context, _ database.Querier, listing *models.STRListing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	for _, s := range r.silver {
		if s.BronzeID == listing.BronzeID {
			return nil
		}
	}
	r.silver = append(r.silver, listing)
	return nil
}

func (r *fakeListingRepo) GetSilverByID(_ context.Context, _ database.Querier, id uuid.UUID) (*models.STRListing, error) {
	for _, s := range r.silver {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeListingRepo) UpdateSilverMatch(_ context.Context, _ database.Querier, listing *models.STRListing) error {
	for i, s := range r.silver {
		if s.ID == listing.ID {
			r.silver[i] = listing
			return nil
		}
	}
	return nil
}

func (r *fakeListingRepo) ListSilverByParcel(_ context.Context, _ database.Querier, parcelID uuid.UUID) ([]*models.STRListing, error) {
	var out []*models.STRListing
	for _, s := range r.silver {
		if s.ParcelID != nil && *s.ParcelID == parcelID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) CountSilver(_ context.Context, _ database.Querier) (int, error) {
	return len(r.silver), nil
}

func (r *fakeListingRepo) CountMatchedSilver(_ context.Context, _ database.Querier) (int, error) {
	count := 0
	for _, s := range r.silver {
		if s.ParcelID != nil {
			count++
		}
	}
	return count, nil
}

type fakeReviewRepo struct {
	entries map[uuid.UUID]*models.ReviewEntry
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{entries: make(map[uuid.UUID]*models.ReviewEntry)}
}

func (r *fakeReviewRepo) Create(_ context.Context, _ database.Querier, entry *models.ReviewEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if _, exists := r.entries[entry.STRListingID]; exists {
		return nil
	}
	r.entries[entry.STRListingID] = entry
	return nil
}

func (r *fakeReviewRepo) GetByListing(_ context.Context, _ database.Querier, strListingID uuid.UUID) (*models.ReviewEntry, error) {
	return r.entries[strListingID], nil
}

func (r *fakeReviewRepo) Update(_ context.Context, _ database.Querier, entry *models.ReviewEntry) error {
	if _, exists := r.entries[entry.STRListingID]; !exists {
		return fmt.Errorf("review entry for listing %s not found", entry.STRListingID)
	}
	r.entries[entry.STRListingID] = entry
	return nil
}

func (r *fakeReviewRepo) ListByStatus(_ context.Context, _ database.Querier, status models.ReviewStatus, limit int) ([]*models.ReviewEntry, error) {
	var out []*models.ReviewEntry
	for _, e := range r.entries {
		if e.Status == status {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) CountByStatus(_ context.Context, _ database.Querier) (map[models.ReviewStatus]int, error) {
	counts := make(map[models.ReviewStatus]int)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

type fakeTransferRepo struct {
	bronze []*models.BronzeTransfer
	silver []*models.PropertyTransfer
}

func (r *fakeTransferRepo) CreateBronze(_ context.Context, _ database.Querier, transfer *models.BronzeTransfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	r.bronze = append(r.bronze, transfer)
	return nil
}

func (r *fakeTransferRepo) ListUnprocessedBronze(_ context.Context, _ database.Querier) ([]*models.BronzeTransfer, error) {
	processed := make(map[uuid.UUID]bool, len(r.silver))
	for _, s := range r.silver {
		processed[s.BronzeID] = true
	}
	var out []*models.BronzeTransfer
	for _, b := range r.bronze {
		if !processed[b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeTransferRepo) CreateSilver(_ context.Context, _ database.Querier, transfer *models.PropertyTransfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	for _, s := range r.silver {
		if s.BronzeID == transfer.BronzeID {
			return nil
		}
	}
	r.silver = append(r.silver, transfer)
	return nil
}

func (r *fakeTransferRepo) CountBronze(_ context.Context, _ database.Querier) (int, error) {
	return len(r.bronze), nil
}

func (r *fakeTransferRepo) CountSilver(_ context.Context, _ database.Querier) (int, error) {
	return len(r.silver), nil
}
