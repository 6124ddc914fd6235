package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/parse"
	"github.com/madriverdata/parcelgraph/pkg/repositories"
)

// ResolutionHints carries the contextual fields from the source record a
// candidate arrived on.
type ResolutionHints struct {
	Email      string
	Address    string
	Town       string
	State      string
	DataSource string
}

// ResolvedOwner is the outcome of resolving one owner string: at most one
// organization plus zero or more people. For trusts the organization's
// PrimaryPersonID points at the first resolved person.
type ResolvedOwner struct {
	Organization *models.Organization
	People       []*models.Person
}

// IdentityResolver maps parsed owner candidates to canonical Person and
// Organization rows, creating them when nothing matches. It never merges
// two existing canonical rows; cross-record merge is a manual operation
// outside this engine.
type IdentityResolver interface {
	ResolvePerson(ctx context.Context, q database.Querier, frag parse.PersonFragment, hints ResolutionHints) (*models.Person, error)
	ResolveOrganization(ctx context.Context, q database.Querier, frag parse.OrgFragment, hints ResolutionHints) (*models.Organization, error)
	ResolveOwner(ctx context.Context, q database.Querier, rawName string, hints ResolutionHints) (*ResolvedOwner, error)
}

type identityResolver struct {
	people repositories.PersonRepository
	orgs   repositories.OrganizationRepository
	town   string
	logger *zap.Logger
}

func NewIdentityResolver(
	people repositories.PersonRepository,
	orgs repositories.OrganizationRepository,
	town string,
	logger *zap.Logger,
) IdentityResolver {
	return &identityResolver{
		people: people,
		orgs:   orgs,
		town:   town,
		logger: logger,
	}
}

var _ IdentityResolver = (*identityResolver)(nil)

// ResolvePerson dedupes in strict precedence: email, then full name plus
// road and town, then full name alone. First hit wins; no hit creates.
func (s *identityResolver) ResolvePerson(ctx context.Context, q database.Querier, frag parse.PersonFragment, hints ResolutionHints) (*models.Person, error) {
	fullName := fragmentFullName(frag)
	if fullName == "" {
		return nil, fmt.Errorf("person fragment has no name")
	}

	if hints.Email != "" {
		person, err := s.people.GetByEmail(ctx, q, hints.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up person by email: %w", err)
		}
		if person != nil {
			return s.touch(ctx, q, person, hints)
		}
	}

	if hints.Address != "" && hints.Town != "" {
		person, err := s.people.GetByNameAndLocation(ctx, q, fullName, hints.Address, hints.Town)
		if err != nil {
			return nil, fmt.Errorf("failed to look up person by name and location: %w", err)
		}
		if person != nil {
			return s.touch(ctx, q, person, hints)
		}
	}

	person, err := s.people.GetByName(ctx, q, fullName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up person by name: %w", err)
	}
	if person != nil {
		return s.touch(ctx, q, person, hints)
	}

	person = &models.Person{
		ID:        uuid.New(),
		FirstName: frag.FirstName,
		LastName:  frag.LastName,
		FullName:  fullName,
	}
	if frag.Suffix != "" {
		suffix := frag.Suffix
		person.Suffix = &suffix
	}
	applyHints(person, hints)
	person.IsLocalResident = s.isLocalResident(hints)
	if hints.DataSource != "" {
		person.DataSources = []string{hints.DataSource}
	}

	if err := s.people.Create(ctx, q, person); err != nil {
		return nil, fmt.Errorf("failed to create person %q: %w", fullName, err)
	}
	s.logger.Debug("created person",
		zap.String("full_name", fullName),
		zap.String("source", hints.DataSource))
	return person, nil
}

// touch backfills email and provenance on re-encounter. The Update also
// bumps last_seen_at, so it runs even when nothing else changed.
func (s *identityResolver) touch(ctx context.Context, q database.Querier, person *models.Person, hints ResolutionHints) (*models.Person, error) {
	if hints.Email != "" && person.Email == nil {
		email := hints.Email
		person.Email = &email
	}
	if hints.DataSource != "" && !person.HasSource(hints.DataSource) {
		person.DataSources = append(person.DataSources, hints.DataSource)
	}
	if person.PrimaryAddress == nil && hints.Address != "" {
		applyHints(person, hints)
		person.IsLocalResident = s.isLocalResident(hints)
	}

	if err := s.people.Update(ctx, q, person); err != nil {
		return nil, fmt.Errorf("failed to update person %s: %w", person.ID, err)
	}
	return person, nil
}

// ResolveOrganization dedupes on the upper-cased canonical name only.
func (s *identityResolver) ResolveOrganization(ctx context.Context, q database.Querier, frag parse.OrgFragment, hints ResolutionHints) (*models.Organization, error) {
	if strings.TrimSpace(frag.Name) == "" {
		return nil, fmt.Errorf("organization fragment has no name")
	}

	org, err := s.orgs.GetByName(ctx, q, frag.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up organization: %w", err)
	}
	if org != nil {
		if hints.DataSource != "" && !containsString(org.DataSources, hints.DataSource) {
			org.DataSources = append(org.DataSources, hints.DataSource)
			if err := s.orgs.Update(ctx, q, org); err != nil {
				return nil, fmt.Errorf("failed to update organization %s: %w", org.ID, err)
			}
		}
		return org, nil
	}

	org = &models.Organization{
		ID:          uuid.New(),
		Name:        strings.ToUpper(strings.TrimSpace(frag.Name)),
		DisplayName: strings.TrimSpace(frag.Name),
		OrgType:     frag.OrgType,
	}
	if hints.State != "" {
		state := parse.NormalizeState(hints.State)
		if state != "" {
			org.RegisteredState = &state
		}
	}
	if hints.Address != "" {
		addr := hints.Address
		org.Address = &addr
	}
	if hints.Town != "" {
		town := hints.Town
		org.Town = &town
	}
	if hints.DataSource != "" {
		org.DataSources = []string{hints.DataSource}
	}

	if err := s.orgs.Create(ctx, q, org); err != nil {
		return nil, fmt.Errorf("failed to create organization %q: %w", org.Name, err)
	}
	s.logger.Debug("created organization",
		zap.String("name", org.Name),
		zap.String("org_type", string(org.OrgType)))
	return org, nil
}

// ResolveOwner parses an owner string and resolves everything it yields.
// A trust gets its embedded person linked as the primary person.
func (s *identityResolver) ResolveOwner(ctx context.Context, q database.Querier, rawName string, hints ResolutionHints) (*ResolvedOwner, error) {
	parsed := parse.ParseOwner(rawName)
	resolved := &ResolvedOwner{}

	for _, frag := range parsed.People {
		person, err := s.ResolvePerson(ctx, q, frag, hints)
		if err != nil {
			return nil, err
		}
		resolved.People = append(resolved.People, person)
	}

	if parsed.Org != nil {
		org, err := s.ResolveOrganization(ctx, q, *parsed.Org, hints)
		if err != nil {
			return nil, err
		}
		if org.OrgType == models.OrgTrust && org.PrimaryPersonID == nil && len(resolved.People) > 0 {
			id := resolved.People[0].ID
			org.PrimaryPersonID = &id
			if err := s.orgs.Update(ctx, q, org); err != nil {
				return nil, fmt.Errorf("failed to link trust primary person: %w", err)
			}
		}
		resolved.Organization = org
	}

	return resolved, nil
}

func (s *identityResolver) isLocalResident(hints ResolutionHints) bool {
	state := parse.NormalizeState(hints.State)
	return state == "VT" && strings.EqualFold(strings.TrimSpace(hints.Town), s.town)
}

func applyHints(person *models.Person, hints ResolutionHints) {
	if hints.Address != "" {
		addr := hints.Address
		person.PrimaryAddress = &addr
	}
	if hints.Town != "" {
		town := hints.Town
		person.PrimaryTown = &town
	}
	if hints.State != "" {
		if state := parse.NormalizeState(hints.State); state != "" {
			person.PrimaryState = &state
		}
	}
	if hints.Email != "" && person.Email == nil {
		email := hints.Email
		person.Email = &email
	}
}

func fragmentFullName(frag parse.PersonFragment) string {
	parts := make([]string, 0, 3)
	if frag.FirstName != "" {
		parts = append(parts, frag.FirstName)
	}
	if frag.LastName != "" {
		parts = append(parts, frag.LastName)
	}
	if frag.Suffix != "" {
		parts = append(parts, frag.Suffix)
	}
	return strings.Join(parts, " ")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
