// Package parse holds the pure text-parsing functions the ingestion
// pipelines share: owner-of-record strings, identifier normalization, and
// the small lookup tables for state codes and grand-list category codes.
package parse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/madriverdata/parcelgraph/pkg/models"
)

// PersonFragment is a candidate person parsed out of an owner string.
// Names are title-cased; FirstName may be empty when the source listed
// only a surname.
type PersonFragment struct {
	FirstName string
	LastName  string
	Suffix    string
}

// OrgFragment is a candidate organization parsed out of an owner string.
type OrgFragment struct {
	Name    string
	OrgType models.OrganizationType
}

// ParsedOwner is the result of parsing one owner-of-record string. Both
// fields may be empty; a trust yields an Org plus the person embedded in
// the trust name.
type ParsedOwner struct {
	People []PersonFragment
	Org    *OrgFragment
	Raw    string
}

// orgPatterns is the ordered marker table. Whole-word boundaries keep
// surnames like "Ellcott" or "Trusty" from triggering; first match wins.
var orgPatterns = []struct {
	orgType models.OrganizationType
	re      *regexp.Regexp
}{
	{models.OrgLLC, regexp.MustCompile(`(?i)\bLLC\b|\bL\.L\.C\b`)},
	{models.OrgTrust, regexp.MustCompile(`(?i)\bTRUST\b|\bTRUSTEE\b`)},
	{models.OrgCorporation, regexp.MustCompile(`(?i)\bINC\b|\bCORP\b|\bCORPORATION\b`)},
	{models.OrgEstate, regexp.MustCompile(`(?i)\bESTATE\b`)},
}

var trustKeyword = regexp.MustCompile(`(?i)\bTRUST\b|\bTRUSTEE\b`)

// trustNoise strips qualifier tokens between a person prefix and the
// trust keyword, e.g. "WESTON STACEY B REVOCABLE TRUST".
var trustNoise = map[string]bool{
	"REVOCABLE":   true,
	"IRREVOCABLE": true,
	"LIVING":      true,
	"FAMILY":      true,
	"THE":         true,
}

var suffixes = map[string]bool{
	"JR": true, "SR": true, "II": true, "III": true, "IV": true, "V": true,
}

// ParseOwner parses a single owner-of-record string into person fragments
// and/or one organization. It is total: any input, including empty or
// garbage strings, returns a well-formed (possibly empty) result.
func ParseOwner(raw string) ParsedOwner {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return ParsedOwner{Raw: raw}
	}

	for _, p := range orgPatterns {
		if !p.re.MatchString(name) {
			continue
		}
		out := ParsedOwner{
			Org: &OrgFragment{Name: name, OrgType: p.orgType},
			Raw: raw,
		}
		if p.orgType == models.OrgTrust {
			if frag, ok := trustPrefixPerson(name); ok {
				out.People = []PersonFragment{frag}
			}
		}
		return out
	}

	return ParsedOwner{People: parsePeople(name), Raw: raw}
}

// trustPrefixPerson extracts the individual embedded in a trust name of
// the form "LASTNAME FIRSTNAME [MIDDLE-INITIAL] [REVOCABLE] TRUST".
func trustPrefixPerson(name string) (PersonFragment, bool) {
	loc := trustKeyword.FindStringIndex(name)
	if loc == nil {
		return PersonFragment{}, false
	}

	var tokens []string
	for _, tok := range strings.Fields(name[:loc[0]]) {
		if trustNoise[strings.ToUpper(tok)] {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) < 2 {
		return PersonFragment{}, false
	}
	// Middle initials after the first name are dropped.
	return PersonFragment{
		LastName:  titleCase(tokens[0]),
		FirstName: titleCase(tokens[1]),
	}, true
}

// parsePeople splits on the joint-owner joiner and parses the first
// segment as "LASTNAME [SUFFIX] FIRSTNAME [MIDDLE]". Later segments are
// first-name-only and inherit the first segment's last name.
func parsePeople(name string) []PersonFragment {
	segments := strings.Split(name, "&")

	var people []PersonFragment
	var inheritedLast string

	for i, seg := range segments {
		tokens := strings.Fields(seg)
		if len(tokens) == 0 {
			continue
		}

		if i == 0 {
			frag, ok := parseLeadSegment(tokens)
			if !ok {
				// Without a surname the later segments have nothing
				// to inherit.
				return nil
			}
			inheritedLast = frag.LastName
			people = append(people, frag)
			continue
		}

		// Bare initials carry no identity.
		first := tokens[0]
		if isInitial(first) || !hasLetter(first) {
			continue
		}
		people = append(people, PersonFragment{
			FirstName: titleCase(first),
			LastName:  inheritedLast,
		})
	}
	return people
}

func parseLeadSegment(tokens []string) (PersonFragment, bool) {
	if len(tokens) == 1 && isInitial(tokens[0]) {
		return PersonFragment{}, false
	}
	if !hasLetter(tokens[0]) {
		return PersonFragment{}, false
	}

	frag := PersonFragment{LastName: titleCase(tokens[0])}
	rest := tokens[1:]

	if len(rest) > 0 && suffixes[strings.ToUpper(rest[0])] {
		frag.Suffix = strings.ToUpper(rest[0])
		rest = rest[1:]
	}
	if len(rest) > 0 {
		frag.FirstName = titleCase(rest[0])
	}
	return frag, true
}

// isInitial reports a bare one-letter token, with or without a period.
func isInitial(tok string) bool {
	tok = strings.TrimSuffix(tok, ".")
	return len(tok) == 1 && unicode.IsLetter(rune(tok[0]))
}

// hasLetter reports whether a token can be name material at all; lot
// numbers and similar stray digits carry no identity.
func hasLetter(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
