package parse

import (
	"regexp"
	"strings"
)

// stateCodes maps state names and common abbreviations to 2-letter codes.
var stateCodes = map[string]string{
	"VERMONT": "VT", "FLORIDA": "FL", "NEW YORK": "NY",
	"MASSACHUSETTS": "MA", "MASS": "MA",
	"CONNECTICUT": "CT", "CONN": "CT",
	"NEW HAMPSHIRE": "NH", "MAINE": "ME", "CALIFORNIA": "CA",
	"TEXAS": "TX", "NEW JERSEY": "NJ", "PENNSYLVANIA": "PA",
	"MARYLAND": "MD", "VIRGINIA": "VA", "NORTH CAROLINA": "NC",
	"SOUTH CAROLINA": "SC", "GEORGIA": "GA", "OHIO": "OH",
	"MICHIGAN": "MI", "ILLINOIS": "IL", "WASHINGTON": "WA",
	"OREGON": "OR", "COLORADO": "CO", "ARIZONA": "AZ", "NEVADA": "NV",
	"RHODE ISLAND": "RI", "DELAWARE": "DE",
	"DISTRICT OF COLUMBIA": "DC", "D.C.": "DC",
	"WEST VIRGINIA": "WV", "TENNESSEE": "TN", "KENTUCKY": "KY",
	"INDIANA": "IN", "WISCONSIN": "WI", "MINNESOTA": "MN", "IOWA": "IA",
	"MISSOURI": "MO", "ARKANSAS": "AR", "LOUISIANA": "LA",
	"MISSISSIPPI": "MS", "ALABAMA": "AL", "OKLAHOMA": "OK",
	"KANSAS": "KS", "NEBRASKA": "NE", "SOUTH DAKOTA": "SD",
	"NORTH DAKOTA": "ND", "MONTANA": "MT", "IDAHO": "ID",
	"WYOMING": "WY", "UTAH": "UT", "NEW MEXICO": "NM",
	"ALASKA": "AK", "HAWAII": "HI",
}

// NormalizeState maps a free-form state value to a 2-letter code. An
// unrecognized 2-letter value passes through as-is; anything else
// unrecognized returns "".
func NormalizeState(raw string) string {
	clean := strings.ToUpper(strings.TrimSpace(raw))
	if clean == "" {
		return ""
	}
	if code, ok := stateCodes[clean]; ok {
		return code
	}
	if len(clean) == 2 {
		return clean
	}
	return ""
}

// intendedUseMap maps raw transfer intended-use values to normalized
// categories.
var intendedUseMap = map[string]string{
	"PRIMARY RESIDENCE":   "primary",
	"SECONDARY RESIDENCE": "secondary",
	"VACATION HOME":       "secondary",
	"VACATION":            "secondary",
	"INVESTMENT":          "investment",
	"RENTAL":              "investment",
	"COMMERCIAL":          "commercial",
	"AGRICULTURE":         "agriculture",
	"FARM":                "agriculture",
	"LAND":                "land",
	"DEVELOPMENT":         "development",
}

// NormalizeIntendedUse maps a declared intended use to its category.
// Unknown non-empty values map to "other"; empty input returns "".
func NormalizeIntendedUse(raw string) string {
	clean := strings.ToUpper(strings.TrimSpace(raw))
	if clean == "" {
		return ""
	}
	if use, ok := intendedUseMap[clean]; ok {
		return use
	}
	return "other"
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)

// NormalizeSPAN reduces a parcel identifier to its matching form:
// upper-cased with every non-alphanumeric stripped, so "246-078-10499",
// "24607810499" and "246 078 10499" all collide.
func NormalizeSPAN(raw string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
}

// PropertyTypeFromCAT maps a grand-list category code to a coarse
// property type.
func PropertyTypeFromCAT(catCode string) string {
	cat := strings.ToUpper(strings.TrimSpace(catCode))
	switch {
	case cat == "":
		return "other"
	case cat == "R2":
		return "multi-family"
	case strings.HasPrefix(cat, "R"):
		return "residential"
	case strings.HasPrefix(cat, "C"):
		return "commercial"
	case cat == "VL":
		return "land"
	}
	return "other"
}

var (
	dwellingCountRe = regexp.MustCompile(`&\s*(\d+)\s*DWLS?`)
	dwellingOneRe   = regexp.MustCompile(`&\s*DWL[.\s:]?`)
	multiFamilyRe   = regexp.MustCompile(`&\s*MF\b`)
)

// DwellingCountFromDescription parses the grand-list DESCPROP text for an
// explicit dwelling count. "& 2 DWLS" yields 2, "& DWL" yields 1, a
// multi-family marker yields a conservative 2, no marker yields 0.
func DwellingCountFromDescription(descprop string) int {
	text := strings.ToUpper(descprop)
	if m := dwellingCountRe.FindStringSubmatch(text); m != nil {
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		if n > 0 {
			return n
		}
	}
	if dwellingOneRe.MatchString(text) {
		return 1
	}
	if multiFamilyRe.MatchString(text) {
		return 2
	}
	return 0
}
