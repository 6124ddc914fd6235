package parse

import "testing"

func TestNormalizeSPAN(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"246-078-10499", "24607810499"},
		{"246 078 10499", "24607810499"},
		{"24607810499", "24607810499"},
		{"  690-219-10028 ", "69021910028"},
		{"abc-123", "ABC123"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSPAN(tt.raw); got != tt.want {
			t.Errorf("NormalizeSPAN(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"VT", "VT"},
		{"Vermont", "VT"},
		{"vermont", "VT"},
		{"MASS", "MA"},
		{"New York", "NY"},
		{"D.C.", "DC"},
		{"QC", "QC"}, // unknown 2-letter code passes through
		{"Quebec Province", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeState(tt.raw); got != tt.want {
			t.Errorf("NormalizeState(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeIntendedUse(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Primary Residence", "primary"},
		{"VACATION HOME", "secondary"},
		{"Rental", "investment"},
		{"FARM", "agriculture"},
		{"something weird", "other"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeIntendedUse(tt.raw); got != tt.want {
			t.Errorf("NormalizeIntendedUse(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestPropertyTypeFromCAT(t *testing.T) {
	tests := []struct {
		cat  string
		want string
	}{
		{"R1", "residential"},
		{"R2", "multi-family"},
		{"C", "commercial"},
		{"C1", "commercial"},
		{"VL", "land"},
		{"X9", "other"},
		{"", "other"},
	}
	for _, tt := range tests {
		if got := PropertyTypeFromCAT(tt.cat); got != tt.want {
			t.Errorf("PropertyTypeFromCAT(%q) = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestDwellingCountFromDescription(t *testing.T) {
	tests := []struct {
		descprop string
		want     int
	}{
		{"5 ACRES & 2 DWLS", 2},
		{"10.2 ACRES & 3 DWLS", 3},
		{"1.5 ACRES & DWL", 1},
		{"0.5 ACRES & DWL.", 1},
		{"2 ACRES & MF", 2},
		{"5 ACRES", 0},
		{"VACANT LAND", 0},
		{"", 0},
		{"& 0 DWLS", 0},
	}
	for _, tt := range tests {
		if got := DwellingCountFromDescription(tt.descprop); got != tt.want {
			t.Errorf("DwellingCountFromDescription(%q) = %d, want %d", tt.descprop, got, tt.want)
		}
	}
}
