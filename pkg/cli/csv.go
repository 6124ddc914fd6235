package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/madriverdata/parcelgraph/pkg/models"
	"github.com/madriverdata/parcelgraph/pkg/services"
)

// csvTable is a header-keyed CSV file. Column lookup is case-insensitive
// so exports from different county systems load without renaming.
type csvTable struct {
	columns map[string]int
	rows    [][]string
}

func readCSVFile(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return &csvTable{columns: columns, rows: records[1:]}, nil
}

func (t *csvTable) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntPtr(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt64Ptr(s string) *int64 {
	f := parseFloatPtr(s)
	if f == nil {
		return nil
	}
	v := int64(*f)
	return &v
}

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", time.RFC3339}

func parseDatePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseFlag(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "YES", "T", "TRUE", "1", "HS":
		return true
	}
	return false
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func loadGrandListRows(path string) ([]services.GrandListRow, error) {
	table, err := readCSVFile(path)
	if err != nil {
		return nil, err
	}

	rows := make([]services.GrandListRow, 0, len(table.rows))
	for _, record := range table.rows {
		row := services.GrandListRow{
			Span:             table.get(record, "span"),
			Address:          table.get(record, "address"),
			OwnerName:        table.get(record, "owner1"),
			Owner2Name:       table.get(record, "owner2"),
			MailingAddress:   table.get(record, "mailing_address"),
			MailingTown:      table.get(record, "mailing_town"),
			MailingState:     table.get(record, "mailing_state"),
			Acres:            parseFloatPtr(table.get(record, "acres")),
			AssessedLand:     parseInt64Ptr(table.get(record, "assessed_land")),
			AssessedBuilding: parseInt64Ptr(table.get(record, "assessed_building")),
			AssessedTotal:    parseInt64Ptr(table.get(record, "assessed_total")),
			CatCode:          table.get(record, "cat"),
			Description:      table.get(record, "descprop"),
			HomesteadFiled:   parseFlag(table.get(record, "homestead")),
			HousesiteValue:   parseInt64Ptr(table.get(record, "housesite_value")),
			Lat:              parseFloatPtr(table.get(record, "lat")),
			Lng:              parseFloatPtr(table.get(record, "lng")),
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func loadBronzeTransfers(path string) ([]*models.BronzeTransfer, error) {
	table, err := readCSVFile(path)
	if err != nil {
		return nil, err
	}

	transfers := make([]*models.BronzeTransfer, 0, len(table.rows))
	for _, record := range table.rows {
		transfers = append(transfers, &models.BronzeTransfer{
			Span:         strPtrOrNil(table.get(record, "span")),
			SaleDate:     parseDatePtr(table.get(record, "sale_date")),
			SalePrice:    parseFloatPtr(table.get(record, "sale_price")),
			BuyerName:    strPtrOrNil(table.get(record, "buyer_name")),
			BuyerAddress: strPtrOrNil(table.get(record, "buyer_address")),
			BuyerTown:    strPtrOrNil(table.get(record, "buyer_town")),
			BuyerState:   strPtrOrNil(table.get(record, "buyer_state")),
			SellerName:   strPtrOrNil(table.get(record, "seller_name")),
			IntendedUse:  strPtrOrNil(table.get(record, "intended_use")),
			PropertyUse:  strPtrOrNil(table.get(record, "property_use")),
		})
	}
	return transfers, nil
}

func loadBronzeListings(path string) ([]*models.BronzeSTRListing, error) {
	table, err := readCSVFile(path)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	listings := make([]*models.BronzeSTRListing, 0, len(table.rows))
	for _, record := range table.rows {
		listing := &models.BronzeSTRListing{
			SourceSite:     table.get(record, "source_site"),
			SourceID:       table.get(record, "source_id"),
			Title:          strPtrOrNil(table.get(record, "title")),
			ListingURL:     strPtrOrNil(table.get(record, "listing_url")),
			Lat:            parseFloatPtr(table.get(record, "lat")),
			Lng:            parseFloatPtr(table.get(record, "lng")),
			Bedrooms:       parseIntPtr(table.get(record, "bedrooms")),
			Bathrooms:      parseFloatPtr(table.get(record, "bathrooms")),
			MaxGuests:      parseIntPtr(table.get(record, "max_guests")),
			NightlyPrice:   parseFloatPtr(table.get(record, "nightly_price")),
			HostName:       strPtrOrNil(table.get(record, "host_name")),
			LastReviewDate: parseDatePtr(table.get(record, "last_review_date")),
			ScrapedAt:      now,
		}
		if scraped := parseDatePtr(table.get(record, "scraped_at")); scraped != nil {
			listing.ScrapedAt = *scraped
		}
		listings = append(listings, listing)
	}
	return listings, nil
}
