package models

import (
	"fmt"
	"strconv"
)

// ListingType is the market-status category a search is scoped to.
type ListingType string

const (
	Sold    ListingType = "sold"
	ForSale ListingType = "for_sale"
	ForRent ListingType = "for_rent"
	Pending ListingType = "pending"
)

// AllListingTypes is the fixed processing order for one location.
var AllListingTypes = []ListingType{Sold, ForSale, ForRent, Pending}

// FileTag returns the suffix used in period file names. The tags predate
// this codebase: for_sale maps to "selling" and for_rent to "renting".
func (t ListingType) FileTag() string {
	switch t {
	case Sold:
		return "sold"
	case ForSale:
		return "selling"
	case ForRent:
		return "renting"
	case Pending:
		return "pending"
	default:
		return string(t)
	}
}

// ListingRecord is one property observation as returned by a search.
// Nullable numeric fields use pointers so an empty CSV cell survives a
// read/write round trip as NULL rather than zero.
type ListingRecord struct {
	PropertyURL  string
	MLS          string
	MlsID        int64
	Status       string
	Style        string
	Street       string
	Unit         string
	City         string
	State        string
	ZipCode      string
	Beds         *int64
	FullBaths    *int64
	HalfBaths    *int64
	Sqft         *int64
	YearBuilt    *int64
	DaysOnMls    *int64
	ListPrice    *int64
	ListDate     string
	SoldPrice    *int64
	LastSoldDate string
	LotSqft      *int64
	PricePerSqft *int64
	Latitude     *float64
	Longitude    *float64
	Stories       *int64
	HoaFee        *int64
	ParkingGarage *int64

	// Media fields. These are split off into the photo side file before a
	// record reaches a period CSV, so they are not part of Header()/Row().
	PrimaryPhoto string
	AltPhotos    string
}

// PhotoRecord holds the heavy media columns keyed by listing URL.
type PhotoRecord struct {
	PropertyURL  string
	PrimaryPhoto string
	AltPhotos    string
}

// Header is the column order of period and condensed CSV files.
func Header() []string {
	return []string{
		"property_url", "mls", "mls_id", "status", "style",
		"street", "unit", "city", "state", "zip_code",
		"beds", "full_baths", "half_baths", "sqft", "year_built",
		"days_on_mls", "list_price", "list_date", "sold_price",
		"last_sold_date", "lot_sqft", "price_per_sqft",
		"latitude", "longitude", "stories", "hoa_fee", "parking_garage",
	}
}

// PhotoHeader is the column order of the photo side file.
func PhotoHeader() []string {
	return []string{"property_url", "primary_photo", "alt_photos"}
}

// Row serializes the record in Header() order.
func (r *ListingRecord) Row() []string {
	return []string{
		r.PropertyURL, r.MLS, strconv.FormatInt(r.MlsID, 10),
		r.Status, r.Style,
		r.Street, r.Unit, r.City, r.State, r.ZipCode,
		formatInt(r.Beds), formatInt(r.FullBaths), formatInt(r.HalfBaths),
		formatInt(r.Sqft), formatInt(r.YearBuilt),
		formatInt(r.DaysOnMls), formatInt(r.ListPrice), r.ListDate,
		formatInt(r.SoldPrice), r.LastSoldDate,
		formatInt(r.LotSqft), formatInt(r.PricePerSqft),
		formatFloat(r.Latitude), formatFloat(r.Longitude),
		formatInt(r.Stories), formatInt(r.HoaFee), formatInt(r.ParkingGarage),
	}
}

// Row serializes the photo record in PhotoHeader() order.
func (p *PhotoRecord) Row() []string {
	return []string{p.PropertyURL, p.PrimaryPhoto, p.AltPhotos}
}

// RecordFromRow parses one CSV data row in Header() order.
func RecordFromRow(row []string) (*ListingRecord, error) {
	if len(row) != len(Header()) {
		return nil, fmt.Errorf("models: row has %d columns, want %d", len(row), len(Header()))
	}

	var mlsID int64
	if row[2] != "" {
		n, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("models: parse mls_id %q: %w", row[2], err)
		}
		mlsID = n
	}

	r := &ListingRecord{
		PropertyURL:  row[0],
		MLS:          row[1],
		MlsID:        mlsID,
		Status:       row[3],
		Style:        row[4],
		Street:       row[5],
		Unit:         row[6],
		City:         row[7],
		State:        row[8],
		ZipCode:      row[9],
		ListDate:     row[17],
		LastSoldDate: row[19],
	}

	var err error
	intCols := []struct {
		dst  **int64
		col  int
		name string
	}{
		{&r.Beds, 10, "beds"}, {&r.FullBaths, 11, "full_baths"},
		{&r.HalfBaths, 12, "half_baths"}, {&r.Sqft, 13, "sqft"},
		{&r.YearBuilt, 14, "year_built"}, {&r.DaysOnMls, 15, "days_on_mls"},
		{&r.ListPrice, 16, "list_price"}, {&r.SoldPrice, 18, "sold_price"},
		{&r.LotSqft, 20, "lot_sqft"}, {&r.PricePerSqft, 21, "price_per_sqft"},
		{&r.Stories, 24, "stories"}, {&r.HoaFee, 25, "hoa_fee"},
		{&r.ParkingGarage, 26, "parking_garage"},
	}
	for _, f := range intCols {
		if *f.dst, err = parseInt(row[f.col]); err != nil {
			return nil, fmt.Errorf("models: parse %s %q: %w", f.name, row[f.col], err)
		}
	}
	if r.Latitude, err = parseFloat(row[22]); err != nil {
		return nil, fmt.Errorf("models: parse latitude %q: %w", row[22], err)
	}
	if r.Longitude, err = parseFloat(row[23]); err != nil {
		return nil, fmt.Errorf("models: parse longitude %q: %w", row[23], err)
	}

	return r, nil
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
