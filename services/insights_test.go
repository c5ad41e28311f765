package services

import (
	"testing"

	"rentinvest/models"
	"rentinvest/utils"
)

func price(v int64) *int64 { return &v }

func sampleRecords() []*models.ListingRecord {
	return []*models.ListingRecord{
		{PropertyURL: "https://example.com/p/1", Street: "101 NW 1st St", City: "Oklahoma City", Status: "SOLD", ListPrice: price(200000)},
		{PropertyURL: "https://example.com/p/2", Street: "202 Main St", City: "Oklahoma City", Status: "SOLD", ListPrice: price(150000)},
		{PropertyURL: "https://example.com/p/3", Street: "303 Elm Ave", City: "Edmond", Status: "FOR_SALE", ListPrice: price(320000)},
		{PropertyURL: "https://example.com/p/4", Street: "404 Oak Dr", City: "Norman", Status: "SOLD"},
		{PropertyURL: "https://example.com/p/5", Street: "505 Pine Ln", City: "Edmond", Status: "PENDING", ListPrice: price(90000)},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(sampleRecords())

	if r.TotalListings != 5 {
		t.Errorf("TotalListings: got %d, want 5", r.TotalListings)
	}
	if r.ListingsByStatus["SOLD"] != 3 {
		t.Errorf("SOLD count: got %d, want 3", r.ListingsByStatus["SOLD"])
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(sampleRecords())

	if r.MinListPrice != 90000 {
		t.Errorf("MinListPrice: got %d, want 90000", r.MinListPrice)
	}
	if r.MaxListPrice != 320000 {
		t.Errorf("MaxListPrice: got %d, want 320000", r.MaxListPrice)
	}
	if want := 190000.0; r.AverageListPrice != want {
		t.Errorf("AverageListPrice: got %.2f, want %.2f", r.AverageListPrice, want)
	}
}

func TestInsightMostExpensive(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(sampleRecords())

	if r.MostExpensive == nil {
		t.Fatal("MostExpensive should not be nil")
	}
	if r.MostExpensive.Street != "303 Elm Ave" {
		t.Errorf("MostExpensive: got %q, want %q", r.MostExpensive.Street, "303 Elm Ave")
	}
}

func TestInsightCityGrouping(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(sampleRecords())

	if r.ListingsByCity["Oklahoma City"] != 2 {
		t.Errorf("Oklahoma City count: got %d, want 2", r.ListingsByCity["Oklahoma City"])
	}
	if r.ListingsByCity["Edmond"] != 2 {
		t.Errorf("Edmond count: got %d, want 2", r.ListingsByCity["Edmond"])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(nil)

	if r.TotalListings != 0 {
		t.Errorf("expected 0 total listings for empty input")
	}
	if r.MostExpensive != nil {
		t.Errorf("MostExpensive should be nil for empty input")
	}
}
