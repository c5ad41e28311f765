package models

import (
	"reflect"
	"testing"
)

func TestListingTypeFileTag(t *testing.T) {
	tests := []struct {
		t    ListingType
		want string
	}{
		{Sold, "sold"},
		{ForSale, "selling"},
		{ForRent, "renting"},
		{Pending, "pending"},
	}
	for _, tt := range tests {
		if got := tt.t.FileTag(); got != tt.want {
			t.Errorf("FileTag(%s) = %q; want %q", tt.t, got, tt.want)
		}
	}
}

func TestRecordRowRoundTrip(t *testing.T) {
	beds := int64(4)
	sqft := int64(2100)
	listPrice := int64(315000)
	lat := 35.4676
	lon := -97.5164

	full := &ListingRecord{
		PropertyURL:  "https://example.com/p/1",
		MLS:          "OKCM",
		MlsID:        112233,
		Status:       "SOLD",
		Style:        "SINGLE_FAMILY",
		Street:       "101 NW 1st St",
		City:         "Oklahoma City",
		State:        "OK",
		ZipCode:      "73102",
		Beds:         &beds,
		Sqft:         &sqft,
		ListPrice:    &listPrice,
		ListDate:     "2023-01-15",
		LastSoldDate: "2023-03-02",
		Latitude:     &lat,
		Longitude:    &lon,
	}
	sparse := &ListingRecord{PropertyURL: "https://example.com/p/2"}

	for _, rec := range []*ListingRecord{full, sparse} {
		row := rec.Row()
		if len(row) != len(Header()) {
			t.Fatalf("row length %d, header length %d", len(row), len(Header()))
		}

		got, err := RecordFromRow(row)
		if err != nil {
			t.Fatalf("RecordFromRow: %v", err)
		}
		if !reflect.DeepEqual(got, rec) {
			t.Errorf("round trip mismatch for %s:\n got  %+v\n want %+v", rec.PropertyURL, got, rec)
		}
	}
}

func TestRecordFromRowRejectsBadInput(t *testing.T) {
	if _, err := RecordFromRow([]string{"too", "short"}); err == nil {
		t.Error("short row should error")
	}

	row := (&ListingRecord{PropertyURL: "https://example.com/p/1"}).Row()
	row[10] = "not-a-number" // beds
	if _, err := RecordFromRow(row); err == nil {
		t.Error("non-numeric beds should error")
	}
}

func TestQuarterBounds(t *testing.T) {
	tests := []struct {
		quarter  Quarter
		wantFrom string
		wantTo   string
	}{
		{Quarters[0], "2023-01-01", "2023-03-31"},
		{Quarters[1], "2023-04-01", "2023-06-30"},
		{Quarters[2], "2023-07-01", "2023-09-30"},
		{Quarters[3], "2023-10-01", "2023-12-31"},
	}
	for _, tt := range tests {
		from, to := tt.quarter.Bounds("2023")
		if from != tt.wantFrom || to != tt.wantTo {
			t.Errorf("%s bounds: got %s..%s, want %s..%s",
				tt.quarter.Name, from, to, tt.wantFrom, tt.wantTo)
		}
	}
}

func TestPeriodKeyFileName(t *testing.T) {
	k := PeriodKey{LocationPrefix: "OKC", Quarter: "Q2", Year: "2023", Type: ForSale}
	if got, want := k.FileName("data"), "data/OKC_Q2_2023_selling.csv"; got != want {
		t.Errorf("FileName: got %q, want %q", got, want)
	}
	if got, want := PhotoFileName("data", "OKC"), "data/OKC_photos.csv"; got != want {
		t.Errorf("PhotoFileName: got %q, want %q", got, want)
	}
}
