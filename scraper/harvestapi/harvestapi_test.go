package harvestapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rentinvest/models"
	"rentinvest/scraper"
	"rentinvest/utils"
)

func testRequest() scraper.SearchRequest {
	return scraper.SearchRequest{
		Location:    "Norman, OK",
		ListingType: models.Sold,
		DateFrom:    "2023-01-01",
		DateTo:      "2023-03-31",
		RadiusMiles: 100,
	}
}

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f, err := New(srv.URL, utils.NewTestLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestFetchWrappedPayload(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("listing_type") != "sold" || q.Get("radius") != "100" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("date_from") != "2023-01-01" || q.Get("date_to") != "2023-03-31" {
			t.Errorf("unexpected date bounds: %v", q)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"properties": [
			{"property_url": "https://example.com/p/1", "mls_id": 11, "status": "SOLD",
			 "city": "Norman", "state": "OK", "zip_code": "73069",
			 "beds": 3, "list_price": 250000, "latitude": 35.22, "longitude": -97.44,
			 "primary_photo": "https://img/1.jpg", "alt_photos": ["https://img/1a.jpg", "https://img/1b.jpg"]},
			{"property_url": "https://example.com/p/2", "status": "SOLD"}
		]}`))
	})

	records, err := f.Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}

	r := records[0]
	if r.MlsID != 11 || r.City != "Norman" || r.Beds == nil || *r.Beds != 3 {
		t.Errorf("mapped record mismatch: %+v", r)
	}
	if r.AltPhotos != "https://img/1a.jpg, https://img/1b.jpg" {
		t.Errorf("alt photos: got %q", r.AltPhotos)
	}
	if records[1].MlsID != 0 {
		t.Errorf("absent mls_id should map to 0, got %d", records[1].MlsID)
	}
}

func TestFetchBareArrayPayload(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"property_url": "https://example.com/p/1"}]`))
	})

	records, err := f.Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records: got %d, want 1", len(records))
	}
}

func TestFetchEmptyResult(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"properties": []}`))
	})

	records, err := f.Fetch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records: got %d, want 0", len(records))
	}
}

func TestFetchRateLimited(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := f.Fetch(context.Background(), testRequest())
		var rateLimited *scraper.RateLimitError
		if !errors.As(err, &rateLimited) {
			t.Errorf("HTTP %d: got %v, want RateLimitError", status, err)
			continue
		}
		if rateLimited.StatusCode != status {
			t.Errorf("status: got %d, want %d", rateLimited.StatusCode, status)
		}
	}
}

func TestFetchMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>captcha</html>`},
		{"missing url", `{"properties": [{"status": "SOLD"}]}`},
	}

	for _, tt := range tests {
		f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(tt.body))
		})

		_, err := f.Fetch(context.Background(), testRequest())
		var malformed *scraper.MalformedError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: got %v, want MalformedError", tt.name, err)
		}
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("", utils.NewTestLogger()); err == nil {
		t.Error("empty base URL should error")
	}
}
