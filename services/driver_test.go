package services

import (
	"context"
	"os"
	"testing"
	"time"

	"rentinvest/config"
	"rentinvest/models"
	"rentinvest/scraper"
	"rentinvest/storage"
	"rentinvest/utils"
)

type fakeFetcher struct {
	calls   []scraper.SearchRequest
	respond func(req scraper.SearchRequest) ([]*models.ListingRecord, error)
}

func (f *fakeFetcher) Fetch(_ context.Context, req scraper.SearchRequest) ([]*models.ListingRecord, error) {
	f.calls = append(f.calls, req)
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(req)
}

func driverFixture(t *testing.T, fetcher scraper.Fetcher, locations []string) (*PeriodDriver, *config.Plan, *[]time.Duration) {
	t.Helper()
	logger := utils.NewTestLogger()
	plan := &config.Plan{
		Years:          []string{"2023"},
		Locations:      locations,
		LocationPrefix: "OKC",
		DataDir:        t.TempDir(),
		RadiusMiles:    100,
	}

	d := NewPeriodDriver(fetcher, storage.NewCSVStore(logger), plan, logger)

	var sleeps []time.Duration
	d.sleep = func(dur time.Duration) { sleeps = append(sleeps, dur) }
	return d, plan, &sleeps
}

func TestDriverWritesPeriodAndPhotoFiles(t *testing.T) {
	fetcher := &fakeFetcher{
		respond: func(req scraper.SearchRequest) ([]*models.ListingRecord, error) {
			if req.ListingType != models.Sold {
				return nil, nil
			}
			return []*models.ListingRecord{
				{PropertyURL: "https://example.com/p/1", MlsID: 1, Status: "SOLD", PrimaryPhoto: "https://img/1.jpg"},
				{PropertyURL: "https://example.com/p/2", MlsID: 2, Status: "SOLD", PrimaryPhoto: "https://img/2.jpg"},
			}, nil
		},
	}
	d, plan, _ := driverFixture(t, fetcher, []string{"Norman, OK"})

	d.processLocation(context.Background(), "2023", models.Quarters[0], "Norman, OK")

	key := models.PeriodKey{LocationPrefix: "OKC", Quarter: "Q1", Year: "2023", Type: models.Sold}
	store := storage.NewCSVStore(utils.NewTestLogger())

	records, err := store.ReadRecords(key.FileName(plan.DataDir))
	if err != nil {
		t.Fatalf("ReadRecords sold period file: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("sold rows: got %d, want 2", len(records))
	}
	for _, r := range records {
		if r.PrimaryPhoto != "" {
			t.Errorf("period file row %s still carries photo columns", r.PropertyURL)
		}
	}

	if _, err := os.Stat(models.PhotoFileName(plan.DataDir, "OKC")); err != nil {
		t.Errorf("photo side file missing: %v", err)
	}

	// Empty listing types must not create files.
	selling := models.PeriodKey{LocationPrefix: "OKC", Quarter: "Q1", Year: "2023", Type: models.ForSale}
	if _, err := os.Stat(selling.FileName(plan.DataDir)); !os.IsNotExist(err) {
		t.Errorf("empty selling result should not create a file, stat err = %v", err)
	}
}

func TestDriverFetchesAllTypesInOrder(t *testing.T) {
	fetcher := &fakeFetcher{}
	d, _, _ := driverFixture(t, fetcher, []string{"Norman, OK"})

	d.processLocation(context.Background(), "2023", models.Quarters[1], "Norman, OK")

	if len(fetcher.calls) != 4 {
		t.Fatalf("fetch calls: got %d, want 4", len(fetcher.calls))
	}
	for i, want := range models.AllListingTypes {
		if fetcher.calls[i].ListingType != want {
			t.Errorf("call %d: got %s, want %s", i, fetcher.calls[i].ListingType, want)
		}
	}
	if from, to := fetcher.calls[0].DateFrom, fetcher.calls[0].DateTo; from != "2023-04-01" || to != "2023-06-30" {
		t.Errorf("Q2 bounds: got %s..%s, want 2023-04-01..2023-06-30", from, to)
	}
}

func TestDriverRateLimitBacksOffAndMovesOn(t *testing.T) {
	fetcher := &fakeFetcher{
		respond: func(req scraper.SearchRequest) ([]*models.ListingRecord, error) {
			if req.Location == "Norman, OK" {
				return nil, &scraper.RateLimitError{StatusCode: 429}
			}
			return []*models.ListingRecord{
				{PropertyURL: "https://example.com/p/moore/" + string(req.ListingType), MlsID: 9, Status: "SOLD"},
			}, nil
		},
	}
	d, _, sleeps := driverFixture(t, fetcher, []string{"Norman, OK", "Moore, OK"})

	d.processLocation(context.Background(), "2023", models.Quarters[0], "Norman, OK")
	d.processLocation(context.Background(), "2023", models.Quarters[0], "Moore, OK")

	if len(*sleeps) != 1 || (*sleeps)[0] != RateLimitBackoff {
		t.Fatalf("sleeps: got %v, want one %v backoff", *sleeps, RateLimitBackoff)
	}

	// Norman is abandoned after the first failing fetch and never retried.
	norman := 0
	moore := 0
	for _, call := range fetcher.calls {
		switch call.Location {
		case "Norman, OK":
			norman++
		case "Moore, OK":
			moore++
		}
	}
	if norman != 1 {
		t.Errorf("Norman fetches: got %d, want 1 (no retry after backoff)", norman)
	}
	if moore != 4 {
		t.Errorf("Moore fetches: got %d, want 4 (processing resumed)", moore)
	}
}

func TestDriverMalformedResponseSkipsWithoutBackoff(t *testing.T) {
	fetcher := &fakeFetcher{
		respond: func(req scraper.SearchRequest) ([]*models.ListingRecord, error) {
			return nil, &scraper.MalformedError{Reason: "property without property_url"}
		},
	}
	d, _, sleeps := driverFixture(t, fetcher, []string{"Norman, OK"})

	d.processLocation(context.Background(), "2023", models.Quarters[0], "Norman, OK")

	if len(*sleeps) != 0 {
		t.Errorf("malformed response must not trigger a backoff, got %v", *sleeps)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("fetch calls: got %d, want 1 (location abandoned)", len(fetcher.calls))
	}
}

func TestDriverRunWalksPlanSequentially(t *testing.T) {
	fetcher := &fakeFetcher{}
	d, _, _ := driverFixture(t, fetcher, []string{"Norman, OK", "Moore, OK"})

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 1 year x 4 quarters x 2 locations x 4 listing types.
	if len(fetcher.calls) != 32 {
		t.Fatalf("fetch calls: got %d, want 32", len(fetcher.calls))
	}

	// A location is fully drained before the next begins.
	if fetcher.calls[0].Location != "Norman, OK" || fetcher.calls[3].Location != "Norman, OK" {
		t.Errorf("first four calls should all be Norman, OK")
	}
	if fetcher.calls[4].Location != "Moore, OK" {
		t.Errorf("fifth call: got %s, want Moore, OK", fetcher.calls[4].Location)
	}
}

func TestDriverRunStopsOnCanceledContext(t *testing.T) {
	fetcher := &fakeFetcher{}
	d, _, _ := driverFixture(t, fetcher, []string{"Norman, OK"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Run(ctx); err == nil {
		t.Fatal("Run with canceled context should return an error")
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("no fetches expected after cancellation, got %d", len(fetcher.calls))
	}
}
