// Package harvestapi implements the search contract against a HomeHarvest
// style JSON API. It is the default fetcher.
package harvestapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rentinvest/models"
	"rentinvest/scraper"
	"rentinvest/utils"
)

const (
	searchPath     = "/api/v2/properties/search"
	defaultTimeout = 60 * time.Second
	userAgent      = "rentinvest/1.0"
)

// Fetcher queries the property search API over HTTP. It performs no retries.
type Fetcher struct {
	baseURL string
	client  *http.Client
	logger  *utils.Logger
}

// New creates a Fetcher for the given API base URL.
func New(baseURL string, logger *utils.Logger) (*Fetcher, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return nil, errors.New("harvestapi: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("harvestapi: invalid base URL: %w", err)
	}

	return &Fetcher{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}, nil
}

// Fetch runs one bounded property search and maps the payload to records.
func (f *Fetcher) Fetch(ctx context.Context, req scraper.SearchRequest) ([]*models.ListingRecord, error) {
	u, err := url.Parse(f.baseURL + searchPath)
	if err != nil {
		return nil, fmt.Errorf("harvestapi: build search URL: %w", err)
	}

	q := u.Query()
	q.Set("location", req.Location)
	q.Set("listing_type", string(req.ListingType))
	q.Set("date_from", req.DateFrom)
	q.Set("date_to", req.DateTo)
	q.Set("radius", strconv.Itoa(req.RadiusMiles))
	u.RawQuery = q.Encode()

	body, err := f.doGET(ctx, u.String())
	if err != nil {
		return nil, err
	}

	payloads, err := decodeSearchResponse(body)
	if err != nil {
		return nil, err
	}

	records := make([]*models.ListingRecord, 0, len(payloads))
	for _, p := range payloads {
		rec, err := p.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	f.logger.Debug("[harvestapi] %s %s %s..%s — %d rows",
		req.ListingType, req.Location, req.DateFrom, req.DateTo, len(records))
	return records, nil
}

func (f *Fetcher) doGET(ctx context.Context, rawURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("harvestapi: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &scraper.RateLimitError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("harvestapi: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &scraper.RateLimitError{StatusCode: resp.StatusCode}
	default:
		return nil, fmt.Errorf("harvestapi: unexpected HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body[:min(len(body), 200)])))
	}
}

// decodeSearchResponse accepts both object-wrapped and bare-array payloads.
func decodeSearchResponse(body []byte) ([]propertyPayload, error) {
	var wrapped struct {
		Properties []propertyPayload `json:"properties"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Properties != nil {
		return wrapped.Properties, nil
	}

	var bare []propertyPayload
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, &scraper.MalformedError{Reason: "undecodable search payload", Err: err}
	}
	return bare, nil
}

// propertyPayload mirrors one property object in the API response.
type propertyPayload struct {
	PropertyURL   string   `json:"property_url"`
	MLS           string   `json:"mls"`
	MlsID         *int64   `json:"mls_id"`
	Status        string   `json:"status"`
	Style         string   `json:"style"`
	Street        string   `json:"street"`
	Unit          string   `json:"unit"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	ZipCode       string   `json:"zip_code"`
	Beds          *int64   `json:"beds"`
	FullBaths     *int64   `json:"full_baths"`
	HalfBaths     *int64   `json:"half_baths"`
	Sqft          *int64   `json:"sqft"`
	YearBuilt     *int64   `json:"year_built"`
	DaysOnMls     *int64   `json:"days_on_mls"`
	ListPrice     *int64   `json:"list_price"`
	ListDate      string   `json:"list_date"`
	SoldPrice     *int64   `json:"sold_price"`
	LastSoldDate  string   `json:"last_sold_date"`
	LotSqft       *int64   `json:"lot_sqft"`
	PricePerSqft  *int64   `json:"price_per_sqft"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Stories       *int64   `json:"stories"`
	HoaFee        *int64   `json:"hoa_fee"`
	ParkingGarage *int64   `json:"parking_garage"`
	PrimaryPhoto  string   `json:"primary_photo"`
	AltPhotos     []string `json:"alt_photos"`
}

func (p propertyPayload) toRecord() (*models.ListingRecord, error) {
	if strings.TrimSpace(p.PropertyURL) == "" {
		return nil, &scraper.MalformedError{Reason: "property without property_url"}
	}

	rec := &models.ListingRecord{
		PropertyURL:   strings.TrimSpace(p.PropertyURL),
		MLS:           p.MLS,
		Status:        p.Status,
		Style:         p.Style,
		Street:        p.Street,
		Unit:          p.Unit,
		City:          p.City,
		State:         p.State,
		ZipCode:       p.ZipCode,
		Beds:          p.Beds,
		FullBaths:     p.FullBaths,
		HalfBaths:     p.HalfBaths,
		Sqft:          p.Sqft,
		YearBuilt:     p.YearBuilt,
		DaysOnMls:     p.DaysOnMls,
		ListPrice:     p.ListPrice,
		ListDate:      p.ListDate,
		SoldPrice:     p.SoldPrice,
		LastSoldDate:  p.LastSoldDate,
		LotSqft:       p.LotSqft,
		PricePerSqft:  p.PricePerSqft,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Stories:       p.Stories,
		HoaFee:        p.HoaFee,
		ParkingGarage: p.ParkingGarage,
		PrimaryPhoto:  p.PrimaryPhoto,
		AltPhotos:     strings.Join(p.AltPhotos, ", "),
	}
	if p.MlsID != nil {
		rec.MlsID = *p.MlsID
	}
	return rec, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
