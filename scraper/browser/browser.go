// Package browser implements the search contract with a headless browser.
// It exists for deployments where the JSON search API is unreachable and the
// listing site has to be rendered; select it with FETCH_MODE=browser.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"rentinvest/models"
	"rentinvest/scraper"
	"rentinvest/utils"
)

const (
	searchBase  = "https://www.realtor.com/realestateandhomes-search"
	pageTimeout = 90 * time.Second
)

// Fetcher drives headless Chrome against the listing site's search pages.
// It performs no retries.
type Fetcher struct {
	chromeBin string
	logger    *utils.Logger
}

// New creates a browser-backed Fetcher. chromeBin may be empty, in which
// case the binary is located on PATH.
func New(chromeBin string, logger *utils.Logger) *Fetcher {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &Fetcher{chromeBin: chromeBin, logger: logger}
}

// Fetch renders one search results page and extracts property cards.
func (f *Fetcher) Fetch(ctx context.Context, req scraper.SearchRequest) ([]*models.ListingRecord, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if f.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(f.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, pageTimeout)
	defer cancelTimeout()

	pageURL := buildSearchURL(req)
	f.logger.Debug("[browser] %s %s — %s", req.ListingType, req.Location, pageURL)

	type cardData struct {
		URL     string `json:"url"`
		Status  string `json:"status"`
		Style   string `json:"style"`
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zip"`
		Beds    string `json:"beds"`
		Baths   string `json:"baths"`
		Sqft    string `json:"sqft"`
		Price   string `json:"price"`
		Photo   string `json:"photo"`
	}

	var cards []cardData
	var hasResults bool

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(6*time.Second),

		// Scroll so lazily rendered cards attach
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(2*time.Second),

		chromedp.Evaluate(`!!document.querySelector('[data-testid="property-list"], section[class*="result"]')`, &hasResults),

		chromedp.Evaluate(`
			(function() {
				var results = [];
				var cards = document.querySelectorAll('[data-testid="property-card"], div[class*="PropertyCard"]');
				var seen = {};

				for (var i = 0; i < cards.length; i++) {
					var card = cards[i];
					var linkEl = card.querySelector('a[href*="/realestateandhomes-detail/"]');
					if (!linkEl || !linkEl.href || seen[linkEl.href]) continue;
					seen[linkEl.href] = true;

					function text(sel) {
						var el = card.querySelector(sel);
						return el ? el.innerText.trim() : '';
					}

					var addr = text('[data-testid="card-address-1"]') || text('[class*="address"]');
					var locality = text('[data-testid="card-address-2"]');
					var city = '', state = '', zip = '';
					var m = locality.match(/^(.*),\s*([A-Z]{2})\s+(\d{5})/);
					if (m) { city = m[1]; state = m[2]; zip = m[3]; }

					var photoEl = card.querySelector('img[src*="rdcpix"], img');

					results.push({
						url:    linkEl.href,
						status: text('[data-testid="card-status"]') || text('[class*="statusText"]'),
						style:  text('[data-testid="card-property-type"]'),
						street: addr,
						city:   city,
						state:  state,
						zip:    zip,
						beds:   (text('[data-testid="property-meta-beds"]').match(/\d+/) || [''])[0],
						baths:  (text('[data-testid="property-meta-baths"]').match(/\d+/) || [''])[0],
						sqft:   (text('[data-testid="property-meta-sqft"]').replace(/,/g, '').match(/\d+/) || [''])[0],
						price:  (text('[data-testid="card-price"]').replace(/[,$]/g, '').match(/\d+/) || [''])[0],
						photo:  photoEl ? (photoEl.src || '') : ''
					});
				}
				return results;
			})()
		`, &cards),
	)
	if err != nil {
		return nil, fmt.Errorf("browser: page scrape: %w", err)
	}

	if !hasResults && len(cards) == 0 {
		return nil, &scraper.MalformedError{Reason: "search page without results container"}
	}

	records := make([]*models.ListingRecord, 0, len(cards))
	for _, c := range cards {
		if c.URL == "" {
			continue
		}
		records = append(records, &models.ListingRecord{
			PropertyURL:  c.URL,
			Status:       c.Status,
			Style:        c.Style,
			Street:       c.Street,
			City:         c.City,
			State:        c.State,
			ZipCode:      c.ZipCode,
			Beds:         parseOptionalInt(c.Beds),
			FullBaths:    parseOptionalInt(c.Baths),
			Sqft:         parseOptionalInt(c.Sqft),
			ListPrice:    parseOptionalInt(c.Price),
			PrimaryPhoto: c.Photo,
		})
	}

	f.logger.Debug("[browser] %s %s — %d cards", req.ListingType, req.Location, len(records))
	return records, nil
}

// buildSearchURL maps a search request onto the site's URL scheme. Date
// bounds only apply to sold searches; the site exposes no date filter for
// active listings.
func buildSearchURL(req scraper.SearchRequest) string {
	slug := strings.ReplaceAll(strings.ReplaceAll(req.Location, ", ", "_"), " ", "-")

	var segment string
	switch req.ListingType {
	case models.Sold:
		segment = "/show-recently-sold"
	case models.ForRent:
		segment = "/type-rental"
	case models.Pending:
		segment = "/show-pending"
	default:
		segment = ""
	}

	q := url.Values{}
	q.Set("radius", strconv.Itoa(req.RadiusMiles))
	if req.ListingType == models.Sold {
		q.Set("sold_date_min", req.DateFrom)
		q.Set("sold_date_max", req.DateTo)
	}

	return searchBase + "/" + url.PathEscape(slug) + segment + "?" + q.Encode()
}

func parseOptionalInt(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
