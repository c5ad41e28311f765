package services

import (
	"context"
	"errors"
	"time"

	"rentinvest/config"
	"rentinvest/models"
	"rentinvest/scraper"
	"rentinvest/storage"
	"rentinvest/utils"
)

// RateLimitBackoff is the fixed sleep after a rate-limit error. No
// exponential growth, no cap on occurrences within a run.
const RateLimitBackoff = 20 * time.Minute

// PeriodDriver walks years, quarters and locations in order and accumulates
// fetched batches into per-period CSV files. Strictly sequential: one
// location is fully drained (all four listing types) before the next.
type PeriodDriver struct {
	fetcher  scraper.Fetcher
	store    storage.Accumulator
	splitter *Splitter
	plan     *config.Plan
	logger   *utils.Logger

	// sleep is swappable so tests do not wait out the backoff.
	sleep func(time.Duration)
}

// NewPeriodDriver creates a driver over the given plan.
func NewPeriodDriver(fetcher scraper.Fetcher, store storage.Accumulator, plan *config.Plan, logger *utils.Logger) *PeriodDriver {
	return &PeriodDriver{
		fetcher:  fetcher,
		store:    store,
		splitter: NewSplitter(logger),
		plan:     plan,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// Run executes the full load: years ascending, quarters Q1..Q4, locations
// front-to-back. Per-location failures are recovered here; only a canceled
// context stops the run.
func (d *PeriodDriver) Run(ctx context.Context) error {
	for _, year := range d.plan.Years {
		for _, quarter := range models.Quarters {
			for _, location := range d.plan.Locations {
				if err := ctx.Err(); err != nil {
					return err
				}
				d.processLocation(ctx, year, quarter, location)
			}
		}
	}
	return nil
}

// processLocation issues the four listing-type fetches for one
// (year, quarter, location) triple and appends non-empty results to the
// period files. A failure abandons the remaining listing types for this
// location; the location is never re-enqueued within the run.
func (d *PeriodDriver) processLocation(ctx context.Context, year string, quarter models.Quarter, location string) {
	d.logger.Info("Processing %s for %s_%s", location, quarter.Name, year)

	// Explicit per-type accumulators, reset for every location.
	acc := make(map[models.ListingType][]*models.ListingRecord, len(models.AllListingTypes))
	for _, t := range models.AllListingTypes {
		acc[t] = nil
	}

	defer func() {
		for _, t := range models.AllListingTypes {
			d.logger.Info("Number of %s properties in %s %s_%s: %d",
				t.FileTag(), location, quarter.Name, year, len(acc[t]))
		}
		d.logger.Info("COMPLETED processing %s for %s_%s", location, quarter.Name, year)
	}()

	err := d.fetchAndAccumulate(ctx, year, quarter, location, acc)
	if err == nil {
		return
	}

	var malformed *scraper.MalformedError
	var rateLimited *scraper.RateLimitError
	switch {
	case errors.As(err, &malformed):
		d.logger.Error("%v", err)
	case errors.As(err, &rateLimited):
		d.logger.Error("%v", err)
		d.logger.Error("Rate limited, backing off %v before the next location", RateLimitBackoff)
		d.sleep(RateLimitBackoff)
	default:
		d.logger.Error("%v", err)
	}
}

func (d *PeriodDriver) fetchAndAccumulate(ctx context.Context, year string, quarter models.Quarter, location string, acc map[models.ListingType][]*models.ListingRecord) error {
	dateFrom, dateTo := quarter.Bounds(year)

	for _, t := range models.AllListingTypes {
		batch, err := d.fetcher.Fetch(ctx, scraper.SearchRequest{
			Location:    location,
			ListingType: t,
			DateFrom:    dateFrom,
			DateTo:      dateTo,
			RadiusMiles: d.plan.RadiusMiles,
		})
		if err != nil {
			return err
		}
		acc[t] = append(acc[t], batch...)

		if len(acc[t]) == 0 {
			continue
		}

		main, photos := d.splitter.Split(acc[t])

		photoFile := models.PhotoFileName(d.plan.DataDir, d.plan.LocationPrefix)
		if err := d.store.AppendPhotosDedupe(photos, photoFile); err != nil {
			return err
		}

		key := models.PeriodKey{
			LocationPrefix: d.plan.LocationPrefix,
			Quarter:        quarter.Name,
			Year:           year,
			Type:           t,
		}
		if err := d.store.AppendDedupe(main, key.FileName(d.plan.DataDir)); err != nil {
			return err
		}
	}
	return nil
}
