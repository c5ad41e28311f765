package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"rentinvest/config"
	"rentinvest/models"
	"rentinvest/scraper"
	"rentinvest/scraper/browser"
	"rentinvest/scraper/harvestapi"
	"rentinvest/services"
	"rentinvest/storage"
	"rentinvest/utils"
)

func main() {
	logger := utils.NewLogger().With("run_id", uuid.NewString())
	cfg := config.Load()

	logger.Info("=== rentinvest pipeline starting ===")

	plan, err := config.LoadPlan(cfg.PlanPath)
	if err != nil {
		logger.Error("Failed to load scrape plan: %v", err)
		os.Exit(1)
	}
	logger.Info("Plan — years: %v | locations: %d | prefix: %s | radius: %d mi | data dir: %s",
		plan.Years, len(plan.Locations), plan.LocationPrefix, plan.RadiusMiles, plan.DataDir)

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		logger.Error("Failed to create fetcher: %v", err)
		os.Exit(1)
	}

	csvStore := storage.NewCSVStore(logger)

	loader, err := storage.NewPostgresLoader(cfg.DSN(), csvStore, logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer loader.Close()

	ctx := context.Background()

	// Extract: walk every (year, quarter, location) and accumulate CSVs.
	driver := services.NewPeriodDriver(fetcher, csvStore, plan, logger)
	if err := driver.Run(ctx); err != nil {
		logger.Error("Full load aborted: %v", err)
		os.Exit(1)
	}

	// Transform + load: one condensed file per listing type.
	condenser := services.NewCondenser(csvStore, logger)
	insightSvc := services.NewInsightService(logger)

	for _, t := range models.AllListingTypes {
		condensedFile, err := condenser.Condense(plan.DataDir, t)
		if err != nil {
			logger.Error("Condense %s failed: %v", t.FileTag(), err)
			continue
		}
		if condensedFile == "" {
			continue
		}

		records, err := csvStore.ReadRecords(condensedFile)
		if err != nil {
			logger.Error("Read %s failed: %v", condensedFile, err)
			continue
		}
		insightSvc.Print(t.FileTag(), insightSvc.Generate(records))

		if err := loader.Load(ctx, condensedFile); err != nil {
			logger.Error("Load %s failed, transaction rolled back: %v", condensedFile, err)
			continue
		}
	}

	fmt.Printf("  Done. Period CSVs → %s | Condensed data → PostgreSQL (properties table)\n\n", plan.DataDir)
}

func newFetcher(cfg *config.Config, logger *utils.Logger) (scraper.Fetcher, error) {
	switch cfg.FetchMode {
	case "browser":
		return browser.New(cfg.ChromeBin, logger), nil
	case "api", "":
		return harvestapi.New(cfg.HarvestAPIURL, logger)
	default:
		return nil, fmt.Errorf("unknown FETCH_MODE %q (want api or browser)", cfg.FetchMode)
	}
}
