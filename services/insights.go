package services

import (
	"fmt"
	"sort"
	"strings"

	"rentinvest/models"
	"rentinvest/utils"
)

// InsightReport holds the computed summary over one condensed file.
type InsightReport struct {
	TotalListings    int
	AverageListPrice float64
	MinListPrice     int64
	MaxListPrice     int64
	MostExpensive    *models.ListingRecord
	ListingsByCity   map[string]int
	ListingsByStatus map[string]int
}

// InsightService summarizes condensed listing data before it is loaded.
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates an InsightService.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the report. Price statistics only cover rows with a
// list price present.
func (s *InsightService) Generate(records []*models.ListingRecord) *InsightReport {
	report := &InsightReport{
		ListingsByCity:   make(map[string]int),
		ListingsByStatus: make(map[string]int),
	}

	if len(records) == 0 {
		return report
	}

	report.TotalListings = len(records)

	var priced []*models.ListingRecord
	for _, r := range records {
		if r.ListPrice != nil {
			priced = append(priced, r)
		}
		if r.City != "" {
			report.ListingsByCity[r.City]++
		}
		if r.Status != "" {
			report.ListingsByStatus[r.Status]++
		}
	}

	if len(priced) > 0 {
		report.MinListPrice = *priced[0].ListPrice
		report.MaxListPrice = *priced[0].ListPrice
		report.MostExpensive = priced[0]

		var total int64
		for _, r := range priced {
			price := *r.ListPrice
			total += price
			if price < report.MinListPrice {
				report.MinListPrice = price
			}
			if price > report.MaxListPrice {
				report.MaxListPrice = price
				report.MostExpensive = r
			}
		}
		report.AverageListPrice = float64(total) / float64(len(priced))
	}

	return report
}

// Print logs the report in a readable block.
func (s *InsightService) Print(label string, r *InsightReport) {
	s.logger.Info("=== %s insights ===", label)
	s.logger.Info("Total listings: %d", r.TotalListings)

	if r.MostExpensive != nil {
		s.logger.Info("List price: min $%d | avg $%.0f | max $%d",
			r.MinListPrice, r.AverageListPrice, r.MaxListPrice)
		s.logger.Info("Most expensive: %s (%s)",
			r.MostExpensive.Street, r.MostExpensive.PropertyURL)
	}

	if len(r.ListingsByCity) > 0 {
		cities := make([]string, 0, len(r.ListingsByCity))
		for city := range r.ListingsByCity {
			cities = append(cities, city)
		}
		sort.Slice(cities, func(i, j int) bool {
			return r.ListingsByCity[cities[i]] > r.ListingsByCity[cities[j]]
		})
		if len(cities) > 5 {
			cities = cities[:5]
		}

		parts := make([]string, 0, len(cities))
		for _, city := range cities {
			parts = append(parts, fmt.Sprintf("%s: %d", city, r.ListingsByCity[city]))
		}
		s.logger.Info("Top cities — %s", strings.Join(parts, " | "))
	}
}
