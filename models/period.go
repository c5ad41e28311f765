package models

import (
	"fmt"
	"path/filepath"
)

// Quarter is one calendar quarter with its fixed date bounds.
type Quarter struct {
	Name     string
	DateFrom string // MM-DD
	DateTo   string // MM-DD
}

// Quarters is the fixed iteration order for one year.
var Quarters = []Quarter{
	{Name: "Q1", DateFrom: "01-01", DateTo: "03-31"},
	{Name: "Q2", DateFrom: "04-01", DateTo: "06-30"},
	{Name: "Q3", DateFrom: "07-01", DateTo: "09-30"},
	{Name: "Q4", DateFrom: "10-01", DateTo: "12-31"},
}

// Bounds returns the ISO date bounds of the quarter within a year.
func (q Quarter) Bounds(year string) (from, to string) {
	return year + "-" + q.DateFrom, year + "-" + q.DateTo
}

// PeriodKey identifies one per-period accumulation file. Immutable once
// assigned to a batch.
type PeriodKey struct {
	LocationPrefix string
	Quarter        string
	Year           string
	Type           ListingType
}

// FileName returns the period CSV path under dir, e.g.
// data/OKC_Q1_2023_sold.csv.
func (k PeriodKey) FileName(dir string) string {
	name := fmt.Sprintf("%s_%s_%s_%s.csv", k.LocationPrefix, k.Quarter, k.Year, k.Type.FileTag())
	return filepath.Join(dir, name)
}

// PhotoFileName returns the per-prefix photo side file path, shared by all
// periods of one location prefix.
func PhotoFileName(dir, locationPrefix string) string {
	return filepath.Join(dir, locationPrefix+"_photos.csv")
}
