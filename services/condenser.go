package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"rentinvest/models"
	"rentinvest/storage"
	"rentinvest/utils"
)

// Condenser merges every period file of one listing type into a single
// "full" file for loading.
type Condenser struct {
	store  *storage.CSVStore
	logger *utils.Logger
}

// NewCondenser creates a Condenser.
func NewCondenser(store *storage.CSVStore, logger *utils.Logger) *Condenser {
	return &Condenser{store: store, logger: logger}
}

// Condense concatenates all files in dir matching *_{tag}.csv — already
// deduplicated individually by the accumulator, so no dedupe happens here —
// and writes {first-segment}_{tag}_full.csv next to them. It returns the
// output path, or "" with a nil error when there was nothing to condense;
// the caller must skip the load in that case.
func (c *Condenser) Condense(dir string, t models.ListingType) (string, error) {
	tag := t.FileTag()
	pattern := filepath.Join(dir, "*_"+tag+".csv")
	c.logger.Info("[condense] Condensing %s files in %s", tag, dir)

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("condense: glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		c.logger.Warn("[condense] No %s files matched %s, skipping", tag, pattern)
		return "", nil
	}
	c.logger.Debug("[condense] Matched files: %v", matches)

	var merged []*models.ListingRecord
	for _, path := range matches {
		records, err := c.store.ReadRecords(path)
		if err != nil {
			return "", fmt.Errorf("condense: %w", err)
		}
		merged = append(merged, records...)
	}
	if len(merged) == 0 {
		c.logger.Warn("[condense] All matched %s files were empty, skipping", tag)
		return "", nil
	}

	firstSegment := strings.SplitN(filepath.Base(matches[0]), "_", 2)[0]
	outputFile := filepath.Join(dir, firstSegment+"_"+tag+"_full.csv")

	if err := c.store.WriteRecords(merged, outputFile); err != nil {
		return "", fmt.Errorf("condense: %w", err)
	}

	c.logger.Info("[condense] Created %s condensed file: %s (%d rows)", tag, outputFile, len(merged))
	return outputFile, nil
}
