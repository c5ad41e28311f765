package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"rentinvest/models"
	"rentinvest/utils"
)

// CSVStore owns all reads and writes of the per-period and photo CSV files.
// Appends always go through a full-row dedupe, so re-running a period after
// a partial failure cannot duplicate rows.
type CSVStore struct {
	logger *utils.Logger
}

// NewCSVStore creates a CSVStore.
func NewCSVStore(logger *utils.Logger) *CSVStore {
	return &CSVStore{logger: logger}
}

// AppendDedupe merges records into the period file at path. If the file
// exists its rows are read back, concatenated with the new rows, exact
// duplicates (all columns equal) are dropped, and the file is rewritten.
// An empty batch is a no-op and never creates the file.
func (s *CSVStore) AppendDedupe(records []*models.ListingRecord, path string) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return s.appendRows(models.Header(), rows, path)
}

// AppendPhotosDedupe merges photo rows into the side file at path with the
// same contract as AppendDedupe.
func (s *CSVStore) AppendPhotosDedupe(photos []*models.PhotoRecord, path string) error {
	if len(photos) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, p.Row())
	}
	return s.appendRows(models.PhotoHeader(), rows, path)
}

func (s *CSVStore) appendRows(header []string, newRows [][]string, path string) error {
	existing, err := readRows(path, len(header))
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		s.logger.Debug("[csv] No preexisting file: %s", path)
		existing = nil
	}

	set := utils.NewRowSet()
	merged := make([][]string, 0, len(existing)+len(newRows))
	for _, row := range existing {
		if set.Add(row) {
			merged = append(merged, row)
		}
	}
	dropped := 0
	for _, row := range newRows {
		if set.Add(row) {
			merged = append(merged, row)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Debug("[csv] %s: dropped %d duplicate rows", path, dropped)
	}

	return writeRows(header, merged, path)
}

// ReadRecords reads a main-schema CSV (period or condensed file) back into
// listing records.
func (s *CSVStore) ReadRecords(path string) ([]*models.ListingRecord, error) {
	rows, err := readRows(path, len(models.Header()))
	if err != nil {
		return nil, err
	}

	records := make([]*models.ListingRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := models.RecordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv: %s row %d: %w", path, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteRecords writes records to a fresh main-schema CSV at path,
// replacing any existing file. Used for condensed output, which is always
// rebuilt from the period files.
func (s *CSVStore) WriteRecords(records []*models.ListingRecord, path string) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return writeRows(models.Header(), rows, path)
}

// readRows returns the data rows of a CSV file, skipping the header. The
// raw *PathError is returned for a missing file so callers can test with
// os.IsNotExist.
func readRows(path string, wantCols int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = wantCols

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil
}

func writeRows(header []string, rows [][]string, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: flush %q: %w", path, err)
	}
	return f.Close()
}
