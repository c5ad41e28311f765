package services

import (
	"rentinvest/models"
	"rentinvest/utils"
)

// Splitter separates the heavy media columns from a fetched batch before it
// reaches a period file. The index key is the listing URL; the photo rows go
// to a single per-prefix side file, the slimmed records to the period CSV.
type Splitter struct {
	logger *utils.Logger
}

// NewSplitter creates a Splitter with the given logger.
func NewSplitter(logger *utils.Logger) *Splitter {
	return &Splitter{logger: logger}
}

// Split returns slimmed copies of batch with photo fields cleared, plus one
// photo record per input row. Input order is preserved on both sides, so
// rejoining on the listing URL restores the original columns.
func (s *Splitter) Split(batch []*models.ListingRecord) ([]*models.ListingRecord, []*models.PhotoRecord) {
	main := make([]*models.ListingRecord, 0, len(batch))
	photos := make([]*models.PhotoRecord, 0, len(batch))

	for _, r := range batch {
		photos = append(photos, &models.PhotoRecord{
			PropertyURL:  r.PropertyURL,
			PrimaryPhoto: r.PrimaryPhoto,
			AltPhotos:    r.AltPhotos,
		})

		slim := *r
		slim.PrimaryPhoto = ""
		slim.AltPhotos = ""
		main = append(main, &slim)
	}

	s.logger.Debug("[splitter] Split %d records into main + photo frames", len(batch))
	return main, photos
}
