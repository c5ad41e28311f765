package storage

import (
	"context"

	"rentinvest/models"
)

// Accumulator is the only interface through which period files are mutated.
type Accumulator interface {
	AppendDedupe(records []*models.ListingRecord, path string) error
	AppendPhotosDedupe(photos []*models.PhotoRecord, path string) error
}

// Loader persists a condensed file into the relational store.
type Loader interface {
	Load(ctx context.Context, condensedFile string) error
	Close() error
}
