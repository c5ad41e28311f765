// Package scraper defines the property-search contract the pipeline drives.
// Implementations live in subpackages; the driver only sees this interface
// and the error taxonomy below.
package scraper

import (
	"context"
	"fmt"

	"rentinvest/models"
)

// SearchRequest bounds one property search.
type SearchRequest struct {
	Location    string
	ListingType models.ListingType
	DateFrom    string // ISO date, inclusive
	DateTo      string // ISO date, inclusive
	RadiusMiles int
}

// Fetcher is the external property-search capability. Implementations do not
// retry; failure policy belongs to the caller.
type Fetcher interface {
	Fetch(ctx context.Context, req SearchRequest) ([]*models.ListingRecord, error)
}

// MalformedError reports a response whose shape did not match expectations
// (missing fields, undecodable payload, absent page structure). The driver
// skips the current location on this class.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedError) Unwrap() error { return e.Err }

// RateLimitError reports a throttling or transport-level HTTP failure. The
// driver backs off for a fixed interval on this class.
type RateLimitError struct {
	StatusCode int
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rate limited (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }
