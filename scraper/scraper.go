package scraper

import (
	"context"
	"errors"

	"printscout/models"
)

// ErrNotFound marks a listing page whose expected content is gone
// (removed listing). Callers treat it as skip-and-continue, distinct
// from a navigation or extraction failure.
var ErrNotFound = errors.New("scraper: listing not found")

// Scope narrows a collection pass to one part of a site's catalog.
// The zero value means the site-wide default feed.
type Scope struct {
	Category    string
	Subcategory string
}

// DedupFunc reports whether a candidate URL is already persisted.
// Collectors call it before accepting a URL so that extraction and
// enrichment work is never spent on known listings.
type DedupFunc func(url string) (bool, error)

// Site is the capability one marketplace implements. The pipeline driver
// is written once against this interface.
type Site interface {
	// Name is the platform name as stored in the SourceSite table.
	Name() string

	// ListCandidates returns up to limit distinct, not-yet-persisted
	// listing URLs for the scope. Fewer than limit means the site's
	// content was exhausted.
	ListCandidates(ctx context.Context, scope Scope, limit int, exists DedupFunc) ([]string, error)

	// Extract loads one listing page and returns its raw record, or
	// ErrNotFound when the listing no longer exists.
	Extract(ctx context.Context, url string) (*models.RawListing, error)
}
