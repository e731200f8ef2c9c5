package models

import (
	"database/sql/driver"
	"time"
)

// ImagePair holds the two resolution variants of one carousel image.
// Index 0 of a listing's image slice is conventionally the primary image.
type ImagePair struct {
	Full  string `json:"full"`
	Thumb string `json:"thumb"`
}

// RawListing holds unprocessed scraped data directly from the browser.
// One instance is produced per listing page by a site extractor.
type RawListing struct {
	Title        string
	Description  string
	Tags         []string
	Images       []ImagePair
	Price        string
	SourceURL    string
	Platform     string
	ThumbnailURL string
	ScrapedAt    time.Time
}

// PrimaryImageURL returns the best image to feed the vision tagger.
func (r *RawListing) PrimaryImageURL() string {
	if len(r.Images) > 0 {
		return r.Images[0].Full
	}
	return r.ThumbnailURL
}

// EnrichedListing is a RawListing after the AI enrichment step: rewritten
// description, resolved category/subcategory and augmented tags.
type EnrichedListing struct {
	RawListing
	Category    string
	Subcategory string
	PriceValue  PriceValue
}

// PriceValue is the normalized numeric form of a free-form price string.
// Invalid means the source price carried no number (stored as NULL).
// 0 means free, -1 means subscription-gated ("Premium").
type PriceValue struct {
	Valid  bool
	Amount float64
	IsInt  bool
}

// Value implements driver.Valuer so a PriceValue can be bound directly
// in an INSERT. Integer-valued prices are stored without a fraction.
func (p PriceValue) Value() (driver.Value, error) {
	if !p.Valid {
		return nil, nil
	}
	if p.IsInt {
		return int64(p.Amount), nil
	}
	return p.Amount, nil
}

// Model is the final persisted row with all foreign keys resolved.
// Rows are insert-only; the pipeline never mutates them afterwards.
type Model struct {
	ID            string
	SourceSiteID  int64
	Title         string
	Description   string
	CategoryID    int64
	SubCategoryID int64
	Tags          []string
	SourceURL     string
	ThumbnailURL  string
	Images        []ImagePair
	Price         string
	PriceValue    PriceValue
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
