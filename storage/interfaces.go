package storage

import (
	"context"

	"printscout/models"
)

// ModelStore is the persistence contract the pipeline drives: the dedup
// pre-filter, name-to-id lookups, id generation and the idempotent
// insert.
type ModelStore interface {
	URLExists(sourceURL string) (bool, error)
	SourceSiteID(name string) (int64, error)
	CategoryID(name string) (int64, error)
	SubCategoryID(name string) (int64, error)
	GenerateModelID() (string, error)
	// InsertModel returns false when the row already existed (conflict
	// no-op on sourceUrl), true when a new row was written.
	InsertModel(m *models.Model) (bool, error)
	Close() error
}

// RelocationRequest names everything that goes into the deterministic
// object keys for one record's media.
type RelocationRequest struct {
	Platform     string
	RecordID     string
	Title        string
	FirstTag     string
	ThumbnailURL string
	Images       []models.ImagePair
}

// RelocationResult mirrors the request structure with public URLs in
// owned storage.
type RelocationResult struct {
	ThumbnailURL string
	Images       []models.ImagePair
}

// Relocator mirrors source-hosted images into durable object storage.
// Any single image failure fails the whole request; the pipeline then
// skips the record rather than persisting partial media.
type Relocator interface {
	Relocate(ctx context.Context, req RelocationRequest) (*RelocationResult, error)
}

// RawSink receives every successfully extracted raw listing before
// enrichment. It is an optional debug/export tap.
type RawSink interface {
	Append(listing *models.RawListing) error
	Close() error
}
