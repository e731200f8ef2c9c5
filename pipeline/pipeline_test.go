package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printscout/models"
	"printscout/scraper"
	"printscout/storage"
	"printscout/taxonomy"
	"printscout/utils"
)

// fakeSite serves a scripted candidate feed and per-URL extraction
// results.
type fakeSite struct {
	feed      []string
	failures  map[string]error
	skipDedup bool
}

func (f *fakeSite) Name() string { return "Thangs" }

func (f *fakeSite) ListCandidates(_ context.Context, _ scraper.Scope, limit int, exists scraper.DedupFunc) ([]string, error) {
	var out []string
	for _, u := range f.feed {
		if len(out) >= limit {
			break
		}
		if !f.skipDedup {
			persisted, err := exists(u)
			if err != nil {
				return nil, err
			}
			if persisted {
				continue
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeSite) Extract(_ context.Context, url string) (*models.RawListing, error) {
	if err, ok := f.failures[url]; ok {
		return nil, err
	}
	return &models.RawListing{
		Title:     "Model at " + url,
		Tags:      []string{"tag"},
		Images:    []models.ImagePair{{Full: url + "/big.jpg", Thumb: url + "/small.jpg"}},
		Price:     "Free",
		SourceURL: url,
		Platform:  "Thangs",
	}, nil
}

// fakeEnricher resolves everything to the catch-all pair without any
// model calls.
type fakeEnricher struct{}

func (fakeEnricher) Enrich(_ context.Context, raw *models.RawListing) *models.EnrichedListing {
	return &models.EnrichedListing{
		RawListing:  *raw,
		Category:    taxonomy.Other,
		Subcategory: taxonomy.Other,
	}
}

// memStore is an in-memory ModelStore with sourceUrl conflict no-op
// semantics.
type memStore struct {
	mu     sync.Mutex
	rows   map[string]*models.Model
	nextID int
}

func newMemStore() *memStore { return &memStore{rows: make(map[string]*models.Model)} }

func (m *memStore) URLExists(sourceURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[sourceURL]
	return ok, nil
}

func (m *memStore) SourceSiteID(string) (int64, error)  { return 1, nil }
func (m *memStore) CategoryID(string) (int64, error)    { return 2, nil }
func (m *memStore) SubCategoryID(string) (int64, error) { return 3, nil }

func (m *memStore) GenerateModelID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID), nil
}

func (m *memStore) InsertModel(model *models.Model) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.rows[model.SourceURL]; dup {
		return false, nil
	}
	m.rows[model.SourceURL] = model
	return true, nil
}

func (m *memStore) Close() error { return nil }

// failingRelocator always reports a fetch failure.
type failingRelocator struct{}

func (failingRelocator) Relocate(context.Context, storage.RelocationRequest) (*storage.RelocationResult, error) {
	return nil, errors.New("fetch image: status 403")
}

func newPipeline(site scraper.Site, store storage.ModelStore) *Pipeline {
	return &Pipeline{
		Site:     site,
		Enricher: fakeEnricher{},
		Store:    store,
		Logger:   utils.NewLogger(),
	}
}

func TestRunExhaustedSource(t *testing.T) {
	store := newMemStore()
	site := &fakeSite{feed: []string{"u1", "u2", "u3"}}

	report, err := newPipeline(site, store).Run(context.Background(), scraper.Scope{}, 5)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Collected)
	assert.Equal(t, 3, report.Persisted)
	assert.Len(t, store.rows, 3)
}

func TestRunExtractionFailureSkipsListing(t *testing.T) {
	store := newMemStore()
	site := &fakeSite{
		feed:     []string{"u1", "u2", "u3"},
		failures: map[string]error{"u2": errors.New("navigation timeout")},
	}

	report, err := newPipeline(site, store).Run(context.Background(), scraper.Scope{}, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Persisted)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, store.rows, 2)
}

func TestRunListingGoneSkipsListing(t *testing.T) {
	store := newMemStore()
	site := &fakeSite{
		feed:     []string{"u1", "u2"},
		failures: map[string]error{"u1": scraper.ErrNotFound},
	}

	report, err := newPipeline(site, store).Run(context.Background(), scraper.Scope{}, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Persisted)
	assert.Equal(t, 1, report.Failed)
}

func TestOverlappingRunsProduceNoDuplicates(t *testing.T) {
	store := newMemStore()
	site := &fakeSite{feed: []string{"u1", "u2", "u3"}}
	p := newPipeline(site, store)

	_, err := p.Run(context.Background(), scraper.Scope{}, 3)
	require.NoError(t, err)

	// second run over the same feed: everything is filtered at collection
	report, err := p.Run(context.Background(), scraper.Scope{}, 3)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Collected)
	assert.Len(t, store.rows, 3)
}

func TestInsertConflictIsSilentNoOp(t *testing.T) {
	store := newMemStore()
	// skipDedup models a race: a parallel run persisted the same URLs
	// between collection and insert
	site := &fakeSite{feed: []string{"u1", "u2"}, skipDedup: true}
	p := newPipeline(site, store)

	_, err := p.Run(context.Background(), scraper.Scope{}, 2)
	require.NoError(t, err)

	report, err := p.Run(context.Background(), scraper.Scope{}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Duplicates)
	assert.Equal(t, 0, report.Persisted)
	assert.Len(t, store.rows, 2)
}

func TestRelocationFailureSkipsRecord(t *testing.T) {
	store := newMemStore()
	site := &fakeSite{feed: []string{"u1"}}
	p := newPipeline(site, store)
	p.Relocator = failingRelocator{}

	report, err := p.Run(context.Background(), scraper.Scope{}, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Persisted)
	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, store.rows)
}

func TestRunRejectsNonPositiveTarget(t *testing.T) {
	_, err := newPipeline(&fakeSite{}, newMemStore()).Run(context.Background(), scraper.Scope{}, 0)
	assert.Error(t, err)
}
