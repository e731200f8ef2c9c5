// Package pipeline drives one source site through the full
// collect → extract → enrich → relocate → persist sequence. Listings are
// processed strictly one at a time: every stage shares the site's
// browser session and the pipeline's database connection.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"printscout/models"
	"printscout/scraper"
	"printscout/storage"
	"printscout/taxonomy"
	"printscout/utils"
)

// Enricher is the AI step as the pipeline sees it. Enrichment never
// fails a listing; degraded results come back with safe defaults.
type Enricher interface {
	Enrich(ctx context.Context, raw *models.RawListing) *models.EnrichedListing
}

// Pipeline wires one site's scraper to the shared enrichment and
// persistence services. Relocator and RawSink are optional.
type Pipeline struct {
	Site      scraper.Site
	Enricher  Enricher
	Store     storage.ModelStore
	Relocator storage.Relocator
	RawSink   storage.RawSink
	Logger    *utils.Logger
}

// Report summarizes one run. Failed counts every listing dropped for any
// per-listing reason; Duplicates counts insert-time conflict no-ops.
type Report struct {
	Platform   string
	Collected  int
	Extracted  int
	Persisted  int
	Duplicates int
	Failed     int
}

// Run crawls up to n not-yet-persisted listings in scope. Per-listing
// failures are logged and skipped; only setup failures (source site or
// catch-all taxonomy rows missing, candidate collection broken) abort.
func (p *Pipeline) Run(ctx context.Context, scope scraper.Scope, n int) (*Report, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pipeline: target count must be positive, got %d", n)
	}

	report := &Report{Platform: p.Site.Name()}

	siteID, err := p.Store.SourceSiteID(p.Site.Name())
	if err != nil {
		return nil, fmt.Errorf("pipeline: resolve source site: %w", err)
	}
	// the catch-all pair must exist before anything is crawled
	if _, err := p.Store.CategoryID(taxonomy.Other); err != nil {
		return nil, fmt.Errorf("pipeline: resolve catch-all category: %w", err)
	}
	if _, err := p.Store.SubCategoryID(taxonomy.Other); err != nil {
		return nil, fmt.Errorf("pipeline: resolve catch-all subcategory: %w", err)
	}

	p.Logger.Info("[%s] collecting up to %d candidates (scope %q/%q)",
		p.Site.Name(), n, scope.Category, scope.Subcategory)

	urls, err := p.Site.ListCandidates(ctx, scope, n, p.Store.URLExists)
	if err != nil {
		return nil, fmt.Errorf("pipeline: collect candidates: %w", err)
	}
	report.Collected = len(urls)

	if len(urls) < n {
		p.Logger.Info("[%s] source exhausted at %d candidates (target %d)",
			p.Site.Name(), len(urls), n)
	}

	for _, url := range urls {
		p.processOne(ctx, url, siteID, report)
	}

	p.Logger.Info("[%s] run complete — collected %d | extracted %d | persisted %d | duplicates %d | failed %d",
		report.Platform, report.Collected, report.Extracted, report.Persisted,
		report.Duplicates, report.Failed)

	return report, nil
}

// processOne carries a single listing through the remaining stages. It
// never propagates an error: every failure is logged, counted and the
// loop moves on.
func (p *Pipeline) processOne(ctx context.Context, url string, siteID int64, report *Report) {
	raw, err := p.Site.Extract(ctx, url)
	if errors.Is(err, scraper.ErrNotFound) {
		p.Logger.Warn("[%s] listing gone: %s", report.Platform, url)
		report.Failed++
		return
	}
	if err != nil {
		p.Logger.Warn("[%s] extraction failed for %s: %v", report.Platform, url, err)
		report.Failed++
		return
	}
	if raw.Title == "" {
		p.Logger.Warn("[%s] missing title, skipping %s", report.Platform, url)
		report.Failed++
		return
	}
	report.Extracted++

	if p.RawSink != nil {
		if err := p.RawSink.Append(raw); err != nil {
			p.Logger.Warn("[%s] raw export failed for %s: %v", report.Platform, url, err)
		}
	}

	enriched := p.Enricher.Enrich(ctx, raw)

	categoryID, err := p.Store.CategoryID(enriched.Category)
	if err != nil {
		p.Logger.Error("[%s] category lookup failed for %s: %v", report.Platform, url, err)
		report.Failed++
		return
	}
	subCategoryID, err := p.Store.SubCategoryID(enriched.Subcategory)
	if err != nil {
		p.Logger.Error("[%s] subcategory lookup failed for %s: %v", report.Platform, url, err)
		report.Failed++
		return
	}

	recordID, err := p.Store.GenerateModelID()
	if err != nil {
		p.Logger.Error("[%s] id generation failed for %s: %v", report.Platform, url, err)
		report.Failed++
		return
	}

	thumbnail := enriched.ThumbnailURL
	images := enriched.Images
	if p.Relocator != nil {
		firstTag := ""
		if len(enriched.Tags) > 0 {
			firstTag = enriched.Tags[0]
		}
		relocated, err := p.Relocator.Relocate(ctx, storage.RelocationRequest{
			Platform:     report.Platform,
			RecordID:     recordID,
			Title:        enriched.Title,
			FirstTag:     firstTag,
			ThumbnailURL: thumbnail,
			Images:       images,
		})
		if err != nil {
			// partial media never gets persisted
			p.Logger.Warn("[%s] image relocation failed for %s — record skipped: %v",
				report.Platform, url, err)
			report.Failed++
			return
		}
		thumbnail = relocated.ThumbnailURL
		images = relocated.Images
	}

	inserted, err := p.Store.InsertModel(&models.Model{
		ID:            recordID,
		SourceSiteID:  siteID,
		Title:         enriched.Title,
		Description:   enriched.Description,
		CategoryID:    categoryID,
		SubCategoryID: subCategoryID,
		Tags:          enriched.Tags,
		SourceURL:     enriched.SourceURL,
		ThumbnailURL:  thumbnail,
		Images:        images,
		Price:         enriched.Price,
		PriceValue:    enriched.PriceValue,
	})
	if err != nil {
		p.Logger.Error("[%s] insert failed for %s: %v", report.Platform, url, err)
		report.Failed++
		return
	}
	if !inserted {
		p.Logger.Debug("[%s] already persisted (conflict no-op): %s", report.Platform, url)
		report.Duplicates++
		return
	}

	report.Persisted++
	p.Logger.Info("[%s] persisted %q (%s / %s)", report.Platform,
		enriched.Title, enriched.Category, enriched.Subcategory)
}
