// Package cgtrader implements the scraper.Site capability for
// cgtrader.com: numbered result pages for collection and a product page
// that carries (data-src, data-thumb-src) image pairs.
package cgtrader

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"printscout/config"
	"printscout/models"
	"printscout/scraper"
	"printscout/utils"
)

const (
	platform = "CGTrader"
	baseURL  = "https://www.cgtrader.com"

	// cgtrader caps browsable results at this page index.
	lastPage = 250

	imageHost = "https://img-new.cgtrader.com/items/"
)

// Site drives cgtrader.com through a shared browser session.
type Site struct {
	browser  *scraper.Browser
	logger   *utils.Logger
	retry    *utils.RetryConfig
	maxPages int
}

// New creates a ready-to-use cgtrader scraper.
func New(browser *scraper.Browser, cfg *config.Config, logger *utils.Logger) *Site {
	maxPages := cfg.MaxPages
	if maxPages <= 0 || maxPages > lastPage {
		maxPages = lastPage
	}
	return &Site{
		browser:  browser,
		logger:   logger,
		maxPages: maxPages,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Name returns the platform name as stored in SourceSite.
func (s *Site) Name() string { return platform }

func pageURL(scope scraper.Scope, page int) string {
	path := "/3d-models"
	if scope.Category != "" {
		path += "/" + url.PathEscape(scope.Category)
		if scope.Subcategory != "" {
			path += "/" + url.PathEscape(scope.Subcategory)
		}
	}
	return fmt.Sprintf("%s%s?page=%d", baseURL, path, page)
}

// ListCandidates walks numbered result pages until limit new URLs are
// collected or the page cap is hit. A page that fails to load is skipped
// and the walk moves on to the next one.
func (s *Site) ListCandidates(ctx context.Context, scope scraper.Scope, limit int, exists scraper.DedupFunc) ([]string, error) {
	seen := utils.NewURLSet()
	collected := make([]string, 0, limit)

	for page := 1; page <= s.maxPages && len(collected) < limit; page++ {
		var hrefs []string

		err := s.browser.RunPage(ctx,
			chromedp.Navigate(pageURL(scope, page)),
			chromedp.WaitVisible("div.card-3d-model", chromedp.ByQuery),
			chromedp.Evaluate(`
				(function() {
					var out = [];
					var links = document.querySelectorAll('div.card-3d-model a.cgt-model-card__link');
					for (var i = 0; i < links.length; i++) {
						if (links[i].href) out.push(links[i].href);
					}
					return out;
				})()
			`, &hrefs),
		)
		if err != nil {
			s.logger.Warn("[cgtrader] page %d failed: %v — trying next page", page, err)
			continue
		}

		if len(hrefs) == 0 {
			s.logger.Debug("[cgtrader] page %d empty — results exhausted", page)
			break
		}

		for _, href := range hrefs {
			if len(collected) >= limit {
				break
			}
			if !seen.Add(href) {
				continue
			}
			persisted, err := exists(href)
			if err != nil {
				return nil, fmt.Errorf("cgtrader: dedup check: %w", err)
			}
			if persisted {
				continue
			}
			collected = append(collected, href)
		}
	}

	return collected, nil
}

type detailData struct {
	Found       bool     `json:"found"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Price       string   `json:"price"`
	MainSrcs    []string `json:"mainSrcs"`
	ThumbSrcs   []string `json:"thumbSrcs"`
}

// Extract reads one product page into a RawListing.
func (s *Site) Extract(ctx context.Context, productURL string) (*models.RawListing, error) {
	var d detailData

	err := s.retry.Do("cgtrader-extract", func() error {
		return s.browser.RunPage(ctx,
			chromedp.Navigate(productURL),
			chromedp.Sleep(4*time.Second),
			chromedp.Evaluate(`
				(function() {
					var r = {found: false, title: '', description: '', tags: [],
						price: '', mainSrcs: [], thumbSrcs: []};

					var titleEl = document.querySelector('span[itemprop="item"] span[itemprop="name"]');
					var descEl = document.querySelector('.product-description');
					if (!titleEl || !descEl) return r;
					r.found = true;
					r.title = titleEl.innerText;

					var tagEls = document.querySelectorAll('.tags-list .labels-list .label');
					for (var i = 0; i < tagEls.length; i++) {
						var text = tagEls[i].childNodes[0] ? tagEls[i].childNodes[0].textContent.trim() : '';
						if (!text) {
							var a = tagEls[i].querySelector('a:not(.js-remove-tag)');
							if (a) text = a.textContent.trim();
						}
						if (text) r.tags.push(text);
					}

					// remove the embedded tag list so it does not leak into the text
					var tagBlock = descEl.querySelector('.tags-list');
					if (tagBlock) tagBlock.remove();
					r.description = descEl.textContent;

					var priceEl = document.querySelector('#product-price-final');
					if (priceEl) r.price = priceEl.textContent;

					var imgs = document.querySelectorAll('.thumb-list-wrapper img');
					for (var j = 0; j < imgs.length; j++) {
						r.mainSrcs.push(imgs[j].getAttribute('data-src') || '');
						r.thumbSrcs.push(imgs[j].getAttribute('data-thumb-src') || '');
					}

					return r;
				})()
			`, &d),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("cgtrader: extract %s: %w", productURL, err)
	}
	if !d.Found {
		return nil, scraper.ErrNotFound
	}

	listing := &models.RawListing{
		Title:       strings.TrimSpace(d.Title),
		Description: cleanDescription(d.Description),
		Tags:        d.Tags,
		Price:       strings.TrimSpace(d.Price),
		SourceURL:   productURL,
		Platform:    platform,
		ScrapedAt:   time.Now(),
	}

	for i, main := range d.MainSrcs {
		if !strings.HasPrefix(main, imageHost) {
			continue
		}
		thumb := ""
		if i < len(d.ThumbSrcs) {
			thumb = d.ThumbSrcs[i]
		}
		listing.Images = append(listing.Images, models.ImagePair{Full: main, Thumb: thumb})
	}
	if len(listing.Images) > 0 {
		listing.ThumbnailURL = listing.Images[0].Thumb
	}

	return listing, nil
}

// cleanDescription strips the decorative "Description" label the page
// repeats above the body text.
func cleanDescription(text string) string {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, "Description"); ok {
		return strings.TrimSpace(rest)
	}
	return text
}
