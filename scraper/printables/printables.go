// Package printables implements the scraper.Site capability for
// printables.com: an infinite-scroll model listing for collection and a
// splide-carousel detail page whose image variants are encoded in the
// asset path.
package printables

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
	platform = "Printables.com"
	baseURL  = "https://www.printables.com"

	coverPath  = "/cover/320x240/"
	insidePath = "/inside/1600x1200/"
)

// Site drives printables.com through a shared browser session.
type Site struct {
	browser    *scraper.Browser
	logger     *utils.Logger
	retry      *utils.RetryConfig
	maxScrolls int
}

// New creates a ready-to-use printables scraper.
func New(browser *scraper.Browser, cfg *config.Config, logger *utils.Logger) *Site {
	return &Site{
		browser:    browser,
		logger:     logger,
		maxScrolls: cfg.MaxScrolls,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Name returns the platform name as stored in SourceSite.
func (s *Site) Name() string { return platform }

func feedURL(scope scraper.Scope) string {
	if scope.Category == "" {
		return baseURL + "/model"
	}
	return baseURL + "/model?category=" + url.QueryEscape(scope.Category)
}

// ListCandidates scrolls the model listing until its height stabilizes,
// then collects card links that are neither persisted nor repeated in
// this pass. Comment links are not listings and are skipped.
func (s *Site) ListCandidates(ctx context.Context, scope scraper.Scope, limit int, exists scraper.DedupFunc) ([]string, error) {
	var hrefs []string

	err := s.retry.Do("printables-list", func() error {
		hrefs = nil
		// scrolling a long feed can outlast a single navigation budget
		extra := time.Duration(s.maxScrolls) * 4 * time.Second
		return s.browser.RunFeed(ctx, extra,
			chromedp.Navigate(feedURL(scope)),
			chromedp.Sleep(3*time.Second),
			s.scrollToEnd(),
			chromedp.Evaluate(`
				(function() {
					var out = [];
					var links = document.querySelectorAll('a.card-image');
					for (var i = 0; i < links.length; i++) {
						var href = links[i].getAttribute('href') || '';
						if (href.indexOf('/model/') === 0 && href.indexOf('/comments') === -1) {
							out.push(href);
						}
					}
					return out;
				})()
			`, &hrefs),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("printables: list candidates: %w", err)
	}

	s.logger.Debug("[printables] feed yielded %d links", len(hrefs))

	seen := utils.NewURLSet()
	collected := make([]string, 0, limit)
	for _, href := range hrefs {
		if len(collected) >= limit {
			break
		}
		full := baseURL + href
		if !seen.Add(full) {
			continue
		}
		persisted, err := exists(full)
		if err != nil {
			return nil, fmt.Errorf("printables: dedup check: %w", err)
		}
		if persisted {
			continue
		}
		collected = append(collected, full)
	}

	return collected, nil
}

func (s *Site) scrollToEnd() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		previous := -1
		for i := 0; i < s.maxScrolls; i++ {
			if err := chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil).Do(ctx); err != nil {
				return err
			}
			if err := chromedp.Sleep(3 * time.Second).Do(ctx); err != nil {
				return err
			}

			var height int
			if err := chromedp.Evaluate(`document.body.scrollHeight`, &height).Do(ctx); err != nil {
				return err
			}
			if height == previous {
				break
			}
			previous = height
		}
		return nil
	})
}

type detailData struct {
	Found       bool     `json:"found"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	ImgSrcs     []string `json:"imgSrcs"`
	Tags        []string `json:"tags"`
}

// Extract reads one model page into a RawListing. The tag list sits
// behind a "more" button that is clicked when present.
func (s *Site) Extract(ctx context.Context, pageURL string) (*models.RawListing, error) {
	var d detailData

	err := s.retry.Do("printables-extract", func() error {
		return s.browser.RunPage(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(4*time.Second),
			chromedp.ActionFunc(func(ctx context.Context) error {
				// expand the tag list when collapsed; absence is fine
				var clicked bool
				return chromedp.Evaluate(`
					(function() {
						var btn = document.querySelector('button.more');
						if (btn) { btn.click(); return true; }
						return false;
					})()
				`, &clicked).Do(ctx)
			}),
			chromedp.Sleep(1*time.Second),
			chromedp.Evaluate(`
				(function() {
					var r = {found: false, title: '', description: '', price: '',
						imgSrcs: [], tags: []};

					var titleEl = document.querySelector('h1');
					if (!titleEl) return r;
					r.found = true;
					r.title = titleEl.innerText;

					var descEl = document.querySelector('div.user-inserted');
					if (descEl) r.description = descEl.innerText;

					var priceEl = document.querySelector('div.price');
					if (priceEl) r.price = priceEl.innerText;

					var imgs = document.querySelectorAll('ul[id*="splide01"] li.splide__slide img');
					for (var i = 0; i < imgs.length; i++) {
						if (imgs[i].src) r.imgSrcs.push(imgs[i].src);
					}

					var tagEls = document.querySelectorAll('.tags-wrapper a.badge');
					for (var j = 0; j < tagEls.length; j++) {
						r.tags.push(tagEls[j].innerText.trim());
					}

					return r;
				})()
			`, &d),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("printables: extract %s: %w", pageURL, err)
	}
	if !d.Found {
		return nil, scraper.ErrNotFound
	}

	price := strings.TrimSpace(d.Price)
	if price == "" {
		price = "Free"
	}

	listing := &models.RawListing{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Tags:        d.Tags,
		Price:       price,
		SourceURL:   pageURL,
		Platform:    platform,
		ScrapedAt:   time.Now(),
	}

	seen := utils.NewURLSet()
	for _, src := range d.ImgSrcs {
		if src == "" || !seen.Add(src) {
			continue
		}
		listing.Images = append(listing.Images, variantPair(src))
	}
	if len(listing.Images) > 0 {
		listing.ThumbnailURL = listing.Images[0].Thumb
	}

	return listing, nil
}

// variantPair derives the full-resolution variant from a cover thumbnail
// (or the reverse) by swapping the resolution segment of the asset path.
func variantPair(src string) models.ImagePair {
	if strings.Contains(src, insidePath) {
		return models.ImagePair{
			Full:  src,
			Thumb: strings.Replace(src, insidePath, coverPath, 1),
		}
	}
	return models.ImagePair{
		Full:  strings.Replace(src, coverPath, insidePath, 1),
		Thumb: src,
	}
}
