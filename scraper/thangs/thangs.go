// Package thangs implements the scraper.Site capability for thangs.com:
// an infinite-scroll category feed for collection and a carousel-based
// detail page whose image variants are encoded in w/q query parameters.
package thangs

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"printscout/config"
	"printscout/models"
	"printscout/scraper"
	"printscout/utils"
)

const (
	platform = "Thangs"
	baseURL  = "https://thangs.com"
)

// Site drives thangs.com through a shared browser session.
type Site struct {
	browser    *scraper.Browser
	logger     *utils.Logger
	retry      *utils.RetryConfig
	maxScrolls int
}

// New creates a ready-to-use thangs scraper.
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
		return baseURL
	}
	u := baseURL + "/category/" + url.PathEscape(scope.Category)
	if scope.Subcategory != "" {
		u += "/" + url.PathEscape(scope.Subcategory)
	}
	return u
}

// ListCandidates scrolls the category feed until its height stops growing
// (or the scroll budget runs out), then collects model links that are
// neither persisted nor already picked up in this pass.
func (s *Site) ListCandidates(ctx context.Context, scope scraper.Scope, limit int, exists scraper.DedupFunc) ([]string, error) {
	var hrefs []string

	err := s.retry.Do("thangs-list", func() error {
		hrefs = nil
		// scrolling a long feed can outlast a single navigation budget
		extra := time.Duration(s.maxScrolls) * 3 * time.Second
		return s.browser.RunFeed(ctx, extra,
			chromedp.Navigate(feedURL(scope)),
			chromedp.Sleep(3*time.Second),
			s.scrollToEnd(),
			chromedp.Evaluate(`
				(function() {
					var out = [];
					var links = document.querySelectorAll(
						'section[class*="ModelCard"] a[href^="/designer/"][href*="/3d-model/"]');
					for (var i = 0; i < links.length; i++) {
						if (links[i].href) out.push(links[i].href);
					}
					return out;
				})()
			`, &hrefs),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("thangs: list candidates: %w", err)
	}

	s.logger.Debug("[thangs] feed yielded %d links", len(hrefs))

	seen := utils.NewURLSet()
	collected := make([]string, 0, limit)
	for _, href := range hrefs {
		if len(collected) >= limit {
			break
		}
		if !seen.Add(href) {
			continue
		}
		persisted, err := exists(href)
		if err != nil {
			return nil, fmt.Errorf("thangs: dedup check: %w", err)
		}
		if persisted {
			continue
		}
		collected = append(collected, href)
	}

	return collected, nil
}

// scrollToEnd repeatedly scrolls to the bottom until the document height
// stops changing. The scroll budget guards against endless feeds.
func (s *Site) scrollToEnd() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		previous := -1
		for i := 0; i < s.maxScrolls; i++ {
			if err := chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil).Do(ctx); err != nil {
				return err
			}
			if err := chromedp.Sleep(2 * time.Second).Do(ctx); err != nil {
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
	Found         bool     `json:"found"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PageCountText string   `json:"pageCountText"`
	ActiveSrc     string   `json:"activeSrc"`
	ThumbSrcs     []string `json:"thumbSrcs"`
	Tags          []string `json:"tags"`
	PriceText     string   `json:"priceText"`
	Member        bool     `json:"member"`
	Paid          bool     `json:"paid"`
}

// Extract reads one model page into a RawListing.
func (s *Site) Extract(ctx context.Context, pageURL string) (*models.RawListing, error) {
	var d detailData

	err := s.retry.Do("thangs-extract", func() error {
		return s.browser.RunPage(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(4*time.Second),
			chromedp.Evaluate(`
				(function() {
					var r = {found: false, title: '', description: '', pageCountText: '',
						activeSrc: '', thumbSrcs: [], tags: [], priceText: '',
						member: false, paid: false};

					var titleEl = document.querySelector('h1[class^="ModelTitle_Text"]');
					if (!titleEl) return r;
					r.found = true;
					r.title = titleEl.innerText;

					var descEl = document.querySelector('div.markdown');
					if (descEl) r.description = descEl.innerText;

					var counts = document.querySelectorAll('div[class*="ImageViewer_PageCount"]');
					if (counts.length > 0) {
						r.pageCountText = counts[counts.length - 1].innerText;
					}

					var active = document.querySelector('div.swiper-slide.swiper-slide-active img');
					if (active) r.activeSrc = active.src;

					var thumbs = document.querySelectorAll(
						'img[class*="ModelThumbnail_img"][class*="ModelThumbnail_img_regular"]');
					for (var i = 0; i < thumbs.length; i++) {
						if (thumbs[i].src) r.thumbSrcs.push(thumbs[i].src);
					}

					var tagEls = document.querySelectorAll('span[class^="ModelDetails_TagText"]');
					for (var j = 0; j < tagEls.length; j++) {
						r.tags.push(tagEls[j].innerText);
					}

					r.member = !!document.querySelector(
						'button[class*="SubscribeButton"][class*="Model_ViewPlans"]');
					r.paid = !!document.querySelector(
						'button[class*="SubscribeButton"][class*="Button__secondary"]');

					var priceEls = document.querySelectorAll('span[class*="Model_Price"]');
					if (priceEls.length > 0) {
						r.priceText = priceEls[priceEls.length - 1].innerText;
					}

					return r;
				})()
			`, &d),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("thangs: extract %s: %w", pageURL, err)
	}
	if !d.Found {
		return nil, scraper.ErrNotFound
	}

	listing := &models.RawListing{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Tags:        trimAll(d.Tags),
		Price:       resolvePrice(d),
		SourceURL:   pageURL,
		Platform:    platform,
		ScrapedAt:   time.Now(),
	}

	srcs := d.ThumbSrcs
	if imageCount(d.PageCountText) <= 1 || len(srcs) == 0 {
		if d.ActiveSrc != "" {
			srcs = []string{d.ActiveSrc}
		}
	}
	for _, src := range srcs {
		listing.Images = append(listing.Images, variantPair(src))
	}
	if len(listing.Images) > 0 {
		listing.ThumbnailURL = thumbnailURL(listing.Images[0].Full)
	}

	return listing, nil
}

func resolvePrice(d detailData) string {
	switch {
	case d.Member:
		return "Premium"
	case d.Paid && d.PriceText != "":
		return strings.TrimSpace(strings.ReplaceAll(d.PriceText, "USD", ""))
	default:
		return "Free"
	}
}

var imageOfCount = regexp.MustCompile(`Image\s+\d+\s+of\s+(\d+)`)

// imageCount parses the "Image 1 of N" viewer label; a missing or
// malformed label means a single image.
func imageCount(text string) int {
	m := imageOfCount.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return n
}

// imageQuality reads the q parameter thangs uses to encode resolution.
func imageQuality(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("q")
}

// withParams returns raw with the w/q parameters replaced. Thangs serves
// the same asset at any resolution, so variants are derived rather than
// fetched.
func withParams(raw, w, q string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := u.Query()
	query.Set("w", w)
	query.Set("q", q)
	u.RawQuery = query.Encode()
	return u.String()
}

// variantPair normalizes one carousel src into a (full, thumb) pair
// regardless of which variant the page happened to serve.
func variantPair(src string) models.ImagePair {
	if imageQuality(src) == "75" {
		return models.ImagePair{Full: withParams(src, "3840", "85"), Thumb: src}
	}
	return models.ImagePair{Full: src, Thumb: withParams(src, "256", "75")}
}

// thumbnailURL derives the record thumbnail from the primary image.
func thumbnailURL(src string) string {
	return withParams(src, "640", "75")
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
