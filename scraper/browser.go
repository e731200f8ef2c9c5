package scraper

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"printscout/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// Browser owns one headless Chrome allocator shared by a site's collector
// and extractor. Each page operation runs in a fresh tab with its own
// navigation timeout. One Browser must not be shared across concurrently
// running pipelines.
type Browser struct {
	allocCtx   context.Context
	cancels    []context.CancelFunc
	navTimeout time.Duration
}

// NewBrowser builds the exec allocator. The returned Browser is ready for
// RunPage calls; Close releases the underlying Chrome process.
func NewBrowser(cfg *config.Config) *Browser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1280, 800),
		chromedp.UserAgent(userAgent),
	)
	if bin := findChromeBinary(cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Browser{
		allocCtx:   silentCtx,
		cancels:    []context.CancelFunc{cancelSilent, cancelAlloc},
		navTimeout: time.Duration(cfg.NavTimeoutSec) * time.Second,
	}
}

// RunPage executes actions in a fresh tab bounded by the navigation
// timeout. Cancellation of parent tears the tab down early.
func (b *Browser) RunPage(parent context.Context, actions ...chromedp.Action) error {
	return b.run(parent, b.navTimeout, actions)
}

// RunFeed is RunPage with a stretched timeout for collection passes that
// scroll or paginate well past a single navigation.
func (b *Browser) RunFeed(parent context.Context, extra time.Duration, actions ...chromedp.Action) error {
	return b.run(parent, b.navTimeout+extra, actions)
}

func (b *Browser) run(parent context.Context, timeout time.Duration, actions []chromedp.Action) error {
	tab, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()

	tab, cancelTimeout := context.WithTimeout(tab, timeout)
	defer cancelTimeout()

	if parent != nil {
		go func() {
			select {
			case <-parent.Done():
				cancelTab()
			case <-tab.Done():
			}
		}()
	}

	return chromedp.Run(tab, actions...)
}

// Close shuts the browser down.
func (b *Browser) Close() {
	for _, cancel := range b.cancels {
		cancel()
	}
}

// findChromeBinary locates the Chrome/Chromium binary, preferring an
// explicitly configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
