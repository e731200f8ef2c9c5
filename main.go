package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"printscout/config"
	"printscout/pipeline"
	"printscout/scraper"
	"printscout/scraper/cgtrader"
	"printscout/scraper/printables"
	"printscout/scraper/thangs"
	"printscout/services"
	"printscout/storage"
	"printscout/taxonomy"
	"printscout/utils"
)

type siteDef struct {
	key   string
	name  string
	url   string
	build func(*scraper.Browser, *config.Config, *utils.Logger) scraper.Site
}

var sites = []siteDef{
	{"thangs", "Thangs", "https://thangs.com",
		func(b *scraper.Browser, c *config.Config, l *utils.Logger) scraper.Site { return thangs.New(b, c, l) }},
	{"cgtrader", "CGTrader", "https://www.cgtrader.com",
		func(b *scraper.Browser, c *config.Config, l *utils.Logger) scraper.Site { return cgtrader.New(b, c, l) }},
	{"printables", "Printables.com", "https://www.printables.com",
		func(b *scraper.Browser, c *config.Config, l *utils.Logger) scraper.Site { return printables.New(b, c, l) }},
}

func main() {
	siteFlag := flag.String("site", "all", "site to crawl (thangs|cgtrader|printables|all)")
	categoryFlag := flag.String("category", "", "category scope (empty = site-wide feed)")
	subcategoryFlag := flag.String("subcategory", "", "subcategory scope")
	countFlag := flag.Int("count", 10, "target number of new listings per site")
	verboseFlag := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := utils.NewLogger()
	if *verboseFlag {
		logger.EnableDebug()
	}
	cfg := config.Load()

	selected := selectSites(*siteFlag)
	if len(selected) == 0 {
		logger.Error("Unknown site %q — valid: thangs, cgtrader, printables, all", *siteFlag)
		os.Exit(1)
	}
	if *countFlag <= 0 {
		logger.Error("-count must be positive")
		os.Exit(1)
	}

	logger.Info("=== printscout starting ===")
	logger.Info("Config — sites: %s | scope: %q/%q | count: %d | relocation: %v",
		siteKeys(selected), *categoryFlag, *subcategoryFlag, *countFlag, cfg.RelocationEnabled())

	if err := seed(cfg); err != nil {
		logger.Error("Database setup failed: %v", err)
		os.Exit(1)
	}

	var rawSink storage.RawSink
	if cfg.CSVOutputPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Error("Failed to open CSV sink: %v", err)
			os.Exit(1)
		}
		defer csvWriter.Close()
		rawSink = csvWriter
	}

	scope := scraper.Scope{Category: *categoryFlag, Subcategory: *subcategoryFlag}

	// Each site pipeline owns its database connection and browser
	// session; only the storage-level uniqueness constraint is shared.
	pool := utils.NewWorkerPool(cfg.MaxSiteWorkers, 0)
	var failed atomic.Bool
	for _, def := range selected {
		d := def
		pool.Submit(func() {
			if err := runSite(cfg, logger, d, scope, *countFlag, rawSink); err != nil {
				logger.Error("[%s] run aborted: %v", d.name, err)
				failed.Store(true)
			}
		})
	}
	pool.Wait()

	if failed.Load() {
		os.Exit(1)
	}
	fmt.Println("  Done.")
}

// seed ensures the taxonomy vocabulary and source-site rows exist before
// any pipeline starts.
func seed(cfg *config.Config) error {
	store, err := storage.NewStore(cfg.DSN())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SeedTaxonomy(taxonomy.Static()); err != nil {
		return err
	}
	for _, def := range sites {
		if err := store.SeedSourceSite(def.name, def.url); err != nil {
			return err
		}
	}
	return nil
}

// runSite builds one fully independent pipeline for a site and runs it.
func runSite(cfg *config.Config, logger *utils.Logger, def siteDef, scope scraper.Scope, count int, rawSink storage.RawSink) error {
	store, err := storage.NewStore(cfg.DSN())
	if err != nil {
		return err
	}
	defer store.Close()

	tax, err := store.LoadTaxonomy()
	if err != nil {
		return err
	}

	browser := scraper.NewBrowser(cfg)
	defer browser.Close()

	var relocator storage.Relocator
	if cfg.RelocationEnabled() {
		relocator, err = storage.NewS3Relocator(cfg, logger)
		if err != nil {
			return err
		}
	}

	p := &pipeline.Pipeline{
		Site:      def.build(browser, cfg, logger),
		Enricher:  services.NewEnricher(cfg.OpenAIKey, cfg.TextModel, cfg.VisionModel, tax, logger),
		Store:     store,
		Relocator: relocator,
		RawSink:   rawSink,
		Logger:    logger,
	}

	_, err = p.Run(context.Background(), scope, count)
	return err
}

func selectSites(key string) []siteDef {
	if key == "all" {
		return sites
	}
	for _, def := range sites {
		if def.key == key {
			return []siteDef{def}
		}
	}
	return nil
}

func siteKeys(defs []siteDef) string {
	keys := make([]string, len(defs))
	for i, d := range defs {
		keys[i] = d.key
	}
	return strings.Join(keys, ",")
}
