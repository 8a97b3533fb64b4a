// Command bookmyshow scrapes BookMyShow explore pages into the events table.
package main

import (
	"context"
	"os"

	"bangalorelife-scraper/config"
	"bangalorelife-scraper/metrics"
	"bangalorelife-scraper/pipeline"
	"bangalorelife-scraper/scraper"
	"bangalorelife-scraper/scraper/bookmyshow"
	"bangalorelife-scraper/services"
	"bangalorelife-scraper/storage"
	"bangalorelife-scraper/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadScraper()
	if err != nil {
		utils.NewLogger().Error("Configuration error: %v", err)
		return 1
	}

	logger := utils.NewLoggerWithOptions(utils.LoggerOptions{
		Level: utils.ParseLevel(cfg.LogLevel),
		File:  cfg.LogFile,
	})
	defer logger.Close()

	logger.Info("=== BookMyShow scraper starting ===")
	logger.Info("Config: city %s | pacing %v | timeout %v | retries %d | dry run %v",
		cfg.City, cfg.Pacing(), cfg.RequestTimeout(), cfg.MaxRetries, cfg.DryRun)

	ctx := context.Background()
	store, err := storage.Open(ctx, storage.OpenOptions{DSN: cfg.DSN(), DryRun: cfg.DryRun})
	if err != nil {
		logger.Error("Failed to open storage: %v", err)
		return 1
	}
	defer store.Close()

	var raw storage.RawListingWriter
	if cfg.CSVOutputPath != "" {
		w, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Warn("Raw CSV dump disabled: %v", err)
		} else {
			defer w.Close()
			raw = w
		}
	}

	browser, err := scraper.NewBrowser(scraper.BrowserOptions{
		ChromeBin:   cfg.ChromeBin,
		Timeout:     cfg.RequestTimeout(),
		ScrollSteps: cfg.ScrollSteps,
	})
	if err != nil {
		logger.Error("Failed to start browser: %v", err)
		return 1
	}
	defer browser.Close()

	runner := pipeline.FromConfig(cfg, bookmyshow.New("bengaluru"), browser, store, raw, logger)
	summary := runner.Run(ctx)

	services.NewInsightService(logger).PrintRun(summary)
	_ = metrics.Push(cfg.PushgatewayURL, summary.Source, logger)
	return 0
}
