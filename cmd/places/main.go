// Command places populates the venues table from the Google Places API.
package main

import (
	"context"
	"os"

	"bangalorelife-scraper/config"
	"bangalorelife-scraper/metrics"
	"bangalorelife-scraper/models"
	"bangalorelife-scraper/places"
	"bangalorelife-scraper/services"
	"bangalorelife-scraper/storage"
	"bangalorelife-scraper/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadPlaces()
	if err != nil {
		utils.NewLogger().Error("Configuration error: %v", err)
		return 1
	}

	logger := utils.NewLoggerWithOptions(utils.LoggerOptions{
		Level: utils.ParseLevel(cfg.LogLevel),
		File:  cfg.LogFile,
	})
	defer logger.Close()

	logger.Info("=== Venue populator starting ===")
	logger.Info("Config: city %s | %d kinds x %d neighborhoods | pacing %v | dry run %v",
		cfg.City, len(places.Kinds), len(places.Gazetteer), cfg.Pacing(), cfg.DryRun)

	ctx := context.Background()
	store, err := storage.Open(ctx, storage.OpenOptions{DSN: cfg.DSN(), DryRun: cfg.DryRun})
	if err != nil {
		logger.Error("Failed to open storage: %v", err)
		return 1
	}
	defer store.Close()

	client, err := places.NewMapsClient(cfg.PlacesAPIKey)
	if err != nil {
		logger.Error("Failed to create Places client: %v", err)
		return 1
	}

	populator := places.NewPopulator(places.Options{
		Client: client,
		Store:  store,
		Pacer:  utils.NewPacer(cfg.Pacing()),
		Retry:  utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: cfg.Pacing(), Logger: logger},
		Logger: logger,
		City:   cfg.City,
	})
	summary := populator.Run(ctx)

	services.NewInsightService(logger).PrintPopulate(summary)
	metrics.RecordPopulate(summary)
	_ = metrics.Push(cfg.PushgatewayURL, models.SourcePlaces, logger)
	return 0
}
