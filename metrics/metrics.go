// Package metrics counts scraper and venue populator outcomes in Prometheus
// collectors and pushes them to a Pushgateway at the end of a run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"bangalorelife-scraper/models"
	"bangalorelife-scraper/utils"
)

var (
	ListingsFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_listings_found_total",
			Help: "Listings extracted from source pages, labeled by source and category.",
		},
		[]string{"source", "category"},
	)
	CategoryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_category_failures_total",
			Help: "Category pages that could not be fetched or parsed.",
		},
		[]string{"source", "category"},
	)
	RecordsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_records_written_total",
			Help: "Records upserted into the store.",
		},
		[]string{"source"},
	)
	RecordsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_records_failed_total",
			Help: "Records the store rejected during the individual write fallback.",
		},
		[]string{"source"},
	)
	CleanupRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_cleanup_rows_total",
			Help: "Expired rows deactivated or deleted by cleanup.",
		},
		[]string{"source"},
	)
	LastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scraper_last_run_timestamp_seconds",
			Help: "Unix time at which the last run finished.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(ListingsFound)
	prometheus.MustRegister(CategoryFailures)
	prometheus.MustRegister(RecordsWritten)
	prometheus.MustRegister(RecordsFailed)
	prometheus.MustRegister(CleanupRows)
	prometheus.MustRegister(LastRun)
}

// RecordRun adds the counts of a scraper run.
func RecordRun(s *models.RunSummary) {
	src := string(s.Source)
	for _, c := range s.Categories {
		ListingsFound.WithLabelValues(src, string(c.Category)).Add(float64(c.Found))
		if c.Err != nil {
			CategoryFailures.WithLabelValues(src, string(c.Category)).Inc()
		}
	}
	RecordsWritten.WithLabelValues(src).Add(float64(s.Write.Written))
	RecordsFailed.WithLabelValues(src).Add(float64(s.Write.Failed))
	CleanupRows.WithLabelValues(src).Add(float64(s.Cleaned))
	LastRun.WithLabelValues(src).Set(float64(s.FinishedAt.Unix()))
}

// RecordPopulate adds the counts of a venue populator run.
func RecordPopulate(s *models.PopulateSummary) {
	src := string(models.SourcePlaces)
	RecordsWritten.WithLabelValues(src).Add(float64(s.Write.Written))
	RecordsFailed.WithLabelValues(src).Add(float64(s.Write.Failed))
	LastRun.WithLabelValues(src).Set(float64(s.FinishedAt.Unix()))
}

// JobName is the Pushgateway job a source's metrics are grouped under.
func JobName(source models.Source) string {
	return "bangalorelife_" + string(source)
}

// Push sends the run metrics to a Pushgateway. Batch jobs exit before any
// scrape could reach them, so this is their only way out. An empty url
// disables pushing. Failures are logged and returned but never fatal.
func Push(url string, source models.Source, logger *utils.Logger) error {
	if url == "" {
		return nil
	}
	err := push.New(url, JobName(source)).
		Collector(ListingsFound).
		Collector(CategoryFailures).
		Collector(RecordsWritten).
		Collector(RecordsFailed).
		Collector(CleanupRows).
		Collector(LastRun).
		Push()
	if err != nil {
		err = fmt.Errorf("metrics: push to %s: %w", url, err)
		if logger != nil {
			logger.Warn("[metrics] %v", err)
		}
		return err
	}
	if logger != nil {
		logger.Info("[metrics] Pushed run metrics to %s", url)
	}
	return nil
}
