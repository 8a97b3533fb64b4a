// Package pipeline drives one scraper run from category pages to the store.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"bangalorelife-scraper/affiliate"
	"bangalorelife-scraper/config"
	"bangalorelife-scraper/metrics"
	"bangalorelife-scraper/models"
	"bangalorelife-scraper/scraper"
	"bangalorelife-scraper/services"
	"bangalorelife-scraper/storage"
	"bangalorelife-scraper/utils"
)

// DefaultRetention is how long past its start date an event is kept.
const DefaultRetention = 30 * 24 * time.Hour

// Options wires a Runner. Source, Fetcher, Normalizer and Store are required.
type Options struct {
	Source     scraper.Source
	Fetcher    scraper.Fetcher
	Normalizer *services.Normalizer
	Store      storage.EventWriter
	// Raw receives the deduplicated listings before normalization; optional.
	Raw       storage.RawListingWriter
	Pacer     *utils.Pacer
	Retry     utils.RetryConfig
	Retention time.Duration
	Logger    *utils.Logger
	Now       func() time.Time
}

// Runner executes Init, the per-category crawl, dedup, upsert and cleanup in
// that order. Only setup failures are fatal; everything after is fail-soft.
type Runner struct {
	opts     Options
	dedup    *services.Dedup
	insights *services.InsightService
}

// NewRunner fills unset optional fields with defaults.
func NewRunner(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = utils.NewLogger()
	}
	if opts.Pacer == nil {
		opts.Pacer = utils.NewPacer(0)
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retry.Logger == nil {
		opts.Retry.Logger = opts.Logger
	}
	return &Runner{
		opts:     opts,
		dedup:    services.NewDedup(opts.Logger),
		insights: services.NewInsightService(opts.Logger),
	}
}

func (r *Runner) tag() string {
	return "[" + string(r.opts.Source.Name()) + "]"
}

// Run performs one complete run and returns its summary. Partial failures
// are recorded in the summary rather than returned.
func (r *Runner) Run(ctx context.Context) *models.RunSummary {
	log := r.opts.Logger
	src := r.opts.Source
	summary := &models.RunSummary{Source: src.Name(), StartedAt: r.opts.Now()}

	log.Info("%s Starting run over %d categories", r.tag(), len(src.Categories()))

	listings := r.crawl(ctx, summary)
	summary.TotalFound = len(listings)

	unique := r.dedup.Apply(listings)
	summary.Unique = len(unique)

	if enricher, ok := src.(scraper.DetailEnricher); ok {
		r.enrich(ctx, enricher, unique)
	}

	if r.opts.Raw != nil {
		if err := r.opts.Raw.WriteRaw(unique); err != nil {
			log.Warn("%s Raw CSV dump failed: %v", r.tag(), err)
		}
	}

	events := r.dedup.UniqueSlugs(r.opts.Normalizer.NormalizeAll(unique))
	summary.Write = services.WriteBatch(ctx, events,
		r.opts.Store.UpsertEvents, r.opts.Store.UpsertEvent,
		func(e *models.CanonicalEvent) string { return e.Slug },
		log,
	)
	log.Info("%s Wrote %d/%d events (%d failed)", r.tag(),
		summary.Write.Written, summary.Write.Attempted, summary.Write.Failed)

	r.cleanup(ctx, summary)

	summary.Insights = r.insights.Generate(events)
	r.insights.CountEstimatedDates(summary.Insights, unique)
	summary.FinishedAt = r.opts.Now()
	metrics.RecordRun(summary)
	return summary
}

// crawl visits every category in declared order. A failed category is
// logged with its name and recorded with zero listings.
func (r *Runner) crawl(ctx context.Context, summary *models.RunSummary) []*models.ScrapedListing {
	var all []*models.ScrapedListing
	for _, page := range r.opts.Source.Categories() {
		res := models.CategoryResult{Category: page.Category}

		found, err := r.crawlCategory(ctx, page)
		if err != nil {
			res.Err = err
			r.opts.Logger.Error("%s Category %s failed: %v", r.tag(), page.Category, err)
		} else {
			res.Found = len(found)
			all = append(all, found...)
			if len(found) == 0 {
				r.opts.Logger.Warn("%s Category %s yielded no listings", r.tag(), page.Category)
			} else {
				r.opts.Logger.Info("%s Category %s: %d listings", r.tag(), page.Category, len(found))
			}
		}
		summary.Categories = append(summary.Categories, res)
	}
	return all
}

func (r *Runner) crawlCategory(ctx context.Context, page scraper.CategoryPage) ([]*models.ScrapedListing, error) {
	doc, err := r.fetchDoc(ctx, page.URL)
	if err != nil {
		return nil, err
	}
	return r.opts.Source.Extract(doc, page.Category, r.opts.Now()), nil
}

// fetchDoc waits for the pacer, then fetches and parses url with retries.
// The pacing delay runs from the end of the previous fetch.
func (r *Runner) fetchDoc(ctx context.Context, url string) (*goquery.Document, error) {
	var html string
	err := r.opts.Retry.Do(ctx, "fetch "+url, func() error {
		if err := r.opts.Pacer.Wait(ctx); err != nil {
			return err
		}
		defer r.opts.Pacer.Done()
		var err error
		html, err = r.opts.Fetcher.Fetch(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// enrich fetches detail pages, paced like category pages, for listings the
// source marks as incomplete. Failures keep the listing as it was.
func (r *Runner) enrich(ctx context.Context, enricher scraper.DetailEnricher, listings []*models.ScrapedListing) {
	var fetched, failed int
	for _, l := range listings {
		if !enricher.NeedsDetail(l) {
			continue
		}
		fetched++
		doc, err := r.fetchDoc(ctx, l.DestinationURL)
		if err != nil {
			failed++
			r.opts.Logger.Warn("%s Detail page for %s failed: %v", r.tag(), l.SourceRecordID, err)
			continue
		}
		enricher.EnrichFromDetail(doc, l)
	}
	if fetched > 0 {
		r.opts.Logger.Info("%s Fetched %d detail pages (%d failed)", r.tag(), fetched, failed)
	}
}

// cleanup expires this source's old rows. Errors are logged and recorded
// but never fail the run.
func (r *Runner) cleanup(ctx context.Context, summary *models.RunSummary) {
	src := r.opts.Source
	cutoff := r.opts.Now().Add(-r.opts.Retention)

	n, err := r.opts.Store.CleanupSource(ctx, src.Name(), cutoff, src.CleanupPolicy())
	if err != nil {
		summary.CleanupErr = err
		r.opts.Logger.Error("%s Cleanup failed: %v", r.tag(), err)
		return
	}
	summary.Cleaned = n
	r.opts.Logger.Info("%s Cleanup (%s) touched %d rows older than %s",
		r.tag(), src.CleanupPolicy(), n, cutoff.Format("2006-01-02"))
}

// FromConfig builds a Runner with the deployment settings of cfg.
func FromConfig(cfg *config.Config, src scraper.Source, fetcher scraper.Fetcher, store storage.EventWriter, raw storage.RawListingWriter, logger *utils.Logger) *Runner {
	codec := affiliate.New(cfg.Affiliate)
	return NewRunner(Options{
		Source:     src,
		Fetcher:    fetcher,
		Normalizer: services.NewNormalizer(codec, cfg.City, cfg.Currency, logger),
		Store:      store,
		Raw:        raw,
		Pacer:      utils.NewPacer(cfg.Pacing()),
		Retry:      utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: cfg.Pacing(), Logger: logger},
		Retention:  cfg.Retention(),
		Logger:     logger,
	})
}
