package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"bangalorelife-scraper/models"
)

// Fetcher returns the rendered HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CategoryPage is one fixed section of a source to crawl.
type CategoryPage struct {
	Category models.Category
	URL      string
}

// Source adapts one third-party site to the pipeline.
type Source interface {
	Name() models.Source
	// Categories are crawled in the returned order.
	Categories() []CategoryPage
	Extract(doc *goquery.Document, category models.Category, now time.Time) []*models.ScrapedListing
	CleanupPolicy() models.CleanupPolicy
}

// DetailEnricher is implemented by sources whose listing cards sometimes lack
// a field that only the detail page carries.
type DetailEnricher interface {
	NeedsDetail(l *models.ScrapedListing) bool
	EnrichFromDetail(doc *goquery.Document, l *models.ScrapedListing)
}
