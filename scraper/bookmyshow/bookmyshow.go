// Package bookmyshow adapts in.bookmyshow.com explore pages. The site is
// rendered client-side, so pages are fetched through scraper.Browser.
package bookmyshow

import (
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"bangalorelife-scraper/models"
	"bangalorelife-scraper/scraper"
)

const (
	baseURL   = "https://in.bookmyshow.com"
	cdnMarker = "bmscdn.com"
)

var (
	// /bengaluru/events/zakir-khan-live/ET00123456
	detailHref = regexp.MustCompile(`^(?:https?://in\.bookmyshow\.com)?/[a-z-]+/events/[^/?#]+/(ET\d{6,10})(?:[/?#]|$)`)
	// Explore and listing index pages also carry /events/ segments.
	excludeHref  = regexp.MustCompile(`/explore/|/events/?(?:\?|$)`)
	contentImage = regexp.MustCompile(`(?i)bmscdn\.com/.*(?:discovery-catalog|events|\.jpe?g|\.png|\.webp|\.avif)`)
)

// sections maps categories to explore slugs, crawled in this order.
var sections = []struct {
	category models.Category
	slug     string
}{
	{models.CategoryComedy, "comedy-shows"},
	{models.CategoryConcerts, "music-shows"},
	{models.CategoryTheatre, "plays"},
	{models.CategoryWorkshops, "workshops"},
	{models.CategorySports, "sports"},
	{models.CategoryKids, "kids"},
	{models.CategoryExperiences, "adventure-fun"},
	{models.CategoryScreening, "screenings"},
	{models.CategoryEvents, "events"},
}

// Source is the BookMyShow adapter.
type Source struct {
	city      string
	extractor *scraper.Extractor
}

// New creates the adapter for a city slug such as "bengaluru".
func New(city string) *Source {
	return &Source{
		city: city,
		extractor: scraper.NewExtractor(scraper.ExtractorConfig{
			Source:        models.SourceBookMyShow,
			BaseURL:       baseURL,
			DetailHref:    detailHref,
			ExcludeHref:   excludeHref,
			CardSelectors: []string{`[class*="card"]`, `[class*="Card"]`, "li"},
			Title: []scraper.Strategy{
				scraper.ClassText("title"),
				scraper.ClassText("Title"),
				scraper.ClassText("name"),
				scraper.SelectorText("h3, h4, h2"),
				scraper.AnchorAttr("aria-label"),
				scraper.AnchorFirstLine,
			},
			Venue: []scraper.Strategy{
				scraper.ClassText("venue"),
				scraper.ClassText("Venue"),
				scraper.ClassText("location"),
			},
			Price: []scraper.Strategy{
				scraper.ClassFullText("price"),
				scraper.ClassFullText("Price"),
			},
			Date: []scraper.Strategy{
				scraper.ClassFullText("date"),
				scraper.ClassFullText("Date"),
				scraper.SelectorText("time"),
				scraper.ContainerText,
			},
			Image: []scraper.Strategy{
				scraper.ImageForID(cdnMarker),
				scraper.ImageMatching(contentImage),
				scraper.AnchorImage,
			},
		}),
	}
}

func (s *Source) Name() models.Source { return models.SourceBookMyShow }

func (s *Source) CleanupPolicy() models.CleanupPolicy { return models.CleanupDeactivate }

func (s *Source) Categories() []scraper.CategoryPage {
	pages := make([]scraper.CategoryPage, 0, len(sections))
	for _, sec := range sections {
		pages = append(pages, scraper.CategoryPage{
			Category: sec.category,
			URL:      baseURL + "/explore/" + sec.slug + "-" + s.city,
		})
	}
	return pages
}

func (s *Source) Extract(doc *goquery.Document, category models.Category, now time.Time) []*models.ScrapedListing {
	return s.extractor.Extract(doc, category, now)
}
