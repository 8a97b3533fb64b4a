// Package insider adapts insider.in listing pages, which are server-rendered
// and fetched over plain HTTP.
package insider

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"bangalorelife-scraper/models"
	"bangalorelife-scraper/scraper"
)

const (
	baseURL   = "https://insider.in"
	cdnMarker = "insider.in"
)

var (
	// /sunburn-arena-ft-alan-walker-bengaluru/event
	detailHref   = regexp.MustCompile(`^(?:https?://(?:www\.)?insider\.in)?/([a-z0-9][a-z0-9-]{2,})/event(?:[/?#]|$)`)
	excludeHref  = regexp.MustCompile(`/all-events-in-|/online(?:/|$)|/go/|/artist/|/venue/`)
	contentImage = regexp.MustCompile(`(?i)(?:media\.insider\.in|res\.cloudinary\.com).*|\.(?:jpe?g|png|webp|avif)(?:\?|$)`)
)

var sections = []struct {
	category models.Category
	slug     string
}{
	{models.CategoryComedy, "comedy"},
	{models.CategoryConcerts, "music"},
	{models.CategoryTheatre, "theatre"},
	{models.CategoryWorkshops, "workshops"},
	{models.CategorySports, "sports"},
	{models.CategoryKids, "kids"},
	{models.CategoryExperiences, "experiences"},
	{models.CategoryScreening, "screenings"},
	{models.CategoryEvents, "events"},
}

// Source is the Insider.in adapter.
type Source struct {
	city      string
	extractor *scraper.Extractor
}

// New creates the adapter for a city slug such as "bengaluru".
func New(city string) *Source {
	return &Source{
		city: city,
		extractor: scraper.NewExtractor(scraper.ExtractorConfig{
			Source:        models.SourceInsider,
			BaseURL:       baseURL,
			DetailHref:    detailHref,
			ExcludeHref:   excludeHref,
			CardSelectors: []string{`[class*="card"]`, `[class*="event-item"]`, "li", "article"},
			Title: []scraper.Strategy{
				scraper.ClassText("title"),
				scraper.ClassText("name"),
				scraper.SelectorText("h2, h3, h4"),
				scraper.AnchorAttr("title"),
				scraper.AnchorFirstLine,
			},
			Venue: []scraper.Strategy{
				scraper.ClassText("venue"),
				scraper.ClassText("location"),
				scraper.ClassText("place"),
			},
			Price: []scraper.Strategy{
				scraper.ClassFullText("price"),
			},
			Date: []scraper.Strategy{
				scraper.ClassFullText("date"),
				scraper.ClassFullText("time"),
				scraper.SelectorText("time"),
			},
			Image: []scraper.Strategy{
				scraper.ImageForID(cdnMarker),
				scraper.ImageMatching(contentImage),
				scraper.AnchorImage,
			},
		}),
	}
}

func (s *Source) Name() models.Source { return models.SourceInsider }

func (s *Source) CleanupPolicy() models.CleanupPolicy { return models.CleanupDelete }

func (s *Source) Categories() []scraper.CategoryPage {
	pages := make([]scraper.CategoryPage, 0, len(sections))
	for _, sec := range sections {
		pages = append(pages, scraper.CategoryPage{
			Category: sec.category,
			URL:      baseURL + "/all-events-in-" + s.city + "/" + sec.slug,
		})
	}
	return pages
}

func (s *Source) Extract(doc *goquery.Document, category models.Category, now time.Time) []*models.ScrapedListing {
	return s.extractor.Extract(doc, category, now)
}

// NeedsDetail reports whether the card lacked a date; Insider cards for
// multi-day events often omit it.
func (s *Source) NeedsDetail(l *models.ScrapedListing) bool {
	return l.StartDateEstimated
}

// EnrichFromDetail fills the start date (and venue, when missing) from an
// event page. Fields the page does not carry are left as they were.
func (s *Source) EnrichFromDetail(doc *goquery.Document, l *models.ScrapedListing) {
	candidates := []string{
		attr(doc, `meta[property="event:start_time"]`, "content"),
		attr(doc, `[itemprop="startDate"]`, "content"),
		attr(doc, `[itemprop="startDate"]`, "datetime"),
		attr(doc, "time[datetime]", "datetime"),
	}
	for _, c := range candidates {
		if t, ok := scraper.ParseTimestamp(c); ok {
			l.StartDate = t
			l.StartDateEstimated = false
			break
		}
	}
	if l.StartDateEstimated {
		text := strings.Join(scraper.Lines(scraper.InnerText(doc.Find(`[class*="date"]`).First())), " ")
		if t, ok := scraper.ParseDayMonth(text, l.ScrapedAt); ok {
			l.StartDate = t
			l.StartDateEstimated = false
		}
	}

	if l.VenueName == nil {
		venue := scraper.FirstLine(doc.Find(`[itemprop="location"] [itemprop="name"]`).First())
		if venue == "" {
			venue = scraper.FirstLine(doc.Find(`[class*="venue"]`).First())
		}
		if venue != "" {
			l.VenueName = models.StringPtr(scraper.Truncate(venue, scraper.MaxVenueLen))
		}
	}
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return v
}
