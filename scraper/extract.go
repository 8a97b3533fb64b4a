package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"bangalorelife-scraper/models"
	"bangalorelife-scraper/utils"
)

// Plausibility bounds for extracted text fields.
const (
	MinTitleLen = 3
	MaxTitleLen = 150
	MaxVenueLen = 120
)

// Card is what a field strategy sees: the detail anchor, its enclosing card
// container and the source record id parsed from the anchor.
type Card struct {
	Anchor    *goquery.Selection
	Container *goquery.Selection
	ID        string
	Base      *url.URL
}

// Strategy resolves one field from a card, returning "" when it finds nothing.
type Strategy func(c *Card) string

// FirstMatch runs strategies in order and returns the first result accepted
// by valid.
func FirstMatch(c *Card, valid func(string) bool, strategies ...Strategy) (string, bool) {
	for _, s := range strategies {
		v := strings.TrimSpace(s(c))
		if v == "" {
			continue
		}
		if valid == nil || valid(v) {
			return v, true
		}
	}
	return "", false
}

// TitlePlausible rejects fragments and captured page chrome.
func TitlePlausible(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= MinTitleLen && n <= MaxTitleLen
}

// NonEmpty accepts any non-blank value.
func NonEmpty(s string) bool { return strings.TrimSpace(s) != "" }

// ClassText returns the first line of the first element in the card whose
// class attribute contains keyword. Matching is by substring because source
// class names are hashed by their build tooling.
func ClassText(keyword string) Strategy {
	sel := `[class*="` + keyword + `"]`
	return func(c *Card) string {
		var out string
		c.Container.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = FirstLine(s)
			return out == ""
		})
		return out
	}
}

// SelectorText returns the first line of the first element matching selector.
func SelectorText(selector string) Strategy {
	return func(c *Card) string {
		var out string
		c.Container.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = FirstLine(s)
			return out == ""
		})
		return out
	}
}

// ClassFullText returns all text of the first element whose class contains
// keyword, lines joined by newlines.
func ClassFullText(keyword string) Strategy {
	sel := `[class*="` + keyword + `"]`
	return func(c *Card) string {
		var out string
		c.Container.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = strings.Join(Lines(InnerText(s)), "\n")
			return out == ""
		})
		return out
	}
}

// AttrValue returns the value of attr on the first element matching selector.
func AttrValue(selector, attr string) Strategy {
	return func(c *Card) string {
		v, _ := c.Container.Find(selector).First().Attr(attr)
		return v
	}
}

// AnchorFirstLine falls back to the anchor's own visible text.
func AnchorFirstLine(c *Card) string {
	return FirstLine(c.Anchor)
}

// AnchorAttr reads an attribute of the anchor (title, aria-label).
func AnchorAttr(attr string) Strategy {
	return func(c *Card) string {
		v, _ := c.Anchor.Attr(attr)
		return v
	}
}

// ContainerText returns the whole card text; useful as a last resort for
// pattern-validated fields such as dates.
func ContainerText(c *Card) string {
	return strings.Join(Lines(InnerText(c.Container)), "\n")
}

// imageSrc returns the best source URL of an <img>, honouring lazy-load
// attributes and srcset.
func imageSrc(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v, ok := img.Attr(attr); ok {
			v = strings.TrimSpace(v)
			if v != "" && !strings.HasPrefix(v, "data:") {
				return v
			}
		}
	}
	if v, ok := img.Attr("srcset"); ok {
		first := strings.TrimSpace(strings.Split(v, ",")[0])
		if fields := strings.Fields(first); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

func findImage(scope *goquery.Selection, base *url.URL, match func(string) bool) string {
	var out string
	scope.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := ResolveURL(base, imageSrc(img))
		if src != "" && match(src) {
			out = src
			return false
		}
		return true
	})
	return out
}

// ImageForID prefers an image served from cdnMarker whose URL mentions the
// record's own id, so promotional images in the same card are skipped.
func ImageForID(cdnMarker string) Strategy {
	return func(c *Card) string {
		id := strings.ToLower(c.ID)
		return findImage(c.Container, c.Base, func(src string) bool {
			lower := strings.ToLower(src)
			return strings.Contains(lower, cdnMarker) && id != "" && strings.Contains(lower, id)
		})
	}
}

// ImageMatching accepts any card image whose URL matches pattern.
func ImageMatching(pattern *regexp.Regexp) Strategy {
	return func(c *Card) string {
		return findImage(c.Container, c.Base, pattern.MatchString)
	}
}

// AnchorImage accepts any image inside the anchor itself.
func AnchorImage(c *Card) string {
	return findImage(c.Anchor, c.Base, NonEmpty)
}

// ExtractorConfig describes one source's markup.
type ExtractorConfig struct {
	Source  models.Source
	BaseURL string
	// DetailHref matches detail-page hrefs; submatch 1 is the source record id.
	DetailHref *regexp.Regexp
	// ExcludeHref matches listing/index hrefs that would otherwise pass DetailHref.
	ExcludeHref *regexp.Regexp
	// CardSelectors are tried in order to find the anchor's enclosing card.
	CardSelectors []string

	Title []Strategy
	Venue []Strategy
	Price []Strategy
	Date  []Strategy
	Image []Strategy
}

// Extractor turns a listing page into ScrapedListings.
type Extractor struct {
	cfg  ExtractorConfig
	base *url.URL
}

// NewExtractor builds an Extractor. An invalid BaseURL leaves relative links unresolved.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	base, _ := url.Parse(cfg.BaseURL)
	return &Extractor{cfg: cfg, base: base}
}

// Extract returns the listings on doc in DOM order. Only a missing id or
// title drops a listing; every other field is optional.
func (e *Extractor) Extract(doc *goquery.Document, category models.Category, now time.Time) []*models.ScrapedListing {
	seen := utils.NewKeySet()
	var out []*models.ScrapedListing

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if e.cfg.ExcludeHref != nil && e.cfg.ExcludeHref.MatchString(href) {
			return
		}
		m := e.cfg.DetailHref.FindStringSubmatch(href)
		if len(m) < 2 || m[1] == "" {
			return
		}
		id := m[1]
		if !seen.Add(id) {
			return
		}

		card := &Card{Anchor: a, Container: e.container(a, id), ID: id, Base: e.base}
		if l := e.listing(card, href, category, now); l != nil {
			out = append(out, l)
		}
	})
	return out
}

// container resolves the card enclosing a. A candidate that also holds
// anchors for other records is a grid or section, not a card.
func (e *Extractor) container(a *goquery.Selection, id string) *goquery.Selection {
	for _, sel := range e.cfg.CardSelectors {
		if c := a.Closest(sel); c.Length() > 0 && e.singleRecord(c, id) {
			return c
		}
	}
	if strings.TrimSpace(a.Text()) != "" {
		return a
	}
	if p := a.Parent(); p.Length() > 0 {
		return p
	}
	return a
}

func (e *Extractor) singleRecord(c *goquery.Selection, id string) bool {
	single := true
	c.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if m := e.cfg.DetailHref.FindStringSubmatch(strings.TrimSpace(href)); len(m) > 1 && m[1] != id {
			single = false
		}
		return single
	})
	return single
}

func (e *Extractor) listing(c *Card, href string, category models.Category, now time.Time) *models.ScrapedListing {
	title, ok := FirstMatch(c, TitlePlausible, e.cfg.Title...)
	if !ok {
		return nil
	}

	l := &models.ScrapedListing{
		Source:         e.cfg.Source,
		SourceRecordID: c.ID,
		Title:          title,
		Category:       category,
		DestinationURL: ResolveURL(e.base, href),
		ScrapedAt:      now,
	}

	if venue, ok := FirstMatch(c, NonEmpty, e.cfg.Venue...); ok {
		l.VenueName = models.StringPtr(Truncate(venue, MaxVenueLen))
	}

	if text, ok := FirstMatch(c, NonEmpty, e.cfg.Price...); ok {
		if raw, min, ok := ParsePrice(text); ok {
			l.RawPriceText = models.StringPtr(raw)
			l.ParsedMinPrice = models.IntPtr(min)
		}
	}

	l.StartDate = DefaultStartDate(now)
	l.StartDateEstimated = true
	parsesAsDate := func(s string) bool {
		_, ok := ParseDayMonth(s, now)
		return ok
	}
	if text, ok := FirstMatch(c, parsesAsDate, e.cfg.Date...); ok {
		l.StartDate, _ = ParseDayMonth(text, now)
		l.StartDateEstimated = false
	}

	if img, ok := FirstMatch(c, NonEmpty, e.cfg.Image...); ok {
		l.ImageURL = models.StringPtr(img)
	}

	return l
}
