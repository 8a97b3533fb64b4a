package services

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"bangalorelife-scraper/affiliate"
	"bangalorelife-scraper/models"
	"bangalorelife-scraper/utils"
)

const (
	// MaxSlugTitleLen caps the title part of a slug.
	MaxSlugTitleLen = 80
	// SlugSuffixLen is the length of the discriminator appended to a slug.
	SlugSuffixLen = 8
)

var (
	nonAlnumRegexp  = regexp.MustCompile(`[^a-z0-9]+`)
	compactIDRegexp = regexp.MustCompile(`^[a-z0-9]+$`)

	slugNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://bangalorelife.in/events"))
)

// Slugify lower-cases s and collapses every run of non-alphanumerics into a
// single hyphen.
func Slugify(s string) string {
	s = nonAlnumRegexp.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// EventSlug derives the persisted slug of a listing. The suffix keeps
// identically titled events from different records apart.
func EventSlug(title string, source models.Source, sourceID string) string {
	base := Slugify(title)
	if len(base) > MaxSlugTitleLen {
		base = strings.Trim(base[:MaxSlugTitleLen], "-")
	}
	if base == "" {
		base = "event"
	}

	return base + "-" + slugSuffix(source, sourceID)
}

// slugSuffix keeps the trailing characters of "<abbr>-<id>" for compact
// codes such as ET00123456. Slug-style ids share their tail with every
// other listing of the city, so they are hashed instead.
func slugSuffix(source models.Source, sourceID string) string {
	id := strings.ToLower(sourceID)
	if compactIDRegexp.MatchString(id) {
		disc := source.Abbreviation() + "-" + id
		if len(disc) > SlugSuffixLen {
			disc = disc[len(disc)-SlugSuffixLen:]
		}
		return strings.Trim(disc, "-")
	}
	sum := uuid.NewSHA1(slugNamespace, []byte(source.Abbreviation()+":"+id))
	return sum.String()[:SlugSuffixLen]
}

// Normalizer maps scraped listings onto CanonicalEvents.
type Normalizer struct {
	codec    *affiliate.Codec
	city     string
	currency string
	logger   *utils.Logger
}

// NewNormalizer creates a Normalizer for one deployment.
func NewNormalizer(codec *affiliate.Codec, city, currency string, logger *utils.Logger) *Normalizer {
	return &Normalizer{codec: codec, city: city, currency: currency, logger: logger}
}

// Normalize returns the unpersisted event for l. The category comes from the
// crawl context recorded on the listing.
func (n *Normalizer) Normalize(l *models.ScrapedListing) *models.CanonicalEvent {
	tag := l.Source.Abbreviation() + "-" + string(l.Category)

	return &models.CanonicalEvent{
		Title:         l.Title,
		Slug:          EventSlug(l.Title, l.Source, l.SourceRecordID),
		Category:      l.Category,
		VenueName:     l.VenueName,
		City:          n.city,
		Price:         l.RawPriceText,
		PriceMin:      l.ParsedMinPrice,
		PriceCurrency: n.currency,
		ImageURL:      l.ImageURL,
		BookingURL:    l.DestinationURL,
		AffiliateURL:  n.codec.Wrap(l.DestinationURL, tag),
		StartDate:     l.StartDate,
		SourceName:    l.Source,
		SourceEventID: l.SourceRecordID,
		IsActive:      true,
	}
}

// NormalizeAll normalizes listings in order.
func (n *Normalizer) NormalizeAll(listings []*models.ScrapedListing) []*models.CanonicalEvent {
	events := make([]*models.CanonicalEvent, 0, len(listings))
	for _, l := range listings {
		events = append(events, n.Normalize(l))
	}
	if n.logger != nil {
		n.logger.Info("[normalizer] Normalized %d listings", len(events))
	}
	return events
}
