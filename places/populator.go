package places

import (
	"context"
	"strings"
	"time"

	"bangalorelife-scraper/models"
	"bangalorelife-scraper/services"
	"bangalorelife-scraper/storage"
	"bangalorelife-scraper/utils"
)

const (
	// MaxPhotoRefs caps the photo references stored per venue.
	MaxPhotoRefs = 5
	// MaxVenueSlugLen caps the venue slug.
	MaxVenueSlugLen = 120
)

// VenueSlug joins the slugified name and neighborhood.
func VenueSlug(name, neighborhood string) string {
	slug := services.Slugify(name) + "-" + services.Slugify(neighborhood)
	slug = strings.Trim(slug, "-")
	if len(slug) > MaxVenueSlugLen {
		slug = strings.Trim(slug[:MaxVenueSlugLen], "-")
	}
	return slug
}

// Options wires a Populator. Client and Store are required.
type Options struct {
	Client        Client
	Store         storage.VenueWriter
	Pacer         *utils.Pacer
	Retry         utils.RetryConfig
	Logger        *utils.Logger
	City          string
	Kinds         []VenueKind
	Neighborhoods []Neighborhood
	Now           func() time.Time
}

// Populator runs the search, details and upsert phases of a venue sync.
type Populator struct {
	opts Options
}

// NewPopulator fills unset optional fields with defaults.
func NewPopulator(opts Options) *Populator {
	if opts.Logger == nil {
		opts.Logger = utils.NewLogger()
	}
	if opts.Pacer == nil {
		opts.Pacer = utils.NewPacer(0)
	}
	if opts.Retry.Logger == nil {
		opts.Retry.Logger = opts.Logger
	}
	if opts.City == "" {
		opts.City = "Bangalore"
	}
	if opts.Kinds == nil {
		opts.Kinds = Kinds
	}
	if opts.Neighborhoods == nil {
		opts.Neighborhoods = Gazetteer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Populator{opts: opts}
}

type candidate struct {
	hit  SearchHit
	kind string
}

// Run performs one sync. Failed searches and detail lookups are counted and
// skipped; re-running is idempotent because venues upsert on place id.
func (p *Populator) Run(ctx context.Context) *models.PopulateSummary {
	log := p.opts.Logger
	summary := &models.PopulateSummary{StartedAt: p.opts.Now()}

	candidates := p.search(ctx, summary)
	summary.UniquePlaces = len(candidates)
	log.Info("[places] %d queries, %d unique places", summary.Queries, len(candidates))

	venues := make([]*models.VenueRecord, 0, len(candidates))
	for _, c := range candidates {
		d, err := p.details(ctx, c.hit.PlaceID)
		if err != nil {
			summary.DetailFailures++
			log.Warn("[places] Details for %s (%s) failed: %v", c.hit.PlaceID, c.hit.Name, err)
			continue
		}
		venues = append(venues, p.venue(c.kind, d))
	}

	summary.Write = services.WriteBatch(ctx, venues,
		p.opts.Store.UpsertVenues, p.opts.Store.UpsertVenue,
		func(v *models.VenueRecord) string { return v.PlaceID },
		log,
	)
	summary.FinishedAt = p.opts.Now()
	log.Info("[places] Wrote %d/%d venues (%d failed)",
		summary.Write.Written, summary.Write.Attempted, summary.Write.Failed)
	return summary
}

// search runs every kind/neighborhood query and keeps the first hit seen
// for each place id.
func (p *Populator) search(ctx context.Context, summary *models.PopulateSummary) []candidate {
	seen := utils.NewKeySet()
	var out []candidate

	for _, kind := range p.opts.Kinds {
		for _, n := range p.opts.Neighborhoods {
			query := SearchQuery(kind, n, p.opts.City)
			summary.Queries++

			var hits []SearchHit
			err := p.opts.Retry.Do(ctx, "search "+query, func() error {
				if err := p.opts.Pacer.Wait(ctx); err != nil {
					return err
				}
				defer p.opts.Pacer.Done()
				var err error
				hits, err = p.opts.Client.Search(ctx, query)
				return err
			})
			if err != nil {
				summary.QueryFailures++
				p.opts.Logger.Error("[places] Query %q failed: %v", query, err)
				continue
			}

			for _, h := range hits {
				if h.PlaceID == "" || !seen.Add(h.PlaceID) {
					continue
				}
				out = append(out, candidate{hit: h, kind: kind.Kind})
			}
			p.opts.Logger.Debug("[places] %q: %d hits", query, len(hits))
		}
	}
	return out
}

func (p *Populator) details(ctx context.Context, placeID string) (*Details, error) {
	var d *Details
	err := p.opts.Retry.Do(ctx, "details "+placeID, func() error {
		if err := p.opts.Pacer.Wait(ctx); err != nil {
			return err
		}
		defer p.opts.Pacer.Done()
		var err error
		d, err = p.opts.Client.Details(ctx, placeID)
		return err
	})
	return d, err
}

func (p *Populator) venue(kind string, d *Details) *models.VenueRecord {
	neighborhood := AssignNeighborhood(d.Address, p.opts.Neighborhoods)
	photos := d.PhotoRefs
	if len(photos) > MaxPhotoRefs {
		photos = photos[:MaxPhotoRefs]
	}
	return &models.VenueRecord{
		PlaceID:      d.PlaceID,
		Slug:         VenueSlug(d.Name, neighborhood),
		Name:         d.Name,
		Kind:         kind,
		Neighborhood: neighborhood,
		Address:      d.Address,
		Phone:        d.Phone,
		Website:      d.Website,
		OpeningHours: d.OpeningHours,
		Rating:       d.Rating,
		ReviewCount:  d.ReviewCount,
		PriceLevel:   d.PriceLevel,
		PhotoRefs:    photos,
		Latitude:     d.Latitude,
		Longitude:    d.Longitude,
		LastSyncedAt: p.opts.Now(),
	}
}
