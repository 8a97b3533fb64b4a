package services

import (
	"bangalorelife-scraper/models"
	"bangalorelife-scraper/utils"
)

// Dedup drops listings whose (source, source record id) pair was already
// seen in this run. The first occurrence wins.
type Dedup struct {
	logger *utils.Logger
}

// NewDedup creates a Dedup with the given logger.
func NewDedup(logger *utils.Logger) *Dedup {
	return &Dedup{logger: logger}
}

// Apply returns the unique listings in their original order.
func (d *Dedup) Apply(listings []*models.ScrapedListing) []*models.ScrapedListing {
	seen := utils.NewKeySet()
	result := make([]*models.ScrapedListing, 0, len(listings))

	for _, l := range listings {
		if !seen.Add(l.Key()) {
			if d.logger != nil {
				d.logger.Debug("[dedup] Duplicate %s skipped (%q)", l.Key(), l.Title)
			}
			continue
		}
		result = append(result, l)
	}

	if d.logger != nil {
		d.logger.Info("[dedup] %d -> %d listings (dropped %d)",
			len(listings), len(result), len(listings)-len(result))
	}
	return result
}

// UniqueSlugs drops events whose slug already occurred earlier in events.
// A bulk upsert cannot touch the same slug twice in one statement.
func (d *Dedup) UniqueSlugs(events []*models.CanonicalEvent) []*models.CanonicalEvent {
	seen := utils.NewKeySet()
	result := make([]*models.CanonicalEvent, 0, len(events))

	for _, e := range events {
		if !seen.Add(e.Slug) {
			if d.logger != nil {
				d.logger.Warn("[dedup] Slug %s already taken, dropping %s|%s (%q)",
					e.Slug, e.SourceName, e.SourceEventID, e.Title)
			}
			continue
		}
		result = append(result, e)
	}
	return result
}
