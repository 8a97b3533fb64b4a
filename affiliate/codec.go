// Package affiliate wraps outbound booking links with affiliate tracking.
//
// Every booking link shown to readers must be produced by Codec.Wrap; the
// untouched destination is kept only for debugging.
package affiliate

import (
	"net/url"
	"strings"
)

// Query parameter names understood by the tracking redirector.
const (
	ParamURL       = "url"
	ParamPublisher = "pub_id"
	ParamSource    = "source"
	ParamCampaign  = "campaign"
	ParamTag       = "subid"
)

// Config identifies one deployment's affiliate account.
type Config struct {
	BaseURL         string
	PublisherID     string
	TrafficSourceID string
	CampaignType    string
}

// Codec produces tracking URLs for a single affiliate account.
type Codec struct {
	cfg Config
}

// New creates a Codec bound to cfg.
func New(cfg Config) *Codec {
	return &Codec{cfg: cfg}
}

// Wrap returns destination routed through the tracking redirector. tag is an
// optional internal attribution label and never alters the destination.
// Wrap does not validate destination.
func (c *Codec) Wrap(destination, tag string) string {
	q := url.Values{}
	q.Set(ParamPublisher, c.cfg.PublisherID)
	q.Set(ParamSource, c.cfg.TrafficSourceID)
	q.Set(ParamCampaign, c.cfg.CampaignType)
	q.Set(ParamURL, destination)
	if tag != "" {
		q.Set(ParamTag, tag)
	}

	base := c.cfg.BaseURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
