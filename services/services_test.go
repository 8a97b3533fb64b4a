package services

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"bangalorelife-scraper/affiliate"
	"bangalorelife-scraper/models"
	"bangalorelife-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func testNormalizer() *Normalizer {
	codec := affiliate.New(affiliate.Config{
		BaseURL:         "https://linksredirect.com/",
		PublisherID:     "pub-1",
		TrafficSourceID: "bangalorelife",
		CampaignType:    "cps",
	})
	return NewNormalizer(codec, "Bangalore", "INR", newTestLogger())
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Zakir Khan Live!", "zakir-khan-live"},
		{"  --Sunburn  Arena ft. Alan Walker-- ", "sunburn-arena-ft-alan-walker"},
		{"Kids' Workshop: Clay & Paint", "kids-workshop-clay-paint"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestEventSlugIsStable(t *testing.T) {
	a := EventSlug("Zakir Khan Live!", models.SourceBookMyShow, "ET00123456")
	b := EventSlug("Zakir Khan Live!", models.SourceBookMyShow, "ET00123456")
	if a != b {
		t.Errorf("slug not stable: %q vs %q", a, b)
	}
	if want := "zakir-khan-live-00123456"; a != want {
		t.Errorf("EventSlug = %q; want %q", a, want)
	}
}

func TestEventSlugCapsTitleLength(t *testing.T) {
	title := strings.Repeat("very long title ", 20)
	got := EventSlug(title, models.SourceInsider, "some-insider-slug")
	parts := got[:len(got)-SlugSuffixLen-1]
	if len(parts) > MaxSlugTitleLen {
		t.Errorf("title part has %d chars, cap is %d: %q", len(parts), MaxSlugTitleLen, got)
	}
	if strings.Contains(got, "--") || strings.HasPrefix(got, "-") {
		t.Errorf("malformed slug %q", got)
	}
}

func TestEventSlugSeparatesSameTitleInsiderEvents(t *testing.T) {
	a := EventSlug("Comedy Open Mic", models.SourceInsider, "comedy-open-mic-indiranagar-bengaluru")
	b := EventSlug("Comedy Open Mic", models.SourceInsider, "comedy-open-mic-koramangala-bengaluru")
	if a == b {
		t.Fatalf("same-title events share slug %q", a)
	}
	for _, got := range []string{a, b} {
		if !strings.HasPrefix(got, "comedy-open-mic-") || len(got) != len("comedy-open-mic-")+SlugSuffixLen {
			t.Errorf("EventSlug = %q; want title plus %d-char suffix", got, SlugSuffixLen)
		}
	}
	if again := EventSlug("Comedy Open Mic", models.SourceInsider, "Comedy-Open-Mic-Indiranagar-Bengaluru"); again != a {
		t.Errorf("slug not stable across id case: %q vs %q", again, a)
	}
}

func TestEventSlugFallsBackForEmptyTitles(t *testing.T) {
	if got := EventSlug("ಕನ್ನಡ ನಾಟಕ", models.SourceInsider, "kannada-natak"); !strings.HasPrefix(got, "event-") {
		t.Errorf("EventSlug = %q; want event- prefix", got)
	}
}

func TestNormalizeWrapsBookingURL(t *testing.T) {
	n := testNormalizer()
	price := 999
	raw := "₹999 onwards"
	l := &models.ScrapedListing{
		Source:         models.SourceBookMyShow,
		SourceRecordID: "ET00123456",
		Title:          "Zakir Khan Live",
		Category:       models.CategoryComedy,
		DestinationURL: "https://in.bookmyshow.com/bengaluru/events/zakir-khan-live/ET00123456?src=a&b=c d",
		RawPriceText:   &raw,
		ParsedMinPrice: &price,
		StartDate:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	e := n.Normalize(l)

	if e.BookingURL != l.DestinationURL {
		t.Errorf("BookingURL = %q; want untouched destination", e.BookingURL)
	}
	u, err := url.Parse(e.AffiliateURL)
	if err != nil {
		t.Fatalf("AffiliateURL unparsable: %v", err)
	}
	if got := u.Query().Get(affiliate.ParamURL); got != e.BookingURL {
		t.Errorf("affiliate url param decodes to %q; want %q", got, e.BookingURL)
	}
	if got := u.Query().Get(affiliate.ParamTag); got != "bms-comedy" {
		t.Errorf("tracking tag = %q; want bms-comedy", got)
	}
	if !strings.HasPrefix(e.Slug, "zakir-khan-live-") {
		t.Errorf("Slug = %q", e.Slug)
	}
	if e.City != "Bangalore" || e.PriceCurrency != "INR" || !e.IsActive {
		t.Errorf("deployment fields not applied: %+v", e)
	}
	if e.Category != models.CategoryComedy || e.SourceEventID != "ET00123456" {
		t.Errorf("identity fields wrong: %+v", e)
	}
	if e.Public().BookingURL != e.AffiliateURL {
		t.Error("public view must expose the affiliate URL as its booking link")
	}
}

func TestDedupFirstSeenWins(t *testing.T) {
	d := NewDedup(newTestLogger())
	in := []*models.ScrapedListing{
		{Source: models.SourceBookMyShow, SourceRecordID: "ET1", Title: "Original Title"},
		{Source: models.SourceInsider, SourceRecordID: "ET1", Title: "Other Source"},
		{Source: models.SourceBookMyShow, SourceRecordID: "ET1", Title: "Corrected Title"},
		{Source: models.SourceBookMyShow, SourceRecordID: "ET2", Title: "Second"},
	}

	out := d.Apply(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 unique listings, got %d", len(out))
	}
	if out[0].Title != "Original Title" {
		t.Errorf("first occurrence should win, got %q", out[0].Title)
	}
	if out[1].Source != models.SourceInsider {
		t.Error("same id from another source is a different listing")
	}
}

func TestUniqueSlugsKeepsFirstEvent(t *testing.T) {
	d := NewDedup(newTestLogger())
	in := []*models.CanonicalEvent{
		{Slug: "open-mic-1a2b3c4d", SourceName: models.SourceInsider, SourceEventID: "first"},
		{Slug: "open-mic-5e6f7a8b", SourceName: models.SourceInsider, SourceEventID: "second"},
		{Slug: "open-mic-1a2b3c4d", SourceName: models.SourceInsider, SourceEventID: "third"},
	}

	out := d.UniqueSlugs(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 events, got %d", len(out))
	}
	if out[0].SourceEventID != "first" || out[1].SourceEventID != "second" {
		t.Errorf("order or winner changed: %s, %s", out[0].SourceEventID, out[1].SourceEventID)
	}
}

type item struct {
	id  string
	bad bool
}

func TestWriteBatchBulkSuccess(t *testing.T) {
	singleCalls := 0
	res := WriteBatch(context.Background(), []item{{id: "a"}, {id: "b"}},
		func(context.Context, []item) error { return nil },
		func(context.Context, item) error { singleCalls++; return nil },
		func(i item) string { return i.id },
		newTestLogger(),
	)
	if res.Written != 2 || res.Failed != 0 || res.UsedFallback {
		t.Errorf("unexpected result %+v", res)
	}
	if singleCalls != 0 {
		t.Errorf("individual tier should not run after bulk success, ran %d times", singleCalls)
	}
}

func TestWriteBatchFallsBackAndCountsFailures(t *testing.T) {
	items := make([]item, 0, 200)
	for i := 0; i < 200; i++ {
		items = append(items, item{id: string(rune('a' + i%26)), bad: i == 57})
	}
	rejected := errors.New("constraint violation")

	res := WriteBatch(context.Background(), items,
		func(context.Context, []item) error { return rejected },
		func(_ context.Context, it item) error {
			if it.bad {
				return rejected
			}
			return nil
		},
		func(i item) string { return i.id },
		newTestLogger(),
	)

	if !res.UsedFallback {
		t.Error("UsedFallback should be set")
	}
	if res.Attempted != 200 || res.Written != 199 || res.Failed != 1 {
		t.Errorf("result = %+v; want 199 written, 1 failed", res)
	}
	if len(res.Errors) != 2 || !errors.Is(res.Errors[1], rejected) {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestWriteBatchEmpty(t *testing.T) {
	called := false
	res := WriteBatch(context.Background(), nil,
		func(context.Context, []item) error { called = true; return nil },
		func(context.Context, item) error { return nil },
		func(i item) string { return i.id },
		nil,
	)
	if called || res.Attempted != 0 {
		t.Errorf("empty batch should not hit storage, result %+v", res)
	}
}

func sampleEvents() []*models.CanonicalEvent {
	p := func(n int) *int { return &n }
	return []*models.CanonicalEvent{
		{Title: "A", Category: models.CategoryComedy, PriceMin: p(999)},
		{Title: "B", Category: models.CategoryComedy, PriceMin: p(499)},
		{Title: "C", Category: models.CategoryConcerts, PriceMin: p(2500)},
		{Title: "D", Category: models.CategoryKids},
		{Title: "E", Category: models.CategoryKids, PriceMin: p(0)},
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEvents())

	if r.TotalEvents != 5 || r.PricedEvents != 4 {
		t.Errorf("counts: total %d priced %d; want 5 and 4", r.TotalEvents, r.PricedEvents)
	}
	if r.MinPrice != 0 || r.MaxPrice != 2500 {
		t.Errorf("min/max: got %d/%d; want 0/2500", r.MinPrice, r.MaxPrice)
	}
	if r.AveragePrice != 999.5 {
		t.Errorf("AveragePrice: got %.2f, want 999.50", r.AveragePrice)
	}
	if r.Cheapest == nil || r.Cheapest.Title != "E" {
		t.Errorf("Cheapest = %+v; want E", r.Cheapest)
	}
	if r.EventsByCategory[models.CategoryComedy] != 2 || r.EventsByCategory[models.CategoryKids] != 2 {
		t.Errorf("category counts = %v", r.EventsByCategory)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	r := NewInsightService(newTestLogger()).Generate(nil)
	if r.TotalEvents != 0 || r.PricedEvents != 0 {
		t.Errorf("expected an empty report, got %+v", r)
	}
}

func TestPrintRunReportsFailures(t *testing.T) {
	var buf bytes.Buffer
	svc := NewInsightService(newTestLogger())
	svc.out = &buf

	svc.PrintRun(&models.RunSummary{
		Source: models.SourceBookMyShow,
		Categories: []models.CategoryResult{
			{Category: models.CategoryComedy, Found: 12},
			{Category: models.CategoryKids, Err: errors.New("navigation timeout")},
		},
		TotalFound: 12,
		Unique:     11,
		Write:      models.WriteResult{Attempted: 11, Written: 10, Failed: 1, UsedFallback: true},
		Insights:   svc.Generate(sampleEvents()),
	})

	out := buf.String()
	for _, want := range []string{"BOOKMYSHOW", "navigation timeout", "individual fallback"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintRunLabelsPricesWithEventCurrency(t *testing.T) {
	var buf bytes.Buffer
	svc := NewInsightService(newTestLogger())
	svc.out = &buf

	events := sampleEvents()
	for _, e := range events {
		e.PriceCurrency = "AED"
	}
	svc.PrintRun(&models.RunSummary{Source: models.SourceInsider, Insights: svc.Generate(events)})

	out := buf.String()
	if !strings.Contains(out, "Prices (AED, minimum per event)") || strings.Contains(out, "INR") {
		t.Errorf("price header should name the event currency:\n%s", out)
	}
}
