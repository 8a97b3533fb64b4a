package affiliate

import (
	"net/url"
	"testing"
)

func testCodec() *Codec {
	return New(Config{
		BaseURL:         "https://linksredirect.com/",
		PublisherID:     "pub-123",
		TrafficSourceID: "bangalorelife",
		CampaignType:    "cps",
	})
}

func TestWrapRoundTripsDestination(t *testing.T) {
	c := testCodec()
	destinations := []string{
		"https://in.bookmyshow.com/bengaluru/events/zakir-khan-live/ET00123456",
		"https://insider.in/sunburn-arena-ft-alan-walker/event?utm_source=x&a=b c",
		"https://example.com/path#frag",
	}

	for _, dest := range destinations {
		wrapped := c.Wrap(dest, "bms-comedy")
		u, err := url.Parse(wrapped)
		if err != nil {
			t.Fatalf("Wrap(%q) produced unparsable URL %q: %v", dest, wrapped, err)
		}
		if got := u.Query().Get(ParamURL); got != dest {
			t.Errorf("decoded url param = %q; want %q", got, dest)
		}
	}
}

func TestWrapCarriesDeploymentIdentifiers(t *testing.T) {
	wrapped := testCodec().Wrap("https://insider.in/x/event", "")
	u, err := url.Parse(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "linksredirect.com" {
		t.Errorf("host: got %q, want linksredirect.com", u.Host)
	}

	q := u.Query()
	want := map[string]string{
		ParamPublisher: "pub-123",
		ParamSource:    "bangalorelife",
		ParamCampaign:  "cps",
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("param %s: got %q, want %q", k, q.Get(k), v)
		}
	}
	if q.Has(ParamTag) {
		t.Error("empty tag should not be appended")
	}
}

func TestWrapTagIsAdvisory(t *testing.T) {
	c := testCodec()
	dest := "https://in.bookmyshow.com/bengaluru/events/a/ET00000001"

	tagged, _ := url.Parse(c.Wrap(dest, "ins-kids & family"))
	untagged, _ := url.Parse(c.Wrap(dest, ""))

	if tagged.Query().Get(ParamTag) != "ins-kids & family" {
		t.Errorf("tag: got %q", tagged.Query().Get(ParamTag))
	}
	if tagged.Query().Get(ParamURL) != untagged.Query().Get(ParamURL) {
		t.Error("tag must not change the destination")
	}
}

func TestWrapIsDeterministic(t *testing.T) {
	c := testCodec()
	dest := "https://in.bookmyshow.com/bengaluru/events/a/ET00000001"
	if c.Wrap(dest, "t") != c.Wrap(dest, "t") {
		t.Error("Wrap should be deterministic")
	}
}

func TestWrapAppendsToBaseWithQuery(t *testing.T) {
	c := New(Config{BaseURL: "https://track.example/r?v=2", PublisherID: "p"})
	u, err := url.Parse(c.Wrap("https://a.example/b", ""))
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("v") != "2" || u.Query().Get(ParamPublisher) != "p" {
		t.Errorf("unexpected query %v", u.Query())
	}
}
