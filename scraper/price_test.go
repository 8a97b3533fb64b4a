package scraper

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text    string
		wantRaw string
		wantMin int
		wantOK  bool
	}{
		{"₹999 onwards", "₹999 onwards", 999, true},
		{"₹ 1,499 onwards", "₹ 1,499 onwards", 1499, true},
		{"Rs. 250", "Rs. 250", 250, true},
		{"INR 5000", "INR 5000", 5000, true},
		{"Starts at\n₹499", "₹499", 499, true},
		{"Free", "Free", 0, true},
		{"Free entry", "Free entry", 0, true},
		{"Price on request", "", 0, false},
		{"999", "", 0, false},
		{"", "", 0, false},
	}

	for _, tt := range tests {
		raw, min, ok := ParsePrice(tt.text)
		if raw != tt.wantRaw || min != tt.wantMin || ok != tt.wantOK {
			t.Errorf("ParsePrice(%q) = (%q, %d, %v); want (%q, %d, %v)",
				tt.text, raw, min, ok, tt.wantRaw, tt.wantMin, tt.wantOK)
		}
	}
}
