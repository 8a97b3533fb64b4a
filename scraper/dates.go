package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IST is the reference timezone for listing dates.
var IST = time.FixedZone("IST", 5*3600+30*60)

// DefaultLeadTime is used as the start date when a listing shows no date.
const DefaultLeadTime = 7 * 24 * time.Hour

var dayMonthRegexp = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)

var monthLookup = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDayMonth finds the first "15 Mar" style date in text and returns its
// next occurrence on or after the current day in IST. Listings carry no year,
// so a date already in the past is read as next year's occurrence and 29 Feb
// as the next leap day. A genuinely stale listing therefore rolls forward
// indefinitely. Dates that never exist, such as 31 Apr, are rejected.
func ParseDayMonth(text string, now time.Time) (time.Time, bool) {
	m := dayMonthRegexp.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	month := monthLookup[strings.ToLower(m[2])]

	now = now.In(IST)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, IST)
	for year := now.Year(); year <= now.Year()+maxYearsAhead; year++ {
		t := time.Date(year, month, day, 0, 0, 0, 0, IST)
		if t.Day() != day || t.Before(today) {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// maxYearsAhead bounds the search for the next valid occurrence. It spans
// the eight-year leap day gap around a skipped century.
const maxYearsAhead = 8

// DefaultStartDate is the start date assigned when no date is found.
func DefaultStartDate(now time.Time) time.Time {
	return now.In(IST).Add(DefaultLeadTime)
}

// ParseTimestamp reads a machine-readable date as found in datetime
// attributes and structured-data meta tags.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, IST); err == nil {
			return t.In(IST), true
		}
	}
	return time.Time{}, false
}
