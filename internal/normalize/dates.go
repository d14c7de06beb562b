package normalize

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order by ParseFlexibleDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-01",
	"2006/01",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006 Jan 2",
	"2006 Jan",
	"2006",
}

// monthNames maps lowercase month names and abbreviations to months.
var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// ParseFlexibleDate parses the date shapes seen across upstream APIs.
// It returns the zero time when nothing matches. Dates without a zone are UTC.
func ParseFlexibleDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	// "2020 Jan-Feb", "2020 Spring", "2020-2021": keep what can be read.
	fields := strings.Fields(raw)
	year, err := strconv.Atoi(strings.SplitN(fields[0], "-", 2)[0])
	if err != nil || year <= 0 {
		return time.Time{}
	}
	month := ""
	if len(fields) > 1 {
		month = strings.SplitN(fields[1], "-", 2)[0]
	}
	return DateFromParts(strconv.Itoa(year), month, "")
}

// DateFromParts builds a UTC date from year, month and day strings. The month may
// be numeric or a name. Missing or unreadable month and day default to 1; an
// unreadable year yields the zero time.
func DateFromParts(year, month, day string) time.Time {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y <= 0 {
		return time.Time{}
	}
	d := 1
	if parsed, err := strconv.Atoi(strings.TrimSpace(day)); err == nil && parsed >= 1 && parsed <= 31 {
		d = parsed
	}
	return time.Date(y, ParseMonth(month), d, 0, 0, 0, 0, time.UTC)
}

// DateFromInts builds a UTC date from CrossRef style date-parts ([year, month, day],
// trailing parts optional).
func DateFromInts(parts []int) time.Time {
	if len(parts) == 0 || parts[0] <= 0 {
		return time.Time{}
	}
	month, day := 1, 1
	if len(parts) > 1 && parts[1] >= 1 && parts[1] <= 12 {
		month = parts[1]
	}
	if len(parts) > 2 && parts[2] >= 1 && parts[2] <= 31 {
		day = parts[2]
	}
	return time.Date(parts[0], time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ParseMonth parses a numeric or named month, defaulting to January.
func ParseMonth(month string) time.Month {
	month = strings.TrimSpace(month)
	if month == "" {
		return time.January
	}
	if m, err := strconv.Atoi(month); err == nil && m >= 1 && m <= 12 {
		return time.Month(m)
	}
	if m, ok := monthNames[strings.ToLower(month)]; ok {
		return m
	}
	return time.January
}
